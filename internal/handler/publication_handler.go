package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"ignist/internal/auth"
	"ignist/internal/models"
	"ignist/internal/service"
)

type PublicationRequest struct {
	ID       string `json:"id" validate:"omitempty,max=128"`
	Title    string `json:"title" validate:"required,max=256"`
	Content  string `json:"content" validate:"required"`
	UserID   string `json:"userId" validate:"omitempty,max=128"`
	ParentID string `json:"parentId" validate:"omitempty,max=128"`
}

func (p PublicationRequest) toService() service.PublicationRequest {
	return service.PublicationRequest{
		ID:       p.ID,
		Title:    p.Title,
		Content:  p.Content,
		UserID:   p.UserID,
		ParentID: p.ParentID,
	}
}

// GetPublications returns the root publications with their children nested.
func (h *Handlers) GetPublications(w http.ResponseWriter, r *http.Request) {
	pubs, err := h.PublicationService.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, pubs, http.StatusOK)
}

func (h *Handlers) GetLatestPublication(w http.ResponseWriter, r *http.Request) {
	pub, err := h.PublicationService.GetLatest(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, pub, http.StatusOK)
}

func (h *Handlers) GetPublication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userId")

	pub, err := h.PublicationService.GetByID(r.Context(), id, userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, pub, http.StatusOK)
}

func (h *Handlers) CreatePublication(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	var req PublicationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	pub, err := h.PublicationService.Create(r.Context(), req.toService(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, pub, http.StatusCreated)
}

func (h *Handlers) UpdatePublication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req PublicationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	pub, err := h.PublicationService.Update(r.Context(), id, req.toService())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, pub, http.StatusOK)
}

func (h *Handlers) DeletePublication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userId")

	if err := h.PublicationService.Delete(r.Context(), id, userID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: "Publication deleted"}, http.StatusOK)
}

// AddAttachment stores the multipart "file" field against the publication.
func (h *Handlers) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userId")

	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		WriteError(w, "File is too large or the form is malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	attachment, err := h.PublicationService.AddAttachment(r.Context(), id, userID, header.Filename, file, header.Size)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, attachment, http.StatusCreated)
}

func (h *Handlers) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := r.URL.Query().Get("userId")

	if err := h.PublicationService.DeleteAttachment(r.Context(), vars["id"], userID, vars["attachmentId"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: "Attachment deleted"}, http.StatusOK)
}
