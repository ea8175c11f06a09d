package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"ignist/internal/auth"
	"ignist/internal/models"
	"ignist/internal/service"
)

type UpdateProfileRequest struct {
	UserName *string `json:"userName" validate:"omitempty,min=1,max=64"`
	LastName *string `json:"lastName" validate:"omitempty,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=Normal Admin"`
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, toUserResponse(user), http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if req.Role != nil && claims.Role != models.RoleAdmin {
		WriteError(w, "Only administrators can change roles", http.StatusForbidden)
		return
	}

	resp, err := h.UserService.UpdateProfile(r.Context(), claims.Email, service.ProfilePatch{
		UserName: req.UserName,
		LastName: req.LastName,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		// business failures carry their envelope
		if status := StatusFor(err); resp != nil && status != http.StatusInternalServerError {
			writeSuccess(w, resp, status)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, resp, http.StatusOK)
}

// GetUser returns a user to themselves or to an administrator.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	userID := mux.Vars(r)["id"]
	if userID != claims.UserID && claims.Role != models.RoleAdmin {
		WriteError(w, "Access denied", http.StatusForbidden)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, toUserResponse(user), http.StatusOK)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, toUserResponse(&users[i]))
	}

	writeSuccess(w, response, http.StatusOK)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	if err := h.UserService.DeleteUser(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: "User deleted"}, http.StatusOK)
}
