package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"ignist/internal/hierarchy"
	"ignist/internal/logging"
	"ignist/internal/models"
	"ignist/internal/repository"
	"ignist/internal/storage"
	"ignist/internal/store"
)

type PublicationRequest struct {
	ID       string
	Title    string
	Content  string
	UserID   string
	ParentID string
}

type PublicationService interface {
	// GetAll returns the root publications with their descendants attached.
	GetAll(ctx context.Context) ([]models.Publication, error)
	// GetByID reads from the owner's partition, or searches all owners when
	// userID is empty.
	GetByID(ctx context.Context, id, userID string) (*models.Publication, error)
	GetLatest(ctx context.Context) (*models.Publication, error)
	Create(ctx context.Context, req PublicationRequest, callerID string) (*models.Publication, error)
	Update(ctx context.Context, id string, req PublicationRequest) (*models.Publication, error)
	Delete(ctx context.Context, id, userID string) error
	AddAttachment(ctx context.Context, id, userID, fileName string, file io.Reader, size int64) (*models.Attachment, error)
	DeleteAttachment(ctx context.Context, id, userID, attachmentID string) error
}

type publicationService struct {
	publications repository.PublicationRepository
	storage      storage.Storage
	logger       logging.Logger
	now          func() time.Time
}

// NewPublicationService builds the service. files may be nil, in which case
// attachment operations fail with ErrAttachmentsDisabled.
func NewPublicationService(publications repository.PublicationRepository, files storage.Storage, logger logging.Logger) PublicationService {
	return &publicationService{
		publications: publications,
		storage:      files,
		logger:       logger.With("component", "publication_service"),
		now:          time.Now,
	}
}

func publicationError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrPublicationExists
	default:
		return err
	}
}

func (s *publicationService) GetAll(ctx context.Context) ([]models.Publication, error) {
	pubs, err := s.publications.List(ctx)
	if err != nil {
		return nil, err
	}

	forest := hierarchy.Build(pubs)
	if len(forest.Orphans) > 0 {
		s.logger.Warn(ctx, "publications with missing parent promoted to roots", "ids", forest.Orphans)
	}
	if len(forest.Cycles) > 0 {
		s.logger.Warn(ctx, "publication parent cycle broken", "ids", forest.Cycles)
	}
	if len(forest.Duplicates) > 0 {
		s.logger.Warn(ctx, "duplicate publication ids skipped", "ids", forest.Duplicates)
	}

	if forest.Roots == nil {
		return []models.Publication{}, nil
	}
	return forest.Roots, nil
}

func (s *publicationService) GetByID(ctx context.Context, id, userID string) (*models.Publication, error) {
	var (
		pub *models.Publication
		err error
	)
	if userID == "" {
		pub, err = s.publications.FindByID(ctx, id)
	} else {
		pub, err = s.publications.GetByID(ctx, id, userID)
	}
	if err != nil {
		return nil, publicationError(err)
	}
	return pub, nil
}

func (s *publicationService) GetLatest(ctx context.Context) (*models.Publication, error) {
	pubs, err := s.publications.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return nil, ErrNotFound
	}

	latest := pubs[0]
	for _, p := range pubs[1:] {
		if p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	return &latest, nil
}

func validatePublication(req PublicationRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return validationError("title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return validationError("content is required")
	}
	return nil
}

func (s *publicationService) parentExists(ctx context.Context, parentID string) error {
	if _, err := s.publications.FindByID(ctx, parentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationError("parent publication %s not found", parentID)
		}
		return err
	}
	return nil
}

func (s *publicationService) Create(ctx context.Context, req PublicationRequest, callerID string) (*models.Publication, error) {
	if err := validatePublication(req); err != nil {
		return nil, err
	}

	owner := req.UserID
	if owner == "" {
		owner = callerID
	}
	if owner == "" {
		return nil, validationError("userId is required")
	}

	// Ids are unique across owners. The store only keys on id within a
	// partition, so look the id up everywhere first.
	if req.ID != "" {
		_, err := s.publications.FindByID(ctx, req.ID)
		switch {
		case err == nil:
			return nil, ErrPublicationExists
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	if req.ParentID != "" {
		if err := s.parentExists(ctx, req.ParentID); err != nil {
			return nil, err
		}
	}

	pub := &models.Publication{
		ID:       req.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		UserID:   owner,
		ParentID: req.ParentID,
	}

	if err := s.publications.Create(ctx, pub); err != nil {
		return nil, publicationError(err)
	}

	s.logger.Info(ctx, "publication created", "publicationId", pub.ID, "userId", pub.UserID, "parentId", pub.ParentID)
	return pub, nil
}

func (s *publicationService) Update(ctx context.Context, id string, req PublicationRequest) (*models.Publication, error) {
	if req.ID != "" && req.ID != id {
		return nil, validationError("publication id in body does not match the route")
	}
	if req.UserID == "" {
		return nil, validationError("userId is required")
	}
	if err := validatePublication(req); err != nil {
		return nil, err
	}

	pub, err := s.publications.GetByID(ctx, id, req.UserID)
	if err != nil {
		return nil, publicationError(err)
	}

	if req.ParentID != pub.ParentID && req.ParentID != "" {
		if err := s.checkReparent(ctx, id, req.ParentID); err != nil {
			return nil, err
		}
	}

	pub.Title = strings.TrimSpace(req.Title)
	pub.Content = req.Content
	pub.ParentID = req.ParentID

	if err := s.publications.Upsert(ctx, pub); err != nil {
		return nil, publicationError(err)
	}

	s.logger.Info(ctx, "publication updated", "publicationId", pub.ID, "parentId", pub.ParentID)
	return pub, nil
}

func (s *publicationService) checkReparent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return validationError("a publication cannot be its own parent")
	}
	if err := s.parentExists(ctx, parentID); err != nil {
		return err
	}

	all, err := s.publications.List(ctx)
	if err != nil {
		return err
	}
	if hierarchy.IsDescendant(all, id, parentID) {
		return validationError("parent %s is a descendant of %s", parentID, id)
	}
	return nil
}

func (s *publicationService) Delete(ctx context.Context, id, userID string) error {
	if userID == "" {
		return validationError("userId is required")
	}

	pub, err := s.publications.GetByID(ctx, id, userID)
	if err != nil {
		return publicationError(err)
	}

	if err := s.publications.Delete(ctx, id, userID); err != nil {
		return publicationError(err)
	}

	if s.storage != nil {
		for _, a := range pub.Attachments {
			if err := s.storage.Delete(ctx, a.ObjectName); err != nil {
				s.logger.Warn(ctx, "attachment object not removed", append(logging.ErrorAttrs(err), "objectName", a.ObjectName)...)
			}
		}
	}

	s.logger.Info(ctx, "publication deleted", "publicationId", id, "userId", userID)
	return nil
}

func (s *publicationService) AddAttachment(ctx context.Context, id, userID, fileName string, file io.Reader, size int64) (*models.Attachment, error) {
	if s.storage == nil {
		return nil, ErrAttachmentsDisabled
	}
	if userID == "" {
		return nil, validationError("userId is required")
	}

	pub, err := s.publications.GetByID(ctx, id, userID)
	if err != nil {
		return nil, publicationError(err)
	}

	objectName, url, contentType, err := s.storage.Upload(ctx, id, fileName, file, size)
	if err != nil {
		return nil, err
	}

	attachment := models.Attachment{
		AttachmentID: uuid.New().String(),
		ObjectName:   objectName,
		URL:          url,
		FileName:     fileName,
		ContentType:  contentType,
		Size:         size,
		CreatedAt:    s.now().UTC(),
	}
	pub.Attachments = append(pub.Attachments, attachment)

	if err := s.publications.Upsert(ctx, pub); err != nil {
		// the object is useless without its metadata
		if delErr := s.storage.Delete(ctx, objectName); delErr != nil {
			s.logger.Warn(ctx, "orphaned attachment object", append(logging.ErrorAttrs(delErr), "objectName", objectName)...)
		}
		return nil, publicationError(err)
	}

	s.logger.Info(ctx, "attachment added", "publicationId", id, "attachmentId", attachment.AttachmentID)
	return &attachment, nil
}

func (s *publicationService) DeleteAttachment(ctx context.Context, id, userID, attachmentID string) error {
	if s.storage == nil {
		return ErrAttachmentsDisabled
	}
	if userID == "" {
		return validationError("userId is required")
	}

	pub, err := s.publications.GetByID(ctx, id, userID)
	if err != nil {
		return publicationError(err)
	}

	idx := -1
	for i, a := range pub.Attachments {
		if a.AttachmentID == attachmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	if err := s.storage.Delete(ctx, pub.Attachments[idx].ObjectName); err != nil {
		return err
	}

	pub.Attachments = append(pub.Attachments[:idx], pub.Attachments[idx+1:]...)
	if err := s.publications.Upsert(ctx, pub); err != nil {
		return publicationError(err)
	}

	s.logger.Info(ctx, "attachment deleted", "publicationId", id, "attachmentId", attachmentID)
	return nil
}
