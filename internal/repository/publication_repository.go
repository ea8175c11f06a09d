package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"ignist/internal/models"
	"ignist/internal/store"
)

type publicationRepository struct {
	publications store.Container
	now          func() time.Time
}

func NewPublicationRepository(publications store.Container) PublicationRepository {
	return &publicationRepository{publications: publications, now: time.Now}
}

// persisted returns a copy of pub without its derived child list.
func persisted(pub *models.Publication) *models.Publication {
	doc := *pub
	doc.ChildPublications = nil
	return &doc
}

func (r *publicationRepository) Create(ctx context.Context, pub *models.Publication) error {
	if pub.ID == "" {
		pub.ID = uuid.New().String()
	}

	now := r.now().UTC()
	pub.CreatedAt = now
	pub.UpdatedAt = now

	doc := persisted(pub)
	if err := r.publications.Create(ctx, PublicationPartitionKey(doc), doc); err != nil {
		return fmt.Errorf("create publication: %w", err)
	}

	pub.Version = doc.Version
	pub.ChildPublications = nil
	return nil
}

func (r *publicationRepository) GetByID(ctx context.Context, pubID, userID string) (*models.Publication, error) {
	var pub models.Publication

	if err := r.publications.Get(ctx, pubID, userID, &pub); err != nil {
		return nil, fmt.Errorf("get publication %s: %w", pubID, err)
	}
	return &pub, nil
}

func (r *publicationRepository) FindByID(ctx context.Context, pubID string) (*models.Publication, error) {
	var pubs []models.Publication

	if err := r.publications.Query(ctx, store.Filter{"id": pubID}, &pubs); err != nil {
		return nil, fmt.Errorf("find publication %s: %w", pubID, err)
	}
	if len(pubs) == 0 {
		return nil, fmt.Errorf("publication %s: %w", pubID, store.ErrNotFound)
	}
	return &pubs[0], nil
}

func (r *publicationRepository) List(ctx context.Context) ([]models.Publication, error) {
	var pubs []models.Publication

	if err := r.publications.Query(ctx, store.Filter{}, &pubs); err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	return pubs, nil
}

func (r *publicationRepository) Upsert(ctx context.Context, pub *models.Publication) error {
	pub.UpdatedAt = r.now().UTC()
	if pub.CreatedAt.IsZero() {
		pub.CreatedAt = pub.UpdatedAt
	}

	doc := persisted(pub)
	if err := r.publications.Upsert(ctx, PublicationPartitionKey(doc), doc); err != nil {
		return fmt.Errorf("upsert publication %s: %w", pub.ID, err)
	}

	pub.Version = doc.Version
	pub.ChildPublications = nil
	return nil
}

func (r *publicationRepository) Delete(ctx context.Context, pubID, userID string) error {
	if err := r.publications.Delete(ctx, pubID, userID); err != nil {
		return fmt.Errorf("delete publication %s: %w", pubID, err)
	}
	return nil
}
