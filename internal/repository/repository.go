package repository

import (
	"context"

	"ignist/internal/models"
	"ignist/internal/store"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Update replaces the user if its version is still current.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID string) error
}

type PublicationRepository interface {
	Create(ctx context.Context, pub *models.Publication) error
	GetByID(ctx context.Context, pubID, userID string) (*models.Publication, error)
	// FindByID looks a publication up across all owners.
	FindByID(ctx context.Context, pubID string) (*models.Publication, error)
	List(ctx context.Context) ([]models.Publication, error)
	Upsert(ctx context.Context, pub *models.Publication) error
	Delete(ctx context.Context, pubID, userID string) error
}

type Repository struct {
	User        UserRepository
	Publication PublicationRepository

	containers []store.Container
}

func NewRepository(users, publications store.Container) *Repository {
	return &Repository{
		User:        NewUserRepository(users),
		Publication: NewPublicationRepository(publications),
		containers:  []store.Container{users, publications},
	}
}

// Ping checks that every container is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	for _, c := range r.containers {
		if err := c.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// UserPartitionKey selects the partition of a user document: its own id.
func UserPartitionKey(u *models.User) string {
	return u.ID
}

// PublicationPartitionKey selects the partition of a publication: its owner.
func PublicationPartitionKey(p *models.Publication) string {
	return p.UserID
}
