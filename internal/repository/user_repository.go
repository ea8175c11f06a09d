package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"ignist/internal/models"
	"ignist/internal/store"
)

type userRepository struct {
	users store.Container
	now   func() time.Time
}

func NewUserRepository(users store.Container) UserRepository {
	return &userRepository{users: users, now: time.Now}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	// create user id
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleNormal
	}

	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := r.users.Create(ctx, UserPartitionKey(user), user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User

	if err := r.users.Get(ctx, userID, userID, &user); err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User

	if err := r.users.Query(ctx, store.Filter{"email": email}, &users); err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user with email %s: %w", email, store.ErrNotFound)
	}
	return &users[0], nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User

	if err := r.users.Query(ctx, store.Filter{}, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	prev := user.UpdatedAt
	user.UpdatedAt = r.now().UTC()

	if err := r.users.Replace(ctx, UserPartitionKey(user), user); err != nil {
		user.UpdatedAt = prev
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	if err := r.users.Delete(ctx, userID, userID); err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}
	return nil
}
