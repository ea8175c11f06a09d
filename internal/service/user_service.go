package service

import (
	"context"
	"errors"
	"strings"

	"ignist/internal/logging"
	"ignist/internal/models"
	"ignist/internal/repository"
	"ignist/internal/store"
)

// ProfilePatch holds the fields to change; nil means unchanged.
type ProfilePatch struct {
	UserName *string
	LastName *string
	Email    *string
	Role     *string
}

type UserService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateProfile returns a response describing the outcome. Business
	// failures come with both a response and the matching error.
	UpdateProfile(ctx context.Context, currentEmail string, patch ProfilePatch) (*models.ServiceResponse, error)
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	users  repository.UserRepository
	logger logging.Logger
}

func NewUserService(users repository.UserRepository, logger logging.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger.With("component", "user_service"),
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func failed(message string, err error) (*models.ServiceResponse, error) {
	return &models.ServiceResponse{Success: false, Message: message}, err
}

func (s *userService) UpdateProfile(ctx context.Context, currentEmail string, patch ProfilePatch) (*models.ServiceResponse, error) {
	if patch.Role != nil && *patch.Role != models.RoleNormal && *patch.Role != models.RoleAdmin {
		return failed("Unknown role", validationError("role must be %s or %s", models.RoleNormal, models.RoleAdmin))
	}
	if patch.Email != nil && NormalizeEmail(*patch.Email) == "" {
		return failed("Email cannot be empty", validationError("email cannot be empty"))
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(currentEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failed("User not found", ErrNotFound)
		}
		return nil, err
	}

	if patch.Email != nil {
		newEmail := NormalizeEmail(*patch.Email)
		if newEmail != user.Email {
			owner, err := s.users.GetByEmail(ctx, newEmail)
			switch {
			case err == nil && owner.ID != user.ID:
				return failed("Email is already in use", ErrEmailInUse)
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			user.Email = newEmail
		}
	}

	if patch.UserName != nil {
		user.UserName = strings.TrimSpace(*patch.UserName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		err = userWriteError(err)
		switch {
		case errors.Is(err, ErrEmailInUse):
			return failed("Email is already in use", err)
		case errors.Is(err, ErrConcurrentUpdate):
			return failed("User was modified concurrently, retry", err)
		case errors.Is(err, ErrNotFound):
			return failed("User not found", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "profile updated", "userId", user.ID)
	return &models.ServiceResponse{Success: true, Message: "User updated successfully"}, nil
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Info(ctx, "user deleted", "userId", userID)
	return nil
}
