package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"ignist/internal/auth"
	"ignist/internal/logging"
	"ignist/internal/mail"
	"ignist/internal/models"
	"ignist/internal/repository"
	"ignist/internal/store"
)

type RegisterRequest struct {
	UserName string
	LastName string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	// Login returns the user and a signed access token.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, secret, newPassword string) error
	UpdatePassword(ctx context.Context, email, oldPassword, newPassword, confirmPassword string) error
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type AuthConfig struct {
	Policy   auth.PasswordPolicy
	ResetTTL time.Duration
	ResetURL string
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	mailer mail.Sender
	cfg    AuthConfig
	logger logging.Logger

	now            func() time.Time
	generateSecret func() (string, string, error)
}

func NewAuthService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens TokenIssuer,
	mailer mail.Sender,
	cfg AuthConfig,
	logger logging.Logger,
) AuthService {
	return &authService{
		users:          users,
		hasher:         hasher,
		tokens:         tokens,
		mailer:         mailer,
		cfg:            cfg,
		logger:         logger.With("component", "auth_service"),
		now:            time.Now,
		generateSecret: auth.GenerateResetSecret,
	}
}

// NormalizeEmail is the canonical form used for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.UserName) == "" {
		return nil, validationError("userName and email are required")
	}

	if err := s.cfg.Policy.Validate(req.Password); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateUser
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     strings.TrimSpace(req.UserName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleNormal,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "userId", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Warn(ctx, "login failed", "userId", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	secret, hash, err := s.generateSecret()
	if err != nil {
		return err
	}

	// A new request replaces any pending secret.
	user.PasswordReset = &models.ResetSecret{
		SecretHash: hash,
		ExpiresAt:  s.now().UTC().Add(s.cfg.ResetTTL),
	}

	if err := s.users.Update(ctx, user); err != nil {
		return userWriteError(err)
	}

	subject, body := s.resetEmail(user, secret)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error(ctx, "reset email not delivered", append(logging.ErrorAttrs(err), "userId", user.ID)...)
		return fmt.Errorf("send reset email: %w", err)
	}

	s.logger.Info(ctx, "password reset requested", "userId", user.ID, "expiresAt", user.PasswordReset.ExpiresAt)
	return nil
}

func (s *authService) resetEmail(user *models.User, secret string) (string, string) {
	link := s.cfg.ResetURL + "?token=" + url.QueryEscape(secret) + "&email=" + url.QueryEscape(user.Email)

	body := fmt.Sprintf(
		`<p>Hello %s,</p>`+
			`<p>Use the link below to choose a new password. It expires in %s.</p>`+
			`<p><a href="%s">Reset password</a></p>`+
			`<p>Or enter this code: <strong>%s</strong></p>`+
			`<p>If you did not ask for a reset, ignore this message.</p>`,
		html.EscapeString(user.UserName),
		s.cfg.ResetTTL,
		html.EscapeString(link),
		html.EscapeString(secret),
	)

	return "Reset your password", body
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, secret, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredSecret
		}
		return err
	}

	pending := user.PasswordReset
	if pending == nil || pending.Expired(s.now()) || !auth.VerifyResetSecret(secret, pending.SecretHash) {
		s.logger.Warn(ctx, "password reset rejected", "userId", user.ID)
		return ErrInvalidOrExpiredSecret
	}

	if err := s.cfg.Policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.PasswordReset = nil

	if err := s.users.Update(ctx, user); err != nil {
		// Someone else consumed or replaced the secret first.
		if errors.Is(err, store.ErrPreconditionFailed) || errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredSecret
		}
		return err
	}

	s.logger.Info(ctx, "password reset completed", "userId", user.ID)
	return nil
}

func (s *authService) UpdatePassword(ctx context.Context, email, oldPassword, newPassword, confirmPassword string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !s.hasher.Verify(user.PasswordHash, oldPassword) {
		return ErrInvalidOldPassword
	}

	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	if err := s.cfg.Policy.Validate(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.PasswordReset = nil

	if err := s.users.Update(ctx, user); err != nil {
		return userWriteError(err)
	}

	s.logger.Info(ctx, "password updated", "userId", user.ID)
	return nil
}

// userWriteError maps store outcomes of a user replace to business errors.
func userWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrPreconditionFailed):
		return ErrConcurrentUpdate
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrEmailInUse
	default:
		return err
	}
}
