package service

import (
	"ignist/internal/auth"
	"ignist/internal/config"
	"ignist/internal/logging"
	"ignist/internal/mail"
	"ignist/internal/repository"
	"ignist/internal/storage"
)

type Service struct {
	User        UserService
	Publication PublicationService
	Auth        AuthService
}

type Deps struct {
	Hasher  auth.PasswordHasher
	Tokens  TokenIssuer
	Mailer  mail.Sender
	Storage storage.Storage
	Logger  logging.Logger
}

func NewService(rep *repository.Repository, cfg *config.Config, deps Deps) *Service {
	authCfg := AuthConfig{
		Policy: auth.PasswordPolicy{
			MinLength:    cfg.Password.MinLength,
			RequireUpper: cfg.Password.RequireUpper,
			RequireLower: cfg.Password.RequireLower,
			RequireDigit: cfg.Password.RequireDigit,
		},
		ResetTTL: cfg.Password.ResetTTL,
		ResetURL: cfg.Mail.ResetURL,
	}

	return &Service{
		User:        NewUserService(rep.User, deps.Logger),
		Publication: NewPublicationService(rep.Publication, deps.Storage, deps.Logger),
		Auth:        NewAuthService(rep.User, deps.Hasher, deps.Tokens, deps.Mailer, authCfg, deps.Logger),
	}
}
