package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"ignist/internal/config"
	"ignist/internal/logging"
	"ignist/internal/service"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	AuthService        service.AuthService
	UserService        service.UserService
	PublicationService service.PublicationService
	Health             HealthChecker
	Cfg                *config.Config
	Validate           *validator.Validate
	Logger             logging.Logger
}

func NewHandlers(services *service.Service, health HealthChecker, cfg *config.Config, logger logging.Logger) *Handlers {
	return &Handlers{
		AuthService:        services.Auth,
		UserService:        services.User,
		PublicationService: services.Publication,
		Health:             health,
		Cfg:                cfg,
		Validate:           validator.New(),
		Logger:             logger.With("component", "http"),
	}
}
