package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"ignist/internal/auth"
	"ignist/internal/config"
	"ignist/internal/database"
	"ignist/internal/logging"
	"ignist/internal/mail"
	"ignist/internal/middleware"
	"ignist/internal/repository"
	"ignist/internal/service"
	"ignist/internal/storage"
	"ignist/internal/store"
)

type Application struct {
	Repo     *repository.Repository
	Services *service.Service
	Tokens   *auth.TokenIssuer
	// Limiter is nil when no Redis URI is configured.
	Limiter middleware.Limiter
	Proxies middleware.ProxyList

	closers []func() error
}

// Close releases connections in reverse order of opening.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openContainers(ctx context.Context, cfg *config.Config, logger logging.Logger, a *Application) (users, publications store.Container, err error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		m, err := database.ConnectMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, m.Close)

		if err := m.EnsureUserIndexes(ctx, cfg.Store.UsersContainer); err != nil {
			return nil, nil, err
		}

		users = store.NewMongoContainer(m.Database, cfg.Store.UsersContainer, "_id")
		publications = store.NewMongoContainer(m.Database, cfg.Store.PublicationsContainer, "userId")
		return users, publications, nil

	case config.StorePostgres:
		db, err := database.ConnectDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.CloseDB)

		users = store.NewPostgresContainer(db.DB, cfg.Store.UsersContainer)
		publications = store.NewPostgresContainer(db.DB, cfg.Store.PublicationsContainer)
		return users, publications, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// App connects every backing service and builds the service layer.
func App(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Application, error) {
	a := &Application{}

	users, publications, err := openContainers(ctx, cfg, logger, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Repo = repository.NewRepository(users, publications)

	var files storage.Storage
	if cfg.MinIO.Enabled {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("init minio: %w", err)
		}
		files = minioClient
	} else {
		logger.Warn(ctx, "attachment storage disabled")
	}

	a.Proxies, err = middleware.ParseProxies(cfg.Redis.TrustedProxies)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Redis.URI != "" {
		var client *redis.Client
		client, err = database.ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		a.Limiter = middleware.NewRedisLimiter(client, cfg.Redis.LoginLimit, cfg.Redis.LimitWindow)
	} else {
		logger.Warn(ctx, "rate limiting disabled, REDIS_URI is empty")
	}

	mailer, err := mail.New(cfg.Mail, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Tokens = auth.NewTokenIssuer(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TokenDuration)

	a.Services = service.NewService(a.Repo, cfg, service.Deps{
		Hasher:  auth.NewBcryptHasher(cfg.Password.BcryptCost),
		Tokens:  a.Tokens,
		Mailer:  mailer,
		Storage: files,
		Logger:  logger,
	})

	return a, nil
}
