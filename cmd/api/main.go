package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"ignist/cmd/app"
	"ignist/internal/config"
	handlers "ignist/internal/handler"
	"ignist/internal/logging"
	"ignist/internal/middleware"
	"ignist/internal/models"
)

// Routes builds the router. limiter may be nil.
func Routes(h *handlers.Handlers, tokens middleware.TokenParser, limiter middleware.Limiter, proxies middleware.ProxyList, logger logging.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	protect := func(hf http.HandlerFunc) http.Handler {
		return middleware.Chain(hf, middleware.AuthMiddleware(tokens, logger))
	}
	adminOnly := func(hf http.HandlerFunc) http.Handler {
		return middleware.Chain(hf, middleware.RoleMiddleware(models.RoleAdmin), middleware.AuthMiddleware(tokens, logger))
	}
	limited := func(scope string, hf http.HandlerFunc) http.Handler {
		if limiter == nil {
			return hf
		}
		return middleware.Chain(hf, middleware.RateLimit(limiter, scope, proxies, logger))
	}

	r.HandleFunc("/", handlers.HomeHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.Handle("/auth/login", limited("login", h.Login)).Methods(http.MethodPost)
	api.Handle("/auth/forgot-password", limited("forgot-password", h.ForgotPassword)).Methods(http.MethodPost)
	api.Handle("/auth/reset-password", limited("reset-password", h.ResetPassword)).Methods(http.MethodPost)
	api.Handle("/auth/update-password", protect(h.UpdatePassword)).Methods(http.MethodPost)

	api.Handle("/users/me", protect(h.GetCurrentUser)).Methods(http.MethodGet)
	api.Handle("/users/me", protect(h.UpdateCurrentUser)).Methods(http.MethodPut)
	api.Handle("/users", adminOnly(h.ListUsers)).Methods(http.MethodGet)
	api.Handle("/users/{id}", protect(h.GetUser)).Methods(http.MethodGet)
	api.Handle("/users/{id}", adminOnly(h.DeleteUser)).Methods(http.MethodDelete)

	api.HandleFunc("/publications", h.GetPublications).Methods(http.MethodGet)
	api.HandleFunc("/publications/latest", h.GetLatestPublication).Methods(http.MethodGet)
	api.HandleFunc("/publications/{id}", h.GetPublication).Methods(http.MethodGet)
	api.Handle("/publications", adminOnly(h.CreatePublication)).Methods(http.MethodPost)
	api.Handle("/publications/{id}", adminOnly(h.UpdatePublication)).Methods(http.MethodPut)
	api.Handle("/publications/{id}", adminOnly(h.DeletePublication)).Methods(http.MethodDelete)
	api.Handle("/publications/{id}/attachments", adminOnly(h.AddAttachment)).Methods(http.MethodPost)
	api.Handle("/publications/{id}/attachments/{attachmentId}", adminOnly(h.DeleteAttachment)).Methods(http.MethodDelete)

	return r
}

func main() {
	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if cfg.JWT.SecretKey == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.App(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", logging.ErrorAttrs(err)...)
		os.Exit(1)
	}
	defer application.Close()

	middleware.RegisterMetrics(prometheus.DefaultRegisterer)

	h := handlers.NewHandlers(application.Services, application.Repo, cfg, logger)
	router := Routes(h, application.Tokens, application.Limiter, application.Proxies, logger)

	handlerChain := middleware.Chain(
		router,
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.LoggingMiddleware(logger),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server started", "addr", server.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server failed", logging.ErrorAttrs(err)...)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown failed", logging.ErrorAttrs(err)...)
	}
}
