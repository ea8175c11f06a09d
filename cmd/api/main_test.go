package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ignist/internal/auth"
	"ignist/internal/config"
	handlers "ignist/internal/handler"
	"ignist/internal/logging"
	"ignist/internal/models"
)

type okHealth struct{}

func (okHealth) Ping(context.Context) error { return nil }

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func TestRoutes_Access(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", "ignist", "ignist-clients", time.Minute)
	normal, err := issuer.Issue(&models.User{ID: "u1", UserName: "ada", Email: "ada@example.com", Role: models.RoleNormal})
	require.NoError(t, err)

	h := &handlers.Handlers{
		Health:   okHealth{},
		Cfg:      &config.Config{},
		Validate: validator.New(),
		Logger:   logging.NewNop(),
	}
	router := Routes(h, issuer, denyAll{}, nil, logging.NewNop())

	tests := []struct {
		name           string
		method         string
		target         string
		token          string
		expectedStatus int
	}{
		{name: "home is public", method: http.MethodGet, target: "/", expectedStatus: http.StatusOK},
		{name: "health is public", method: http.MethodGet, target: "/health", expectedStatus: http.StatusOK},
		{name: "me needs a token", method: http.MethodGet, target: "/api/users/me", expectedStatus: http.StatusUnauthorized},
		{name: "user list is admin only", method: http.MethodGet, target: "/api/users", token: normal, expectedStatus: http.StatusForbidden},
		{name: "create publication is admin only", method: http.MethodPost, target: "/api/publications", token: normal, expectedStatus: http.StatusForbidden},
		{name: "delete attachment is admin only", method: http.MethodDelete, target: "/api/publications/p1/attachments/a1", token: normal, expectedStatus: http.StatusForbidden},
		{name: "login is rate limited", method: http.MethodPost, target: "/api/auth/login", expectedStatus: http.StatusTooManyRequests},
		{name: "unknown method", method: http.MethodPatch, target: "/api/publications", expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
