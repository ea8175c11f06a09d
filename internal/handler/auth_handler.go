package handlers

import (
	"errors"
	"net/http"
	"time"

	"ignist/internal/auth"
	"ignist/internal/models"
	"ignist/internal/service"
)

type RegisterRequest struct {
	UserName string `json:"userName" validate:"required,max=64"`
	LastName string `json:"lastName" validate:"max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		UserName:  u.UserName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

const forgotPasswordMessage = "If the email is registered, a reset link has been sent"

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.AuthService.Register(r.Context(), service.RegisterRequest{
		UserName: req.UserName,
		LastName: req.LastName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, toUserResponse(user), http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// unknown email and wrong password look the same to the client
		if errors.Is(err, service.ErrNotFound) {
			err = service.ErrInvalidCredentials
		}
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.Cfg.JWT.TokenDuration.Seconds()),
		User:        toUserResponse(user),
	}, http.StatusOK)
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.AuthService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: forgotPasswordMessage}, http.StatusOK)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.AuthService.ConfirmPasswordReset(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: "Password has been reset"}, http.StatusOK)
}

func (h *Handlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	var req UpdatePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.AuthService.UpdatePassword(r.Context(), claims.Email, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, models.ServiceResponse{Success: true, Message: "Password updated"}, http.StatusOK)
}
