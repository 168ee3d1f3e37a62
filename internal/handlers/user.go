package handlers

import (
	"context"
	"net/http"
	"time"

	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/models"
	"medcamp-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// Authenticator is the identity provider as seen by HTTP.
type Authenticator interface {
	SignUpPatient(ctx context.Context, req services.PatientSignUp) (*services.AuthResult, error)
	SignUpDoctor(ctx context.Context, req services.DoctorSignUp) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	SignOut(identity *models.Identity, expiresAt time.Time) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	auth Authenticator
}

// NewUserHandler creates a new user handler
func NewUserHandler(auth Authenticator) *UserHandler {
	return &UserHandler{
		auth: auth,
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpPatient handles POST /api/v1/auth/patients
func (h *UserHandler) SignUpPatient(w http.ResponseWriter, r *http.Request) {
	var req services.PatientSignUp
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid sign-up request")
		return
	}

	result, err := h.auth.SignUpPatient(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "Failed to sign up patient")
		return
	}

	log.Info().Str("user_id", result.UserID).Msg("Patient signed up")
	respondJSON(w, http.StatusCreated, result)
}

// SignUpDoctor handles POST /api/v1/auth/doctors
func (h *UserHandler) SignUpDoctor(w http.ResponseWriter, r *http.Request) {
	var req services.DoctorSignUp
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid sign-up request")
		return
	}

	result, err := h.auth.SignUpDoctor(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "Failed to sign up doctor")
		return
	}

	log.Info().Str("user_id", result.UserID).Msg("Doctor signed up")
	respondJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid login request")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err, "Login failed")
		return
	}

	log.Info().Str("user_id", result.UserID).Msg("User logged in")
	respondJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	if err := h.auth.SignOut(identity, middleware.GetTokenExpiry(ctx)); err != nil {
		respondServiceError(w, err, "Logout failed")
		return
	}

	log.Info().Str("user_id", identity.UserID).Msg("User logged out")
	w.WriteHeader(http.StatusNoContent)
}
