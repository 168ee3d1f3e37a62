package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"medcamp-backend/internal/middleware"
	"medcamp-backend/internal/models"
	"medcamp-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CampManager is the doctor and admin side of camps.
type CampManager interface {
	CreateCamp(ctx context.Context, identity *models.Identity, req services.CreateCampRequest) (*models.Camp, error)
	ListDoctorCamps(ctx context.Context, identity *models.Identity) ([]models.Camp, error)
	DoctorDashboard(ctx context.Context, identity *models.Identity) (*models.DoctorStats, error)
	CampRegistrations(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, []models.RegistrationView, error)
	ExportRegistrations(ctx context.Context, identity *models.Identity, campID string, w io.Writer) (*models.Camp, error)
	Approve(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error)
	Reject(ctx context.Context, identity *models.Identity, campID, reason string) (*models.Camp, error)
	CancelCamp(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error)
	Complete(ctx context.Context, identity *models.Identity, campID string) (*models.Camp, error)
}

// DoctorHandler handles doctor dashboard requests
type DoctorHandler struct {
	camps CampManager
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(camps CampManager) *DoctorHandler {
	return &DoctorHandler{camps: camps}
}

// CreateCamp handles POST /api/v1/doctor/camps
func (h *DoctorHandler) CreateCamp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateCampRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid camp request")
		return
	}

	camp, err := h.camps.CreateCamp(ctx, middleware.GetIdentity(ctx), req)
	if err != nil {
		respondServiceError(w, err, "Failed to create camp")
		return
	}

	respondJSON(w, http.StatusCreated, camp)
}

// ListCamps handles GET /api/v1/doctor/camps
func (h *DoctorHandler) ListCamps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camps, err := h.camps.ListDoctorCamps(ctx, middleware.GetIdentity(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to list doctor camps")
		return
	}
	if camps == nil {
		camps = []models.Camp{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

// Dashboard handles GET /api/v1/doctor/dashboard
func (h *DoctorHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.camps.DoctorDashboard(ctx, middleware.GetIdentity(ctx))
	if err != nil {
		respondServiceError(w, err, "Failed to build dashboard")
		return
	}
	if stats.RecentCamps == nil {
		stats.RecentCamps = []models.Camp{}
	}

	respondJSON(w, http.StatusOK, stats)
}

// CampRegistrations handles GET /api/v1/doctor/camps/{camp_id}/registrations
func (h *DoctorHandler) CampRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camp, regs, err := h.camps.CampRegistrations(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to list camp registrations")
		return
	}
	if regs == nil {
		regs = []models.RegistrationView{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"camp":          camp,
		"registrations": regs,
	})
}

// ExportRegistrations handles GET /api/v1/doctor/camps/{camp_id}/export
func (h *DoctorHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campID := chi.URLParam(r, "camp_id")

	var buf bytes.Buffer
	if _, err := h.camps.ExportRegistrations(ctx, middleware.GetIdentity(ctx), campID, &buf); err != nil {
		respondServiceError(w, err, "Failed to export registrations")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="registrations-%s.xlsx"`, campID))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Str("camp_id", campID).Msg("Failed to stream export")
	}
}

// CancelCamp handles POST /api/v1/doctor/camps/{camp_id}/cancel
func (h *DoctorHandler) CancelCamp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camp, err := h.camps.CancelCamp(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to cancel camp")
		return
	}

	respondJSON(w, http.StatusOK, camp)
}
