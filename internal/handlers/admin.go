package handlers

import (
	"net/http"

	"medcamp-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RejectRequest represents the request body for rejecting a camp
type RejectRequest struct {
	Reason string `json:"reason"`
}

// AdminHandler handles the camp approval endpoints
type AdminHandler struct {
	camps CampManager
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(camps CampManager) *AdminHandler {
	return &AdminHandler{camps: camps}
}

// Approve handles POST /api/v1/admin/camps/{camp_id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camp, err := h.camps.Approve(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to approve camp")
		return
	}

	respondJSON(w, http.StatusOK, camp)
}

// Reject handles POST /api/v1/admin/camps/{camp_id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, err, "Invalid reject request")
		return
	}

	camp, err := h.camps.Reject(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"), req.Reason)
	if err != nil {
		respondServiceError(w, err, "Failed to reject camp")
		return
	}

	respondJSON(w, http.StatusOK, camp)
}

// Cancel handles POST /api/v1/admin/camps/{camp_id}/cancel
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camp, err := h.camps.CancelCamp(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to cancel camp")
		return
	}

	respondJSON(w, http.StatusOK, camp)
}

// Complete handles POST /api/v1/admin/camps/{camp_id}/complete
func (h *AdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	camp, err := h.camps.Complete(ctx, middleware.GetIdentity(ctx), chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Failed to complete camp")
		return
	}

	respondJSON(w, http.StatusOK, camp)
}
