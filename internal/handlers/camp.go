package handlers

import (
	"net/http"
	"strings"
	"time"

	"medcamp-backend/internal/models"
	"medcamp-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// CampDirectory is the read side of the camp directory.
type CampDirectory interface {
	Search(c services.Criteria) []models.Camp
	Camp(id string) (*models.Camp, error)
	Loading() bool
	LastError() error
	RefreshedAt() time.Time
}

// CampListResponse is the body of GET /api/v1/camps
type CampListResponse struct {
	Camps       []models.Camp `json:"camps"`
	Total       int           `json:"total"`
	FreeCount   int           `json:"free_count"`
	PaidCount   int           `json:"paid_count"`
	Loading     bool          `json:"loading"`
	RefreshedAt *time.Time    `json:"refreshed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// CampHandler serves the public camp directory
type CampHandler struct {
	directory CampDirectory
}

// NewCampHandler creates a new camp handler
func NewCampHandler(directory CampDirectory) *CampHandler {
	return &CampHandler{directory: directory}
}

func criteriaFromQuery(r *http.Request) (services.Criteria, error) {
	q := r.URL.Query()
	c := services.Criteria{
		Query:          q.Get("q"),
		Location:       q.Get("location"),
		Specialization: q.Get("specialization"),
	}
	if raw := strings.TrimSpace(q.Get("type")); raw != "" && !strings.EqualFold(raw, "all") {
		campType, err := models.ParseCampType(raw)
		if err != nil {
			return services.Criteria{}, err
		}
		c.CampType = campType
	}
	if strings.EqualFold(strings.TrimSpace(c.Specialization), "all") {
		c.Specialization = ""
	}
	return c, nil
}

// ListCamps handles GET /api/v1/camps
func (h *CampHandler) ListCamps(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		respondServiceError(w, err, "Invalid camp filter")
		return
	}

	camps := h.directory.Search(criteria)
	if camps == nil {
		camps = []models.Camp{}
	}
	free, paid := services.CountByType(camps)
	resp := CampListResponse{
		Camps:     camps,
		Total:     len(camps),
		FreeCount: free,
		PaidCount: paid,
		Loading:   h.directory.Loading(),
	}
	if at := h.directory.RefreshedAt(); !at.IsZero() {
		resp.RefreshedAt = &at
	}
	if err := h.directory.LastError(); err != nil {
		resp.Error = "Failed to load medical camps."
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetCamp handles GET /api/v1/camps/{camp_id}
func (h *CampHandler) GetCamp(w http.ResponseWriter, r *http.Request) {
	camp, err := h.directory.Camp(chi.URLParam(r, "camp_id"))
	if err != nil {
		respondServiceError(w, err, "Camp lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, camp)
}
