package services

import (
	"strings"

	"medcamp-backend/internal/models"
)

// Criteria narrows the camp directory. Zero-valued fields match everything.
type Criteria struct {
	Query          string          `json:"q,omitempty"`
	Location       string          `json:"location,omitempty"`
	CampType       models.CampType `json:"type,omitempty"`
	Specialization string          `json:"specialization,omitempty"`
}

// IsEmpty reports whether no criterion is active.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Query) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		c.CampType == "" &&
		strings.TrimSpace(c.Specialization) == ""
}

// Filter returns the camps matching every active criterion, in input order.
// With no active criterion the input is returned as is.
func Filter(camps []models.Camp, c Criteria) []models.Camp {
	if c.IsEmpty() {
		return camps
	}

	query := strings.ToLower(strings.TrimSpace(c.Query))
	location := strings.ToLower(strings.TrimSpace(c.Location))
	specialization := strings.TrimSpace(c.Specialization)

	out := make([]models.Camp, 0, len(camps))
	for _, camp := range camps {
		if query != "" && !containsAny(query, camp.Title, camp.DoctorName, camp.Specialization) {
			continue
		}
		if location != "" && !containsAny(location, camp.Location, camp.City) {
			continue
		}
		if c.CampType != "" && camp.CampType != c.CampType {
			continue
		}
		if specialization != "" && !strings.EqualFold(camp.Specialization, specialization) {
			continue
		}
		out = append(out, camp)
	}
	return out
}

// containsAny reports whether needle (already lower-cased) occurs in any field.
func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// CountByType tallies free and paid camps.
func CountByType(camps []models.Camp) (free, paid int) {
	for _, camp := range camps {
		switch camp.CampType {
		case models.CampTypeFree:
			free++
		case models.CampTypePaid:
			paid++
		}
	}
	return free, paid
}
