package services

import (
	"context"
	"time"

	"medcamp-backend/internal/models"
)

const recentCampsLimit = 5

// DoctorDashboard summarises the calling doctor's camps and registrations.
func (s *CampService) DoctorDashboard(ctx context.Context, identity *models.Identity) (*models.DoctorStats, error) {
	if err := requireUserType(identity, models.UserTypeDoctor); err != nil {
		return nil, err
	}
	doctor, err := s.profiles.GetDoctorByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, models.Remote("get doctor profile", err)
	}
	camps, err := s.camps.ListByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, models.Remote("list doctor camps", err)
	}
	registrations, revenue, err := s.registrations.StatsByDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, models.Remote("doctor stats", err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := &models.DoctorStats{
		TotalCamps:         len(camps),
		TotalRegistrations: registrations,
		Revenue:            roundCents(revenue),
		RecentCamps:        camps[:min(len(camps), recentCampsLimit)],
	}
	for _, camp := range camps {
		if camp.Status == models.CampStatusApproved && !camp.Date.Before(today) {
			stats.ActiveCamps++
		}
	}
	return stats, nil
}
