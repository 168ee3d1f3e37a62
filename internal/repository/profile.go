package repository

import (
	"context"
	"fmt"

	"medcamp-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileSelect = `
	SELECT id, user_id, full_name, phone, gender, date_of_birth, address, city, state,
		pincode, avatar_url, push_token, user_type, is_verified, created_at, updated_at
	FROM profiles
`

const doctorSelect = `
	SELECT id, user_id, profile_id, specialization, qualification, medical_license,
		experience_years, clinic_name, clinic_address, bio, consultation_fee::float8,
		is_approved, approval_date, created_at, updated_at
	FROM doctor_profiles
`

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p        models.Profile
		userType string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.Gender, &p.DateOfBirth, &p.Address,
		&p.City, &p.State, &p.Pincode, &p.AvatarURL, &p.PushToken, &userType,
		&p.IsVerified, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.UserType, err = models.ParseUserType(userType); err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return &p, nil
}

// GetByUserID retrieves the profile owned by a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, profileSelect+`WHERE user_id = $1`, userID))
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetDoctorByUserID retrieves the doctor profile owned by a user
func (r *ProfileRepository) GetDoctorByUserID(ctx context.Context, userID string) (*models.DoctorProfile, error) {
	var d models.DoctorProfile
	err := r.db.QueryRow(ctx, doctorSelect+`WHERE user_id = $1`, userID).Scan(
		&d.ID, &d.UserID, &d.ProfileID, &d.Specialization, &d.Qualification, &d.MedicalLicense,
		&d.ExperienceYears, &d.ClinicName, &d.ClinicAddress, &d.Bio, &d.ConsultationFee,
		&d.IsApproved, &d.ApprovalDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get doctor profile: %w", err)
	}
	return &d, nil
}

// GetUserIDByDoctorID resolves the account behind a doctor profile
func (r *ProfileRepository) GetUserIDByDoctorID(ctx context.Context, doctorID string) (string, error) {
	var userID string
	err := r.db.QueryRow(ctx, `SELECT user_id FROM doctor_profiles WHERE id = $1`, doctorID).Scan(&userID)
	if err != nil {
		if isNotFound(err) {
			return "", models.ErrProfileNotFound
		}
		return "", fmt.Errorf("failed to get doctor profile: %w", err)
	}
	return userID, nil
}

// UpdateAvatarURL updates the avatar URL for a user
func (r *ProfileRepository) UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE profiles SET avatar_url = $1, updated_at = now() WHERE user_id = $2`, avatarURL, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE profiles SET push_token = $1, updated_at = now() WHERE user_id = $2`, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}
