package repository

import (
	"context"
	"fmt"

	"medcamp-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateAccount inserts a user together with its profile and, for doctors,
// its doctor profile, in one transaction.
func (r *UserRepository) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile, doctor *models.DoctorProfile) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
		`, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err, "users_email_key") {
				return models.ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (
				id, user_id, full_name, phone, gender, date_of_birth, address, city, state,
				pincode, user_type, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`, profile.ID, profile.UserID, profile.FullName, profile.Phone, profile.Gender,
			profile.DateOfBirth, profile.Address, profile.City, profile.State, profile.Pincode,
			string(profile.UserType), profile.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		if doctor == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO doctor_profiles (
				id, user_id, profile_id, specialization, qualification, medical_license,
				experience_years, clinic_name, clinic_address, bio, consultation_fee,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`, doctor.ID, doctor.UserID, doctor.ProfileID, doctor.Specialization, doctor.Qualification,
			doctor.MedicalLicense, doctor.ExperienceYears, doctor.ClinicName, doctor.ClinicAddress,
			doctor.Bio, doctor.ConsultationFee, doctor.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create doctor profile: %w", err)
		}
		return nil
	})
}

// GetByEmail retrieves a user by email together with the profile's user type
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, models.UserType, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.created_at, p.user_type
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		WHERE u.email = $1
	`
	var (
		user     models.User
		userType string
	)
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &userType,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, "", models.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to get user by email: %w", err)
	}
	ut, err := models.ParseUserType(userType)
	if err != nil {
		return nil, "", fmt.Errorf("user %s: %w", user.ID, err)
	}
	return &user, ut, nil
}
