package repository

import (
	"context"
	"fmt"
	"time"

	"medcamp-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const campSelect = `
	SELECT c.id, c.title, c.description, c.doctor_id,
		COALESCE(NULLIF(p.full_name, ''), 'Unknown Doctor'),
		c.specialization, c.date, c.start_time, c.end_time,
		c.location, c.address, c.city, c.state, c.pincode,
		c.capacity, c.registered_count, c.price::float8, c.status, c.camp_type,
		c.approved_by, c.approval_date, c.rejection_reason,
		c.created_at, c.updated_at
	FROM medical_camps c
	LEFT JOIN doctor_profiles d ON d.id = c.doctor_id
	LEFT JOIN profiles p ON p.id = d.profile_id
`

// CampRepository handles database operations for medical camps
type CampRepository struct {
	db *pgxpool.Pool
}

// NewCampRepository creates a new camp repository
func NewCampRepository(db *pgxpool.Pool) *CampRepository {
	return &CampRepository{db: db}
}

func scanCamp(row pgx.Row) (*models.Camp, error) {
	var (
		camp             models.Camp
		status, campType string
	)
	err := row.Scan(
		&camp.ID, &camp.Title, &camp.Description, &camp.DoctorID, &camp.DoctorName,
		&camp.Specialization, &camp.Date, &camp.StartTime, &camp.EndTime,
		&camp.Location, &camp.Address, &camp.City, &camp.State, &camp.Pincode,
		&camp.Capacity, &camp.RegisteredCount, &camp.Price, &status, &campType,
		&camp.ApprovedBy, &camp.ApprovalDate, &camp.RejectionReason,
		&camp.CreatedAt, &camp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if camp.Status, err = models.ParseCampStatus(status); err != nil {
		return nil, fmt.Errorf("camp %s: %w", camp.ID, err)
	}
	if camp.CampType, err = models.ParseCampType(campType); err != nil {
		return nil, fmt.Errorf("camp %s: %w", camp.ID, err)
	}
	return &camp, nil
}

func (r *CampRepository) list(ctx context.Context, query string, args ...any) ([]models.Camp, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}
	defer rows.Close()

	camps := []models.Camp{}
	for rows.Next() {
		camp, err := scanCamp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camp: %w", err)
		}
		camps = append(camps, *camp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating camps: %w", err)
	}
	return camps, nil
}

// ListApproved returns the camps visible to patients, earliest first
func (r *CampRepository) ListApproved(ctx context.Context) ([]models.Camp, error) {
	return r.list(ctx, campSelect+`
		WHERE c.status = 'approved'
		ORDER BY c.date ASC, c.start_time ASC
	`)
}

// ListByDoctor returns every camp owned by a doctor profile, newest first
func (r *CampRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.Camp, error) {
	return r.list(ctx, campSelect+`
		WHERE c.doctor_id = $1
		ORDER BY c.date DESC, c.created_at DESC
	`, doctorID)
}

// ListApprovedBefore returns approved camps scheduled before day
func (r *CampRepository) ListApprovedBefore(ctx context.Context, day time.Time) ([]models.Camp, error) {
	return r.list(ctx, campSelect+`
		WHERE c.status = 'approved' AND c.date < $1
		ORDER BY c.date ASC
	`, day)
}

// GetByID retrieves a camp by ID
func (r *CampRepository) GetByID(ctx context.Context, id string) (*models.Camp, error) {
	camp, err := scanCamp(r.db.QueryRow(ctx, campSelect+`WHERE c.id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrCampNotFound
		}
		return nil, fmt.Errorf("failed to get camp: %w", err)
	}
	return camp, nil
}

// Create inserts a new camp
func (r *CampRepository) Create(ctx context.Context, camp *models.Camp) error {
	query := `
		INSERT INTO medical_camps (
			id, title, description, doctor_id, specialization, date, start_time, end_time,
			location, address, city, state, pincode, capacity, registered_count, price,
			status, camp_type, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
	`
	_, err := r.db.Exec(ctx, query,
		camp.ID, camp.Title, camp.Description, camp.DoctorID, camp.Specialization,
		camp.Date, camp.StartTime, camp.EndTime, camp.Location, camp.Address,
		camp.City, camp.State, camp.Pincode, camp.Capacity, camp.RegisteredCount,
		camp.Price, string(camp.Status), string(camp.CampType), camp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create camp: %w", err)
	}
	camp.UpdatedAt = camp.CreatedAt
	return nil
}

// Transition moves a camp from one status to another. The update only applies
// while the camp is still in from, so concurrent transitions cannot both win.
func (r *CampRepository) Transition(ctx context.Context, id string, from, to models.CampStatus, actorID, reason *string) error {
	query := `
		UPDATE medical_camps
		SET status = $3,
			approved_by = CASE WHEN $3 = 'approved' THEN $4::uuid ELSE approved_by END,
			approval_date = CASE WHEN $3 = 'approved' THEN now() ELSE approval_date END,
			rejection_reason = CASE WHEN $3 = 'rejected' THEN $5 ELSE rejection_reason END,
			updated_at = now()
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.Exec(ctx, query, id, string(from), string(to), actorID, reason)
	if err != nil {
		if isMalformedID(err) {
			return models.ErrCampNotFound
		}
		return fmt.Errorf("failed to update camp status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}
	return nil
}
