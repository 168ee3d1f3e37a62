package repository

import (
	"context"
	"fmt"

	"medcamp-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `
	r.id, r.camp_id, r.user_id, r.profile_id, r.amount_paid::float8, r.payment_status,
	r.payment_id, r.attendance_status, r.notes, r.registration_date, r.created_at, r.updated_at
`

// RegistrationRepository handles database operations for camp registrations
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistration(row pgx.Row, extra ...any) (*models.Registration, error) {
	var (
		reg                       models.Registration
		paymentStatus, attendance string
	)
	dest := []any{
		&reg.ID, &reg.CampID, &reg.UserID, &reg.ProfileID, &reg.AmountPaid, &paymentStatus,
		&reg.PaymentID, &attendance, &reg.Notes, &reg.RegistrationDate, &reg.CreatedAt, &reg.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	var err error
	if reg.PaymentStatus, err = models.ParsePaymentStatus(paymentStatus); err != nil {
		return nil, fmt.Errorf("registration %s: %w", reg.ID, err)
	}
	if reg.AttendanceStatus, err = models.ParseAttendanceStatus(attendance); err != nil {
		return nil, fmt.Errorf("registration %s: %w", reg.ID, err)
	}
	return &reg, nil
}

// CreateIfAbsent inserts a registration unless the user already holds an
// active one for the camp, and bumps the camp's registered_count in the same
// transaction. A cancelled registration is reactivated in place. With
// enforceCapacity the increment only succeeds while seats remain.
func (r *RegistrationRepository) CreateIfAbsent(ctx context.Context, reg *models.Registration, enforceCapacity bool) error {
	insert := `
		INSERT INTO camp_registrations AS r (
			id, camp_id, user_id, profile_id, amount_paid, payment_status, attendance_status,
			registration_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $8)
		ON CONFLICT ON CONSTRAINT camp_registrations_camp_user_key DO UPDATE
		SET profile_id = EXCLUDED.profile_id,
			amount_paid = EXCLUDED.amount_paid,
			payment_status = EXCLUDED.payment_status,
			payment_id = NULL,
			attendance_status = EXCLUDED.attendance_status,
			registration_date = EXCLUDED.registration_date,
			updated_at = EXCLUDED.updated_at
		WHERE r.attendance_status = 'cancelled'
		RETURNING ` + registrationColumns

	increment := `
		UPDATE medical_camps
		SET registered_count = registered_count + 1, updated_at = now()
		WHERE id = $1
	`
	if enforceCapacity {
		increment += ` AND registered_count < capacity`
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		created, err := scanRegistration(tx.QueryRow(ctx, insert,
			reg.ID, reg.CampID, reg.UserID, reg.ProfileID, reg.AmountPaid,
			string(reg.PaymentStatus), string(reg.AttendanceStatus), reg.RegistrationDate,
		))
		if err != nil {
			if isNoRows(err) {
				return models.ErrAlreadyRegistered
			}
			if isMalformedID(err) {
				return models.ErrCampNotFound
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}

		result, err := tx.Exec(ctx, increment, reg.CampID)
		if err != nil {
			return fmt.Errorf("failed to update registered count: %w", err)
		}
		if result.RowsAffected() == 0 {
			if enforceCapacity {
				return models.ErrCampFull
			}
			return models.ErrCampNotFound
		}

		*reg = *created
		return nil
	})
}

// Cancel marks the user's active registration as cancelled and releases its seat
func (r *RegistrationRepository) Cancel(ctx context.Context, campID, userID string) (*models.Registration, error) {
	var cancelled *models.Registration
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		reg, err := scanRegistration(tx.QueryRow(ctx, `
			UPDATE camp_registrations AS r
			SET attendance_status = 'cancelled', updated_at = now()
			WHERE r.camp_id = $1 AND r.user_id = $2 AND r.attendance_status <> 'cancelled'
			RETURNING `+registrationColumns, campID, userID))
		if err != nil {
			if isNotFound(err) {
				return models.ErrRegistrationNotFound
			}
			return fmt.Errorf("failed to cancel registration: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE medical_camps
			SET registered_count = GREATEST(registered_count - 1, 0), updated_at = now()
			WHERE id = $1
		`, campID); err != nil {
			return fmt.Errorf("failed to update registered count: %w", err)
		}
		cancelled = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// GetByID retrieves a registration by ID
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM camp_registrations r WHERE r.id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) listViews(ctx context.Context, where string, arg string) ([]models.RegistrationView, error) {
	query := `
		SELECT ` + registrationColumns + `, c.title, c.date, p.full_name, p.phone
		FROM camp_registrations r
		JOIN medical_camps c ON c.id = r.camp_id
		JOIN profiles p ON p.id = r.profile_id
		WHERE ` + where + `
		ORDER BY r.registration_date DESC
	`
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	views := []models.RegistrationView{}
	for rows.Next() {
		var view models.RegistrationView
		reg, err := scanRegistration(rows, &view.CampTitle, &view.CampDate, &view.RegistrantName, &view.RegistrantPhone)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		view.Registration = *reg
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}
	return views, nil
}

// ListByUser returns a user's registrations with camp details
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.RegistrationView, error) {
	return r.listViews(ctx, "r.user_id = $1", userID)
}

// ListByCamp returns every registration of a camp with registrant details
func (r *RegistrationRepository) ListByCamp(ctx context.Context, campID string) ([]models.RegistrationView, error) {
	return r.listViews(ctx, "r.camp_id = $1", campID)
}

// CompletePayment flips a pending registration to completed and records the
// payment row atomically.
func (r *RegistrationRepository) CompletePayment(ctx context.Context, payment *models.Payment) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE camp_registrations
			SET payment_status = 'completed', payment_id = $2, updated_at = now()
			WHERE id = $1 AND payment_status = 'pending'
		`, payment.RegistrationID, payment.ID)
		if err != nil {
			if isMalformedID(err) {
				return models.ErrRegistrationNotFound
			}
			return fmt.Errorf("failed to complete registration payment: %w", err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrPaymentAlreadyCompleted
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO payments (
				id, registration_id, amount, commission_amount, doctor_amount, currency,
				payment_method, reference, status, transaction_date, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		`, payment.ID, payment.RegistrationID, payment.Amount, payment.CommissionAmount,
			payment.DoctorAmount, payment.Currency, payment.PaymentMethod, payment.Reference,
			payment.Status, payment.TransactionDate, payment.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return nil
	})
}

// StatsByDoctor returns the active registration count and completed revenue
// over every camp of a doctor.
func (r *RegistrationRepository) StatsByDoctor(ctx context.Context, doctorID string) (int, float64, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(r.amount_paid) FILTER (WHERE r.payment_status = 'completed'), 0)::float8
		FROM camp_registrations r
		JOIN medical_camps c ON c.id = r.camp_id
		WHERE c.doctor_id = $1 AND r.attendance_status <> 'cancelled'
	`
	var (
		count   int
		revenue float64
	)
	if err := r.db.QueryRow(ctx, query, doctorID).Scan(&count, &revenue); err != nil {
		return 0, 0, fmt.Errorf("failed to compute doctor stats: %w", err)
	}
	return count, revenue, nil
}
