package models

import "time"

// Identity is the authenticated caller. A nil *Identity means nobody is
// signed in.
type Identity struct {
	UserID   string   `json:"user_id"`
	UserType UserType `json:"user_type"`
	TokenID  string   `json:"-"`
}

// User is the authentication record behind an Identity.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds a user's demographic and account data. One per user.
type Profile struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Pincode     string     `json:"pincode,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	PushToken   *string    `json:"push_token,omitempty"`
	UserType    UserType   `json:"user_type"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DoctorProfile carries the professional details of a doctor account.
type DoctorProfile struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ProfileID       string     `json:"profile_id"`
	Specialization  string     `json:"specialization"`
	Qualification   string     `json:"qualification"`
	MedicalLicense  string     `json:"medical_license"`
	ExperienceYears int        `json:"experience_years"`
	ClinicName      string     `json:"clinic_name,omitempty"`
	ClinicAddress   string     `json:"clinic_address,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	ConsultationFee float64    `json:"consultation_fee"`
	IsApproved      bool       `json:"is_approved"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Camp is a scheduled medical event run by a doctor.
type Camp struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DoctorID        string     `json:"doctor_id"`
	DoctorName      string     `json:"doctor_name"`
	Specialization  string     `json:"specialization"`
	Date            time.Time  `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	Location        string     `json:"location"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	Pincode         string     `json:"pincode"`
	Capacity        int        `json:"capacity"`
	RegisteredCount int        `json:"registered_count"`
	Price           float64    `json:"price"`
	Status          CampStatus `json:"status"`
	CampType        CampType   `json:"camp_type"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovalDate    *time.Time `json:"approval_date,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsFull reports whether the camp has no seats left.
func (c *Camp) IsFull() bool {
	return c.RegisteredCount >= c.Capacity
}

// Registration links one user to one camp.
type Registration struct {
	ID               string           `json:"id"`
	CampID           string           `json:"camp_id"`
	UserID           string           `json:"user_id"`
	ProfileID        string           `json:"profile_id"`
	AmountPaid       float64          `json:"amount_paid"`
	PaymentStatus    PaymentStatus    `json:"payment_status"`
	PaymentID        *string          `json:"payment_id,omitempty"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
	Notes            *string          `json:"notes,omitempty"`
	RegistrationDate time.Time        `json:"registration_date"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// RegistrationView is a registration joined with its camp and registrant.
type RegistrationView struct {
	Registration
	CampTitle       string    `json:"camp_title"`
	CampDate        time.Time `json:"camp_date"`
	RegistrantName  string    `json:"registrant_name"`
	RegistrantPhone string    `json:"registrant_phone,omitempty"`
}

// RegistrationResult is what the registration workflow hands back to callers.
type RegistrationResult struct {
	Success         bool    `json:"success"`
	RegistrationID  string  `json:"registration_id,omitempty"`
	RequiresPayment bool    `json:"requires_payment"`
	Amount          float64 `json:"amount"`
}

// Payment records a captured payment for a registration.
type Payment struct {
	ID               string    `json:"id"`
	RegistrationID   string    `json:"registration_id"`
	Amount           float64   `json:"amount"`
	CommissionAmount float64   `json:"commission_amount"`
	DoctorAmount     float64   `json:"doctor_amount"`
	Currency         string    `json:"currency"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	Reference        string    `json:"reference,omitempty"`
	Status           string    `json:"status"`
	TransactionDate  time.Time `json:"transaction_date"`
	CreatedAt        time.Time `json:"created_at"`
}

// Notice is a titled, fire-and-forget message for a user.
type Notice struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	CampID   *string  `json:"camp_id,omitempty"`
}

// Notification is a persisted Notice.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CampID    *string   `json:"camp_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Severity  `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// DoctorStats backs the doctor dashboard overview.
type DoctorStats struct {
	TotalCamps         int     `json:"total_camps"`
	TotalRegistrations int     `json:"total_registrations"`
	Revenue            float64 `json:"revenue"`
	ActiveCamps        int     `json:"active_camps"`
	RecentCamps        []Camp  `json:"recent_camps"`
}
