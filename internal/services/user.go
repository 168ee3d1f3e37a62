package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"medcamp-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// PatientSignUp is the patient registration form.
type PatientSignUp struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// DoctorSignUp is the doctor registration form.
type DoctorSignUp struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	Phone              string `json:"phone"`
	Specialization     string `json:"specialization"`
	Experience         int    `json:"experience"`
	Qualification      string `json:"qualification"`
	RegistrationNumber string `json:"registration_number"`
	ClinicName         string `json:"clinic_name"`
	Address            string `json:"address"`
	Bio                string `json:"bio"`
}

// AuthResult is returned by sign-up and login.
type AuthResult struct {
	Token     string          `json:"token"`
	UserID    string          `json:"user_id"`
	UserType  models.UserType `json:"user_type"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// UserService is the identity provider: accounts, tokens and sign-out.
type UserService struct {
	accounts  AccountStore
	jwtSecret string
	tokenTTL  time.Duration
	hashCost  int
	revoked   *revocationList
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(accounts AccountStore, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		accounts:  accounts,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		hashCost:  bcrypt.DefaultCost,
		revoked:   newRevocationList(),
		now:       time.Now,
	}
}

func validateCredentials(name, email, password string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("%w: invalid email address", models.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength)
	}
	return strings.ToLower(addr.Address), nil
}

func (s *UserService) newUser(email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}, nil
}

// SignUpPatient creates a patient account and signs it in.
func (s *UserService) SignUpPatient(ctx context.Context, req PatientSignUp) (*AuthResult, error) {
	email, err := validateCredentials(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if req.Age < 0 || req.Age > 150 {
		return nil, fmt.Errorf("%w: age out of range", models.ErrValidation)
	}

	user, err := s.newUser(email, req.Password)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Gender:    req.Gender,
		Address:   req.Address,
		City:      req.City,
		UserType:  models.UserTypePatient,
		CreatedAt: user.CreatedAt,
	}
	if req.Age > 0 {
		dob := time.Date(user.CreatedAt.Year()-req.Age, time.January, 1, 0, 0, 0, 0, time.UTC)
		profile.DateOfBirth = &dob
	}

	if err := s.accounts.CreateAccount(ctx, user, profile, nil); err != nil {
		return nil, models.Remote("create account", err)
	}
	return s.issue(user.ID, models.UserTypePatient)
}

// SignUpDoctor creates a doctor account with its professional profile.
func (s *UserService) SignUpDoctor(ctx context.Context, req DoctorSignUp) (*AuthResult, error) {
	email, err := validateCredentials(req.Name, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.TrimSpace(req.Specialization) == "":
		return nil, fmt.Errorf("%w: specialization is required", models.ErrValidation)
	case strings.TrimSpace(req.Qualification) == "":
		return nil, fmt.Errorf("%w: qualification is required", models.ErrValidation)
	case strings.TrimSpace(req.RegistrationNumber) == "":
		return nil, fmt.Errorf("%w: registration_number is required", models.ErrValidation)
	case req.Experience < 0:
		return nil, fmt.Errorf("%w: experience cannot be negative", models.ErrValidation)
	}

	user, err := s.newUser(email, req.Password)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		FullName:  strings.TrimSpace(req.Name),
		Phone:     req.Phone,
		Address:   req.Address,
		UserType:  models.UserTypeDoctor,
		CreatedAt: user.CreatedAt,
	}
	doctor := &models.DoctorProfile{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		ProfileID:       profile.ID,
		Specialization:  strings.TrimSpace(req.Specialization),
		Qualification:   strings.TrimSpace(req.Qualification),
		MedicalLicense:  strings.TrimSpace(req.RegistrationNumber),
		ExperienceYears: req.Experience,
		ClinicName:      req.ClinicName,
		ClinicAddress:   req.Address,
		Bio:             req.Bio,
		CreatedAt:       user.CreatedAt,
	}

	if err := s.accounts.CreateAccount(ctx, user, profile, doctor); err != nil {
		return nil, models.Remote("create account", err)
	}
	return s.issue(user.ID, models.UserTypeDoctor)
}

// Login exchanges email and password for a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, userType, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidLogin
		}
		return nil, models.Remote("get user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidLogin
	}
	return s.issue(user.ID, userType)
}

// SignOut revokes the token behind identity until it would have expired.
func (s *UserService) SignOut(identity *models.Identity, expiresAt time.Time) error {
	if identity == nil {
		return models.ErrAuthRequired
	}
	if identity.TokenID == "" {
		return models.ErrInvalidToken
	}
	s.revoked.add(identity.TokenID, expiresAt, s.now())
	return nil
}

func (s *UserService) issue(userID string, userType models.UserType) (*AuthResult, error) {
	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.GenerateJWT(userID, userType, expiresAt)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: userID, UserType: userType, ExpiresAt: expiresAt}, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string, userType models.UserType, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":   userID,
		"user_type": string(userType),
		"jti":       uuid.New().String(),
		"exp":       expiresAt.Unix(),
		"iat":       s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the identity it carries
// together with its expiry.
func (s *UserService) ValidateJWT(tokenString string) (*models.Identity, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, time.Time{}, models.ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	tokenID, _ := claims["jti"].(string)
	if userID == "" || tokenID == "" {
		return nil, time.Time{}, fmt.Errorf("%w: missing claims", models.ErrInvalidToken)
	}
	rawType, _ := claims["user_type"].(string)
	userType, err := models.ParseUserType(rawType)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}
	if s.revoked.contains(tokenID, s.now()) {
		return nil, time.Time{}, fmt.Errorf("%w: token revoked", models.ErrInvalidToken)
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return &models.Identity{UserID: userID, UserType: userType, TokenID: tokenID}, expiresAt, nil
}

// revocationList remembers signed-out token ids until they expire.
type revocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newRevocationList() *revocationList {
	return &revocationList{entries: make(map[string]time.Time)}
}

func (l *revocationList) add(tokenID string, expiresAt, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = expiresAt
}

func (l *revocationList) contains(tokenID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.entries[tokenID]
	return ok && exp.After(now)
}
