package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"medcamp-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(now time.Time) (*UserService, *fakeAccountStore) {
	accounts := newFakeAccountStore()
	svc := NewUserService(accounts, "test-secret", time.Hour)
	svc.hashCost = bcrypt.MinCost
	svc.now = fixedClock(now)
	return svc, accounts
}

func validPatient() PatientSignUp {
	return PatientSignUp{
		Name:     "Asha Patil",
		Email:    " Asha@Example.com ",
		Password: "s3cret-pass",
		Phone:    "9800000000",
		Age:      34,
		Gender:   "female",
		Address:  "12 Lake Road",
	}
}

func TestSignUpPatientAndLogin(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	svc, accounts := newTestUserService(now)
	ctx := context.Background()

	result, err := svc.SignUpPatient(ctx, validPatient())
	if err != nil {
		t.Fatalf("SignUpPatient: %v", err)
	}
	if result.UserType != models.UserTypePatient || result.Token == "" {
		t.Fatalf("result = %+v", result)
	}
	if !result.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v", result.ExpiresAt)
	}

	user, _, err := accounts.GetByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("email not normalised: %v", err)
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in clear")
	}
	profile := accounts.profiles[0]
	if profile.FullName != "Asha Patil" || profile.DateOfBirth == nil || profile.DateOfBirth.Year() != 1992 {
		t.Fatalf("profile = %+v", profile)
	}

	login, err := svc.Login(ctx, "ASHA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	identity, _, err := svc.ValidateJWT(login.Token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if identity.UserID != result.UserID || identity.UserType != models.UserTypePatient {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(time.Now())
	ctx := context.Background()

	if _, err := svc.SignUpPatient(ctx, validPatient()); err != nil {
		t.Fatalf("SignUpPatient: %v", err)
	}
	if _, err := svc.SignUpPatient(ctx, validPatient()); !errors.Is(err, models.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PatientSignUp)
	}{
		{name: "missing name", mutate: func(p *PatientSignUp) { p.Name = " " }},
		{name: "bad email", mutate: func(p *PatientSignUp) { p.Email = "not-an-email" }},
		{name: "short password", mutate: func(p *PatientSignUp) { p.Password = "short" }},
		{name: "negative age", mutate: func(p *PatientSignUp) { p.Age = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, accounts := newTestUserService(time.Now())
			req := validPatient()
			tt.mutate(&req)
			if _, err := svc.SignUpPatient(context.Background(), req); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if len(accounts.users) != 0 {
				t.Fatal("account created despite invalid input")
			}
		})
	}
}

func TestSignUpDoctor(t *testing.T) {
	svc, accounts := newTestUserService(time.Now())
	req := DoctorSignUp{
		Name:               "Dr. Rao",
		Email:              "rao@example.com",
		Password:           "s3cret-pass",
		Specialization:     "Cardiology",
		Experience:         12,
		Qualification:      "MD",
		RegistrationNumber: "MCI-1234",
		Address:            "City Hospital",
	}

	result, err := svc.SignUpDoctor(context.Background(), req)
	if err != nil {
		t.Fatalf("SignUpDoctor: %v", err)
	}
	if result.UserType != models.UserTypeDoctor {
		t.Fatalf("user type = %q", result.UserType)
	}
	if len(accounts.doctors) != 1 {
		t.Fatalf("doctor profiles = %d, want 1", len(accounts.doctors))
	}
	doctor := accounts.doctors[0]
	if doctor.MedicalLicense != "MCI-1234" || doctor.ExperienceYears != 12 || doctor.ProfileID != accounts.profiles[0].ID {
		t.Fatalf("doctor = %+v", doctor)
	}

	req.Email = "other@example.com"
	req.Specialization = ""
	if _, err := svc.SignUpDoctor(context.Background(), req); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestUserService(time.Now())
	ctx := context.Background()
	if _, err := svc.SignUpPatient(ctx, validPatient()); err != nil {
		t.Fatalf("SignUpPatient: %v", err)
	}

	if _, err := svc.Login(ctx, "asha@example.com", "wrong-password"); !errors.Is(err, models.ErrInvalidLogin) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, models.ErrInvalidLogin) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	now := time.Now()
	svc, _ := newTestUserService(now)
	ctx := context.Background()

	result, err := svc.SignUpPatient(ctx, validPatient())
	if err != nil {
		t.Fatalf("SignUpPatient: %v", err)
	}
	identity, expiresAt, err := svc.ValidateJWT(result.Token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}

	if err := svc.SignOut(identity, expiresAt); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, _, err := svc.ValidateJWT(result.Token); !errors.Is(err, models.ErrInvalidToken) {
		t.Fatalf("revoked token err = %v, want ErrInvalidToken", err)
	}

	other, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.ValidateJWT(other.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	if err := svc.SignOut(nil, expiresAt); !errors.Is(err, models.ErrAuthRequired) {
		t.Fatalf("SignOut(nil) err = %v", err)
	}
}

func TestValidateJWTRejects(t *testing.T) {
	now := time.Now()
	svc, _ := newTestUserService(now)

	sign := func(secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
		t.Helper()
		var key any = []byte(secret)
		if method == jwt.SigningMethodNone {
			key = jwt.UnsafeAllowNoneSignatureType
		}
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"user_id":   "u1",
			"user_type": "patient",
			"jti":       "t1",
			"exp":       now.Add(time.Hour).Unix(),
		}
	}

	expired := valid()
	expired["exp"] = now.Add(-time.Minute).Unix()
	noUser := valid()
	delete(noUser, "user_id")
	badType := valid()
	badType["user_type"] = "superuser"

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "wrong secret", token: sign("other-secret", jwt.SigningMethodHS256, valid())},
		{name: "none algorithm", token: sign("", jwt.SigningMethodNone, valid())},
		{name: "expired", token: sign("test-secret", jwt.SigningMethodHS256, expired)},
		{name: "missing user", token: sign("test-secret", jwt.SigningMethodHS256, noUser)},
		{name: "unknown user type", token: sign("test-secret", jwt.SigningMethodHS256, badType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.ValidateJWT(tt.token); !errors.Is(err, models.ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
