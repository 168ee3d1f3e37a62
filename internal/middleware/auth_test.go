package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"
)

type fakeValidator struct {
	tokens map[string]*models.Identity
}

func (v fakeValidator) ValidateJWT(token string) (*models.Identity, time.Time, error) {
	identity, ok := v.tokens[token]
	if !ok {
		return nil, time.Time{}, models.ErrInvalidToken
	}
	return identity, time.Unix(1_900_000_000, 0), nil
}

var validator = fakeValidator{tokens: map[string]*models.Identity{
	"patient-token": {UserID: "p1", UserType: models.UserTypePatient, TokenID: "t1"},
	"doctor-token":  {UserID: "d1", UserType: models.UserTypeDoctor, TokenID: "t2"},
}}

// captureIdentity records the identity the wrapped handler observed.
func captureIdentity(got **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetIdentity(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer patient-token", wantStatus: http.StatusNoContent, wantUser: "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.Identity
			h := AuthMiddleware(validator)(captureIdentity(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUser == "" {
				if got != nil {
					t.Fatalf("identity leaked: %+v", got)
				}
				return
			}
			if got == nil || got.UserID != tt.wantUser {
				t.Fatalf("identity = %+v, want user %q", got, tt.wantUser)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var got *models.Identity
	h := OptionalAuth(validator)(captureIdentity(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent || got != nil {
		t.Fatalf("anonymous: status %d identity %+v", rec.Code, got)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer doctor-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || got == nil || got.UserID != "d1" {
		t.Fatalf("authenticated: status %d identity %+v", rec.Code, got)
	}

	for _, header := range []string{"Bearer forged", "Basic abc", "Bearer "} {
		got = nil
		req = httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", header)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent || got != nil {
			t.Fatalf("%q: status %d identity %+v, want anonymous pass-through", header, rec.Code, got)
		}
	}
}

func TestRequireUserType(t *testing.T) {
	var got *models.Identity
	h := AuthMiddleware(validator)(RequireUserType(models.UserTypeDoctor, models.UserTypeAdmin)(captureIdentity(&got)))

	tests := []struct {
		token      string
		wantStatus int
	}{
		{token: "doctor-token", wantStatus: http.StatusNoContent},
		{token: "patient-token", wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.token, rec.Code, tt.wantStatus)
		}
	}

	rec := httptest.NewRecorder()
	RequireUserType(models.UserTypeAdmin)(captureIdentity(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without identity status = %d, want 401", rec.Code)
	}
}

func TestTokenExpiryInContext(t *testing.T) {
	var expiry time.Time
	h := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expiry = GetTokenExpiry(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer patient-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !expiry.Equal(time.Unix(1_900_000_000, 0)) {
		t.Fatalf("expiry = %v", expiry)
	}
}

type prefixMatcher struct{}

func (prefixMatcher) Match(acceptLanguage string) string {
	if len(acceptLanguage) >= 2 && acceptLanguage[:2] == "hi" {
		return "hi"
	}
	return "en"
}

func TestLocale(t *testing.T) {
	var locale string
	h := Locale(prefixMatcher{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = i18n.LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if locale != "hi" {
		t.Fatalf("locale = %q, want hi", locale)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if locale != "en" {
		t.Fatalf("default locale = %q, want en", locale)
	}
}

func TestValidateWebSocketToken(t *testing.T) {
	if _, err := ValidateWebSocketToken("", validator); err != models.ErrAuthRequired {
		t.Fatalf("empty token err = %v", err)
	}
	identity, err := ValidateWebSocketToken("patient-token", validator)
	if err != nil || identity.UserID != "p1" {
		t.Fatalf("identity = %+v err = %v", identity, err)
	}
}
