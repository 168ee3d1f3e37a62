package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"medcamp-backend/internal/i18n"
	"medcamp-backend/internal/models"

	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	identityKey    contextKey = "identity"
	tokenExpiryKey contextKey = "token_expiry"
)

// TokenValidator turns a bearer token into the identity it carries.
type TokenValidator interface {
	ValidateJWT(token string) (*models.Identity, time.Time, error)
}

// LocaleMatcher picks a supported locale for an Accept-Language header.
type LocaleMatcher interface {
	Match(acceptLanguage string) string
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(authHeader)
			if !ok {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			identity, expiresAt, err := validator.ValidateJWT(token)
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity, expiresAt)))
		})
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present.
// A missing, malformed, expired or revoked token leaves the request
// anonymous, so the handler's own auth_required response applies.
func OptionalAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, expiresAt, err := validator.ValidateJWT(token)
			if err != nil {
				log.Debug().Err(err).Msg("Ignoring invalid optional bearer token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity, expiresAt)))
		})
	}
}

// RequireUserType rejects authenticated callers whose account type is not
// one of allowed. It must run after AuthMiddleware.
func RequireUserType(allowed ...models.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				respondError(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			for _, t := range allowed {
				if identity.UserType == t {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// Locale stores the best matching locale for the request in its context.
func Locale(matcher LocaleMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := matcher.Match(r.Header.Get("Accept-Language"))
			next.ServeHTTP(w, r.WithContext(i18n.WithLocale(r.Context(), locale)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func withIdentity(ctx context.Context, identity *models.Identity, expiresAt time.Time) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tokenExpiryKey, expiresAt)
}

// GetIdentity extracts the caller from context; nil when anonymous.
func GetIdentity(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityKey).(*models.Identity)
	return identity
}

// GetTokenExpiry returns the expiry of the token that authenticated the request.
func GetTokenExpiry(ctx context.Context) time.Time {
	expiresAt, _ := ctx.Value(tokenExpiryKey).(time.Time)
	return expiresAt
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ValidateWebSocketToken validates JWT token from WebSocket query parameter
func ValidateWebSocketToken(token string, validator TokenValidator) (*models.Identity, error) {
	if token == "" {
		return nil, models.ErrAuthRequired
	}
	identity, _, err := validator.ValidateJWT(token)
	return identity, err
}
