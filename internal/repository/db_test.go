package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	malformed := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "1"`}
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	tests := []struct {
		name         string
		err          error
		wantNotFound bool
		wantUnique   bool
	}{
		{name: "no rows", err: pgx.ErrNoRows, wantNotFound: true},
		{name: "wrapped no rows", err: fmt.Errorf("scan camp: %w", pgx.ErrNoRows), wantNotFound: true},
		{name: "malformed uuid", err: malformed, wantNotFound: true},
		{name: "wrapped malformed uuid", err: fmt.Errorf("scan camp: %w", malformed), wantNotFound: true},
		{name: "unique violation", err: unique, wantUnique: true},
		{name: "connection failure", err: errors.New("connection reset by peer")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.wantNotFound {
				t.Errorf("isNotFound = %v, want %v", got, tt.wantNotFound)
			}
			if got := isUniqueViolation(tt.err, ""); got != tt.wantUnique {
				t.Errorf("isUniqueViolation = %v, want %v", got, tt.wantUnique)
			}
		})
	}

	if isUniqueViolation(unique, "camp_registrations_camp_user_key") {
		t.Error("isUniqueViolation matched the wrong constraint")
	}
	if isNoRows(malformed) {
		t.Error("a malformed id is not an empty result")
	}
}
