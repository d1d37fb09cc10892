package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/roomset/pkg/repository"
)

var errSessionNotFound = errors.New("session not found")

func TestMapError(t *testing.T) {
	other := errors.New("some other error")
	constraint := &pgconn.PgError{Code: "23505"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errSessionNotFound},
		{"wrapped no rows", fmt.Errorf("load: %w", sql.ErrNoRows), errSessionNotFound},
		{"connection failure", &pgconn.PgError{Code: "08006"}, repository.ErrUnavailable},
		{"constraint passthrough", constraint, constraint},
		{"other passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errSessionNotFound)
			if got != tt.want {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
