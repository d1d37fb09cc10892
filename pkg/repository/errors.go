package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnavailable reports that the database could not be reached.
var ErrUnavailable = errors.New("database unavailable")

// SQLSTATE class 08 covers connection exceptions.
const pgConnectionClass = "08"

// MapError translates database errors to domain errors. sql.ErrNoRows maps to
// notFoundErr and PostgreSQL connection exceptions map to ErrUnavailable.
// Other errors are returned unchanged.
func MapError(err error, notFoundErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, pgConnectionClass) {
		return ErrUnavailable
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ErrUnavailable
	}

	return err
}
