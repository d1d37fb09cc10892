package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/repository"
)

// PostgresStore keeps snapshots in the sessions table as JSONB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanState(s repository.Scanner) (workflow.State, error) {
	var raw []byte
	if err := s.Scan(&raw); err != nil {
		return workflow.State{}, err
	}
	return decodeState(raw)
}

func scanExpired(s repository.Scanner) (Expired, error) {
	var (
		e   Expired
		raw []byte
	)
	if err := s.Scan(&e.ID, &raw); err != nil {
		return Expired{}, err
	}
	state, err := decodeState(raw)
	if err != nil {
		return Expired{}, err
	}
	e.State = state
	return e, nil
}

func decodeState(raw []byte) (workflow.State, error) {
	var state workflow.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return workflow.State{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

func (s *PostgresStore) Load(ctx context.Context, id uuid.UUID) (workflow.State, error) {
	q := `
		SELECT state FROM sessions
		WHERE id = $1 AND expires_at > now()`

	state, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanState)
	if err != nil {
		return workflow.State{}, repository.MapError(err, ErrNotFound)
	}
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, id uuid.UUID, state workflow.State, expires time.Time) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	q := `
		INSERT INTO sessions (id, state, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = now()`

	if _, err := repository.Exec(ctx, s.db, q, id, string(raw), expires); err != nil {
		return repository.MapError(err, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, s.db, `DELETE FROM sessions WHERE id = $1`, id)
	return repository.MapError(err, ErrNotFound)
}

func (s *PostgresStore) Purge(ctx context.Context, before time.Time) ([]Expired, error) {
	return repository.WithTx(ctx, s.db, func(tx *sql.Tx) ([]Expired, error) {
		q := `
			DELETE FROM sessions
			WHERE expires_at <= $1
			RETURNING id, state`

		expired, err := repository.QueryMany(ctx, tx, q, []any{before}, scanExpired)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound)
		}
		return expired, nil
	})
}
