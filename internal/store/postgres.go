// postgres.go -- pgxpool-backed record store.
//
// Stores applications in the "applications" table created by migrations/.
// All queries use parameterized statements (no string concatenation).
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements RecordStore on a Postgres connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a pool for databaseURL and pings it before returning.
// Call once at startup from main.go...the returned store is safe for concurrent use.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool}, nil
}

// Close shuts down the connection pool and releases all resources.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CheckHealth pings the pool.
func (s *PostgresStore) CheckHealth(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateApplication inserts an unverified application for nickname and returns its id.
func (s *PostgresStore) CreateApplication(ctx context.Context, nickname string) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating application id: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		"INSERT INTO applications (id, nickname) VALUES ($1, $2)",
		id, nickname)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// FindByNickname returns the oldest application whose nickname equals nickname exactly.
func (s *PostgresStore) FindByNickname(ctx context.Context, nickname string) (*Record, error) {
	var (
		id       uuid.UUID
		rec      Record
		username *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, nickname, verified, bungie_username
		FROM applications
		WHERE nickname = $1
		ORDER BY created_at, id
		LIMIT 1`,
		nickname,
	).Scan(&id, &rec.Nickname, &rec.Verified, &username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.ID = id.String()
	if username != nil {
		rec.BungieUsername = *username
	}
	return &rec, nil
}

// MarkVerified flips verified and stores identity. Re-running with the same values is a no-op overwrite.
func (s *PostgresStore) MarkVerified(ctx context.Context, id, identity string) error {
	uid, err := uuid.FromString(id)
	if err != nil {
		return fmt.Errorf("parsing record id %q: %w", id, err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE applications
		SET verified = true, bungie_username = $2, updated_at = now()
		WHERE id = $1`,
		uid, identity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
