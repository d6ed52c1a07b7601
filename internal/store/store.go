// Package store persists user accounting: who has talked to the bot, when,
// and how many messages they have sent. It is a side concern; when no
// database is configured the tracker degrades to a no-op and question
// answering is unaffected.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
)

// DBPool abstracts the pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides a PostgreSQL implementation of schemas.UserTracker.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// Statically assert that Store implements the tracker contract.
var _ schemas.UserTracker = (*Store)(nil)

const sqlCreateUsersTable = `
	CREATE TABLE IF NOT EXISTS users (
		telegram_id   BIGINT PRIMARY KEY,
		username      TEXT,
		first_name    TEXT,
		last_name     TEXT,
		first_seen    TIMESTAMPTZ NOT NULL,
		last_seen     TIMESTAMPTZ NOT NULL,
		message_count INTEGER NOT NULL DEFAULT 0
	);`

const sqlUpsertUser = `
	INSERT INTO users (telegram_id, username, first_name, last_name, first_seen, last_seen, message_count)
	VALUES ($1, $2, $3, $4, $5, $5, 0)
	ON CONFLICT (telegram_id) DO UPDATE SET
		username = EXCLUDED.username,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		last_seen = EXCLUDED.last_seen;`

const sqlIncrementMessages = `
	UPDATE users SET message_count = message_count + 1 WHERE telegram_id = $1;`

const sqlSelectUser = `
	SELECT telegram_id, username, first_name, last_name, first_seen, last_seen, message_count
	FROM users WHERE telegram_id = $1;`

const sqlCountUsers = `SELECT COUNT(*) FROM users;`

// New creates a store, verifies the connection, and ensures the schema exists.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, sqlCreateUsersTable); err != nil {
		return nil, fmt.Errorf("failed to ensure users table: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// TrackUser upserts the user's profile; a returning user keeps first_seen and
// gets a refreshed last_seen.
func (s *Store) TrackUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	now := time.Now().UTC()
	if _, err := s.pool.Exec(ctx, sqlUpsertUser, id, username, firstName, lastName, now); err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", id, err)
	}
	return nil
}

// IncrementMessageCount bumps the user's message counter. An unknown user is
// not an error; the row simply does not change.
func (s *Store) IncrementMessageCount(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, sqlIncrementMessages, id); err != nil {
		return fmt.Errorf("failed to increment message count for user %d: %w", id, err)
	}
	return nil
}

// GetUserStats returns the stored stats for one user.
func (s *Store) GetUserStats(ctx context.Context, id int64) (schemas.UserStats, error) {
	var stats schemas.UserStats
	row := s.pool.QueryRow(ctx, sqlSelectUser, id)
	if err := row.Scan(&stats.TelegramID, &stats.Username, &stats.FirstName, &stats.LastName,
		&stats.FirstSeen, &stats.LastSeen, &stats.MessageCount); err != nil {
		return schemas.UserStats{}, fmt.Errorf("failed to load stats for user %d: %w", id, err)
	}
	return stats, nil
}

// CountUsers returns the total number of tracked users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, sqlCountUsers).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// NoopTracker satisfies schemas.UserTracker without persisting anything. It
// is used when no database is configured.
type NoopTracker struct{}

var _ schemas.UserTracker = NoopTracker{}

func (NoopTracker) TrackUser(context.Context, int64, string, string, string) error { return nil }
func (NoopTracker) IncrementMessageCount(context.Context, int64) error             { return nil }
func (NoopTracker) GetUserStats(context.Context, int64) (schemas.UserStats, error) {
	return schemas.UserStats{}, nil
}
func (NoopTracker) CountUsers(context.Context) (int, error) { return 0, nil }
