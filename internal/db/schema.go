package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent bootstrap DDL. There is no versioned migration history.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		name          TEXT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS requests (
		id             BIGSERIAL PRIMARY KEY,
		requester_name TEXT NOT NULL,
		phone          TEXT NOT NULL,
		blood_group    TEXT NOT NULL,
		city           TEXT NOT NULL,
		state          TEXT NOT NULL DEFAULT '',
		notes          TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'open',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id            BIGSERIAL PRIMARY KEY,
		ngo_id        BIGINT NOT NULL REFERENCES users(id),
		title         TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		photos        TEXT[] NOT NULL DEFAULT '{}',
		location_text TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
