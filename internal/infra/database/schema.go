package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables the application needs. Each statement
// is idempotent, so EnsureSchema runs on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                    BIGSERIAL PRIMARY KEY,
		email                 VARCHAR(320) NOT NULL,
		display_name          VARCHAR(200) NOT NULL DEFAULT '',
		timezone              VARCHAR(64)  NOT NULL DEFAULT '',
		notifications_enabled BOOLEAN      NOT NULL DEFAULT TRUE,
		telegram_chat_id      BIGINT,
		created_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email),
		CONSTRAINT users_telegram_chat_id_key UNIQUE (telegram_chat_id)
	)`,
	`CREATE TABLE IF NOT EXISTS supplements (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT       NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name       VARCHAR(200) NOT NULL,
		doc        JSONB        NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS supplements_user_id_idx ON supplements (user_id)`,
	`CREATE TABLE IF NOT EXISTS notification_runs (
		id            UUID PRIMARY KEY,
		run_date      DATE        NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ,
		sent_count    INTEGER     NOT NULL DEFAULT 0,
		skipped_count INTEGER     NOT NULL DEFAULT 0,
		failed_count  INTEGER     NOT NULL DEFAULT 0,
		error         TEXT        NOT NULL DEFAULT ''
	)`,
	`ALTER TABLE notification_runs ADD COLUMN IF NOT EXISTS error TEXT NOT NULL DEFAULT ''`,
	`CREATE TABLE IF NOT EXISTS notification_deliveries (
		id            BIGSERIAL PRIMARY KEY,
		run_id        UUID        NOT NULL REFERENCES notification_runs(id),
		user_id       BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		supplement_id BIGINT      NOT NULL REFERENCES supplements(id) ON DELETE CASCADE,
		kind          VARCHAR(32) NOT NULL,
		event_date    DATE        NOT NULL,
		channel       VARCHAR(16) NOT NULL,
		sent_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT notification_deliveries_unique UNIQUE (user_id, supplement_id, kind, event_date, channel)
	)`,
}

// EnsureSchema creates missing tables and indexes inside one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	for i, stmt := range schemaStatements {
		if _, err := txn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return txn.Commit()
}
