package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migrationLockKey serialises concurrent cold starts running the schema
// statements at the same time.
const migrationLockKey = 7305114

type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{name: "entries table", stmt: `
CREATE TABLE IF NOT EXISTS entries (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    category          TEXT NOT NULL,
    entry_type        TEXT NOT NULL,
    title             TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    text_content      TEXT,
    pitch_deck_url    TEXT,
    file_name         TEXT,
    file_mime_type    TEXT,
    file_size         BIGINT,
    file_data         TEXT,
    file_storage_key  TEXT,
    file_url          TEXT,
    video_url         TEXT,
    entry_fee         BIGINT NOT NULL,
    surcharge         BIGINT NOT NULL,
    total_amount      BIGINT NOT NULL,
    payment_intent_id TEXT NOT NULL UNIQUE,
    payment_status    TEXT NOT NULL DEFAULT 'pending',
    review_status     TEXT NOT NULL DEFAULT 'submitted',
    submitted_at      TIMESTAMPTZ NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT chk_entries_entry_type CHECK (entry_type IN ('text', 'pitch-deck', 'video')),
    CONSTRAINT chk_entries_total CHECK (total_amount = entry_fee + surcharge)
)`},
	// 一覧取得 (WHERE user_id = $1 ORDER BY created_at DESC)
	{name: "owner index", stmt: `CREATE INDEX IF NOT EXISTS idx_entries_user_created ON entries(user_id, created_at DESC)`},
	{name: "review status index", stmt: `CREATE INDEX IF NOT EXISTS idx_entries_review_status ON entries(review_status)`},
}

// MigrateUp brings the schema up to date in one transaction. Every
// statement is idempotent, so running it on each cold start is safe.
func MigrateUp(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("migrate: lock: %w", err)
	}
	for _, m := range migrations {
		if _, err = tx.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("migrate: %s: %w", m.name, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
