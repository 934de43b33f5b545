package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// migration is one versioned schema step. Statements run inside a single
// transaction together with the schema_migrations bookkeeping row.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "core tables",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS agents (
				agent_id        UUID PRIMARY KEY,
				chat_id         BIGINT NOT NULL UNIQUE,
				name            VARCHAR(255),
				username        VARCHAR(255),
				phone           VARCHAR(32),
				admin_logged_in BOOLEAN NOT NULL DEFAULT FALSE,
				created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS agents_username_lower_idx ON agents (lower(username))`,
			`CREATE TABLE IF NOT EXISTS visits (
				visit_id   UUID PRIMARY KEY,
				agent_id   UUID NOT NULL REFERENCES agents(agent_id) ON DELETE CASCADE,
				address    VARCHAR(255),
				started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				closed_at  TIMESTAMPTZ
			)`,
			`CREATE TABLE IF NOT EXISTS contacts (
				contact_id    UUID PRIMARY KEY,
				visit_id      UUID NOT NULL REFERENCES visits(visit_id) ON DELETE CASCADE,
				agent_id      UUID REFERENCES agents(agent_id) ON DELETE SET NULL,
				full_name     VARCHAR(255) NOT NULL,
				phone_e164    VARCHAR(32) NOT NULL,
				phone_hash    VARCHAR(64) NOT NULL,
				repeat_touch  VARCHAR(16),
				talk_status   VARCHAR(16),
				door_photo    BOOLEAN NOT NULL DEFAULT FALSE,
				mailbox_photo BOOLEAN NOT NULL DEFAULT FALSE,
				flyer_method  VARCHAR(16),
				flyer_number  VARCHAR(64),
				home_voting   BOOLEAN,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				closed_at     TIMESTAMPTZ
			)`,
			// Uniqueness holds only over non-null values; this index is the
			// backstop for the allocator's check-then-write window.
			`CREATE UNIQUE INDEX IF NOT EXISTS contacts_flyer_number_key
				ON contacts (flyer_number) WHERE flyer_number IS NOT NULL`,
			`CREATE INDEX IF NOT EXISTS contacts_agent_created_idx ON contacts (agent_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS contacts_created_idx ON contacts (created_at)`,
		},
	},
	{
		version: 2,
		name:    "brigade relations",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS brigadiers (
				brig_chat_id BIGINT PRIMARY KEY
			)`,
			`CREATE TABLE IF NOT EXISTS brig_sessions (
				brig_chat_id BIGINT PRIMARY KEY,
				logged_in    BOOLEAN NOT NULL DEFAULT FALSE
			)`,
			`CREATE TABLE IF NOT EXISTS brig_members (
				brig_chat_id   BIGINT NOT NULL,
				member_chat_id BIGINT NOT NULL,
				PRIMARY KEY (brig_chat_id, member_chat_id)
			)`,
			`CREATE TABLE IF NOT EXISTS blocked_members (
				member_chat_id BIGINT PRIMARY KEY,
				blocked_by     BIGINT
			)`,
		},
	},
}

// Migrate applies pending migrations once, in version order.
func Migrate(db *sql.DB, logger *zap.Logger) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRow(`SELECT max(version) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && m.version <= int(current.Int64) {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
		logger.Info("applied migration",
			zap.Int("version", m.version),
			zap.String("name", m.name),
		)
	}
	return nil
}
