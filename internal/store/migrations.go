package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all PetMS tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             TEXT PRIMARY KEY,
		username       TEXT NOT NULL UNIQUE,
		password_hash  BLOB NOT NULL,
		role           TEXT NOT NULL DEFAULT 'staff',
		login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until   INTEGER,
		session_id     TEXT NOT NULL DEFAULT '',
		created_at     INTEGER NOT NULL,
		last_login_at  INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS owners (
		id                       TEXT PRIMARY KEY,
		owner_ref                TEXT NOT NULL UNIQUE,
		first_name               TEXT NOT NULL,
		last_name                TEXT NOT NULL,
		gender                   TEXT NOT NULL DEFAULT 'Prefer not to say',
		birthdate                TEXT,
		civil_status             TEXT NOT NULL DEFAULT 'Single',
		email                    TEXT NOT NULL,
		phone                    TEXT NOT NULL,
		phone2                   TEXT NOT NULL DEFAULT '',
		address                  TEXT NOT NULL DEFAULT '',
		emergency_contact_person TEXT NOT NULL DEFAULT '',
		emergency_contact_number TEXT NOT NULL DEFAULT '',
		photo_file               TEXT NOT NULL DEFAULT '',
		status                   TEXT NOT NULL DEFAULT 'Active',
		created_at               TEXT NOT NULL,
		updated_at               TEXT NOT NULL
	)`,

	// Sessions table for UI authentication
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		username   TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'staff',
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_owners_email ON owners(lower(email))`,
	`CREATE INDEX IF NOT EXISTS idx_owners_created_at ON owners(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	// QR code payload for owner ID cards, added after the initial release.
	{
		table:    "owners",
		column:   "qr_code",
		alterSQL: "ALTER TABLE owners ADD COLUMN qr_code TEXT NOT NULL DEFAULT ''",
	},
}

// migrate executes all schema DDL statements and alter migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// Execute ALTER TABLE statements idempotently.
	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil // Column already exists
		}
	}

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
