package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Numeric listing fields (floor, bedrooms, rent) are TEXT on purpose:
// they mirror the upstream document schema, where sellers type them in
// free-form and the search engine treats them as strings.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		email      TEXT     NOT NULL UNIQUE,
		name       TEXT     NOT NULL DEFAULT '',
		role       TEXT     NOT NULL DEFAULT 'buyer',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id          TEXT     PRIMARY KEY,
		owner_email TEXT     NOT NULL,
		location    TEXT     NOT NULL,
		features    TEXT     NOT NULL DEFAULT '',
		floor       TEXT     NOT NULL DEFAULT '0',
		bedrooms    TEXT     NOT NULL DEFAULT '0',
		rent        TEXT     NOT NULL DEFAULT '0',
		status      TEXT     NOT NULL DEFAULT 'Available',
		keywords    TEXT     NOT NULL DEFAULT '[]',
		images      TEXT     NOT NULL DEFAULT '[]',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id              TEXT     PRIMARY KEY,
		listing_id      TEXT     NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		buyer_email     TEXT     NOT NULL,
		seller_email    TEXT     NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_message_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           TEXT     PRIMARY KEY,
		chat_id      TEXT     NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		sender_email TEXT     NOT NULL,
		body         TEXT     NOT NULL DEFAULT '',
		image_url    TEXT     NOT NULL DEFAULT '',
		sent_at      DATETIME NOT NULL,
		server_at    DATETIME NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id          INTEGER  PRIMARY KEY AUTOINCREMENT,
		listing_id  TEXT     NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		buyer_email TEXT     NOT NULL,
		note        TEXT     NOT NULL DEFAULT '',
		status      TEXT     NOT NULL DEFAULT 'pending',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		decided_at  DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS rented (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		listing_id   TEXT     NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		buyer_email  TEXT     NOT NULL,
		seller_email TEXT     NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		email        TEXT     NOT NULL DEFAULT '',
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat_server_at ON messages(chat_id, server_at)`,
	`CREATE INDEX IF NOT EXISTS idx_chats_listing ON chats(listing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_listing_status ON requests(listing_id, status)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent; checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"users", "phone", "TEXT NOT NULL DEFAULT ''"},
		{"listings", "available_from", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil // column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
