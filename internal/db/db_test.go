package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "sakan.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "sakan.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "sakan.db")
				d, err := Open(path)
				if err != nil {
					t.Fatalf("setup: %v", err)
				}
				if err := d.Close(); err != nil {
					t.Fatalf("setup close: %v", err)
				}
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer func() {
				if err := d.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestWALMode(t *testing.T) {
	d := openTestDB(t)

	var mode string
	if err := d.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestForeignKeys(t *testing.T) {
	d := openTestDB(t)

	var fk int
	if err := d.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name  string
		table string
		cols  []string
	}{
		{
			name:  "users table exists",
			table: "users",
			cols:  []string{"id", "email", "name", "role", "created_at", "phone"},
		},
		{
			name:  "listings table exists",
			table: "listings",
			cols:  []string{"id", "owner_email", "location", "features", "floor", "bedrooms", "rent", "status", "keywords", "images", "created_at", "updated_at", "available_from"},
		},
		{
			name:  "chats table exists",
			table: "chats",
			cols:  []string{"id", "listing_id", "buyer_email", "seller_email", "created_at", "last_message_at"},
		},
		{
			name:  "messages table exists",
			table: "messages",
			cols:  []string{"id", "chat_id", "sender_email", "body", "image_url", "sent_at", "server_at", "created_at"},
		},
		{
			name:  "requests table exists",
			table: "requests",
			cols:  []string{"id", "listing_id", "buyer_email", "note", "status", "created_at", "decided_at"},
		},
		{
			name:  "rented table exists",
			table: "rented",
			cols:  []string{"id", "listing_id", "buyer_email", "seller_email", "created_at"},
		},
		{
			name:  "auth_tokens table exists",
			table: "auth_tokens",
			cols:  []string{"id", "token", "email", "expires_at", "used", "created_at"},
		},
		{
			name:  "sessions table exists",
			table: "sessions",
			cols:  []string{"id", "email", "expires_at", "created_at"},
		},
		{
			name:  "api_keys table exists",
			table: "api_keys",
			cols:  []string{"id", "name", "email", "key_prefix", "key_hash", "created_at", "last_used_at"},
		},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)

	if _, err := d.Exec(
		`INSERT INTO listings (id, owner_email, location) VALUES (?, ?, ?)`,
		"lst-1", "seller@example.com", "Cairo",
	); err != nil {
		t.Fatalf("insert listing: %v", err)
	}

	if _, err := d.Exec(
		`INSERT INTO chats (id, listing_id, buyer_email, seller_email) VALUES (?, ?, ?, ?)`,
		"chat-1", "lst-1", "buyer@example.com", "seller@example.com",
	); err != nil {
		t.Fatalf("insert chat: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := d.Exec(
			`INSERT INTO messages (id, chat_id, sender_email, body, sent_at, server_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			fmt.Sprintf("msg-%d", i), "chat-1", "buyer@example.com", fmt.Sprintf("message %d", i),
		)
		if err != nil {
			t.Fatalf("insert message %d: %v", i, err)
		}
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, "chat-1").Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 messages, got %d", count)
	}

	// Deleting the listing should cascade through chats into messages
	if _, err := d.Exec(`DELETE FROM listings WHERE id = ?`, "lst-1"); err != nil {
		t.Fatalf("delete listing: %v", err)
	}

	if err := d.QueryRow(`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, "chat-1").Scan(&count); err != nil {
		t.Fatalf("count messages after delete: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 messages after cascade delete, got %d", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sakan.db")

	// Open twice; migrations should not fail on second run
	d1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second open (idempotency): %v", err)
	}
	if err := d2.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	p, err := DefaultPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p) != "sakan.db" {
		t.Errorf("expected filename sakan.db, got %s", filepath.Base(p))
	}

	dir := filepath.Base(filepath.Dir(p))
	if dir != "sakan" {
		t.Errorf("expected directory sakan, got %s", dir)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sakan.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
