package auth

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/karimzahran/sakan/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func TestGetOrCreateRegistersBuyer(t *testing.T) {
	s := NewUserStore(testDB(t))

	u, err := s.GetOrCreate("Amira@Example.com")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if u.Email != "amira@example.com" {
		t.Errorf("email = %q, want normalized lowercase", u.Email)
	}
	if u.Role != RoleBuyer {
		t.Errorf("role = %q, want %q", u.Role, RoleBuyer)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewUserStore(testDB(t))

	u1, err := s.GetOrCreate("amira@example.com")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	u2, err := s.GetOrCreate("amira@example.com")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if u1.ID != u2.ID {
		t.Errorf("created a second user: %d != %d", u1.ID, u2.ID)
	}
}

func TestGetOrCreateRejectsEmpty(t *testing.T) {
	s := NewUserStore(testDB(t))

	if _, err := s.GetOrCreate("  "); err == nil {
		t.Error("expected error for blank email")
	}
}

func TestUpdateProfile(t *testing.T) {
	s := NewUserStore(testDB(t))

	if _, err := s.GetOrCreate("amira@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.UpdateProfile("amira@example.com", "Amira", "+20 100 555 0199"); err != nil {
		t.Fatalf("update: %v", err)
	}

	u, err := s.GetByEmail("amira@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Name != "Amira" || u.Phone != "+20 100 555 0199" {
		t.Errorf("profile not updated: %+v", u)
	}
}

func TestSetRole(t *testing.T) {
	s := NewUserStore(testDB(t))

	if _, err := s.GetOrCreate("amira@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.SetRole("amira@example.com", RoleSeller); err != nil {
		t.Fatalf("set role: %v", err)
	}
	u, err := s.GetByEmail("amira@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Role != RoleSeller {
		t.Errorf("role = %q, want %q", u.Role, RoleSeller)
	}

	if err := s.SetRole("amira@example.com", "landlord"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestDeleteUser(t *testing.T) {
	s := NewUserStore(testDB(t))

	if _, err := s.GetOrCreate("amira@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete("amira@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetByEmail("amira@example.com"); err == nil {
		t.Error("expected user to be gone")
	}
	if err := s.Delete("amira@example.com"); err == nil {
		t.Error("expected error deleting twice")
	}
}
