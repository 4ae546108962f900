package request

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/karimzahran/sakan/internal/db"
)

func testRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	// Requests reference listings; seed one.
	if _, err := d.Exec(
		"INSERT INTO listings (id, owner_email, location) VALUES (?, ?, ?)",
		"lst-1", "seller@example.com", "Cairo",
	); err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	return NewRepository(d), d
}

func TestCreateRequest(t *testing.T) {
	repo, _ := testRepo(t)

	req, err := repo.Create("lst-1", "Buyer@Example.com", "when can I visit?")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if req.Status != StatusPending {
		t.Errorf("status = %q, want %q", req.Status, StatusPending)
	}
	if req.BuyerEmail != "buyer@example.com" {
		t.Errorf("buyer = %q, want normalized lowercase", req.BuyerEmail)
	}
	if req.DecidedAt != nil {
		t.Error("new request should have no decision time")
	}
}

func TestCreateRejectsDuplicatePending(t *testing.T) {
	repo, _ := testRepo(t)

	if _, err := repo.Create("lst-1", "buyer@example.com", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create("lst-1", "buyer@example.com", "again"); err == nil {
		t.Error("expected error for second pending request on same listing")
	}
}

func TestCreateAllowsNewRequestAfterDecision(t *testing.T) {
	repo, _ := testRepo(t)

	req, err := repo.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetStatus(req.ID, StatusDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if _, err := repo.Create("lst-1", "buyer@example.com", "second try"); err != nil {
		t.Errorf("create after decline: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	repo, _ := testRepo(t)

	req, err := repo.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetStatus(req.ID, StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := repo.GetByID(req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusApproved {
		t.Errorf("status = %q, want %q", got.Status, StatusApproved)
	}
	if got.DecidedAt == nil {
		t.Error("expected decision time to be set")
	}
}

func TestSetStatusRejectsSecondDecision(t *testing.T) {
	repo, _ := testRepo(t)

	req, err := repo.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetStatus(req.ID, StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := repo.SetStatus(req.ID, StatusDeclined); err == nil {
		t.Error("expected error deciding an already-decided request")
	}
}

func TestSetStatusRejectsPending(t *testing.T) {
	repo, _ := testRepo(t)

	req, err := repo.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetStatus(req.ID, StatusPending); err == nil {
		t.Error("expected error: pending is not a decision")
	}
}

func TestListForListingFiltersStatus(t *testing.T) {
	repo, _ := testRepo(t)

	r1, err := repo.Create("lst-1", "a@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("lst-1", "b@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetStatus(r1.ID, StatusDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	pending, err := repo.ListForListing("lst-1", StatusPending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending, want 1", len(pending))
	}
	if pending[0].BuyerEmail != "b@example.com" {
		t.Errorf("pending buyer = %q, want b@example.com", pending[0].BuyerEmail)
	}

	all, err := repo.ListForListing("lst-1", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d requests, want 2", len(all))
	}
}

func TestListForBuyer(t *testing.T) {
	repo, d := testRepo(t)

	if _, err := d.Exec(
		"INSERT INTO listings (id, owner_email, location) VALUES (?, ?, ?)",
		"lst-2", "seller@example.com", "Giza",
	); err != nil {
		t.Fatalf("seed second listing: %v", err)
	}

	if _, err := repo.Create("lst-1", "buyer@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("lst-2", "buyer@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("lst-1", "other@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := repo.ListForBuyer("Buyer@Example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d requests, want 2", len(mine))
	}
}
