package chat

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

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

	// Conversations reference listings; seed one.
	if _, err := d.Exec(
		"INSERT INTO listings (id, owner_email, location) VALUES (?, ?, ?)",
		"lst-1", "seller@example.com", "Cairo",
	); err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	return NewRepository(d), d
}

func TestOpenCreatesOnce(t *testing.T) {
	repo, _ := testRepo(t)

	c1, err := repo.Open("lst-1", "Buyer@Example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c1.BuyerEmail != "buyer@example.com" {
		t.Errorf("buyer = %q, want normalized lowercase", c1.BuyerEmail)
	}

	c2, err := repo.Open("lst-1", "buyer@example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c1.ID != c2.ID {
		t.Errorf("reopen created a second conversation: %s != %s", c1.ID, c2.ID)
	}
}

func TestSaveMessageAssignsDurableIdentity(t *testing.T) {
	repo, _ := testRepo(t)

	c, err := repo.Open("lst-1", "buyer@example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sentAt := time.Now().Add(-time.Second)
	m, err := repo.SaveMessage(c.ID, "buyer@example.com", "is it available?", "", sentAt)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if m.ID == "" {
		t.Error("expected durable id")
	}
	if m.ServerAt.IsZero() {
		t.Error("expected server timestamp")
	}
	if m.Status != StatusDelivered {
		t.Errorf("status = %q, want %q", m.Status, StatusDelivered)
	}

	got, err := repo.GetByID(c.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.LastMessageAt.IsZero() {
		t.Error("conversation activity not bumped")
	}
}

func TestListMessagesAscending(t *testing.T) {
	repo, _ := testRepo(t)

	c, err := repo.Open("lst-1", "buyer@example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		if _, err := repo.SaveMessage(c.ID, "buyer@example.com", b, "", time.Now()); err != nil {
			t.Fatalf("save %q: %v", b, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	msgs, err := repo.ListMessages(c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range bodies {
		if msgs[i].Body != want {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Body, want)
		}
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ServerAt.Before(msgs[i-1].ServerAt) {
			t.Errorf("messages not ascending at %d", i)
		}
	}
}

func TestListForUserOrder(t *testing.T) {
	repo, d := testRepo(t)

	if _, err := d.Exec(
		"INSERT INTO listings (id, owner_email, location) VALUES (?, ?, ?)",
		"lst-2", "seller@example.com", "Giza",
	); err != nil {
		t.Fatalf("seed second listing: %v", err)
	}

	c1, err := repo.Open("lst-1", "buyer@example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("open c1: %v", err)
	}
	c2, err := repo.Open("lst-2", "buyer@example.com", "seller@example.com")
	if err != nil {
		t.Fatalf("open c2: %v", err)
	}

	// Activity on c1 makes it the most recent.
	if _, err := repo.SaveMessage(c1.ID, "buyer@example.com", "hi", "", time.Now()); err != nil {
		t.Fatalf("save: %v", err)
	}

	convs, err := repo.ListForUser("buyer@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != c1.ID {
		t.Errorf("most recent = %s, want %s", convs[0].ID, c1.ID)
	}

	// Sellers see the same conversations.
	sellerConvs, err := repo.ListForUser("seller@example.com")
	if err != nil {
		t.Fatalf("list for seller: %v", err)
	}
	if len(sellerConvs) != 2 {
		t.Errorf("seller sees %d conversations, want 2", len(sellerConvs))
	}
	_ = c2
}
