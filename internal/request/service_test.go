package request

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/karimzahran/sakan/internal/listing"
	"github.com/karimzahran/sakan/internal/rented"
)

// recordingNotifier captures scheduled notifications for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Schedule(email, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, email+": "+title)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func testService(t *testing.T) (*Service, *listing.Repository, *rented.Repository, *recordingNotifier) {
	t.Helper()
	repo, d := testRepo(t)

	listings := listing.NewRepository(d)
	rentals := rented.NewRepository(d)
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(repo, listings, rentals, notifier, logger), listings, rentals, notifier
}

func TestServiceCreateNotifiesOwner(t *testing.T) {
	svc, _, _, notifier := testService(t)

	req, err := svc.Create("lst-1", "buyer@example.com", "interested")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != StatusPending {
		t.Errorf("status = %q, want %q", req.Status, StatusPending)
	}
	if notifier.count() != 1 {
		t.Errorf("got %d notifications, want 1", notifier.count())
	}
}

func TestServiceCreateRejectsOwnListing(t *testing.T) {
	svc, _, _, _ := testService(t)

	if _, err := svc.Create("lst-1", "seller@example.com", ""); err == nil {
		t.Error("expected error requesting own listing")
	}
}

func TestServiceCreateRejectsUnavailableListing(t *testing.T) {
	svc, listings, _, _ := testService(t)

	if err := listings.UpdateStatus("lst-1", listing.StatusUnavailable); err != nil {
		t.Fatalf("set unavailable: %v", err)
	}

	if _, err := svc.Create("lst-1", "buyer@example.com", ""); err == nil {
		t.Error("expected error requesting unavailable listing")
	}
}

func TestServiceApprove(t *testing.T) {
	svc, listings, rentals, notifier := testService(t)

	req, err := svc.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	decided, err := svc.Approve(req.ID, "seller@example.com")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Errorf("status = %q, want %q", decided.Status, StatusApproved)
	}

	l, err := listings.GetByID("lst-1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Status != listing.StatusRented {
		t.Errorf("listing status = %q, want %q", l.Status, listing.StatusRented)
	}

	records, err := rentals.ListForUser("buyer@example.com")
	if err != nil {
		t.Fatalf("list rentals: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d rental records, want 1", len(records))
	}
	if records[0].ListingID != "lst-1" || records[0].SellerEmail != "seller@example.com" {
		t.Errorf("unexpected rental record: %+v", records[0])
	}

	// One notification for the request, one for the approval.
	if notifier.count() != 2 {
		t.Errorf("got %d notifications, want 2", notifier.count())
	}
}

func TestServiceDecline(t *testing.T) {
	svc, listings, rentals, _ := testService(t)

	req, err := svc.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	decided, err := svc.Decline(req.ID, "seller@example.com")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if decided.Status != StatusDeclined {
		t.Errorf("status = %q, want %q", decided.Status, StatusDeclined)
	}

	// Declining leaves the listing and rentals untouched.
	l, err := listings.GetByID("lst-1")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if l.Status != listing.StatusAvailable {
		t.Errorf("listing status = %q, want %q", l.Status, listing.StatusAvailable)
	}

	records, err := rentals.ListForUser("buyer@example.com")
	if err != nil {
		t.Fatalf("list rentals: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d rental records, want 0", len(records))
	}
}

func TestServiceDecisionRequiresOwner(t *testing.T) {
	svc, _, _, _ := testService(t)

	req, err := svc.Create("lst-1", "buyer@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Approve(req.ID, "stranger@example.com"); err == nil {
		t.Error("expected error approving someone else's listing")
	}
	if _, err := svc.Decline(req.ID, "buyer@example.com"); err == nil {
		t.Error("expected error: buyer cannot decide own request")
	}
}

func TestServiceListForOwner(t *testing.T) {
	svc, _, _, _ := testService(t)

	if _, err := svc.Create("lst-1", "a@example.com", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	req, err := svc.Create("lst-1", "b@example.com", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Decline(req.ID, "seller@example.com"); err != nil {
		t.Fatalf("decline: %v", err)
	}

	pending, err := svc.ListForOwner("seller@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("got %d pending requests, want 1", len(pending))
	}
	if pending[0].BuyerEmail != "a@example.com" {
		t.Errorf("pending buyer = %q, want a@example.com", pending[0].BuyerEmail)
	}

	none, err := svc.ListForOwner("stranger@example.com")
	if err != nil {
		t.Fatalf("list for stranger: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("stranger sees %d requests, want 0", len(none))
	}
}
