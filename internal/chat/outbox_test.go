package chat

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestOutboxAdd(t *testing.T) {
	o := NewOutbox()

	m := o.Add("chat-1", "buyer@example.com", "hello", "", base)
	if !strings.HasPrefix(m.ID, tempIDPrefix) {
		t.Errorf("temp id = %q, want %q prefix", m.ID, tempIDPrefix)
	}
	if m.Status != StatusSending {
		t.Errorf("status = %q, want %q", m.Status, StatusSending)
	}
	if !m.Local {
		t.Error("new message should be local")
	}

	img := o.Add("chat-1", "buyer@example.com", "", "/images/x.jpg", base)
	if img.Status != StatusUploading {
		t.Errorf("image status = %q, want %q", img.Status, StatusUploading)
	}

	if o.Len() != 2 {
		t.Errorf("len = %d, want 2", o.Len())
	}
}

func TestOutboxTempIDsUnique(t *testing.T) {
	o := NewOutbox()
	a := o.Add("chat-1", "buyer@example.com", "one", "", base)
	b := o.Add("chat-1", "buyer@example.com", "two", "", base)
	if a.ID == b.ID {
		t.Errorf("two sends share temp id %q", a.ID)
	}
}

func TestOutboxPromote(t *testing.T) {
	o := NewOutbox()
	m := o.Add("chat-1", "buyer@example.com", "hello", "", base)

	serverAt := base.Add(time.Second)
	if !o.Promote(m.ID, "d1", serverAt) {
		t.Fatal("promote returned false")
	}

	snap := o.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1", len(snap))
	}
	got := snap[0]
	if got.ID != "d1" {
		t.Errorf("id = %q, want d1", got.ID)
	}
	if got.Local {
		t.Error("promoted message still marked local")
	}
	if got.Status != StatusDelivered {
		t.Errorf("status = %q, want %q", got.Status, StatusDelivered)
	}
	if !got.ServerAt.Equal(serverAt) {
		t.Errorf("server at = %v, want %v", got.ServerAt, serverAt)
	}

	// Promoting again with the old temp id is a no-op.
	if o.Promote(m.ID, "d2", serverAt) {
		t.Error("promote of consumed temp id should return false")
	}
}

func TestOutboxFail(t *testing.T) {
	o := NewOutbox()
	m := o.Add("chat-1", "buyer@example.com", "hello", "", base)

	if !o.Fail(m.ID) {
		t.Fatal("fail returned false")
	}

	snap := o.Snapshot()
	if snap[0].Status != StatusFailed {
		t.Errorf("status = %q, want %q", snap[0].Status, StatusFailed)
	}
	if !snap[0].Local {
		t.Error("failed message should stay local")
	}
	if snap[0].Body != "hello" {
		t.Error("failed message content must not be lost")
	}

	if o.Fail("local-unknown") {
		t.Error("fail of unknown id should return false")
	}
}

func TestOutboxSnapshotIsCopy(t *testing.T) {
	o := NewOutbox()
	m := o.Add("chat-1", "buyer@example.com", "hello", "", base)

	snap := o.Snapshot()
	snap[0].Body = "tampered"

	if got := o.Snapshot()[0].Body; got != "hello" {
		t.Errorf("outbox body = %q, snapshot copies should not share memory", got)
	}
	_ = m
}

func TestOutboxCompact(t *testing.T) {
	o := NewOutbox()
	pending := o.Add("chat-1", "buyer@example.com", "pending", "", base)
	promoted := o.Add("chat-1", "buyer@example.com", "done", "", base)
	failed := o.Add("chat-1", "buyer@example.com", "broken", "", base)

	o.Promote(promoted.ID, "d1", base.Add(time.Second))
	o.Fail(failed.ID)

	// Feed now carries d1: the promoted entry is dropped, the pending and
	// failed entries stay.
	o.Compact(map[string]bool{"d1": true})

	snap := o.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len after compact = %d, want 2", len(snap))
	}
	if snap[0].ID != pending.ID {
		t.Errorf("pending entry missing after compact")
	}
	if snap[1].Status != StatusFailed {
		t.Errorf("failed entry missing after compact")
	}
}

func TestOutboxPromoteAtomicWithSnapshot(t *testing.T) {
	// A snapshot taken concurrently with a promotion must see the message
	// either fully local or fully promoted, never a mix.
	o := NewOutbox()
	m := o.Add("chat-1", "buyer@example.com", "hello", "", base)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, s := range o.Snapshot() {
				localID := strings.HasPrefix(s.ID, tempIDPrefix)
				if localID != s.Local {
					t.Errorf("inconsistent snapshot: id=%q local=%v", s.ID, s.Local)
				}
			}
		}
	}()

	o.Promote(m.ID, "d1", base.Add(time.Second))
	close(stop)
	wg.Wait()
}
