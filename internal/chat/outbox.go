package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// tempIDPrefix marks identifiers generated on-device. The backend never
// issues IDs with this prefix, so a temporary ID can never collide with a
// feed entry.
const tempIDPrefix = "local-"

// Outbox holds the locally-originated messages of one conversation until
// the backend confirms them. All mutations happen under one lock, so a
// renderer taking a Snapshot can never observe a message halfway through
// its promotion from temporary to durable identity.
type Outbox struct {
	mu    sync.Mutex
	queue []*Message
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Add queues a new outgoing message and returns a copy of it. Text-only
// messages start as sending; messages carrying an image start as uploading.
func (o *Outbox) Add(chatID, sender, body, imageURL string, now time.Time) Message {
	status := StatusSending
	if imageURL != "" {
		status = StatusUploading
	}

	m := &Message{
		ID:          tempIDPrefix + uuid.NewString(),
		ChatID:      chatID,
		SenderEmail: sender,
		Body:        body,
		ImageURL:    imageURL,
		SentAt:      now,
		Status:      status,
		Local:       true,
	}

	o.mu.Lock()
	o.queue = append(o.queue, m)
	o.mu.Unlock()

	return *m
}

// Promote records the durable identity the backend assigned to a queued
// message: the temporary ID is replaced, the server timestamp recorded,
// and the local marker cleared, all atomically with respect to Snapshot.
// Returns false if no queued message has the given temporary ID.
func (o *Outbox) Promote(tempID, durableID string, serverAt time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, m := range o.queue {
		if m.ID == tempID && m.Local {
			m.ID = durableID
			m.ServerAt = serverAt
			m.Status = StatusDelivered
			m.Local = false
			return true
		}
	}
	return false
}

// Fail marks a queued message as failed. The entry stays in the outbox so
// the user keeps seeing it (with an error indicator) until they dismiss or
// resend; resending creates a new message.
func (o *Outbox) Fail(tempID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, m := range o.queue {
		if m.ID == tempID && m.Local {
			m.Status = StatusFailed
			return true
		}
	}
	return false
}

// Snapshot returns a consistent copy of the queue for reconciliation.
// Copies are returned so callers never share memory with in-flight
// promotions.
func (o *Outbox) Snapshot() []*Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*Message, len(o.queue))
	for i, m := range o.queue {
		c := *m
		out[i] = &c
	}
	return out
}

// Compact drops promoted entries whose durable ID has been observed in the
// feed; the server copy now represents them. Unconfirmed and failed
// entries are kept.
func (o *Outbox) Compact(feedIDs map[string]bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	kept := o.queue[:0]
	for _, m := range o.queue {
		if !m.Local && feedIDs[m.ID] {
			continue
		}
		kept = append(kept, m)
	}
	o.queue = kept
}

// Len returns the number of queued entries.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}
