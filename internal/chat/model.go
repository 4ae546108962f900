// Package chat provides conversations, messages, and the optimistic
// reconciliation between locally-queued sends and the confirmed feed.
package chat

import "time"

// Status is a message's delivery state.
type Status string

const (
	StatusSending   Status = "sending"
	StatusUploading Status = "uploading"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// Terminal returns true once a message can no longer change state.
// A failed message is never retried in place; resending creates a new one.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// Message is one chat message. A message starts life locally with a
// temporary ID and Local=true; once the backend persists it, the ID is
// replaced with the durable one, ServerAt is set and Local flips to false.
// Temporary IDs never appear in the confirmed feed.
type Message struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"`
	SenderEmail string    `json:"sender_email"`
	Body        string    `json:"body,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	SentAt      time.Time `json:"sent_at"`
	ServerAt    time.Time `json:"server_at,omitempty"`
	Status      Status    `json:"status"`
	Local       bool      `json:"local,omitempty"`
}

// EffectiveTime is the timestamp used for ordering: the server timestamp
// once confirmed, the local creation time until then.
func (m *Message) EffectiveTime() time.Time {
	if !m.ServerAt.IsZero() {
		return m.ServerAt
	}
	return m.SentAt
}

// Conversation is a chat thread between a buyer and a listing's seller.
type Conversation struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listing_id"`
	BuyerEmail    string    `json:"buyer_email"`
	SellerEmail   string    `json:"seller_email"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at,omitempty"`
}

// ActivityTime is the conversation's most recent activity: the last
// message time if any message exists, otherwise creation time.
func (c *Conversation) ActivityTime() time.Time {
	if !c.LastMessageAt.IsZero() {
		return c.LastMessageAt
	}
	return c.CreatedAt
}
