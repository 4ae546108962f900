package chat

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository provides conversation and message storage.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a chat repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open returns the conversation between a buyer and a listing's seller,
// creating it if it doesn't exist yet. A buyer has at most one
// conversation per listing.
func (r *Repository) Open(listingID, buyerEmail, sellerEmail string) (*Conversation, error) {
	buyerEmail = strings.ToLower(buyerEmail)
	sellerEmail = strings.ToLower(sellerEmail)

	existing, err := r.getByListingAndBuyer(listingID, buyerEmail)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("finding conversation: %w", err)
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(
		"INSERT INTO chats (id, listing_id, buyer_email, seller_email) VALUES (?, ?, ?, ?)",
		id, listingID, buyerEmail, sellerEmail,
	); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a conversation by its ID.
func (r *Repository) GetByID(id string) (*Conversation, error) {
	row := r.db.QueryRow(
		"SELECT id, listing_id, buyer_email, seller_email, created_at, last_message_at FROM chats WHERE id = ?",
		id,
	)

	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation %s: %w", id, err)
	}
	return c, nil
}

func (r *Repository) getByListingAndBuyer(listingID, buyerEmail string) (*Conversation, error) {
	row := r.db.QueryRow(
		"SELECT id, listing_id, buyer_email, seller_email, created_at, last_message_at FROM chats WHERE listing_id = ? AND buyer_email = ?",
		listingID, buyerEmail,
	)
	return scanConversation(row)
}

// ListForUser returns the conversations a user participates in, most
// recent activity first.
func (r *Repository) ListForUser(email string) ([]*Conversation, error) {
	email = strings.ToLower(email)

	rows, err := r.db.Query(
		`SELECT id, listing_id, buyer_email, seller_email, created_at, last_message_at
		 FROM chats WHERE buyer_email = ? OR seller_email = ?
		 ORDER BY COALESCE(last_message_at, created_at) DESC, id`,
		email, email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	var convs []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	return convs, nil
}

// SaveMessage persists a message, assigning its durable ID and server
// timestamp, and bumps the conversation's last activity.
func (r *Repository) SaveMessage(chatID, senderEmail, body, imageURL string, sentAt time.Time) (*Message, error) {
	m := &Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderEmail: strings.ToLower(senderEmail),
		Body:        body,
		ImageURL:    imageURL,
		SentAt:      sentAt,
		ServerAt:    time.Now().UTC(),
		Status:      StatusDelivered,
	}

	if _, err := r.db.Exec(
		"INSERT INTO messages (id, chat_id, sender_email, body, image_url, sent_at, server_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.ChatID, m.SenderEmail, m.Body, m.ImageURL, m.SentAt, m.ServerAt,
	); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if _, err := r.db.Exec(
		"UPDATE chats SET last_message_at = ? WHERE id = ?",
		m.ServerAt, chatID,
	); err != nil {
		return nil, fmt.Errorf("updating conversation activity: %w", err)
	}

	return m, nil
}

// ListMessages returns a conversation's confirmed messages ordered
// ascending by server timestamp, the order subscribers rely on.
func (r *Repository) ListMessages(chatID string) ([]*Message, error) {
	rows, err := r.db.Query(
		`SELECT id, chat_id, sender_email, body, image_url, sent_at, server_at
		 FROM messages WHERE chat_id = ? ORDER BY server_at, id`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderEmail, &m.Body, &m.ImageURL, &m.SentAt, &m.ServerAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Status = StatusDelivered
		msgs = append(msgs, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

// scanConversation scans a conversation from a database row.
func scanConversation(row interface{ Scan(...interface{}) error }) (*Conversation, error) {
	var c Conversation
	var lastMessageAt sql.NullTime

	err := row.Scan(&c.ID, &c.ListingID, &c.BuyerEmail, &c.SellerEmail, &c.CreatedAt, &lastMessageAt)
	if err != nil {
		return nil, err
	}

	if lastMessageAt.Valid {
		c.LastMessageAt = lastMessageAt.Time
	}
	return &c, nil
}
