package request

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repository provides storage for rental requests.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a request repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create adds a pending request from a buyer for a listing.
// A buyer can have at most one pending request per listing.
func (r *Repository) Create(listingID, buyerEmail, note string) (*Request, error) {
	buyerEmail = strings.ToLower(strings.TrimSpace(buyerEmail))
	if buyerEmail == "" {
		return nil, fmt.Errorf("buyer email is required")
	}

	var count int
	if err := r.db.QueryRow(
		"SELECT COUNT(*) FROM requests WHERE listing_id = ? AND buyer_email = ? AND status = ?",
		listingID, buyerEmail, StatusPending,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("checking pending requests: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("request already pending for this listing")
	}

	result, err := r.db.Exec(
		"INSERT INTO requests (listing_id, buyer_email, note) VALUES (?, ?, ?)",
		listingID, buyerEmail, note,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a request by ID.
func (r *Repository) GetByID(id int64) (*Request, error) {
	row := r.db.QueryRow(
		"SELECT id, listing_id, buyer_email, note, status, created_at, decided_at FROM requests WHERE id = ?", id,
	)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("request %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying request %d: %w", id, err)
	}
	return req, nil
}

// ListForListing returns requests for a listing, optionally by status,
// newest first.
func (r *Repository) ListForListing(listingID, status string) ([]*Request, error) {
	query := "SELECT id, listing_id, buyer_email, note, status, created_at, decided_at FROM requests WHERE listing_id = ?"
	args := []interface{}{listingID}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.list(query, args...)
}

// ListForBuyer returns a buyer's requests, newest first.
func (r *Repository) ListForBuyer(buyerEmail string) ([]*Request, error) {
	return r.list(
		"SELECT id, listing_id, buyer_email, note, status, created_at, decided_at FROM requests WHERE buyer_email = ? ORDER BY created_at DESC, id DESC",
		strings.ToLower(buyerEmail),
	)
}

// SetStatus moves a pending request to approved or declined.
func (r *Repository) SetStatus(id int64, status string) error {
	if status != StatusApproved && status != StatusDeclined {
		return fmt.Errorf("invalid decision: %s", status)
	}

	result, err := r.db.Exec(
		"UPDATE requests SET status = ?, decided_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		status, id, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %d not found or already decided", id)
	}

	return nil
}

func (r *Repository) list(query string, args ...interface{}) ([]*Request, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating requests: %w", err)
	}

	return requests, nil
}

// scanRequest scans a request from a database row.
func scanRequest(row interface{ Scan(...interface{}) error }) (*Request, error) {
	var req Request
	var decidedAt sql.NullTime

	err := row.Scan(&req.ID, &req.ListingID, &req.BuyerEmail, &req.Note, &req.Status, &req.CreatedAt, &decidedAt)
	if err != nil {
		return nil, err
	}

	if decidedAt.Valid {
		req.DecidedAt = &decidedAt.Time
	}
	return &req, nil
}
