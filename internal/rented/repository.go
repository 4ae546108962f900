package rented

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repository provides storage for rental records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a rented repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add records a concluded rental.
func (r *Repository) Add(listingID, buyerEmail, sellerEmail string) (*Record, error) {
	result, err := r.db.Exec(
		"INSERT INTO rented (listing_id, buyer_email, seller_email) VALUES (?, ?, ?)",
		listingID, strings.ToLower(buyerEmail), strings.ToLower(sellerEmail),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting rental record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a rental record by ID.
func (r *Repository) GetByID(id int64) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(
		"SELECT id, listing_id, buyer_email, seller_email, created_at FROM rented WHERE id = ?", id,
	).Scan(&rec.ID, &rec.ListingID, &rec.BuyerEmail, &rec.SellerEmail, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rental record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying rental record: %w", err)
	}
	return &rec, nil
}

// ListForUser returns rentals where the user is buyer or seller, newest first.
func (r *Repository) ListForUser(email string) ([]*Record, error) {
	email = strings.ToLower(email)
	return r.list(
		`SELECT id, listing_id, buyer_email, seller_email, created_at
		 FROM rented WHERE buyer_email = ? OR seller_email = ?
		 ORDER BY created_at DESC, id DESC`,
		email, email,
	)
}

// ListForListing returns a listing's rental history, newest first.
func (r *Repository) ListForListing(listingID string) ([]*Record, error) {
	return r.list(
		`SELECT id, listing_id, buyer_email, seller_email, created_at
		 FROM rented WHERE listing_id = ?
		 ORDER BY created_at DESC, id DESC`,
		listingID,
	)
}

func (r *Repository) list(query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rentals: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ListingID, &rec.BuyerEmail, &rec.SellerEmail, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning rental record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rentals: %w", err)
	}

	return records, nil
}
