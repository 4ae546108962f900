package listing

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO listings
	(id, owner_email, location, features, floor, bedrooms, rent, status, keywords, images, available_from)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, owner_email, location, features, floor, bedrooms, rent, status, keywords, images, available_from, created_at, updated_at`

// Insert adds a new listing and returns it with its generated ID.
func (r *Repository) Insert(l *Listing) (*Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusAvailable
	}

	_, err := r.db.Exec(insertSQL,
		l.ID, strings.ToLower(l.OwnerEmail), l.Location, l.Features,
		l.Floor, l.Bedrooms, l.Rent, l.Status,
		encodeStringList(l.Keywords), encodeStringList(l.Images),
		l.AvailableFrom,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}

	return r.GetByID(l.ID)
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(id string) (*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %s: %w", id, err)
	}

	return l, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	OwnerEmail string // empty = all owners
	Status     string // empty = all statuses
}

// List returns listings newest-first, optionally filtered by owner or status.
func (r *Repository) List(opts ListOptions) ([]*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings", selectColumns)
	var args []interface{}
	var conditions []string

	if opts.OwnerEmail != "" {
		conditions = append(conditions, "owner_email = ?")
		args = append(args, strings.ToLower(opts.OwnerEmail))
	}

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.Status)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var listings []*Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, nil
}

// Update replaces the editable fields of a listing.
func (r *Repository) Update(l *Listing) error {
	result, err := r.db.Exec(
		`UPDATE listings SET location = ?, features = ?, floor = ?, bedrooms = ?, rent = ?,
			keywords = ?, images = ?, available_from = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		l.Location, l.Features, l.Floor, l.Bedrooms, l.Rent,
		encodeStringList(l.Keywords), encodeStringList(l.Images),
		l.AvailableFrom, l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", l.ID)
	}

	return nil
}

// UpdateStatus sets the availability status for a listing.
func (r *Repository) UpdateStatus(id, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid listing status: %s", status)
	}

	result, err := r.db.Exec(
		"UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", id)
	}

	return nil
}

// Delete removes a listing. Chats and requests cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %s not found", id)
	}

	return nil
}

// scanListing scans a listing from a database row.
func scanListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	var keywords, images string

	err := row.Scan(
		&l.ID, &l.OwnerEmail, &l.Location, &l.Features,
		&l.Floor, &l.Bedrooms, &l.Rent, &l.Status,
		&keywords, &images, &l.AvailableFrom,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Keywords = decodeStringList(keywords)
	l.Images = decodeStringList(images)

	return &l, nil
}
