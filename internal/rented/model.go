// Package rented records concluded rentals.
package rented

import "time"

// Record represents a concluded rental of a listing.
type Record struct {
	ID          int64     `json:"id"`
	ListingID   string    `json:"listing_id"`
	BuyerEmail  string    `json:"buyer_email"`
	SellerEmail string    `json:"seller_email"`
	CreatedAt   time.Time `json:"created_at"`
}
