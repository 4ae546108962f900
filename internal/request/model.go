// Package request provides the rental request workflow.
package request

import "time"

// Request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// ValidStatus returns true if s is a known request status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// Request is a buyer's ask to rent a listing.
type Request struct {
	ID         int64      `json:"id"`
	ListingID  string     `json:"listing_id"`
	BuyerEmail string     `json:"buyer_email"`
	Note       string     `json:"note,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
}
