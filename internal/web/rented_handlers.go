package web

import (
	"fmt"
	"net/http"
)

// handleRented returns the caller's concluded rentals, newest first.
// ?listing_id= returns one listing's rental history instead (owner only).
func (s *Server) handleRented(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if listingID := r.URL.Query().Get("listing_id"); listingID != "" {
		l, ok := s.ownedListing(w, r, listingID)
		if !ok {
			return
		}
		records, err := s.rentals.ListForListing(l.ID)
		if err != nil {
			apiError(w, fmt.Sprintf("listing rentals: %v", err), http.StatusInternalServerError)
			return
		}
		apiJSON(w, orEmpty(records), http.StatusOK)
		return
	}

	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	records, err := s.rentals.ListForUser(email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing rentals: %v", err), http.StatusInternalServerError)
		return
	}
	apiJSON(w, orEmpty(records), http.StatusOK)
}
