package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/karimzahran/sakan/internal/auth"
	"github.com/karimzahran/sakan/internal/listing"
)

type listingPayload struct {
	Location      string   `json:"location" validate:"required"`
	Features      string   `json:"features"`
	Floor         string   `json:"floor"`
	Bedrooms      string   `json:"bedrooms"`
	Rent          string   `json:"rent"`
	Keywords      []string `json:"keywords" validate:"max=20,dive,max=60"`
	Images        []string `json:"images" validate:"max=12,dive,url"`
	AvailableFrom string   `json:"available_from"`
}

// handleListings routes /api/listings requests.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/listings")
	path = strings.TrimPrefix(path, "/")

	// /api/listings: browse or post
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListListings(w, r)
		case http.MethodPost:
			s.apiAddListing(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/listings/{id}/status
	if strings.HasSuffix(path, "/status") {
		id := strings.TrimSuffix(path, "/status")
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiSetListingStatus(w, r, id)
		return
	}

	// /api/listings/{id}: show, update, or remove
	switch r.Method {
	case http.MethodGet:
		s.apiGetListing(w, path)
	case http.MethodPut:
		s.apiUpdateListing(w, r, path)
	case http.MethodDelete:
		s.apiDeleteListing(w, r, path)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiListListings returns listings as JSON. ?q= applies the search filter,
// ?mine=true restricts to the caller's listings, ?status= filters by status.
func (s *Server) apiListListings(w http.ResponseWriter, r *http.Request) {
	opts := listing.ListOptions{Status: r.URL.Query().Get("status")}

	if r.URL.Query().Get("mine") == "true" {
		email, ok := s.currentEmail(w, r)
		if !ok {
			return
		}
		opts.OwnerEmail = email
	}

	listings, err := s.listings.List(opts)
	if err != nil {
		apiError(w, fmt.Sprintf("listing listings: %v", err), http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		listings = listing.Filter(listings, q)
	}

	if listings == nil {
		listings = []*listing.Listing{}
	}
	apiJSON(w, listings, http.StatusOK)
}

// apiAddListing posts a new listing owned by the caller. Only sellers may
// post; buyers switch role via PUT /api/me first.
func (s *Server) apiAddListing(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	u, err := s.users.GetByEmail(email)
	if err != nil {
		apiError(w, "user not found", http.StatusNotFound)
		return
	}
	if u.Role != auth.RoleSeller {
		apiError(w, "only sellers can post listings", http.StatusForbidden)
		return
	}

	var req listingPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, fmt.Sprintf("invalid listing: %v", err), http.StatusBadRequest)
		return
	}

	l, err := s.listings.Insert(&listing.Listing{
		OwnerEmail:    email,
		Location:      strings.TrimSpace(req.Location),
		Features:      req.Features,
		Floor:         req.Floor,
		Bedrooms:      req.Bedrooms,
		Rent:          req.Rent,
		Keywords:      req.Keywords,
		Images:        req.Images,
		AvailableFrom: req.AvailableFrom,
	})
	if err != nil {
		apiError(w, fmt.Sprintf("adding listing: %v", err), http.StatusInternalServerError)
		return
	}

	s.logger.Info("listing posted", "id", l.ID, "owner", email)
	apiJSON(w, l, http.StatusCreated)
}

// apiGetListing returns a single listing.
func (s *Server) apiGetListing(w http.ResponseWriter, id string) {
	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

// apiUpdateListing replaces the editable fields of the caller's listing.
func (s *Server) apiUpdateListing(w http.ResponseWriter, r *http.Request, id string) {
	l, ok := s.ownedListing(w, r, id)
	if !ok {
		return
	}

	var req listingPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, fmt.Sprintf("invalid listing: %v", err), http.StatusBadRequest)
		return
	}

	l.Location = strings.TrimSpace(req.Location)
	l.Features = req.Features
	l.Floor = req.Floor
	l.Bedrooms = req.Bedrooms
	l.Rent = req.Rent
	l.Keywords = req.Keywords
	l.Images = req.Images
	l.AvailableFrom = req.AvailableFrom

	if err := s.listings.Update(l); err != nil {
		apiError(w, fmt.Sprintf("updating listing: %v", err), http.StatusInternalServerError)
		return
	}

	updated, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("reloading listing: %v", err), http.StatusInternalServerError)
		return
	}
	apiJSON(w, updated, http.StatusOK)
}

// apiSetListingStatus sets availability on the caller's listing.
func (s *Server) apiSetListingStatus(w http.ResponseWriter, r *http.Request, id string) {
	l, ok := s.ownedListing(w, r, id)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.listings.UpdateStatus(l.ID, req.Status); err != nil {
		apiError(w, fmt.Sprintf("updating status: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, fmt.Sprintf("reloading listing: %v", err), http.StatusInternalServerError)
		return
	}
	apiJSON(w, updated, http.StatusOK)
}

// apiDeleteListing removes the caller's listing.
func (s *Server) apiDeleteListing(w http.ResponseWriter, r *http.Request, id string) {
	l, ok := s.ownedListing(w, r, id)
	if !ok {
		return
	}

	if err := s.listings.Delete(l.ID); err != nil {
		apiError(w, fmt.Sprintf("deleting listing: %v", err), http.StatusInternalServerError)
		return
	}

	s.logger.Info("listing removed", "id", l.ID)
	apiJSON(w, map[string]string{"status": "deleted"}, http.StatusOK)
}

// ownedListing loads a listing and verifies the caller owns it.
func (s *Server) ownedListing(w http.ResponseWriter, r *http.Request, id string) (*listing.Listing, bool) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return nil, false
	}

	l, err := s.listings.GetByID(id)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return nil, false
	}
	if l.OwnerEmail != email {
		apiError(w, "not your listing", http.StatusForbidden)
		return nil, false
	}
	return l, true
}
