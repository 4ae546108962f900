package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// handleRequests routes /api/requests requests.
func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/requests")
	path = strings.TrimPrefix(path, "/")

	// /api/requests: list or file
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListRequests(w, r, email)
		case http.MethodPost:
			s.apiCreateRequest(w, r, email)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/requests/{id}/approve and /api/requests/{id}/decline
	decide := s.requests.Approve
	switch {
	case strings.HasSuffix(path, "/approve"):
		path = strings.TrimSuffix(path, "/approve")
	case strings.HasSuffix(path, "/decline"):
		path = strings.TrimSuffix(path, "/decline")
		decide = s.requests.Decline
	default:
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		apiError(w, "invalid request ID", http.StatusBadRequest)
		return
	}

	decided, err := decide(id, email)
	if err != nil {
		apiError(w, fmt.Sprintf("deciding request: %v", err), http.StatusBadRequest)
		return
	}
	apiJSON(w, decided, http.StatusOK)
}

// apiListRequests returns the caller's requests. ?incoming=true lists
// pending requests on the caller's own listings instead.
func (s *Server) apiListRequests(w http.ResponseWriter, r *http.Request, email string) {
	if r.URL.Query().Get("incoming") == "true" {
		reqs, err := s.requests.ListForOwner(email)
		if err != nil {
			apiError(w, fmt.Sprintf("listing requests: %v", err), http.StatusInternalServerError)
			return
		}
		apiJSON(w, orEmpty(reqs), http.StatusOK)
		return
	}

	reqs, err := s.requests.ListForBuyer(email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing requests: %v", err), http.StatusInternalServerError)
		return
	}
	apiJSON(w, orEmpty(reqs), http.StatusOK)
}

// apiCreateRequest files a rental request for a listing.
func (s *Server) apiCreateRequest(w http.ResponseWriter, r *http.Request, email string) {
	var req struct {
		ListingID string `json:"listing_id" validate:"required"`
		Note      string `json:"note" validate:"max=1000"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	created, err := s.requests.Create(req.ListingID, email, req.Note)
	if err != nil {
		apiError(w, fmt.Sprintf("filing request: %v", err), http.StatusBadRequest)
		return
	}
	apiJSON(w, created, http.StatusCreated)
}
