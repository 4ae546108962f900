package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// apiKeyResponse hides hash details from key listings.
type apiKeyResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// handleAPIKeys routes /api/keys requests for the caller's own keys.
func (s *Server) handleAPIKeys(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/keys")
	path = strings.TrimPrefix(path, "/")

	// /api/keys: list or create
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListKeys(w, email)
		case http.MethodPost:
			s.apiCreateKey(w, r, email)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/keys/{id}: revoke
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if err := s.apiKeys.Delete(id, email); err != nil {
		apiError(w, "key not found", http.StatusNotFound)
		return
	}
	apiJSON(w, map[string]string{"status": "revoked"}, http.StatusOK)
}

func (s *Server) apiListKeys(w http.ResponseWriter, email string) {
	keys, err := s.apiKeys.ListForUser(email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing keys: %v", err), http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, apiKeyResponse{
			ID:         k.ID,
			Name:       k.Name,
			KeyPrefix:  k.KeyPrefix,
			CreatedAt:  k.CreatedAt,
			LastUsedAt: k.LastUsedAt,
		})
	}
	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) apiCreateKey(w http.ResponseWriter, r *http.Request, email string) {
	var req struct {
		Name string `json:"name" validate:"required,max=60"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, "name is required", http.StatusBadRequest)
		return
	}

	raw, key, err := s.apiKeys.Create(email, req.Name)
	if err != nil {
		apiError(w, fmt.Sprintf("creating key: %v", err), http.StatusInternalServerError)
		return
	}

	// The raw key is shown exactly once.
	apiJSON(w, map[string]interface{}{
		"key": raw,
		"id":  key.ID,
	}, http.StatusCreated)
}
