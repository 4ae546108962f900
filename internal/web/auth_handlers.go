package web

import (
	"fmt"
	"net/http"
	"strings"
)

// handleAuth routes /api/auth/ requests.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/api/auth/") {
	case "login":
		s.apiLogin(w, r)
	case "verify":
		s.apiVerify(w, r)
	case "logout":
		s.apiLogout(w, r)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// apiLogin starts the magic link flow. Rate limited per email so one
// address cannot be spammed with links.
func (s *Server) apiLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.limiter.Allow("login:" + email) {
		apiError(w, "too many login attempts", http.StatusTooManyRequests)
		return
	}

	devToken, err := s.login.Start(email)
	if err != nil {
		apiError(w, fmt.Sprintf("starting login: %v", err), http.StatusInternalServerError)
		return
	}

	resp := map[string]string{"status": "link sent"}
	if devToken != "" {
		resp["token"] = devToken
	}
	apiJSON(w, resp, http.StatusOK)
}

// apiVerify exchanges a magic link token for an API key. GET is the link
// clicked from the email; that browser also gets a session cookie so it can
// use the API without pasting the key.
func (s *Server) apiVerify(w http.ResponseWriter, r *http.Request) {
	var token, device string
	switch r.Method {
	case http.MethodGet:
		token = r.URL.Query().Get("token")
		device = r.URL.Query().Get("device")
	case http.MethodPost:
		var req struct {
			Token  string `json:"token"`
			Device string `json:"device"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		token, device = req.Token, req.Device
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if token == "" {
		apiError(w, "token is required", http.StatusBadRequest)
		return
	}

	rawKey, user, err := s.login.Verify(token, device)
	if err != nil {
		apiError(w, fmt.Sprintf("verifying token: %v", err), http.StatusUnauthorized)
		return
	}

	if r.Method == http.MethodGet {
		if err := s.sessions.Create(w, user.Email); err != nil {
			apiError(w, fmt.Sprintf("creating session: %v", err), http.StatusInternalServerError)
			return
		}
	}

	apiJSON(w, map[string]interface{}{
		"api_key": rawKey,
		"user":    user,
	}, http.StatusOK)
}

// apiLogout revokes the presented API key.
func (s *Server) apiLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	keys, err := s.apiKeys.ListForUser(email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing keys: %v", err), http.StatusInternalServerError)
		return
	}
	for _, k := range keys {
		if strings.HasPrefix(strings.TrimPrefix(raw, "sakan_"), k.KeyPrefix) {
			if err := s.apiKeys.Delete(k.ID, email); err != nil {
				apiError(w, fmt.Sprintf("revoking key: %v", err), http.StatusInternalServerError)
				return
			}
			break
		}
	}

	if err := s.sessions.Destroy(w, r); err != nil {
		apiError(w, fmt.Sprintf("destroying session: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, map[string]string{"status": "logged out"}, http.StatusOK)
}

// handleMe returns or updates the caller's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		u, err := s.users.GetByEmail(email)
		if err != nil {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiJSON(w, u, http.StatusOK)

	case http.MethodPut:
		var req struct {
			Name  string `json:"name" validate:"max=120"`
			Phone string `json:"phone" validate:"max=32"`
			Role  string `json:"role" validate:"omitempty,oneof=buyer seller"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.validate.Struct(req); err != nil {
			apiError(w, fmt.Sprintf("invalid profile: %v", err), http.StatusBadRequest)
			return
		}

		if err := s.users.UpdateProfile(email, req.Name, req.Phone); err != nil {
			apiError(w, fmt.Sprintf("updating profile: %v", err), http.StatusInternalServerError)
			return
		}
		if req.Role != "" {
			if err := s.users.SetRole(email, req.Role); err != nil {
				apiError(w, fmt.Sprintf("updating role: %v", err), http.StatusBadRequest)
				return
			}
		}

		u, err := s.users.GetByEmail(email)
		if err != nil {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiJSON(w, u, http.StatusOK)

	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
