// Package web provides the JSON API server consumed by the mobile client.
package web

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/karimzahran/sakan/internal/auth"
	"github.com/karimzahran/sakan/internal/chat"
	"github.com/karimzahran/sakan/internal/listing"
	"github.com/karimzahran/sakan/internal/logging"
	"github.com/karimzahran/sakan/internal/notify"
	"github.com/karimzahran/sakan/internal/rented"
	"github.com/karimzahran/sakan/internal/request"
)

// Server is the API HTTP server.
type Server struct {
	listings *listing.Repository
	chats    *chat.Repository
	requests *request.Service
	rentals  *rented.Repository

	users    *auth.UserStore
	apiKeys  *auth.APIKeyStore
	sessions *auth.SessionStore
	login    *auth.LoginFlow
	limiter  *auth.LimiterStore

	hub      *Hub
	validate *validator.Validate
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewServer creates an API server with the given database and auth config.
func NewServer(db *sql.DB, cfg auth.Config) *Server {
	logger := logging.Component("web")

	var notifier notify.Notifier
	if cfg.SMTP.IsConfigured() && !cfg.DevMode {
		notifier = notify.NewMailer(cfg.SMTP, logging.Component("notify"))
	} else {
		notifier = notify.NewLogNotifier(logging.Component("notify"))
	}

	users := auth.NewUserStore(db)
	apiKeys := auth.NewAPIKeyStore(db)
	listings := listing.NewRepository(db)

	s := &Server{
		listings: listings,
		chats:    chat.NewRepository(db),
		requests: request.NewService(
			request.NewRepository(db), listings, rented.NewRepository(db),
			notifier, logging.Component("request"),
		),
		rentals:  rented.NewRepository(db),
		users:    users,
		apiKeys:  apiKeys,
		sessions: auth.NewSessionStore(db),
		login: auth.NewLoginFlow(cfg, users, auth.NewTokenStore(db), apiKeys,
			notifier, logging.Component("auth")),
		limiter:  auth.NewLimiterStore(30, 10, 5*time.Minute),
		hub:      NewHub(),
		validate: validator.New(),
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/auth/", s.handleAuth)
	s.mux.HandleFunc("/api/me", s.handleMe)
	s.mux.HandleFunc("/api/keys", s.handleAPIKeys)
	s.mux.HandleFunc("/api/keys/", s.handleAPIKeys)
	s.mux.HandleFunc("/api/listings", s.handleListings)
	s.mux.HandleFunc("/api/listings/", s.handleListings)
	s.mux.HandleFunc("/api/chats", s.handleChats)
	s.mux.HandleFunc("/api/chats/", s.handleChats)
	s.mux.HandleFunc("/api/requests", s.handleRequests)
	s.mux.HandleFunc("/api/requests/", s.handleRequests)
	s.mux.HandleFunc("/api/rented", s.handleRented)

	return s
}

// ServeHTTP implements http.Handler, applying auth middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.RequireAPIKey(s.apiKeys, s.sessions, s.limiter, s.mux).ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("api server listening", "addr", addr)
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// currentEmail returns the authenticated user's email or writes a 401.
func (s *Server) currentEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := auth.UserEmailFromContext(r.Context())
	if !ok {
		apiError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return email, true
}
