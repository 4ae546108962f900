package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/karimzahran/sakan/internal/chat"
)

type sendMessagePayload struct {
	Body     string    `json:"body" validate:"required_without=ImageURL,max=4000"`
	ImageURL string    `json:"image_url" validate:"omitempty,url"`
	SentAt   time.Time `json:"sent_at"`
}

// handleChats routes /api/chats requests.
func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chats")
	path = strings.TrimPrefix(path, "/")

	// /api/chats: list or open
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.apiListChats(w, r)
		case http.MethodPost:
			s.apiOpenChat(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/chats/{id}/messages
	if strings.HasSuffix(path, "/messages") {
		id := strings.TrimSuffix(path, "/messages")
		switch r.Method {
		case http.MethodGet:
			s.apiListMessages(w, r, id)
		case http.MethodPost:
			s.apiSendMessage(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/chats/{id}/feed: live message stream
	if strings.HasSuffix(path, "/feed") {
		id := strings.TrimSuffix(path, "/feed")
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiChatFeed(w, r, id)
		return
	}

	// /api/chats/{id}
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if c, ok := s.participantChat(w, r, path); ok {
		apiJSON(w, c, http.StatusOK)
	}
}

// apiListChats returns the caller's conversations, most recent activity
// first. ?latest_per_listing=true collapses to one conversation per listing.
func (s *Server) apiListChats(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	convs, err := s.chats.ListForUser(email)
	if err != nil {
		apiError(w, fmt.Sprintf("listing chats: %v", err), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("latest_per_listing") == "true" {
		latest := chat.LatestByListing(convs)
		picked := convs[:0]
		for _, c := range convs {
			if latest[c.ListingID] == c {
				picked = append(picked, c)
			}
		}
		convs = picked
	}

	if convs == nil {
		convs = []*chat.Conversation{}
	}
	apiJSON(w, convs, http.StatusOK)
}

// apiOpenChat opens (or returns) the caller's conversation for a listing.
func (s *Server) apiOpenChat(w http.ResponseWriter, r *http.Request) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}

	var req struct {
		ListingID string `json:"listing_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := s.listings.GetByID(req.ListingID)
	if err != nil {
		apiError(w, "listing not found", http.StatusNotFound)
		return
	}
	if l.OwnerEmail == email {
		apiError(w, "cannot open a chat with yourself", http.StatusBadRequest)
		return
	}

	c, err := s.chats.Open(l.ID, email, l.OwnerEmail)
	if err != nil {
		apiError(w, fmt.Sprintf("opening chat: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, c, http.StatusCreated)
}

// apiListMessages returns a chat's confirmed messages, oldest first.
func (s *Server) apiListMessages(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := s.participantChat(w, r, id)
	if !ok {
		return
	}

	msgs, err := s.chats.ListMessages(c.ID)
	if err != nil {
		apiError(w, fmt.Sprintf("listing messages: %v", err), http.StatusInternalServerError)
		return
	}

	if msgs == nil {
		msgs = []*chat.Message{}
	}
	apiJSON(w, msgs, http.StatusOK)
}

// apiSendMessage persists a message and fans it out to feed subscribers.
// The response carries the durable ID the client promotes its local copy to.
func (s *Server) apiSendMessage(w http.ResponseWriter, r *http.Request, id string) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return
	}
	c, ok := s.participantChat(w, r, id)
	if !ok {
		return
	}

	var req sendMessagePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(req); err != nil {
		apiError(w, fmt.Sprintf("invalid message: %v", err), http.StatusBadRequest)
		return
	}

	sentAt := req.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	m, err := s.chats.SaveMessage(c.ID, email, req.Body, req.ImageURL, sentAt)
	if err != nil {
		apiError(w, fmt.Sprintf("saving message: %v", err), http.StatusInternalServerError)
		return
	}

	s.hub.Publish(c.ID, *m)
	apiJSON(w, m, http.StatusCreated)
}

// apiChatFeed streams confirmed messages for a chat as server-sent events.
func (s *Server) apiChatFeed(w http.ResponseWriter, r *http.Request, id string) {
	c, ok := s.participantChat(w, r, id)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		apiError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	msgs, cancel := s.hub.Subscribe(c.ID)
	defer cancel()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case m, open := <-msgs:
			if !open {
				return
			}
			data, err := json.Marshal(m)
			if err != nil {
				s.logger.Error("encoding feed message", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// participantChat loads a conversation and verifies the caller takes part.
func (s *Server) participantChat(w http.ResponseWriter, r *http.Request, id string) (*chat.Conversation, bool) {
	email, ok := s.currentEmail(w, r)
	if !ok {
		return nil, false
	}

	c, err := s.chats.GetByID(id)
	if err != nil {
		apiError(w, "chat not found", http.StatusNotFound)
		return nil, false
	}
	if c.BuyerEmail != email && c.SellerEmail != email {
		apiError(w, "not your chat", http.StatusForbidden)
		return nil, false
	}
	return c, true
}
