// Package chatui drives one open conversation on the client: it queues
// outgoing messages optimistically, applies server confirmations, and
// produces the merged timeline the screen renders.
package chatui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/karimzahran/sakan/internal/chat"
)

// DefaultSendTimeout bounds one send attempt. A timeout marks the message
// failed; it is never retried in place.
const DefaultSendTimeout = 30 * time.Second

// Sender is the slice of the API client a session needs.
type Sender interface {
	SendMessage(ctx context.Context, chatID, body, imageURL string, sentAt time.Time) (*chat.Message, error)
}

// Session is the client-side state of one open conversation.
// Sends run concurrently and independently; a slow or failed send never
// blocks later ones.
type Session struct {
	chatID      string
	self        string
	sender      Sender
	outbox      *chat.Outbox
	sendTimeout time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	feed []*chat.Message

	wg sync.WaitGroup
}

// NewSession creates a session for a conversation. self is the local
// user's email; it stamps outgoing messages.
func NewSession(chatID, self string, sender Sender, logger *slog.Logger) *Session {
	return &Session{
		chatID:      chatID,
		self:        self,
		sender:      sender,
		outbox:      chat.NewOutbox(),
		sendTimeout: DefaultSendTimeout,
		logger:      logger,
	}
}

// Send queues a text message and starts delivering it in the background.
// The returned copy carries the temporary ID and sending status, so the
// caller can render it immediately.
func (s *Session) Send(body string) chat.Message {
	return s.dispatch(body, "")
}

// SendImage queues an image message; it renders as uploading until the
// backend confirms it.
func (s *Session) SendImage(imageURL string) chat.Message {
	return s.dispatch("", imageURL)
}

func (s *Session) dispatch(body, imageURL string) chat.Message {
	m := s.outbox.Add(s.chatID, s.self, body, imageURL, time.Now().UTC())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()

		confirmed, err := s.sender.SendMessage(ctx, s.chatID, body, imageURL, m.SentAt)
		if err != nil {
			s.logger.Warn("send failed", "chat", s.chatID, "err", err)
			s.outbox.Fail(m.ID)
			return
		}
		s.outbox.Promote(m.ID, confirmed.ID, confirmed.ServerAt)
	}()

	return m
}

// ApplyFeed replaces the confirmed feed and drops outbox entries the feed
// now covers.
func (s *Session) ApplyFeed(msgs []*chat.Message) {
	s.mu.Lock()
	s.feed = msgs
	s.mu.Unlock()

	ids := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = true
	}
	s.outbox.Compact(ids)
}

// Append adds one confirmed message to the feed, as delivered by a live
// subscription.
func (s *Session) Append(m chat.Message) {
	s.mu.Lock()
	s.feed = append(s.feed, &m)
	s.mu.Unlock()

	s.outbox.Compact(map[string]bool{m.ID: true})
}

// Timeline returns the merged conversation: confirmed messages plus
// pending and failed local ones, oldest first, each message exactly once.
func (s *Session) Timeline() []*chat.Message {
	s.mu.Lock()
	feed := make([]*chat.Message, len(s.feed))
	copy(feed, s.feed)
	s.mu.Unlock()

	return chat.Reconcile(s.outbox.Snapshot(), feed)
}

// Pending returns the number of local messages not yet confirmed or failed.
func (s *Session) Pending() int {
	n := 0
	for _, m := range s.outbox.Snapshot() {
		if !m.Status.Terminal() {
			n++
		}
	}
	return n
}

// Wait blocks until all in-flight sends have settled. Used on shutdown
// and in tests.
func (s *Session) Wait() {
	s.wg.Wait()
}
