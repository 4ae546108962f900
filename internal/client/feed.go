package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/karimzahran/sakan/internal/chat"
)

// Feed is a live subscription to a chat's confirmed messages.
// Messages arrive on C; after C closes, Err reports why the stream ended
// (nil on clean shutdown via context cancellation).
type Feed struct {
	C <-chan chat.Message

	mu  sync.Mutex
	err error
}

// Err returns the terminal stream error, if any. Valid after C is closed.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SubscribeFeed opens the server-sent event stream for a chat. The feed
// runs until ctx is cancelled or the connection drops.
func (c *Client) SubscribeFeed(ctx context.Context, chatID string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/chats/"+chatID+"/feed", nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := apiErrorFrom(resp)
		resp.Body.Close()
		return nil, apiErr
	}

	ch := make(chan chat.Message)
	feed := &Feed{C: ch}

	go func() {
		defer close(ch)
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil && feed.Err() == nil {
				feed.setErr(fmt.Errorf("closing feed: %w", cerr))
			}
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue // event names, keepalive comments, blank separators
			}

			var m chat.Message
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &m); err != nil {
				feed.setErr(fmt.Errorf("decoding feed event: %w", err))
				return
			}

			select {
			case ch <- m:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			feed.setErr(fmt.Errorf("reading feed: %w", err))
		}
	}()

	return feed, nil
}
