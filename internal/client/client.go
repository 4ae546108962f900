// Package client is the HTTP client for the sakan API, used by the CLI
// and the chat session. All calls authenticate with a bearer API key.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/karimzahran/sakan/internal/auth"
	"github.com/karimzahran/sakan/internal/chat"
	"github.com/karimzahran/sakan/internal/listing"
	"github.com/karimzahran/sakan/internal/rented"
	"github.com/karimzahran/sakan/internal/request"
)

const requestTimeout = 30 * time.Second

// Client talks to a sakan API server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	// stream has no timeout; it carries long-lived feed connections.
	stream *http.Client
}

// New creates a client for the given server. apiKey may be empty for the
// login endpoints.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		stream:  &http.Client{},
	}
}

// ListingInput is the payload for posting or updating a listing.
type ListingInput struct {
	Location      string   `json:"location"`
	Features      string   `json:"features"`
	Floor         string   `json:"floor"`
	Bedrooms      string   `json:"bedrooms"`
	Rent          string   `json:"rent"`
	Keywords      []string `json:"keywords"`
	Images        []string `json:"images"`
	AvailableFrom string   `json:"available_from"`
}

// LoginResult is the outcome of verifying a magic link token.
type LoginResult struct {
	APIKey string     `json:"api_key"`
	User   *auth.User `json:"user"`
}

// Login starts the magic link flow. In dev mode the server returns the
// token directly.
func (c *Client) Login(email string) (devToken string, err error) {
	var resp map[string]string
	if err := c.do(context.Background(), http.MethodPost, "/api/auth/login",
		map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp["token"], nil
}

// Verify exchanges a magic link token for an API key.
func (c *Client) Verify(token, device string) (*LoginResult, error) {
	var result LoginResult
	if err := c.do(context.Background(), http.MethodPost, "/api/auth/verify",
		map[string]string{"token": token, "device": device}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout revokes the client's API key.
func (c *Client) Logout() error {
	return c.do(context.Background(), http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me returns the authenticated user's profile.
func (c *Client) Me() (*auth.User, error) {
	var u auth.User
	if err := c.do(context.Background(), http.MethodGet, "/api/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe updates the caller's profile. An empty role leaves it unchanged.
func (c *Client) UpdateMe(name, phone, role string) (*auth.User, error) {
	var u auth.User
	if err := c.do(context.Background(), http.MethodPut, "/api/me",
		map[string]string{"name": name, "phone": phone, "role": role}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListingsOptions controls Listings queries.
type ListingsOptions struct {
	Query  string // free-text search filter
	Mine   bool   // only the caller's listings
	Status string
}

// Listings fetches listings, optionally filtered.
func (c *Client) Listings(opts ListingsOptions) ([]*listing.Listing, error) {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.Mine {
		q.Set("mine", "true")
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}

	path := "/api/listings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var listings []*listing.Listing
	if err := c.do(context.Background(), http.MethodGet, path, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Listing fetches a single listing.
func (c *Client) Listing(id string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.do(context.Background(), http.MethodGet, "/api/listings/"+id, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateListing posts a new listing.
func (c *Client) CreateListing(in ListingInput) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.do(context.Background(), http.MethodPost, "/api/listings", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListing replaces a listing's editable fields.
func (c *Client) UpdateListing(id string, in ListingInput) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.do(context.Background(), http.MethodPut, "/api/listings/"+id, in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetListingStatus changes a listing's availability.
func (c *Client) SetListingStatus(id, status string) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.do(context.Background(), http.MethodPut, "/api/listings/"+id+"/status",
		map[string]string{"status": status}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(id string) error {
	return c.do(context.Background(), http.MethodDelete, "/api/listings/"+id, nil, nil)
}

// Chats lists the caller's conversations, most recent activity first.
func (c *Client) Chats(latestPerListing bool) ([]*chat.Conversation, error) {
	path := "/api/chats"
	if latestPerListing {
		path += "?latest_per_listing=true"
	}
	var convs []*chat.Conversation
	if err := c.do(context.Background(), http.MethodGet, path, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// OpenChat opens (or returns) the conversation for a listing.
func (c *Client) OpenChat(listingID string) (*chat.Conversation, error) {
	var conv chat.Conversation
	if err := c.do(context.Background(), http.MethodPost, "/api/chats",
		map[string]string{"listing_id": listingID}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Messages fetches a chat's confirmed messages, oldest first.
func (c *Client) Messages(chatID string) ([]*chat.Message, error) {
	var msgs []*chat.Message
	if err := c.do(context.Background(), http.MethodGet, "/api/chats/"+chatID+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage persists a message on the server and returns the confirmed
// copy carrying its durable ID.
func (c *Client) SendMessage(ctx context.Context, chatID, body, imageURL string, sentAt time.Time) (*chat.Message, error) {
	payload := map[string]interface{}{
		"body":      body,
		"image_url": imageURL,
		"sent_at":   sentAt,
	}
	var m chat.Message
	if err := c.do(ctx, http.MethodPost, "/api/chats/"+chatID+"/messages", payload, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Requests lists the caller's rental requests; incoming=true lists pending
// requests on their own listings.
func (c *Client) Requests(incoming bool) ([]*request.Request, error) {
	path := "/api/requests"
	if incoming {
		path += "?incoming=true"
	}
	var reqs []*request.Request
	if err := c.do(context.Background(), http.MethodGet, path, nil, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// CreateRequest files a rental request for a listing.
func (c *Client) CreateRequest(listingID, note string) (*request.Request, error) {
	var req request.Request
	if err := c.do(context.Background(), http.MethodPost, "/api/requests",
		map[string]string{"listing_id": listingID, "note": note}, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ApproveRequest accepts a pending request on the caller's listing.
func (c *Client) ApproveRequest(id int64) (*request.Request, error) {
	return c.decideRequest(id, "approve")
}

// DeclineRequest rejects a pending request on the caller's listing.
func (c *Client) DeclineRequest(id int64) (*request.Request, error) {
	return c.decideRequest(id, "decline")
}

func (c *Client) decideRequest(id int64, verb string) (*request.Request, error) {
	var req request.Request
	path := fmt.Sprintf("/api/requests/%d/%s", id, verb)
	if err := c.do(context.Background(), http.MethodPost, path, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Rented lists the caller's concluded rentals.
func (c *Client) Rented() ([]*rented.Record, error) {
	var records []*rented.Record
	if err := c.do(context.Background(), http.MethodGet, "/api/rented", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// RentedForListing returns a listing's rental history. Owner only.
func (c *Client) RentedForListing(listingID string) ([]*rented.Record, error) {
	var records []*rented.Record
	path := "/api/rented?listing_id=" + url.QueryEscape(listingID)
	if err := c.do(context.Background(), http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// do performs a JSON request and decodes the response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode >= 400 {
		return apiErrorFrom(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// apiErrorFrom extracts the server's error message from a failed response.
func apiErrorFrom(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server: %s (%d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
