package web

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/karimzahran/sakan/internal/chat"
)

func openTestChat(t *testing.T, srv *Server, buyerKey, listingID string) *chat.Conversation {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/chats", buyerKey,
		map[string]string{"listing_id": listingID})
	if w.Code != http.StatusCreated {
		t.Fatalf("open chat: status = %d, body = %s", w.Code, w.Body.String())
	}
	var c chat.Conversation
	if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	return &c
}

func TestAPIOpenChat(t *testing.T) {
	srv, _, sellerKey := testServer(t)
	l := postListing(t, srv, sellerKey, listingPayload{Location: "Dokki, Giza"})

	buyerKey := keyFor(t, srv, "buyer@example.com")
	c := openTestChat(t, srv, buyerKey, l.ID)

	if c.BuyerEmail != "buyer@example.com" || c.SellerEmail != "seller@example.com" {
		t.Errorf("participants = %q / %q", c.BuyerEmail, c.SellerEmail)
	}

	// Sellers cannot open a chat on their own listing.
	w := apiRequest(t, srv, "POST", "/api/chats", sellerKey,
		map[string]string{"listing_id": l.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("self chat: status = %d, want 400", w.Code)
	}
}

func TestAPISendAndListMessages(t *testing.T) {
	srv, _, sellerKey := testServer(t)
	l := postListing(t, srv, sellerKey, listingPayload{Location: "Dokki, Giza"})
	buyerKey := keyFor(t, srv, "buyer@example.com")
	c := openTestChat(t, srv, buyerKey, l.ID)

	w := apiRequest(t, srv, "POST", "/api/chats/"+c.ID+"/messages", buyerKey,
		sendMessagePayload{Body: "is it still available?", SentAt: time.Now().UTC()})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: status = %d, body = %s", w.Code, w.Body.String())
	}

	var m chat.Message
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if m.ID == "" || m.Status != chat.StatusDelivered {
		t.Errorf("unexpected message: %+v", m)
	}

	w2 := apiRequest(t, srv, "GET", "/api/chats/"+c.ID+"/messages", sellerKey, nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w2.Code)
	}
	var msgs []*chat.Message
	if err := json.NewDecoder(w2.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "is it still available?" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestAPISendMessageRequiresBodyOrImage(t *testing.T) {
	srv, _, sellerKey := testServer(t)
	l := postListing(t, srv, sellerKey, listingPayload{Location: "Dokki, Giza"})
	buyerKey := keyFor(t, srv, "buyer@example.com")
	c := openTestChat(t, srv, buyerKey, l.ID)

	w := apiRequest(t, srv, "POST", "/api/chats/"+c.ID+"/messages", buyerKey,
		sendMessagePayload{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	// Image-only is fine.
	w2 := apiRequest(t, srv, "POST", "/api/chats/"+c.ID+"/messages", buyerKey,
		sendMessagePayload{ImageURL: "https://img.example.com/flat.jpg"})
	if w2.Code != http.StatusCreated {
		t.Errorf("image only: status = %d, body = %s", w2.Code, w2.Body.String())
	}
}

func TestAPIChatRequiresParticipant(t *testing.T) {
	srv, _, sellerKey := testServer(t)
	l := postListing(t, srv, sellerKey, listingPayload{Location: "Dokki, Giza"})
	buyerKey := keyFor(t, srv, "buyer@example.com")
	c := openTestChat(t, srv, buyerKey, l.ID)

	stranger := keyFor(t, srv, "stranger@example.com")
	w := apiRequest(t, srv, "GET", "/api/chats/"+c.ID+"/messages", stranger, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestAPIListChatsLatestPerListing(t *testing.T) {
	srv, _, sellerKey := testServer(t)
	l := postListing(t, srv, sellerKey, listingPayload{Location: "Dokki, Giza"})

	// Two buyers chat about the same listing; the seller asks for the
	// latest conversation per listing.
	aliceKey := keyFor(t, srv, "alice@example.com")
	bobKey := keyFor(t, srv, "bob@example.com")
	openTestChat(t, srv, aliceKey, l.ID)
	c2 := openTestChat(t, srv, bobKey, l.ID)

	w := apiRequest(t, srv, "POST", "/api/chats/"+c2.ID+"/messages", bobKey,
		sendMessagePayload{Body: "hi"})
	if w.Code != http.StatusCreated {
		t.Fatalf("send: %d", w.Code)
	}

	w2 := apiRequest(t, srv, "GET", "/api/chats?latest_per_listing=true", sellerKey, nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("list: status = %d", w2.Code)
	}
	var convs []*chat.Conversation
	if err := json.NewDecoder(w2.Body).Decode(&convs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != c2.ID {
		t.Errorf("latest per listing = %+v, want just %s", convs, c2.ID)
	}
}

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("chat-1")
	defer cancel()

	h.Publish("chat-1", chat.Message{ID: "m1", Body: "hello"})
	h.Publish("chat-2", chat.Message{ID: "m2", Body: "other chat"})

	select {
	case m := <-ch:
		if m.ID != "m1" {
			t.Errorf("got %q, want m1", m.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	select {
	case m := <-ch:
		t.Errorf("unexpected cross-chat delivery: %+v", m)
	default:
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub()

	_, cancel := h.Subscribe("chat-1")
	defer cancel()

	// Never read; overflow the buffer.
	for i := 0; i < subscriberBuffer+2; i++ {
		h.Publish("chat-1", chat.Message{ID: "m", Body: "x"})
	}

	if n := h.SubscriberCount("chat-1"); n != 0 {
		t.Errorf("slow subscriber still registered: %d", n)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("chat-1")
	cancel()

	if _, open := <-ch; open {
		t.Error("expected closed channel after cancel")
	}
	if n := h.SubscriberCount("chat-1"); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}
}
