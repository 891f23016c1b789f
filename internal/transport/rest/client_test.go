package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/marketchat/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/api/", Token: "tok", Timeout: 2 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func asCoreError(t *testing.T, err error) *core.CoreError {
	t.Helper()
	var ce *core.CoreError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *core.CoreError, got %T: %v", err, err)
	}
	return ce
}

func TestListSessions_MapsDTO(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{
			"id":3,"partnerId":9,"partnerName":"Ann","productId":5,"productTitle":"Bike",
			"productPrice":12.5,"lastMessage":"hi","lastMessageType":"TEXT","lastSenderId":9,
			"lastTime":"2024-05-10T12:00:00","unreadCount":2}]}`)
	})

	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.ID != 3 || s.PartnerName != "Ann" || s.LastPreview != "hi" || s.UnreadCount != 2 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Listing == nil || s.Listing.ID != 5 || s.Listing.Price == nil || *s.Listing.Price != "12.5" {
		t.Fatalf("unexpected listing: %+v", s.Listing)
	}
	want := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	if !s.LastTime.Equal(want) {
		t.Fatalf("expected zone-less time in local zone, got %v", s.LastTime)
	}
}

func TestSendMessage_PostsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/4/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["type"] != "IMAGE" || body["content"] != "data:image/png;base64,AA==" {
			t.Errorf("unexpected body: %v", body)
		}
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":77,"senderId":1,"type":"IMAGE","content":"data:image/png;base64,AA==","createdAt":"2024-05-10T12:00:00Z"}}`)
	})

	msg, err := c.SendMessage(context.Background(), 4, core.MessageTypeImage, "data:image/png;base64,AA==")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg.ID != 77 || msg.SessionID != 4 || msg.Type != core.MessageTypeImage {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestRejectedWithServerReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":false,"data":null,"message":"recall window expired"}`)
	})

	_, err := c.RecallMessage(context.Background(), 1, 2)
	ce := asCoreError(t, err)
	if ce.Kind != core.KindRejected || ce.Message != "recall window expired" {
		t.Fatalf("unexpected error: %+v", ce)
	}
}

func TestRejectedInSuccessfulStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"data":null,"message":"product is sold"}`)
	})

	_, err := c.StartChat(context.Background(), 5)
	ce := asCoreError(t, err)
	if ce.Kind != core.KindRejected || ce.Message != "product is sold" {
		t.Fatalf("unexpected error: %+v", ce)
	}
}

func TestTransportFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ce := asCoreError(t, c.MarkAllRead(context.Background()))
	if ce.Kind != core.KindTransport {
		t.Fatalf("expected transport error for bare 502, got %+v", ce)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	down := New(Options{BaseURL: srv.URL, Timeout: time.Second})
	_, err := down.ListMessages(context.Background(), 1)
	if ce := asCoreError(t, err); ce.Kind != core.KindTransport {
		t.Fatalf("expected transport error for refused connection, got %+v", ce)
	}
}

func TestFavorites(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `{"success":true,"data":[3,9]}`)
		default:
			writeJSON(w, http.StatusOK, `{"success":true,"data":null}`)
		}
	})
	ctx := context.Background()

	ids, err := c.ListFavorites(ctx)
	if err != nil || len(ids) != 2 || ids[1] != 9 {
		t.Fatalf("unexpected favorites %v (%v)", ids, err)
	}
	if err := c.AddFavorite(ctx, 4); err != nil {
		t.Fatalf("AddFavorite failed: %v", err)
	}
	if err := c.RemoveFavorite(ctx, 4); err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}

	want := []string{"GET /api/favorites", "POST /api/favorites/4", "DELETE /api/favorites/4"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
}
