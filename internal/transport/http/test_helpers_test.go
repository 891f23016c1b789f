package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/config"
	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/service/catalog"
	"github.com/vovakirdan/marketchat/internal/service/chat"
	"github.com/vovakirdan/marketchat/internal/store"
	"github.com/vovakirdan/marketchat/internal/store/sqlite"
)

type testServer struct {
	handler http.Handler
	store   store.Store
	auth    *auth.Service
	hub     *PushHub
	now     time.Time
}

type member struct {
	id    int64
	token string
}

// newTestServer wires the full handler over an in-memory store.
func newTestServer(t *testing.T, ratePerMinute int) *testServer {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	disabledLogger := zerolog.New(nil).Level(zerolog.Disabled)
	ts := &testServer{store: st, now: time.Now().UTC()}

	ts.auth = auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})
	ts.hub = NewPushHub(&disabledLogger)
	chatService := chat.New(st, chat.Options{
		RecallWindow: 2 * time.Minute,
		Clock:        func() time.Time { return ts.now },
		Publisher:    ts.hub,
		Logger:       &disabledLogger,
	})

	cfg := config.Default().DevServer
	cfg.SendRatePerMinute = ratePerMinute
	ts.handler = NewHandler(Deps{
		Auth:    ts.auth,
		Chat:    chatService,
		Catalog: catalog.New(st),
		Hub:     ts.hub,
	}, cfg, &disabledLogger)
	return ts
}

func (ts *testServer) member(t *testing.T, nickname string) member {
	t.Helper()
	user, token, err := ts.auth.CreateMember(context.Background(), nickname, "")
	if err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	return member{id: user.ID, token: token}
}

func (ts *testServer) product(t *testing.T, seller member, title string) int64 {
	t.Helper()
	p := &store.Product{SellerID: seller.id, Title: title}
	if err := ts.store.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return p.ID
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	ts.handler.ServeHTTP(resp, req)
	return resp
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) proto.Envelope[T] {
	t.Helper()
	var env proto.Envelope[T]
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return env
}
