package http

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/vovakirdan/marketchat/internal/proto"
)

func TestChats_RequireToken(t *testing.T) {
	ts := newTestServer(t, 0)

	resp := ts.do(t, http.MethodGet, "/api/chats", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	env := decodeEnvelope[any](t, resp)
	if env.Success || env.Message == "" {
		t.Fatalf("expected failed envelope with reason, got %+v", env)
	}

	resp = ts.do(t, http.MethodGet, "/api/chats", "garbage", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", resp.Code)
	}
}

func TestChats_StartSendList(t *testing.T) {
	ts := newTestServer(t, 0)
	buyer := ts.member(t, "buyer")
	seller := ts.member(t, "seller")
	productID := ts.product(t, seller, "Road bike")

	resp := ts.do(t, http.MethodPost, "/api/chats/start", buyer.token, proto.StartChatRequest{ProductID: productID})
	if resp.Code != http.StatusOK {
		t.Fatalf("start chat: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	started := decodeEnvelope[proto.SessionDTO](t, resp).Data
	if started.PartnerID != seller.id || started.PartnerName != "seller" || started.ProductTitle != "Road bike" {
		t.Fatalf("unexpected session: %+v", started)
	}

	path := fmt.Sprintf("/api/chats/%d/messages", started.ID)
	resp = ts.do(t, http.MethodPost, path, buyer.token, proto.SendMessageRequest{Type: "TEXT", Content: "still for sale?"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	sent := decodeEnvelope[proto.MessageDTO](t, resp).Data
	if sent.ID == 0 || sent.SenderID != buyer.id {
		t.Fatalf("unexpected message: %+v", sent)
	}

	resp = ts.do(t, http.MethodPost, path, buyer.token, proto.SendMessageRequest{Content: "  "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("blank send: expected 400, got %d", resp.Code)
	}

	resp = ts.do(t, http.MethodGet, "/api/chats", seller.token, nil)
	sessions := decodeEnvelope[[]proto.SessionDTO](t, resp).Data
	if len(sessions) != 1 || sessions[0].UnreadCount != 1 || sessions[0].LastMessage != "still for sale?" {
		t.Fatalf("unexpected seller sessions: %+v", sessions)
	}
	if sessions[0].PartnerID != buyer.id {
		t.Fatalf("expected buyer as seller's partner, got %d", sessions[0].PartnerID)
	}

	resp = ts.do(t, http.MethodGet, path, seller.token, nil)
	msgs := decodeEnvelope[[]proto.MessageDTO](t, resp).Data
	if len(msgs) != 1 || !msgs[0].Read {
		t.Fatalf("expected one read message, got %+v", msgs)
	}

	outsider := ts.member(t, "outsider")
	resp = ts.do(t, http.MethodGet, path, outsider.token, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("outsider: expected 403, got %d", resp.Code)
	}
}

func TestChats_RecallWindow(t *testing.T) {
	ts := newTestServer(t, 0)
	buyer := ts.member(t, "buyer")
	seller := ts.member(t, "seller")
	productID := ts.product(t, seller, "Desk")

	resp := ts.do(t, http.MethodPost, "/api/chats/start", buyer.token, proto.StartChatRequest{ProductID: productID})
	sessionID := decodeEnvelope[proto.SessionDTO](t, resp).Data.ID

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/chats/%d/messages", sessionID), buyer.token, proto.SendMessageRequest{Content: "typo"})
	msgID := decodeEnvelope[proto.MessageDTO](t, resp).Data.ID
	recallPath := fmt.Sprintf("/api/chats/%d/messages/%d/recall", sessionID, msgID)

	ts.now = ts.now.Add(3 * time.Minute)
	resp = ts.do(t, http.MethodPost, recallPath, buyer.token, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("late recall: expected 409, got %d", resp.Code)
	}
	if env := decodeEnvelope[any](t, resp); env.Message != "recall window expired" {
		t.Fatalf("expected server reason, got %q", env.Message)
	}

	ts.now = ts.now.Add(-2 * time.Minute)
	resp = ts.do(t, http.MethodPost, recallPath, buyer.token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("recall: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	recalled := decodeEnvelope[proto.MessageDTO](t, resp).Data
	if recalled.Type != "RECALL" || recalled.Content != "" {
		t.Fatalf("unexpected recalled record: %+v", recalled)
	}
}

func TestChats_ReadAllAndSystemNotify(t *testing.T) {
	ts := newTestServer(t, 0)
	buyer := ts.member(t, "buyer")

	resp := ts.do(t, http.MethodPost, "/api/system/notify", "", proto.SystemNotifyRequest{UserID: buyer.id, Content: "welcome"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("notify: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	sessions := decodeEnvelope[[]proto.SessionDTO](t, ts.do(t, http.MethodGet, "/api/chats", buyer.token, nil)).Data
	if len(sessions) != 1 {
		t.Fatalf("expected system session, got %+v", sessions)
	}
	if sessions[0].PartnerID != 0 || sessions[0].PartnerName != systemPartnerName || sessions[0].PartnerAvatar != systemPartnerAvatar {
		t.Fatalf("unexpected system partner: %+v", sessions[0])
	}
	if sessions[0].UnreadCount != 1 {
		t.Fatalf("expected 1 unread, got %d", sessions[0].UnreadCount)
	}

	resp = ts.do(t, http.MethodPost, "/api/chats/read-all", buyer.token, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("read-all: expected 200, got %d", resp.Code)
	}

	sessions = decodeEnvelope[[]proto.SessionDTO](t, ts.do(t, http.MethodGet, "/api/chats", buyer.token, nil)).Data
	if sessions[0].UnreadCount != 0 {
		t.Fatalf("expected unread cleared, got %d", sessions[0].UnreadCount)
	}
}

func TestChats_SendRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)
	buyer := ts.member(t, "buyer")
	seller := ts.member(t, "seller")
	productID := ts.product(t, seller, "Lamp")

	resp := ts.do(t, http.MethodPost, "/api/chats/start", buyer.token, proto.StartChatRequest{ProductID: productID})
	path := fmt.Sprintf("/api/chats/%d/messages", decodeEnvelope[proto.SessionDTO](t, resp).Data.ID)

	for i := 0; i < 2; i++ {
		if resp := ts.do(t, http.MethodPost, path, buyer.token, proto.SendMessageRequest{Content: "hi"}); resp.Code != http.StatusCreated {
			t.Fatalf("send %d: expected 201, got %d", i, resp.Code)
		}
	}
	if resp := ts.do(t, http.MethodPost, path, buyer.token, proto.SendMessageRequest{Content: "hi"}); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}

	// The limit is per member.
	if resp := ts.do(t, http.MethodPost, path, seller.token, proto.SendMessageRequest{Content: "hello"}); resp.Code != http.StatusCreated {
		t.Fatalf("seller send: expected 201, got %d", resp.Code)
	}
}

func TestFavorites_Endpoints(t *testing.T) {
	ts := newTestServer(t, 0)
	buyer := ts.member(t, "buyer")
	seller := ts.member(t, "seller")
	productID := ts.product(t, seller, "Chair")

	path := fmt.Sprintf("/api/favorites/%d", productID)
	if resp := ts.do(t, http.MethodPost, path, buyer.token, nil); resp.Code != http.StatusOK {
		t.Fatalf("add: expected 200, got %d", resp.Code)
	}
	if resp := ts.do(t, http.MethodPost, "/api/favorites/999", buyer.token, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("add missing: expected 404, got %d", resp.Code)
	}

	ids := decodeEnvelope[[]int64](t, ts.do(t, http.MethodGet, "/api/favorites", buyer.token, nil)).Data
	if len(ids) != 1 || ids[0] != productID {
		t.Fatalf("expected [%d], got %v", productID, ids)
	}

	if resp := ts.do(t, http.MethodDelete, path, buyer.token, nil); resp.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", resp.Code)
	}
	ids = decodeEnvelope[[]int64](t, ts.do(t, http.MethodGet, "/api/favorites", buyer.token, nil)).Data
	if len(ids) != 0 {
		t.Fatalf("expected no favorites, got %v", ids)
	}
}
