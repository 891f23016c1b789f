package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/proto"
)

const helloTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections into push feed subscriptions.
type WSHandler struct {
	hub  *PushHub
	auth *auth.Service
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *PushHub, authService *auth.Service, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	claims, protoErr := h.handshake(ctx, conn)
	if protoErr != nil {
		_ = wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
		conn.Close(websocket.StatusPolicyViolation, protoErr.Msg)
		return
	}

	sub := h.hub.subscribe(claims.UserID)
	defer h.hub.unsubscribe(sub)

	ready, err := proto.NewEvent(proto.EventReady, proto.ReadyData{UserID: claims.UserID, Protocol: proto.ProtocolVersion})
	if err != nil {
		h.log.Error().Err(err).Msg("encode ready")
		return
	}
	if err := wsjson.Write(ctx, conn, ready); err != nil {
		h.log.Warn().Err(err).Msg("write ready")
		return
	}
	h.log.Debug().Int64("user_id", claims.UserID).Msg("push subscriber connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sub)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sub)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("user_id", sub.userID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake waits for the hello frame and authenticates it.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (*auth.Claims, *proto.Error) {
	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		return nil, &proto.Error{Code: "bad_request", Msg: "expected hello"}
	}
	if inbound.Type != proto.InboundTypeHello {
		return nil, &proto.Error{Code: "bad_request", Msg: "expected hello"}
	}

	var hello proto.HelloData
	if err := json.Unmarshal(inbound.Data, &hello); err != nil {
		return nil, &proto.Error{Code: "bad_request", Msg: "invalid hello"}
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return nil, &proto.Error{Code: "unsupported_version", Msg: "unsupported protocol version"}
	}

	claims, err := h.auth.ValidateToken(hello.Token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws hello with invalid token")
		return nil, &proto.Error{Code: "unauthorized", Msg: "invalid token"}
	}
	return claims, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sub *subscriber) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		var frame proto.Outbound
		switch inbound.Type {
		case proto.InboundTypePing:
			frame = proto.Outbound{Type: proto.OutboundTypeEvent, Event: proto.EventPong}
		default:
			frame = proto.NewError("invalid_message", "unknown message type")
		}

		select {
		case sub.out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *subscriber) error {
	for {
		select {
		case frame := <-sub.out:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Int64("user_id", sub.userID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
