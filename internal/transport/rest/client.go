// Package rest is the client side of the messaging and favorites REST API.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/proto"
)

// Options configures a Client.
type Options struct {
	BaseURL string // e.g. http://localhost:8080/api
	Token   string
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Client talks to the messaging service. It implements core.MessagingService
// and favorites.Backend. Failures come back as *core.CoreError; nothing is retried.
type Client struct {
	http *resty.Client
	log  *zerolog.Logger
}

// New creates a client.
func New(opts Options) *Client {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	return &Client{http: httpClient, log: opts.Logger}
}

// ListSessions fetches the session list.
func (c *Client) ListSessions(ctx context.Context) ([]core.Session, error) {
	dtos, err := call[[]proto.SessionDTO](ctx, c, "list sessions", http.MethodGet, "/chats", nil)
	if err != nil {
		return nil, err
	}
	sessions := make([]core.Session, 0, len(dtos))
	for _, dto := range dtos {
		sessions = append(sessions, sessionFromDTO(dto))
	}
	return sessions, nil
}

// ListMessages fetches one thread. The server marks it read.
func (c *Client) ListMessages(ctx context.Context, sessionID int64) ([]core.Message, error) {
	dtos, err := call[[]proto.MessageDTO](ctx, c, "list messages", http.MethodGet, fmt.Sprintf("/chats/%d/messages", sessionID), nil)
	if err != nil {
		return nil, err
	}
	msgs := make([]core.Message, 0, len(dtos))
	for _, dto := range dtos {
		msgs = append(msgs, MessageFromDTO(dto, sessionID))
	}
	return msgs, nil
}

// SendMessage posts a message and returns the authoritative record.
func (c *Client) SendMessage(ctx context.Context, sessionID int64, kind core.MessageType, content string) (core.Message, error) {
	body := proto.SendMessageRequest{Type: string(kind), Content: content}
	dto, err := call[proto.MessageDTO](ctx, c, "send message", http.MethodPost, fmt.Sprintf("/chats/%d/messages", sessionID), body)
	if err != nil {
		return core.Message{}, err
	}
	return MessageFromDTO(dto, sessionID), nil
}

// RecallMessage asks the server to recall a message.
func (c *Client) RecallMessage(ctx context.Context, sessionID, messageID int64) (core.Message, error) {
	path := fmt.Sprintf("/chats/%d/messages/%d/recall", sessionID, messageID)
	dto, err := call[proto.MessageDTO](ctx, c, "recall message", http.MethodPost, path, nil)
	if err != nil {
		return core.Message{}, err
	}
	msg := MessageFromDTO(dto, sessionID)
	if msg.ID == 0 {
		msg.ID = messageID
	}
	return msg, nil
}

// MarkAllRead confirms that every session was read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, "mark all read", http.MethodPost, "/chats/read-all", nil)
	return err
}

// StartChat opens the conversation about a listing.
func (c *Client) StartChat(ctx context.Context, listingID int64) (core.Session, error) {
	dto, err := call[proto.SessionDTO](ctx, c, "start chat", http.MethodPost, "/chats/start", proto.StartChatRequest{ProductID: listingID})
	if err != nil {
		return core.Session{}, err
	}
	return sessionFromDTO(dto), nil
}

// ListFavorites fetches the favorited listing ids.
func (c *Client) ListFavorites(ctx context.Context) ([]int64, error) {
	return call[[]int64](ctx, c, "list favorites", http.MethodGet, "/favorites", nil)
}

// AddFavorite favorites a listing.
func (c *Client) AddFavorite(ctx context.Context, listingID int64) error {
	_, err := call[json.RawMessage](ctx, c, "add favorite", http.MethodPost, fmt.Sprintf("/favorites/%d", listingID), nil)
	return err
}

// RemoveFavorite unfavorites a listing.
func (c *Client) RemoveFavorite(ctx context.Context, listingID int64) error {
	_, err := call[json.RawMessage](ctx, c, "remove favorite", http.MethodDelete, fmt.Sprintf("/favorites/%d", listingID), nil)
	return err
}

// call performs one request and unwraps the response envelope.
func call[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, error) {
	var zero T
	var okEnv proto.Envelope[T]
	var failEnv proto.Envelope[json.RawMessage]

	req := c.http.R().
		SetContext(ctx).
		SetResult(&okEnv).
		SetError(&failEnv)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("request failed")
		return zero, core.TransportError(op, err)
	}

	if resp.IsError() {
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode()).Str("reason", failEnv.Message).Msg("request rejected")
		if failEnv.Message != "" {
			return zero, core.RejectedError(failEnv.Message)
		}
		return zero, core.TransportError(op, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	if !okEnv.Success {
		reason := okEnv.Message
		if reason == "" {
			reason = op + " was rejected"
		}
		return zero, core.RejectedError(reason)
	}
	return okEnv.Data, nil
}
