// Package proto holds the JSON shapes shared by the REST API and the push feed.
package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope wraps every REST response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail builds an unsuccessful envelope carrying a reason.
func Fail(message string) Envelope[any] {
	return Envelope[any]{Success: false, Message: message}
}

// SessionDTO summarizes one conversation for the session list.
type SessionDTO struct {
	ID               int64        `json:"id"`
	PartnerID        int64        `json:"partnerId"`
	PartnerName      string       `json:"partnerName,omitempty"`
	PartnerAvatar    string       `json:"partnerAvatar,omitempty"`
	ProductID        *int64       `json:"productId,omitempty"`
	ProductTitle     string       `json:"productTitle,omitempty"`
	ProductThumbnail string       `json:"productThumbnail,omitempty"`
	ProductPrice     *json.Number `json:"productPrice,omitempty"`
	LastMessage      string       `json:"lastMessage,omitempty"`
	LastMessageType  string       `json:"lastMessageType,omitempty"`
	LastSenderID     int64        `json:"lastSenderId,omitempty"`
	LastTime         Time         `json:"lastTime"`
	UnreadCount      int          `json:"unreadCount"`
}

// MessageDTO is one chat message.
type MessageDTO struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"sessionId,omitempty"`
	SenderID  int64  `json:"senderId"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	CreatedAt Time   `json:"createdAt"`
}

// SendMessageRequest is the body of POST /chats/{id}/messages.
type SendMessageRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// StartChatRequest is the body of POST /chats/start.
type StartChatRequest struct {
	ProductID int64 `json:"productId"`
}

// SystemNotifyRequest is the body of POST /system/notify.
type SystemNotifyRequest struct {
	UserID  int64  `json:"userId"`
	Content string `json:"content"`
}

// ProductDTO is the catalog summary of a listing.
type ProductDTO struct {
	ID        int64        `json:"id"`
	SellerID  int64        `json:"sellerId"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Price     *json.Number `json:"price,omitempty"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// localLayout is how servers without zone information print timestamps.
const localLayout = "2006-01-02T15:04:05.999999999"

// Time accepts RFC 3339 timestamps as well as zone-less local ones.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// MarshalJSON writes RFC 3339 with nanoseconds, or null for the zero time.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON parses RFC 3339, zone-less local time, or null.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
