package proto

import "encoding/json"

// ProtocolVersion is the push feed protocol spoken by this build.
const ProtocolVersion = 1

const (
	InboundTypeHello = "hello"
	InboundTypePing  = "ping"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReady   = "ready"
	EventMessage = "message"
	EventRecall  = "recall"
	EventPong    = "pong"
)

// Inbound is the envelope for frames sent by a push subscriber.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// HelloData authenticates a push subscriber.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// Outbound is the envelope for frames sent to a push subscriber.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// ReadyData confirms a subscription.
type ReadyData struct {
	UserID   int64 `json:"userId"`
	Protocol int   `json:"protocol"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// NewEvent encodes payload into an event frame.
func NewEvent(event string, payload any) (Outbound, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Type: OutboundTypeEvent, Event: event, Data: data}, nil
}

// NewError builds an error frame.
func NewError(code, msg string) Outbound {
	return Outbound{Type: OutboundTypeError, Error: &Error{Code: code, Msg: msg}}
}
