package core

import "time"

// MessageType tags the content of a message.
type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeRecall MessageType = "RECALL"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeRecall:
		return true
	}
	return false
}

// Message is the domain model for a chat message.
type Message struct {
	ID        int64 // server assigned, 0 while pending
	TempID    string
	SessionID int64
	SenderID  int64
	Type      MessageType
	Content   string
	CreatedAt time.Time
	// Failed marks an optimistic message whose send was not confirmed.
	Failed bool
}

// Pending reports whether the message still waits for its authoritative record.
func (m Message) Pending() bool {
	return m.ID == 0 && m.TempID != ""
}

// Recalled reports whether the message reached the terminal RECALL state.
func (m Message) Recalled() bool {
	return m.Type == MessageTypeRecall
}

// Draft is user input waiting to be sent.
type Draft struct {
	// Key identifies the draft so a second submit can be refused while the first is in flight.
	Key     string
	Type    MessageType
	Content string
}
