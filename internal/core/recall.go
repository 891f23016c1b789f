package core

import "time"

// DefaultRecallWindow is how long after sending a message may be unsent.
const DefaultRecallWindow = 2 * time.Minute

// RecallState is the recall lifecycle of a message.
type RecallState int

const (
	// RecallStateSent is a message that exists but cannot be recalled by the viewer.
	RecallStateSent RecallState = iota
	// RecallStateRecallable is derived: own message inside the window.
	RecallStateRecallable
	// RecallStateRecalled is terminal.
	RecallStateRecalled
)

func (s RecallState) String() string {
	switch s {
	case RecallStateSent:
		return "SENT"
	case RecallStateRecallable:
		return "RECALLABLE"
	case RecallStateRecalled:
		return "RECALLED"
	default:
		return "UNKNOWN"
	}
}

// RecallPolicy decides whether a message may be unsent.
// The service remains the authority; this check is advisory.
type RecallPolicy struct {
	Self   int64
	Window time.Duration
}

// NewRecallPolicy returns a policy for the given user with the default window.
func NewRecallPolicy(self int64) RecallPolicy {
	return RecallPolicy{Self: self, Window: DefaultRecallWindow}
}

// State derives the recall state of msg at instant now.
func (p RecallPolicy) State(msg Message, now time.Time) RecallState {
	if msg.Recalled() {
		return RecallStateRecalled
	}
	if p.Recallable(msg, now) {
		return RecallStateRecallable
	}
	return RecallStateSent
}

// Recallable reports whether msg can be recalled at instant now.
func (p RecallPolicy) Recallable(msg Message, now time.Time) bool {
	if msg.Recalled() || msg.Pending() || msg.ID == 0 {
		return false
	}
	if msg.SenderID != p.Self || msg.CreatedAt.IsZero() {
		return false
	}
	window := p.Window
	if window <= 0 {
		window = DefaultRecallWindow
	}
	return now.Sub(msg.CreatedAt) <= window
}

// Redact turns a message into its recalled form, dropping the original content.
func Redact(msg Message) Message {
	msg.Type = MessageTypeRecall
	msg.Content = ""
	return msg
}
