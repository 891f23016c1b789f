package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/vovakirdan/marketchat/internal/utils"
)

// MessageThread is the ordered message list of exactly one session.
// It is not safe for concurrent use; the Messenger loop owns it.
type MessageThread struct {
	sessionID int64
	messages  []Message
	loaded    bool
}

// NewMessageThread returns an empty thread owned by no session.
func NewMessageThread() *MessageThread {
	return &MessageThread{}
}

// SessionID returns the owning session, 0 if none.
func (t *MessageThread) SessionID() int64 {
	return t.sessionID
}

// Loaded reports whether an authoritative load has been applied since the last Reset.
func (t *MessageThread) Loaded() bool {
	return t.loaded
}

// Reset hands the thread to another session and drops its contents.
func (t *MessageThread) Reset(sessionID int64) {
	t.sessionID = sessionID
	t.messages = nil
	t.loaded = false
}

// Load replaces the contents with an authoritative list for sessionID.
// It refuses lists for any session other than the current owner.
// Entries added locally since Reset that the list does not contain are kept at the tail.
func (t *MessageThread) Load(sessionID int64, msgs []Message) bool {
	if sessionID != t.sessionID {
		return false
	}

	loaded := make([]Message, 0, len(msgs)+len(t.messages))
	known := make(map[int64]struct{}, len(msgs))
	for _, msg := range msgs {
		msg.SessionID = sessionID
		msg.TempID = ""
		loaded = append(loaded, msg)
		known[msg.ID] = struct{}{}
	}
	slices.SortStableFunc(loaded, func(a, b Message) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	for _, local := range t.messages {
		if local.ID != 0 {
			if _, dup := known[local.ID]; dup {
				continue
			}
		}
		loaded = append(loaded, local)
	}

	t.messages = loaded
	t.loaded = true
	return true
}

// AppendOptimistic inserts a pending message at the tail.
func (t *MessageThread) AppendOptimistic(draft Draft, senderID int64, now time.Time) Message {
	msg := Message{
		TempID:    utils.NewTempID(),
		SessionID: t.sessionID,
		SenderID:  senderID,
		Type:      draft.Type,
		Content:   draft.Content,
		CreatedAt: now,
	}
	t.messages = append(t.messages, msg)
	return msg
}

// Reconcile replaces the pending entry tempID with its authoritative record in place.
// If the record already arrived by another path the pending entry is dropped instead.
func (t *MessageThread) Reconcile(tempID string, auth Message) (int, bool) {
	idx := t.indexOfTemp(tempID)
	if idx < 0 {
		return -1, false
	}

	if existing := t.indexOf(auth.ID); existing >= 0 {
		t.messages = slices.Delete(t.messages, idx, idx+1)
		if existing > idx {
			existing--
		}
		return existing, true
	}

	auth.TempID = ""
	auth.SessionID = t.sessionID
	auth.Failed = false
	t.messages[idx] = auth
	return idx, true
}

// MarkFailed flags a pending entry whose send was not confirmed.
func (t *MessageThread) MarkFailed(tempID string) (int, bool) {
	idx := t.indexOfTemp(tempID)
	if idx < 0 {
		return -1, false
	}
	t.messages[idx].Failed = true
	return idx, true
}

// ApplyRecall replaces message id with its recalled form in place.
// Identity and creation time of the existing entry are kept. Returns false if id is absent.
func (t *MessageThread) ApplyRecall(id int64, record Message) (int, bool) {
	idx := t.indexOf(id)
	if idx < 0 {
		return -1, false
	}

	cur := Redact(t.messages[idx])
	if cur.CreatedAt.IsZero() {
		cur.CreatedAt = record.CreatedAt
	}
	t.messages[idx] = cur
	return idx, true
}

// AppendIncoming adds a message delivered by push. Duplicates by id are ignored.
func (t *MessageThread) AppendIncoming(msg Message) (int, bool) {
	if msg.SessionID != t.sessionID || msg.ID == 0 {
		return -1, false
	}
	if t.indexOf(msg.ID) >= 0 {
		return -1, false
	}
	msg.TempID = ""
	t.messages = append(t.messages, msg)
	return len(t.messages) - 1, true
}

// Find returns the message with server id.
func (t *MessageThread) Find(id int64) (Message, bool) {
	idx := t.indexOf(id)
	if idx < 0 {
		return Message{}, false
	}
	return t.messages[idx], true
}

// FindTemp returns the pending message with tempID.
func (t *MessageThread) FindTemp(tempID string) (Message, bool) {
	idx := t.indexOfTemp(tempID)
	if idx < 0 {
		return Message{}, false
	}
	return t.messages[idx], true
}

// IsLast reports whether id is the most recent message.
func (t *MessageThread) IsLast(id int64) bool {
	return len(t.messages) > 0 && t.messages[len(t.messages)-1].ID == id
}

// Len returns the number of messages.
func (t *MessageThread) Len() int {
	return len(t.messages)
}

// Messages returns a copy of the ordered contents.
func (t *MessageThread) Messages() []Message {
	return slices.Clone(t.messages)
}

func (t *MessageThread) indexOf(id int64) int {
	if id == 0 {
		return -1
	}
	return slices.IndexFunc(t.messages, func(m Message) bool { return m.ID == id })
}

func (t *MessageThread) indexOfTemp(tempID string) int {
	if tempID == "" {
		return -1
	}
	return slices.IndexFunc(t.messages, func(m Message) bool { return m.TempID == tempID })
}
