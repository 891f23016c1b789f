package core

import (
	"slices"
	"time"
)

// SessionStore is the conversation list with its selection.
// It is not safe for concurrent use; the Messenger loop owns it.
type SessionStore struct {
	sessions []Session
	activeID int64
}

// NewSessionStore returns an empty store with nothing selected.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Replace installs a freshly loaded list and picks the session to activate:
// preferredID if present (0 means no preference), otherwise the first one.
func (s *SessionStore) Replace(list []Session, preferredID int64) (Session, bool) {
	s.sessions = slices.Clone(list)
	for i := range s.sessions {
		if s.sessions[i].UnreadCount < 0 {
			s.sessions[i].UnreadCount = 0
		}
	}

	if len(s.sessions) == 0 {
		s.activeID = 0
		return Session{}, false
	}

	target := s.sessions[0]
	if preferredID != 0 {
		if found, ok := s.Get(preferredID); ok {
			target = found
		}
	}
	return target, true
}

// Upsert inserts a new session at the head or refreshes an existing one in place.
func (s *SessionStore) Upsert(session Session) bool {
	if idx := s.indexOf(session.ID); idx >= 0 {
		session.UnreadCount = max(session.UnreadCount, 0)
		s.sessions[idx] = session
		return false
	}
	session.UnreadCount = max(session.UnreadCount, 0)
	s.sessions = slices.Insert(s.sessions, 0, session)
	return true
}

// Select makes id active. It reports false when id was already active.
func (s *SessionStore) Select(id int64) (bool, error) {
	if s.indexOf(id) < 0 {
		return false, ErrSessionNotFound
	}
	if s.activeID == id {
		return false, nil
	}
	s.activeID = id
	return true, nil
}

// ActiveID returns the selected session id, 0 if none.
func (s *SessionStore) ActiveID() int64 {
	return s.activeID
}

// Active returns the selected session.
func (s *SessionStore) Active() (Session, bool) {
	if s.activeID == 0 {
		return Session{}, false
	}
	return s.Get(s.activeID)
}

// Get returns the session with id.
func (s *SessionStore) Get(id int64) (Session, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Session{}, false
	}
	return s.sessions[idx], true
}

// List returns a copy in server order.
func (s *SessionStore) List() []Session {
	return slices.Clone(s.sessions)
}

// PatchPreview updates the last message summary of a session.
func (s *SessionStore) PatchPreview(id int64, preview string, at time.Time) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.sessions[idx].LastPreview = preview
	if !at.IsZero() {
		s.sessions[idx].LastTime = at
	}
	return true
}

// IncrementUnread bumps the unread count of a session.
func (s *SessionStore) IncrementUnread(id int64) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.sessions[idx].UnreadCount++
	return true
}

// ClearUnread zeroes the unread count of one session.
func (s *SessionStore) ClearUnread(id int64) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.sessions[idx].UnreadCount = 0
	return true
}

// MarkAllRead zeroes every unread count and returns how many were cleared.
func (s *SessionStore) MarkAllRead() int {
	cleared := 0
	for i := range s.sessions {
		cleared += s.sessions[i].UnreadCount
		s.sessions[i].UnreadCount = 0
	}
	return cleared
}

func (s *SessionStore) indexOf(id int64) int {
	return slices.IndexFunc(s.sessions, func(sess Session) bool { return sess.ID == id })
}
