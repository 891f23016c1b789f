package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/marketchat/internal/locale"
)

func sampleSessions() []Session {
	return []Session{
		{ID: 1, PartnerID: 20, PartnerName: "Ann", LastPreview: "hi", UnreadCount: 2},
		{ID: 2, PartnerID: 30, LastPreview: "", UnreadCount: 1},
		{ID: 3, PartnerID: 40, PartnerName: "Bo", LastPreview: "ok", UnreadCount: 0},
	}
}

func TestSessionStoreReplacePicksTarget(t *testing.T) {
	s := NewSessionStore()

	target, ok := s.Replace(sampleSessions(), 2)
	require.True(t, ok)
	assert.Equal(t, int64(2), target.ID)

	target, ok = s.Replace(sampleSessions(), 99)
	require.True(t, ok)
	assert.Equal(t, int64(1), target.ID, "missing preference falls back to first")

	target, ok = s.Replace(sampleSessions(), 0)
	require.True(t, ok)
	assert.Equal(t, int64(1), target.ID)

	_, ok = s.Replace(nil, 1)
	assert.False(t, ok)
	assert.Zero(t, s.ActiveID())
}

func TestSessionStoreSelect(t *testing.T) {
	s := NewSessionStore()
	s.Replace(sampleSessions(), 0)

	_, ok := s.Active()
	assert.False(t, ok, "replace does not select")

	changed, err := s.Select(1)
	require.NoError(t, err)
	assert.True(t, changed)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "Ann", active.PartnerName)

	changed, err = s.Select(1)
	require.NoError(t, err)
	assert.False(t, changed, "reselecting the active session is a no-op")

	_, err = s.Select(77)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, int64(1), s.ActiveID())
}

func TestSessionStorePatchAndUnread(t *testing.T) {
	s := NewSessionStore()
	s.Replace(sampleSessions(), 0)
	at := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	require.True(t, s.PatchPreview(3, "new", at))
	got, _ := s.Get(3)
	assert.Equal(t, "new", got.LastPreview)
	assert.Equal(t, at, got.LastTime)

	require.True(t, s.PatchPreview(3, "again", time.Time{}))
	got, _ = s.Get(3)
	assert.Equal(t, at, got.LastTime, "zero time keeps the previous one")

	other, _ := s.Get(1)
	assert.Equal(t, "hi", other.LastPreview)

	s.IncrementUnread(3)
	assert.Equal(t, 4, s.MarkAllRead())
	for _, sess := range s.List() {
		assert.Zero(t, sess.UnreadCount)
	}
	assert.False(t, s.PatchPreview(99, "x", at))
}

func TestSessionStoreUpsert(t *testing.T) {
	s := NewSessionStore()
	s.Replace(sampleSessions(), 0)

	inserted := s.Upsert(Session{ID: 9, PartnerName: "New"})
	assert.True(t, inserted)
	assert.Equal(t, int64(9), s.List()[0].ID)

	inserted = s.Upsert(Session{ID: 3, PartnerName: "Bob", UnreadCount: -1})
	assert.False(t, inserted)
	list := s.List()
	require.Len(t, list, 4)
	assert.Equal(t, "Bob", list[3].PartnerName)
	assert.Zero(t, list[3].UnreadCount)
}

func TestAggregatorTotalsAndFeed(t *testing.T) {
	s := NewSessionStore()
	s.Replace(sampleSessions(), 0)
	agg := NewNotificationAggregator(s, locale.English)

	assert.Equal(t, 3, agg.UnreadTotal())
	assert.True(t, agg.ShouldMarkRead())

	feed := agg.Feed()
	require.Len(t, feed, 3)
	assert.Equal(t, "Ann", feed[0].FromName)
	assert.Equal(t, "Classmate", feed[1].FromName)
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=30", feed[1].AvatarURL)
	assert.Equal(t, "No messages yet", feed[1].Preview)

	s.IncrementUnread(3)
	assert.Equal(t, 4, agg.UnreadTotal(), "recomputed on every call")
	s.MarkAllRead()
	assert.False(t, agg.ShouldMarkRead())
}

func TestBadgeText(t *testing.T) {
	assert.Equal(t, "", BadgeText(0))
	assert.Equal(t, "7", BadgeText(7))
	assert.Equal(t, "99", BadgeText(99))
	assert.Equal(t, "99+", BadgeText(100))
}

func TestPreviewerNormalize(t *testing.T) {
	p := Previewer{Self: 10, Phrases: locale.English}

	got := p.Normalize(Session{ID: 1, PartnerID: 20, LastType: MessageTypeRecall, LastSenderID: 10, LastPreview: "secret"})
	assert.Equal(t, "You recalled a message", got.LastPreview)

	got = p.Normalize(Session{ID: 1, PartnerID: 20, LastType: MessageTypeRecall, LastSenderID: 20, LastPreview: "secret"})
	assert.Equal(t, "The other party recalled a message", got.LastPreview)

	got = p.Normalize(Session{ID: 1, PartnerID: 20, LastType: MessageTypeImage, LastPreview: "data:image/png;base64,AA"})
	assert.Equal(t, "[Image]", got.LastPreview)

	got = p.Normalize(Session{ID: 5, PartnerID: 0})
	assert.Equal(t, "System", got.PartnerName)
}
