package core

import (
	"net/url"
	"strconv"
	"time"

	"github.com/vovakirdan/marketchat/internal/locale"
)

const (
	avatarFallbackURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="
	badgeLimit        = 99
)

// FeedEntry is one row of the notification dropdown.
type FeedEntry struct {
	SessionID   int64
	FromName    string
	AvatarURL   string
	Preview     string
	LastTime    time.Time
	UnreadCount int
}

// NotificationAggregator derives the unread badge and feed from the session list.
type NotificationAggregator struct {
	sessions *SessionStore
	phrases  locale.Phrases
}

// NewNotificationAggregator reads from store; it keeps no state of its own.
func NewNotificationAggregator(store *SessionStore, phrases locale.Phrases) *NotificationAggregator {
	return &NotificationAggregator{sessions: store, phrases: phrases}
}

// UnreadTotal sums unread counts at call time.
func (a *NotificationAggregator) UnreadTotal() int {
	total := 0
	for _, s := range a.sessions.sessions {
		total += s.UnreadCount
	}
	return total
}

// ShouldMarkRead reports whether opening the feed has anything to clear.
func (a *NotificationAggregator) ShouldMarkRead() bool {
	return a.UnreadTotal() > 0
}

// Feed lists every session in store order with placeholders filled in.
func (a *NotificationAggregator) Feed() []FeedEntry {
	out := make([]FeedEntry, 0, len(a.sessions.sessions))
	for _, s := range a.sessions.sessions {
		entry := FeedEntry{
			SessionID:   s.ID,
			FromName:    s.PartnerName,
			AvatarURL:   s.PartnerAvatar,
			Preview:     s.LastPreview,
			LastTime:    s.LastTime,
			UnreadCount: s.UnreadCount,
		}
		if entry.FromName == "" {
			entry.FromName = a.phrases.PlaceholderName
		}
		if entry.AvatarURL == "" {
			entry.AvatarURL = FallbackAvatar(s.PartnerID, entry.FromName)
		}
		if entry.Preview == "" {
			entry.Preview = a.phrases.EmptyPreview
		}
		out = append(out, entry)
	}
	return out
}

// FallbackAvatar builds a generated avatar url seeded by partner id, or by name for unknown partners.
func FallbackAvatar(partnerID int64, name string) string {
	seed := name
	if partnerID != 0 {
		seed = strconv.FormatInt(partnerID, 10)
	}
	return avatarFallbackURL + url.QueryEscape(seed)
}

// BadgeText renders an unread count for a badge; empty when there is nothing unread.
func BadgeText(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > badgeLimit:
		return strconv.Itoa(badgeLimit) + "+"
	default:
		return strconv.Itoa(n)
	}
}
