// Package timelabel turns message timestamps into divider and label text.
package timelabel

import (
	"time"

	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/locale"
)

// DividerGap is the gap after which a new time divider is shown.
const DividerGap = 5 * time.Minute

// ShowDivider reports whether a divider precedes msgs[i].
func ShowDivider(msgs []core.Message, i int) bool {
	if i <= 0 || i >= len(msgs) {
		return i == 0 && len(msgs) > 0
	}
	return msgs[i].CreatedAt.Sub(msgs[i-1].CreatedAt) > DividerGap
}

// Formatter renders labels in one language.
type Formatter struct {
	Phrases locale.Phrases
}

// New returns a formatter for the given phrase set.
func New(p locale.Phrases) Formatter {
	return Formatter{Phrases: p}
}

// Label is the divider text for t as seen at now.
// Buckets are computed on calendar dates in now's location.
func (f Formatter) Label(t, now time.Time) string {
	t = t.In(now.Location())
	hm := t.Format("15:04")

	switch days := calendarDaysBetween(t, now); {
	case days <= 0:
		return hm
	case days == 1:
		return f.Phrases.Yesterday + " " + hm
	case days < 7:
		return f.Phrases.Weekdays[t.Weekday()] + " " + hm
	}

	if t.Year() == now.Year() {
		return f.Phrases.SameYear(t)
	}
	return f.Phrases.OtherYear(t)
}

// ListLabel is the short form used by the session list and the notification feed.
func (f Formatter) ListLabel(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	if calendarDaysBetween(t, now) == 0 {
		return t.Format("15:04")
	}
	return t.Format("01-02")
}

// calendarDaysBetween counts local midnights crossed from t to now.
func calendarDaysBetween(t, now time.Time) int {
	loc := now.Location()
	a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	// Round absorbs DST shifts inside the span.
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}
