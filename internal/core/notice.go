package core

import (
	"slices"
	"time"

	"github.com/vovakirdan/marketchat/internal/utils"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

// NoticeLevel grades a notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	ID        string
	Level     NoticeLevel
	Text      string
	CreatedAt time.Time
}

// noticeBoard tracks visible notices and the timers that expire them.
// Only the messenger loop touches it.
type noticeBoard struct {
	ttl     time.Duration
	visible []Notice
	timers  map[string]*time.Timer
}

func newNoticeBoard(ttl time.Duration) *noticeBoard {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &noticeBoard{ttl: ttl, timers: make(map[string]*time.Timer)}
}

// add shows a notice and arranges for expire to run after the ttl.
func (b *noticeBoard) add(level NoticeLevel, text string, now time.Time, expire func(id string)) Notice {
	n := Notice{ID: utils.NewID(), Level: level, Text: text, CreatedAt: now}
	b.visible = append(b.visible, n)
	b.timers[n.ID] = time.AfterFunc(b.ttl, func() { expire(n.ID) })
	return n
}

// remove hides a notice; false if it was already gone.
func (b *noticeBoard) remove(id string) bool {
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	idx := slices.IndexFunc(b.visible, func(n Notice) bool { return n.ID == id })
	if idx < 0 {
		return false
	}
	b.visible = slices.Delete(b.visible, idx, idx+1)
	return true
}

func (b *noticeBoard) list() []Notice {
	return slices.Clone(b.visible)
}

// stopAll cancels every pending expiry.
func (b *noticeBoard) stopAll() {
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}

func (b *noticeBoard) pending() int {
	return len(b.timers)
}
