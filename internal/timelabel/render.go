package timelabel

import (
	"time"

	"github.com/vovakirdan/marketchat/internal/core"
)

// Row is one rendered line of a thread.
type Row struct {
	Message    core.Message
	Divider    bool
	Label      string // set only when Divider is true
	Mine       bool
	Recallable bool
	Text       string
}

// Render lays out msgs for display as seen by policy.Self at now.
func (f Formatter) Render(msgs []core.Message, now time.Time, policy core.RecallPolicy) []Row {
	rows := make([]Row, 0, len(msgs))
	for i, msg := range msgs {
		row := Row{
			Message:    msg,
			Mine:       msg.SenderID == policy.Self,
			Recallable: policy.Recallable(msg, now),
			Text:       f.Text(msg, policy.Self),
		}
		if ShowDivider(msgs, i) {
			row.Divider = true
			row.Label = f.Label(msg.CreatedAt, now)
		}
		rows = append(rows, row)
	}
	return rows
}

// Text is the display content of msg. Recalled messages never expose content.
func (f Formatter) Text(msg core.Message, self int64) string {
	switch msg.Type {
	case core.MessageTypeRecall:
		return f.Phrases.RecallPhrase(msg.SenderID, self)
	case core.MessageTypeImage:
		return f.Phrases.ImagePreview
	default:
		return msg.Content
	}
}
