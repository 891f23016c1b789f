package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/vovakirdan/marketchat/internal/app"
	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/imageenc"
	"github.com/vovakirdan/marketchat/internal/locale"
	"github.com/vovakirdan/marketchat/internal/timelabel"
)

func printSessions(w io.Writer, phrases locale.Phrases, sessions []core.Session, now time.Time) {
	labels := timelabel.New(phrases)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARTNER\tLISTING\tUNREAD\tTIME\tLAST")
	for _, s := range sessions {
		listing := "-"
		if s.Listing != nil {
			listing = s.Listing.Title
		}
		when := ""
		if !s.LastTime.IsZero() {
			when = labels.ListLabel(s.LastTime, now)
		}
		preview := s.LastPreview
		if preview == "" {
			preview = phrases.EmptyPreview
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.PartnerName, listing, core.BadgeText(s.UnreadCount), when, preview)
	}
	tw.Flush()
}

func printThread(w io.Writer, c *app.Client, st core.State, now time.Time) {
	printRows(w, timelabel.New(c.Phrases).Render(st.Messages, now, c.Messenger.Policy()))
}

func printRow(w io.Writer, row timelabel.Row) {
	if row.Divider {
		fmt.Fprintf(w, "      --- %s ---\n", row.Label)
	}
	who := "them"
	if row.Mine {
		who = "me"
	}
	var flags string
	switch {
	case row.Message.Failed:
		flags = " (not sent)"
	case row.Recallable:
		flags = " (recallable)"
	}
	text := row.Text
	if row.Message.Type == core.MessageTypeImage {
		text += imageSummary(row.Message.Content)
	}
	fmt.Fprintf(w, "%6d %-4s %s%s\n", row.Message.ID, who, text, flags)
}

// imageSummary describes an inline image by type and size; links are shown as is.
func imageSummary(content string) string {
	if !imageenc.IsDataURL(content) {
		if content == "" {
			return ""
		}
		return " " + content
	}
	mime, data, err := imageenc.Decode(content)
	if err != nil {
		return " (unreadable)"
	}
	return fmt.Sprintf(" %s, %d bytes", mime, len(data))
}

func printFeed(w io.Writer, phrases locale.Phrases, total int, feed []core.FeedEntry, now time.Time) {
	fmt.Fprintf(w, "unread: %s\n", badgeOrZero(total))

	labels := timelabel.New(phrases)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, entry := range feed {
		when := ""
		if !entry.LastTime.IsZero() {
			when = labels.ListLabel(entry.LastTime, now)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			entry.SessionID, entry.FromName, core.BadgeText(entry.UnreadCount), when, entry.Preview)
	}
	tw.Flush()
}

// printEvent writes a one-line account of ev for the interactive views.
func printEvent(w io.Writer, c *app.Client, ev *core.Event) {
	labels := timelabel.New(c.Phrases)
	switch ev.Kind {
	case core.EventSessionSelected:
		fmt.Fprintf(w, "* switched to session %d\n", ev.SessionID)
	case core.EventThreadLoaded:
		printRows(w, labels.Render(ev.Messages, time.Now(), c.Messenger.Policy()))
	case core.EventMessageReceived:
		fmt.Fprintf(w, "< %s\n", labels.Text(ev.Message, c.Self.UserID))
	case core.EventMessageReconciled:
		fmt.Fprintf(w, "* sent %d\n", ev.Message.ID)
	case core.EventMessageFailed:
		fmt.Fprintln(w, "* not sent")
	case core.EventMessageRecalled:
		fmt.Fprintf(w, "* %d: %s\n", ev.Message.ID, labels.Text(ev.Message, c.Self.UserID))
	case core.EventPreviewPatched:
		if ev.Session.UnreadCount > 0 {
			fmt.Fprintf(w, "* session %d: %s (%d unread)\n", ev.Session.ID, ev.Session.LastPreview, ev.Session.UnreadCount)
		}
	case core.EventUnreadChanged:
		fmt.Fprintf(w, "* unread: %s\n", badgeOrZero(ev.UnreadTotal))
	case core.EventNotice:
		if ev.Notice != nil {
			fmt.Fprintf(w, "! [%s] %s\n", ev.Notice.Level, ev.Notice.Text)
		}
	}
}

func printRows(w io.Writer, rows []timelabel.Row) {
	for _, row := range rows {
		printRow(w, row)
	}
}

func badgeOrZero(n int) string {
	if b := core.BadgeText(n); b != "" {
		return b
	}
	return "0"
}
