package core

import "github.com/vovakirdan/marketchat/internal/locale"

// Previewer renders the one-line session summary of a message for one viewer.
type Previewer struct {
	Self    int64
	Phrases locale.Phrases
}

// Preview summarizes msg; recalled messages use the phrase matching who sent them.
func (p Previewer) Preview(msg Message) string {
	return p.Summary(msg.Type, msg.Content, msg.SenderID)
}

// Summary is Preview for callers holding only the last-message fields of a session.
func (p Previewer) Summary(kind MessageType, content string, senderID int64) string {
	switch kind {
	case MessageTypeRecall:
		return p.Phrases.RecallPhrase(senderID, p.Self)
	case MessageTypeImage:
		return p.Phrases.ImagePreview
	default:
		return content
	}
}

// Normalize fixes up a session as delivered by the service: previews of
// recalled or image messages are rewritten for the viewer and placeholders filled.
func (p Previewer) Normalize(s Session) Session {
	if s.LastType != "" {
		s.LastPreview = p.Summary(s.LastType, s.LastPreview, s.LastSenderID)
	}
	if s.PartnerID == 0 && s.PartnerName == "" {
		s.PartnerName = p.Phrases.SystemName
	}
	if s.UnreadCount < 0 {
		s.UnreadCount = 0
	}
	return s
}
