package core

import "context"

// MessagingService is the remote messaging backend as the core consumes it.
// Implementations return *CoreError values classified as transport or rejected.
type MessagingService interface {
	ListSessions(ctx context.Context) ([]Session, error)
	ListMessages(ctx context.Context, sessionID int64) ([]Message, error)
	SendMessage(ctx context.Context, sessionID int64, kind MessageType, content string) (Message, error)
	RecallMessage(ctx context.Context, sessionID, messageID int64) (Message, error)
	MarkAllRead(ctx context.Context) error
	StartChat(ctx context.Context, listingID int64) (Session, error)
}

// ImageEncoder turns a local image into the inline content of an IMAGE message.
type ImageEncoder interface {
	Encode(path string) (string, error)
}
