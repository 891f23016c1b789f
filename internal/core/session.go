package core

import "time"

// Listing is the catalog item a conversation is anchored to.
type Listing struct {
	ID        int64
	Title     string
	Thumbnail string
	Price     *string
}

// Session is one conversation between the current user and a counterpart.
type Session struct {
	ID            int64
	PartnerID     int64
	PartnerName   string
	PartnerAvatar string
	LastPreview   string
	LastTime      time.Time
	// LastType and LastSenderID describe the message behind LastPreview, when known.
	LastType      MessageType
	LastSenderID  int64
	UnreadCount   int
	Listing       *Listing
}

// Identity is the signed-in user as seen by the messaging core.
type Identity struct {
	UserID    int64
	Name      string
	AvatarURL string
}
