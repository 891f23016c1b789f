package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SystemUserID is the sender of platform notifications. It has no users row.
const SystemUserID int64 = 0

// User is a marketplace member.
type User struct {
	ID        int64
	Nickname  string
	AvatarURL string
	CreatedAt time.Time
}

// Product is a catalog listing conversations can be anchored to.
type Product struct {
	ID        int64
	SellerID  int64
	Title     string
	Thumbnail string
	Price     *string // decimal text, nil when not priced
	CreatedAt time.Time
}

// ChatSession is a conversation between a buyer and a seller, optionally about a product.
type ChatSession struct {
	ID           int64
	BuyerID      int64
	SellerID     int64
	ProductID    *int64
	LastMessage  string
	LastType     string
	LastSenderID int64
	LastTime     time.Time
	CreatedAt    time.Time
}

// PartnerOf returns the other participant from userID's point of view.
func (s *ChatSession) PartnerOf(userID int64) int64 {
	if s.BuyerID == userID {
		return s.SellerID
	}
	return s.BuyerID
}

// HasMember reports whether userID takes part in the session.
func (s *ChatSession) HasMember(userID int64) bool {
	return s.BuyerID == userID || s.SellerID == userID
}

// ChatMessage is a persisted message.
type ChatMessage struct {
	ID        int64
	SessionID int64
	SenderID  int64
	Type      string
	Content   string
	Read      bool
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a member.
	CreateUser(ctx context.Context, nickname, avatarURL string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// ProductStore handles catalog persistence.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
}

// SessionStore handles conversation persistence.
type SessionStore interface {
	// CreateSession inserts a session and fills its ID.
	CreateSession(ctx context.Context, s *ChatSession) error

	// FindSession looks a session up by participants and product; productID nil matches sessions without one.
	FindSession(ctx context.Context, buyerID, sellerID int64, productID *int64) (*ChatSession, error)

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id int64) (*ChatSession, error)

	// ListSessions lists the sessions of a user, most recent activity first.
	ListSessions(ctx context.Context, userID int64) ([]*ChatSession, error)

	// TouchSession records msg as the latest activity of its session.
	TouchSession(ctx context.Context, msg *ChatMessage) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills its ID.
	SaveMessage(ctx context.Context, msg *ChatMessage) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id int64) (*ChatMessage, error)

	// ListMessages returns the messages of a session in creation order.
	ListMessages(ctx context.Context, sessionID int64) ([]*ChatMessage, error)

	// RecallMessage turns a message into its recalled form.
	RecallMessage(ctx context.Context, id int64) error

	// MarkSessionRead marks messages not sent by readerID as read.
	MarkSessionRead(ctx context.Context, sessionID, readerID int64) (int64, error)

	// MarkAllRead marks every counterpart message in readerID's sessions as read.
	MarkAllRead(ctx context.Context, readerID int64) (int64, error)

	// CountUnread counts counterpart messages readerID has not read.
	CountUnread(ctx context.Context, sessionID, readerID int64) (int, error)
}

// FavoriteStore handles the favorites of each user.
type FavoriteStore interface {
	ListFavorites(ctx context.Context, userID int64) ([]int64, error)
	AddFavorite(ctx context.Context, userID, productID int64) error
	RemoveFavorite(ctx context.Context, userID, productID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ProductStore
	SessionStore
	MessageStore
	FavoriteStore

	// Close closes the underlying database connection.
	Close() error
}
