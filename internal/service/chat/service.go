// Package chat is the business logic of the reference messaging service.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/store"
)

// Common errors for chat operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotMember       = errors.New("not a member of this session")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrInvalidType     = errors.New("unsupported message type")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotSender       = errors.New("only the sender can recall a message")
	ErrAlreadyRecalled = errors.New("message already recalled")
	ErrRecallExpired   = errors.New("recall window expired")
	ErrProductNotFound = errors.New("product not found")
	ErrOwnProduct      = errors.New("cannot start a chat about your own product")
	ErrUserNotFound    = errors.New("user not found")
)

// Message types accepted and stored by the service.
const (
	TypeText   = "TEXT"
	TypeImage  = "IMAGE"
	TypeRecall = "RECALL"
)

// DefaultRecallWindow is how long after sending a message may be recalled.
const DefaultRecallWindow = 2 * time.Minute

// Publisher pushes live updates to connected members.
type Publisher interface {
	PublishMessage(userID int64, msg *store.ChatMessage)
	PublishRecall(userID int64, msg *store.ChatMessage)
}

// SessionView is a session as seen by one of its members.
type SessionView struct {
	Session *store.ChatSession
	Partner *store.User    // nil for the system partner or a missing profile
	Product *store.Product // nil when the session is not about a listing
	Unread  int
}

// PartnerID returns the counterpart of the viewer.
func (v SessionView) PartnerID(viewerID int64) int64 {
	return v.Session.PartnerOf(viewerID)
}

// Options configures a Service.
type Options struct {
	RecallWindow time.Duration
	Clock        func() time.Time
	Publisher    Publisher
	Logger       *zerolog.Logger
}

// Service provides chat business logic over a store.
type Service struct {
	store        store.Store
	recallWindow time.Duration
	now          func() time.Time
	publisher    Publisher
	log          *zerolog.Logger
}

// New creates a chat service.
func New(st store.Store, opts Options) *Service {
	if opts.RecallWindow <= 0 {
		opts.RecallWindow = DefaultRecallWindow
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Service{
		store:        st,
		recallWindow: opts.RecallWindow,
		now:          opts.Clock,
		publisher:    opts.Publisher,
		log:          opts.Logger,
	}
}

// ListSessions returns the sessions of userID with partner, product and unread details.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]SessionView, error) {
	sessions, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		view, err := s.view(ctx, sess, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// ListMessages returns a thread and marks the counterpart's messages as read.
func (s *Service) ListMessages(ctx context.Context, userID, sessionID int64) ([]*store.ChatMessage, error) {
	if _, err := s.memberSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	if _, err := s.store.MarkSessionRead(ctx, sessionID, userID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	msgs, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Send stores a message from userID and pushes it to the counterpart.
func (s *Service) Send(ctx context.Context, userID, sessionID int64, kind, content string) (*store.ChatMessage, error) {
	switch kind {
	case "":
		kind = TypeText
	case TypeText, TypeImage:
	default:
		return nil, ErrInvalidType
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	sess, err := s.memberSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	msg := &store.ChatMessage{
		SessionID: sessionID,
		SenderID:  userID,
		Type:      kind,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.deliver(ctx, msg); err != nil {
		return nil, err
	}

	s.log.Debug().Int64("session_id", sessionID).Int64("message_id", msg.ID).Str("type", kind).Msg("message stored")
	if partner := sess.PartnerOf(userID); partner != store.SystemUserID {
		s.publishMessage(partner, msg)
	}
	return msg, nil
}

// Recall turns a recent message of userID into its recalled form.
func (s *Service) Recall(ctx context.Context, userID, sessionID, messageID int64) (*store.ChatMessage, error) {
	sess, err := s.memberSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg.SessionID != sessionID {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return nil, ErrNotSender
	}
	if msg.Type == TypeRecall {
		return nil, ErrAlreadyRecalled
	}
	if s.now().Sub(msg.CreatedAt) > s.recallWindow {
		return nil, ErrRecallExpired
	}

	if err := s.store.RecallMessage(ctx, messageID); err != nil {
		return nil, fmt.Errorf("recall message: %w", err)
	}
	msg.Type = TypeRecall
	msg.Content = ""

	// The session preview follows its latest message.
	if sess.LastTime.Equal(msg.CreatedAt) && sess.LastSenderID == msg.SenderID {
		if err := s.store.TouchSession(ctx, msg); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}

	s.log.Debug().Int64("session_id", sessionID).Int64("message_id", messageID).Msg("message recalled")
	if partner := sess.PartnerOf(userID); partner != store.SystemUserID && s.publisher != nil {
		s.publisher.PublishRecall(partner, msg)
	}
	return msg, nil
}

// MarkAllRead marks every counterpart message of userID as read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

// StartChat returns the session of userID about productID, creating it when needed.
func (s *Service) StartChat(ctx context.Context, userID, productID int64) (SessionView, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SessionView{}, ErrProductNotFound
		}
		return SessionView{}, fmt.Errorf("get product: %w", err)
	}
	if product.SellerID == userID {
		return SessionView{}, ErrOwnProduct
	}

	sess, err := s.store.FindSession(ctx, userID, product.SellerID, &product.ID)
	if errors.Is(err, store.ErrNotFound) {
		sess = &store.ChatSession{
			BuyerID:   userID,
			SellerID:  product.SellerID,
			ProductID: &product.ID,
			CreatedAt: s.now().UTC(),
		}
		if err := s.store.CreateSession(ctx, sess); err != nil {
			return SessionView{}, fmt.Errorf("create session: %w", err)
		}
		s.log.Info().Int64("session_id", sess.ID).Int64("product_id", product.ID).Msg("session started")
	} else if err != nil {
		return SessionView{}, fmt.Errorf("find session: %w", err)
	}

	return s.view(ctx, sess, userID)
}

// SystemNotify delivers a platform notification to userID in its system session.
func (s *Service) SystemNotify(ctx context.Context, userID int64, content string) (*store.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	sess, err := s.store.FindSession(ctx, userID, store.SystemUserID, nil)
	if errors.Is(err, store.ErrNotFound) {
		sess = &store.ChatSession{BuyerID: userID, SellerID: store.SystemUserID, CreatedAt: s.now().UTC()}
		if err := s.store.CreateSession(ctx, sess); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	msg := &store.ChatMessage{
		SessionID: sess.ID,
		SenderID:  store.SystemUserID,
		Type:      TypeText,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.deliver(ctx, msg); err != nil {
		return nil, err
	}
	s.publishMessage(userID, msg)
	return msg, nil
}

func (s *Service) deliver(ctx context.Context, msg *store.ChatMessage) error {
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	if err := s.store.TouchSession(ctx, msg); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *Service) publishMessage(userID int64, msg *store.ChatMessage) {
	if s.publisher != nil {
		s.publisher.PublishMessage(userID, msg)
	}
}

func (s *Service) memberSession(ctx context.Context, userID, sessionID int64) (*store.ChatSession, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !sess.HasMember(userID) {
		return nil, ErrNotMember
	}
	return sess, nil
}

func (s *Service) view(ctx context.Context, sess *store.ChatSession, viewerID int64) (SessionView, error) {
	view := SessionView{Session: sess}

	if partnerID := sess.PartnerOf(viewerID); partnerID != store.SystemUserID {
		partner, err := s.store.GetUserByID(ctx, partnerID)
		switch {
		case err == nil:
			view.Partner = partner
		case !errors.Is(err, store.ErrNotFound):
			return SessionView{}, fmt.Errorf("get partner: %w", err)
		}
	}

	if sess.ProductID != nil {
		product, err := s.store.GetProduct(ctx, *sess.ProductID)
		switch {
		case err == nil:
			view.Product = product
		case !errors.Is(err, store.ErrNotFound):
			return SessionView{}, fmt.Errorf("get product: %w", err)
		}
	}

	unread, err := s.store.CountUnread(ctx, sess.ID, viewerID)
	if err != nil {
		return SessionView{}, fmt.Errorf("count unread: %w", err)
	}
	view.Unread = unread
	return view, nil
}
