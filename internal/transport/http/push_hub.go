package http

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/store"
)

const subscriberBuffer = 32

type subscriber struct {
	userID int64
	out    chan proto.Outbound
}

// PushHub fans push events out to every connection of a member.
type PushHub struct {
	mu   sync.Mutex
	subs map[int64]map[*subscriber]struct{}
	log  *zerolog.Logger
}

// NewPushHub creates an empty hub.
func NewPushHub(logger *zerolog.Logger) *PushHub {
	return &PushHub{
		subs: make(map[int64]map[*subscriber]struct{}),
		log:  logger,
	}
}

func (h *PushHub) subscribe(userID int64) *subscriber {
	sub := &subscriber{userID: userID, out: make(chan proto.Outbound, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *PushHub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.userID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
}

// Subscribers returns the number of live connections of userID.
func (h *PushHub) Subscribers(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// PublishMessage pushes a new message to userID.
func (h *PushHub) PublishMessage(userID int64, msg *store.ChatMessage) {
	h.publish(userID, proto.EventMessage, messageToDTO(msg))
}

// PublishRecall pushes a recalled message record to userID.
func (h *PushHub) PublishRecall(userID int64, msg *store.ChatMessage) {
	h.publish(userID, proto.EventRecall, messageToDTO(msg))
}

func (h *PushHub) publish(userID int64, event string, payload any) {
	frame, err := proto.NewEvent(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode push event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.out <- frame:
		default:
			h.log.Warn().Int64("user_id", userID).Str("event", event).Msg("push subscriber is slow, dropping event")
		}
	}
}
