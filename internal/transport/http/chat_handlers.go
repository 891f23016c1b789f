package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/service/chat"
)

// ChatHandlers serves the conversation endpoints.
type ChatHandlers struct {
	chat    *chat.Service
	limiter *rateLimiter
	log     *zerolog.Logger
}

// NewChatHandlers creates chat handlers.
func NewChatHandlers(chatService *chat.Service, limiter *rateLimiter, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{chat: chatService, limiter: limiter, log: logger}
}

// ListSessions returns the caller's sessions.
// GET /api/chats
func (h *ChatHandlers) ListSessions(c *gin.Context) {
	userID := currentUserID(c)
	views, err := h.chat.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list sessions")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sessionsToDTO(views, userID))
}

// ListMessages returns a thread and marks it read for the caller.
// GET /api/chats/:id/messages
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	sessionID, valid := pathID(c, "id")
	if !valid {
		return
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), currentUserID(c), sessionID)
	if err != nil {
		h.log.Debug().Err(err).Int64("session_id", sessionID).Msg("list messages refused")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, messagesToDTO(msgs))
}

// SendMessage stores a message from the caller.
// POST /api/chats/:id/messages
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	sessionID, valid := pathID(c, "id")
	if !valid {
		return
	}

	var req proto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := currentUserID(c)
	if !h.limiter.allow(userID) {
		h.log.Warn().Int64("user_id", userID).Msg("send rate limit exceeded")
		fail(c, errTooManyMessages)
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), userID, sessionID, req.Type, req.Content)
	if err != nil {
		h.log.Debug().Err(err).Int64("session_id", sessionID).Msg("send refused")
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, messageToDTO(msg))
}

// RecallMessage recalls one of the caller's recent messages.
// POST /api/chats/:id/messages/:mid/recall
func (h *ChatHandlers) RecallMessage(c *gin.Context) {
	sessionID, valid := pathID(c, "id")
	if !valid {
		return
	}
	messageID, valid := pathID(c, "mid")
	if !valid {
		return
	}

	msg, err := h.chat.Recall(c.Request.Context(), currentUserID(c), sessionID, messageID)
	if err != nil {
		h.log.Debug().Err(err).Int64("message_id", messageID).Msg("recall refused")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, messageToDTO(msg))
}

// MarkAllRead clears every unread counter of the caller.
// POST /api/chats/read-all
func (h *ChatHandlers) MarkAllRead(c *gin.Context) {
	n, err := h.chat.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to mark all read")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": n})
}

// StartChat opens the conversation about a listing.
// POST /api/chats/start
func (h *ChatHandlers) StartChat(c *gin.Context) {
	var req proto.StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID <= 0 {
		abort(c, http.StatusBadRequest, "productId is required")
		return
	}

	userID := currentUserID(c)
	view, err := h.chat.StartChat(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		h.log.Debug().Err(err).Int64("product_id", req.ProductID).Msg("start chat refused")
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sessionToDTO(view, userID))
}
