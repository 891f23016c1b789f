package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/service/catalog"
	"github.com/vovakirdan/marketchat/internal/service/chat"
)

// SystemHandlers serves identity, catalog and platform notification endpoints.
type SystemHandlers struct {
	auth    *auth.Service
	chat    *chat.Service
	catalog *catalog.Service
	log     *zerolog.Logger
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(authService *auth.Service, chatService *chat.Service, catalogService *catalog.Service, logger *zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{auth: authService, chat: chatService, catalog: catalogService, log: logger}
}

// CreateMemberRequest is the body of POST /api/dev/members.
type CreateMemberRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Avatar   string `json:"avatar"`
}

// MemberResponse identifies a created member.
type MemberResponse struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

// IssueTokenRequest is the body of POST /api/dev/token.
type IssueTokenRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// CreateProductRequest is the body of POST /api/products.
type CreateProductRequest struct {
	Title     string `json:"title" binding:"required"`
	Thumbnail string `json:"thumbnail"`
	Price     string `json:"price"`
}

// CreateMember registers a member and returns its token.
// POST /api/dev/members
func (h *SystemHandlers) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.CreateMember(c.Request.Context(), req.Nickname, req.Avatar)
	if err != nil {
		h.log.Debug().Err(err).Msg("create member refused")
		fail(c, err)
		return
	}

	h.log.Info().Int64("user_id", user.ID).Str("nickname", user.Nickname).Msg("member created")
	ok(c, http.StatusCreated, MemberResponse{ID: user.ID, Token: token})
}

// IssueToken returns a fresh token for an existing member.
// POST /api/dev/token
func (h *SystemHandlers) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.IssueToken(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, proto.TokenResponse{Token: token})
}

// Notify sends a platform notification.
// POST /api/system/notify
func (h *SystemHandlers) Notify(c *gin.Context) {
	var req proto.SystemNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		abort(c, http.StatusBadRequest, "userId and content are required")
		return
	}

	msg, err := h.chat.SystemNotify(c.Request.Context(), req.UserID, req.Content)
	if err != nil {
		h.log.Debug().Err(err).Int64("user_id", req.UserID).Msg("system notify refused")
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, messageToDTO(msg))
}

// CreateProduct lists a product sold by the caller.
// POST /api/products
func (h *SystemHandlers) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), currentUserID(c), req.Title, req.Thumbnail, req.Price)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, productToDTO(p))
}

// GetProduct returns one listing.
// GET /api/products/:id
func (h *SystemHandlers) GetProduct(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, productToDTO(p))
}
