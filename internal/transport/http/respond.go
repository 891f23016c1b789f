package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/marketchat/internal/auth"
	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/service/catalog"
	"github.com/vovakirdan/marketchat/internal/service/chat"
)

var errTooManyMessages = errors.New("too many messages, slow down")

func ok[T any](c *gin.Context, status int, data T) {
	c.JSON(status, proto.OK(data))
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, proto.Fail(message))
}

// statusFor maps service errors to HTTP statuses. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound),
		errors.Is(err, chat.ErrMessageNotFound),
		errors.Is(err, chat.ErrProductNotFound),
		errors.Is(err, chat.ErrUserNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, auth.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotMember),
		errors.Is(err, chat.ErrNotSender):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrInvalidType),
		errors.Is(err, chat.ErrOwnProduct),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, auth.ErrInvalidNickname):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrRecallExpired),
		errors.Is(err, chat.ErrAlreadyRecalled):
		return http.StatusConflict
	case errors.Is(err, errTooManyMessages):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		abort(c, status, "internal server error")
		return
	}
	abort(c, status, err.Error())
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
