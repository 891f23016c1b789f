package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeNoActiveSession = "no_active_session"
	ErrCodeEmptyContent    = "empty_content"
	ErrCodeSendInProgress  = "send_in_progress"
	ErrCodeImageUnreadable = "image_unreadable"
	ErrCodeNotRecallable   = "not_recallable"
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeMessageNotFound = "message_not_found"
	ErrCodeRecallPending   = "recall_in_progress"
	ErrCodeBadRequest      = "bad_request"

	ErrCodeTransport = "transport"
	ErrCodeRejected  = "rejected"
)

// ErrorKind classifies failures by where they originate.
type ErrorKind int

const (
	// KindPrecondition is a local check that failed before any network call.
	KindPrecondition ErrorKind = iota
	// KindTransport is a network or protocol failure.
	KindTransport
	// KindRejected is a business rejection reported by the messaging service.
	KindRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrSendInProgress  = errors.New("draft is already being sent")
	ErrNotRecallable   = errors.New("message can no longer be recalled")
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrRecallPending   = errors.New("recall already requested")
	ErrStopped         = errors.New("messenger stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Kind: KindPrecondition, Message: msg}
}

func preconditionError(code string, err error) *CoreError {
	return &CoreError{Code: code, Kind: KindPrecondition, Message: err.Error(), Err: err}
}

// TransportError reports a network failure talking to a collaborator.
func TransportError(op string, err error) *CoreError {
	return &CoreError{
		Code:    ErrCodeTransport,
		Kind:    KindTransport,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// RejectedError reports a business rejection with the server's reason.
func RejectedError(reason string) *CoreError {
	return &CoreError{Code: ErrCodeRejected, Kind: KindRejected, Message: reason}
}

// AsCoreError converts any error into a CoreError, treating unknown errors as transport failures.
func AsCoreError(op string, err error) *CoreError {
	if err == nil {
		return nil
	}
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce
	}
	return TransportError(op, err)
}
