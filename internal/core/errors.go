package core

import "errors"

// Error codes for errors surfaced to clients.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInvalidMessage     = "invalid_message"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeSessionReplaced    = "session_replaced"
)

var (
	// ErrAlreadyPaired is returned when a pairing would give a user a second partner.
	ErrAlreadyPaired = errors.New("already paired")
	// ErrSelfPairing is returned when both sides of a pairing are the same user.
	ErrSelfPairing = errors.New("cannot pair a user with itself")
	// ErrUnknownPolicy is returned for a matching policy name that does not exist.
	ErrUnknownPolicy = errors.New("unknown matching policy")
	// ErrHubStopped is returned by queries once the hub loop has exited.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
