package core

import "errors"

// ErrorCode represents a stable, machine-readable error identifier.
type ErrorCode string

// Error code constants.
const (
	ErrCodeConnection        ErrorCode = "CONNECTION_ERROR"
	ErrCodeHandshakeRejected ErrorCode = "HANDSHAKE_REJECTED"
	ErrCodeInvalidConfig     ErrorCode = "INVALID_CONFIG"
	ErrCodeDigestUnavailable ErrorCode = "DIGEST_UNAVAILABLE"

	// Client state errors
	ErrCodeClientClosed ErrorCode = "CLIENT_CLOSED"
	ErrCodeNotConnected ErrorCode = "NOT_CONNECTED"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
)

// IsErrorCode checks if the error carries the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return ErrorCode(e.Code) == code
	}
	return false
}
