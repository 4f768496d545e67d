package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a client error.
type ErrorType int

// Error type constants categorize errors for reconnection decisions.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConnection indicates a socket open, connect, write or read failure.
	ErrorTypeConnection
	// ErrorTypeHandshake indicates the server's handshake reply was rejected.
	ErrorTypeHandshake
	// ErrorTypeConfiguration indicates an invalid client configuration.
	ErrorTypeConfiguration
	// ErrorTypeEnvironment indicates a missing runtime capability such as a digest primitive.
	ErrorTypeEnvironment
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	if t < ErrorTypeUnknown || t > ErrorTypeEnvironment {
		return "UNKNOWN"
	}
	return [...]string{
		"UNKNOWN",
		"CONNECTION",
		"HANDSHAKE",
		"CONFIGURATION",
		"ENVIRONMENT",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrAlreadyStarted is returned when Connect is called on a running client.
	ErrAlreadyStarted = errors.New("client already started")
	// ErrNotConnected is returned when sending on a connection that is not open.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrServerOnlyDraft is returned when a client is configured with DraftAuto.
	ErrServerOnlyDraft = errors.New("draft is meant for servers only")
	// ErrInvalidURI is returned for URIs that are not usable ws:// endpoints.
	ErrInvalidURI = errors.New("invalid websocket uri")
	// ErrDigestUnavailable is returned when the challenge digest primitive cannot be obtained.
	ErrDigestUnavailable = errors.New("digest algorithm unavailable")
	// ErrHandshakeRejected is returned when the server's handshake reply does not verify.
	ErrHandshakeRejected = errors.New("handshake rejected")
	// ErrClosedByPeer is returned when the server closes the connection.
	ErrClosedByPeer = errors.New("connection closed by peer")
)

// Error represents a structured client error.
type Error struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// Op names the operation that failed (e.g. "dial", "write handshake").
	Op string `json:"op"`
	// Code is the stable machine-readable error identifier.
	Code string `json:"code,omitempty"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s (%s): %s", e.Type, e.Op, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Type, e.Op, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode sets the error code and returns the error for chaining.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = string(code)
	return e
}

// NewError creates a new Error. The timestamp is set to the current time.
func NewError(errorType ErrorType, op, message string, cause error) *Error {
	return &Error{
		Type:      errorType,
		Op:        op,
		Message:   message,
		Err:       cause,
		Timestamp: time.Now(),
	}
}

// ConnectionError wraps a socket level failure during op.
func ConnectionError(op string, cause error) *Error {
	return NewError(ErrorTypeConnection, op, "", cause).WithCode(ErrCodeConnection)
}

func errorType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsConnectionError returns true if err is a socket level failure.
func IsConnectionError(err error) bool {
	return errorType(err) == ErrorTypeConnection
}

// IsHandshakeError returns true if err is a rejected handshake.
func IsHandshakeError(err error) bool {
	return errorType(err) == ErrorTypeHandshake || errors.Is(err, ErrHandshakeRejected)
}

// IsConfigurationError returns true if err is an invalid configuration.
func IsConfigurationError(err error) bool {
	return errorType(err) == ErrorTypeConfiguration
}

// IsEnvironmentError returns true if err reports a missing runtime capability.
// Environment errors are skipped, never retried.
func IsEnvironmentError(err error) bool {
	return errorType(err) == ErrorTypeEnvironment || errors.Is(err, ErrDigestUnavailable)
}

// IsRetryable returns true if err should be routed through the reconnection policy.
// Handshake rejections count as connection faults.
func IsRetryable(err error) bool {
	if err == nil || IsEnvironmentError(err) || IsConfigurationError(err) {
		return false
	}
	return true
}
