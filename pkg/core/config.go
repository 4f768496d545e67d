package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Default values applied by DefaultConfig.
const (
	DefaultReconnectAttempts = 2
	DefaultReconnectWait     = 5 * time.Second
	DefaultOrigin            = "*"
	DefaultDialTimeout       = 10 * time.Second
	DefaultReadBufferSize    = 4096
)

// Config contains all configuration options for a legacy websocket client.
// A Config is copied into the client at construction and never mutated afterwards.
type Config struct {
	// URI is the ws:// endpoint to connect to.
	URI   string `json:"uri" validate:"required"`
	Draft Draft  `json:"draft"`

	// MaxReconnectAttempts bounds the number of failed attempts since Connect.
	// Zero disables reconnection entirely.
	MaxReconnectAttempts int           `json:"max_reconnect_attempts" validate:"min=0"`
	ReconnectWait        time.Duration `json:"reconnect_wait" validate:"min=0"`

	// Origin is sent verbatim in the Origin header.
	Origin string `json:"origin"`

	// DialTimeout limits how long a single connect may take. Zero means no limit.
	DialTimeout    time.Duration `json:"dial_timeout" validate:"min=0"`
	ReadBufferSize int           `json:"read_buffer_size" validate:"min=16"`

	// SendRateLimit is the number of outbound messages allowed per second.
	// Zero disables throttling.
	SendRateLimit float64 `json:"send_rate_limit" validate:"min=0"`
	SendBurst     int     `json:"send_burst" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config for uri initialized with the historical defaults:
// Draft75, 2 attempts, 5s between attempts, Origin "*".
func DefaultConfig(uri string) *Config {
	return &Config{
		URI:                  uri,
		Draft:                Draft75,
		MaxReconnectAttempts: DefaultReconnectAttempts,
		ReconnectWait:        DefaultReconnectWait,
		Origin:               DefaultOrigin,
		DialTimeout:          DefaultDialTimeout,
		ReadBufferSize:       DefaultReadBufferSize,
		SendBurst:            1,
		LogLevel:             "info",
	}
}

var validate = validator.New()

// Validate checks the configuration for a client role.
// Server-only drafts and malformed URIs are rejected here so that a bad
// configuration never reaches the run loop.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return NewError(ErrorTypeConfiguration, "validate", err.Error(), err).WithCode(ErrCodeInvalidConfig)
	}
	if !c.Draft.Valid() {
		return NewError(ErrorTypeConfiguration, "validate", "unknown draft", nil).WithCode(ErrCodeInvalidConfig)
	}
	if c.Draft == DraftAuto {
		return NewError(ErrorTypeConfiguration, "validate", c.Draft.String()+" is meant for servers only", ErrServerOnlyDraft).
			WithCode(ErrCodeInvalidConfig)
	}
	if c.SendRateLimit > 0 && c.SendBurst <= 0 {
		return NewError(ErrorTypeConfiguration, "validate", "SendBurst must be positive when SendRateLimit is set", nil).
			WithCode(ErrCodeInvalidConfig)
	}
	if _, err := ParseTarget(c.URI); err != nil {
		return err
	}
	return nil
}

// WithDraft sets the protocol draft and returns the config for chaining.
func (c *Config) WithDraft(draft Draft) *Config {
	c.Draft = draft
	return c
}

// WithReconnect sets the reconnection bounds and returns the config for chaining.
func (c *Config) WithReconnect(attempts int, wait time.Duration) *Config {
	c.MaxReconnectAttempts = attempts
	c.ReconnectWait = wait
	return c
}

// WithOrigin sets the Origin header value and returns the config for chaining.
func (c *Config) WithOrigin(origin string) *Config {
	c.Origin = origin
	return c
}

// WithDialTimeout sets the connect timeout and returns the config for chaining.
func (c *Config) WithDialTimeout(timeout time.Duration) *Config {
	c.DialTimeout = timeout
	return c
}

// WithSendRateLimit throttles outbound messages and returns the config for chaining.
func (c *Config) WithSendRateLimit(perSecond float64, burst int) *Config {
	c.SendRateLimit = perSecond
	c.SendBurst = burst
	return c
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// OriginOrDefault returns Origin, falling back to DefaultOrigin when empty.
func (c *Config) OriginOrDefault() string {
	if c.Origin == "" {
		return DefaultOrigin
	}
	return c.Origin
}
