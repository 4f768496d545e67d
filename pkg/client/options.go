package client

import (
	"context"
	"hash"
	"math/rand/v2"
	"net"

	"github.com/rs/zerolog"
)

// DialFunc opens the TCP connection for an attempt.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client and its components.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDialer replaces the default net.Dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *Client) {
		c.dial = dial
	}
}

// WithRand sets the random source used for Draft76 challenges.
func WithRand(rnd *rand.Rand) Option {
	return func(c *Client) {
		c.rnd = rnd
	}
}

// WithDigest replaces the MD5 digest used to verify Draft76 replies.
func WithDigest(digest func() hash.Hash) Option {
	return func(c *Client) {
		c.digest = digest
	}
}
