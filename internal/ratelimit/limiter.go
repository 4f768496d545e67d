package ratelimit

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound messages on a connection.
// A nil *RateLimiter allows everything.
type RateLimiter struct {
	limiter *rate.Limiter
	metrics *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
}

// New creates a RateLimiter allowing perSecond messages with the given burst.
// It returns nil when perSecond is not positive.
func New(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		metrics: &Metrics{},
	}
}

// Wait blocks until the limiter allows a message or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.metrics.totalRequests.Add(1)
	if err := r.limiter.Wait(ctx); err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if a message may be sent immediately.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	r.metrics.totalRequests.Add(1)
	allowed := r.limiter.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// SetLimit updates the allowed rate.
func (r *RateLimiter) SetLimit(perSecond float64) {
	if r == nil {
		return
	}
	r.limiter.SetLimit(rate.Limit(perSecond))
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	if r == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of messages that were allowed.
	AllowedRequests int64
	// DeniedRequests is the number of messages that were denied or cancelled.
	DeniedRequests int64
}
