package reconnect

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config bounds reconnection for one client.
type Config struct {
	// MaxAttempts is the number of failed attempts after which the client gives up.
	// Zero means the first failure is terminal.
	MaxAttempts int           `json:"max_attempts"`
	Wait        time.Duration `json:"wait"`
}

// Decision is the outcome of a failed connection attempt.
type Decision struct {
	// Retry is false once the attempt budget is spent.
	Retry bool
	// Attempt is the number of failures recorded so far, starting at 1.
	Attempt int
	// Wait is how long to pause before the next attempt.
	Wait time.Duration
}

// Policy counts failed connection attempts since Connect. The counter is
// never reset by a successful handshake.
type Policy struct {
	attempts    atomic.Int32
	maxAttempts int
	wait        time.Duration
	sleep       func(time.Duration)
	metrics     *Metrics
	logger      zerolog.Logger
}

// Metrics tracks reconnection statistics.
type Metrics struct {
	failures   atomic.Int64
	reconnects atomic.Int64
	exhausted  atomic.Bool
	totalWait  atomic.Int64
}

// New creates a Policy from config.
func New(config Config) *Policy {
	return &Policy{
		maxAttempts: max(config.MaxAttempts, 0),
		wait:        max(config.Wait, 0),
		sleep:       time.Sleep,
		metrics:     &Metrics{},
		logger:      zerolog.Nop(),
	}
}

// SetLogger configures the logger for the policy.
func (p *Policy) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// OnFailure records a failed attempt and decides whether to try again.
func (p *Policy) OnFailure(err error) Decision {
	attempt := int(p.attempts.Add(1))
	p.metrics.failures.Add(1)

	if attempt >= p.maxAttempts {
		p.metrics.exhausted.Store(true)
		p.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", p.maxAttempts).
			Msg("reconnect attempts exhausted")
		return Decision{Retry: false, Attempt: attempt}
	}

	p.logger.Info().Err(err).
		Int("attempt", attempt).
		Dur("wait", p.wait).
		Msg("connection attempt failed, will reconnect")
	return Decision{Retry: true, Attempt: attempt, Wait: p.wait}
}

// Backoff suspends the caller for d. It is not interruptible.
func (p *Policy) Backoff(d Decision) {
	if !d.Retry {
		return
	}
	p.metrics.reconnects.Add(1)
	p.metrics.totalWait.Add(int64(d.Wait))
	if d.Wait > 0 {
		p.sleep(d.Wait)
	}
}

// Attempts returns the number of failures recorded since creation.
func (p *Policy) Attempts() int {
	return int(p.attempts.Load())
}

// Exhausted reports whether the attempt budget has been spent.
func (p *Policy) Exhausted() bool {
	return p.metrics.exhausted.Load()
}

// Metrics returns a snapshot of the current reconnection statistics.
func (p *Policy) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Failures:    p.metrics.failures.Load(),
		Reconnects:  p.metrics.reconnects.Load(),
		TotalWait:   time.Duration(p.metrics.totalWait.Load()),
		Exhausted:   p.metrics.exhausted.Load(),
		MaxAttempts: p.maxAttempts,
	}
}

// MetricsSnapshot is a point-in-time capture of reconnection statistics.
type MetricsSnapshot struct {
	Failures    int64
	Reconnects  int64
	TotalWait   time.Duration
	Exhausted   bool
	MaxAttempts int
}
