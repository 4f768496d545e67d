package reconnect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errRefused = errors.New("connection refused")

func TestPolicy_New(t *testing.T) {
	p := New(Config{MaxAttempts: -3, Wait: -time.Second})

	assert.NotNil(t, p)
	assert.Equal(t, 0, p.Attempts())
	assert.False(t, p.Exhausted())
	assert.Equal(t, 0, p.Metrics().MaxAttempts)
}

func TestPolicy_TwoAttempts(t *testing.T) {
	p := New(Config{MaxAttempts: 2, Wait: 50 * time.Millisecond})

	d := p.OnFailure(errRefused)
	assert.True(t, d.Retry)
	assert.Equal(t, 1, d.Attempt)
	assert.Equal(t, 50*time.Millisecond, d.Wait)
	assert.False(t, p.Exhausted())

	d = p.OnFailure(errRefused)
	assert.False(t, d.Retry)
	assert.Equal(t, 2, d.Attempt)
	assert.Zero(t, d.Wait)
	assert.True(t, p.Exhausted())
}

func TestPolicy_ZeroAttempts(t *testing.T) {
	p := New(Config{MaxAttempts: 0, Wait: time.Second})

	d := p.OnFailure(errRefused)
	assert.False(t, d.Retry)
	assert.Equal(t, 1, d.Attempt)
	assert.True(t, p.Exhausted())
}

func TestPolicy_CounterNeverResets(t *testing.T) {
	p := New(Config{MaxAttempts: 3})

	p.OnFailure(errRefused)
	p.OnFailure(errRefused)
	assert.Equal(t, 2, p.Attempts())

	d := p.OnFailure(errRefused)
	assert.False(t, d.Retry)
	assert.Equal(t, 3, p.Attempts())
}

func TestPolicy_Backoff(t *testing.T) {
	p := New(Config{MaxAttempts: 5, Wait: 250 * time.Millisecond})

	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }

	p.Backoff(p.OnFailure(errRefused))
	p.Backoff(p.OnFailure(errRefused))
	p.Backoff(Decision{Retry: false})

	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, slept)

	m := p.Metrics()
	assert.Equal(t, int64(2), m.Failures)
	assert.Equal(t, int64(2), m.Reconnects)
	assert.Equal(t, 500*time.Millisecond, m.TotalWait)
	assert.False(t, m.Exhausted)
	assert.Equal(t, 5, m.MaxAttempts)
}

func TestPolicy_BackoffBlocks(t *testing.T) {
	p := New(Config{MaxAttempts: 2, Wait: 30 * time.Millisecond})

	start := time.Now()
	p.Backoff(p.OnFailure(errRefused))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
