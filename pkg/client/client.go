package client

import (
	"context"
	"errors"
	"hash"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"hixie/internal/frame"
	"hixie/internal/handshake"
	"hixie/internal/poll"
	"hixie/internal/ratelimit"
	"hixie/internal/reconnect"
	"hixie/internal/ws"
	"hixie/pkg/core"
	"hixie/pkg/events"
)

// ConnState is the lifecycle state of a Client.
type ConnState = ws.ConnState

// Lifecycle states.
const (
	StateIdle          = ws.StateIdle
	StateConnecting    = ws.StateConnecting
	StateHandshakeSent = ws.StateHandshakeSent
	StateOpen          = ws.StateOpen
	StateReconnecting  = ws.StateReconnecting
	StateClosing       = ws.StateClosing
	StateClosed        = ws.StateClosed
)

// Client manages one legacy websocket connection, including reconnects.
type Client struct {
	config core.Config
	target core.Target
	sink   events.Sink

	builder *handshake.Builder
	policy  *reconnect.Policy
	limiter *ratelimit.RateLimiter
	dial    DialFunc
	rnd     *rand.Rand
	digest  func() hash.Hash
	logger  zerolog.Logger

	state    *ws.State
	stopping atomic.Bool

	mu     sync.Mutex
	poller *poll.Poller
	conn   *frame.Conn

	done     chan struct{}
	doneOnce sync.Once
}

// New validates config and creates an idle Client reporting to sink.
// Configuration faults, including a server-only draft, are returned here and
// never reach the run loop.
func New(config *core.Config, sink events.Sink, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, core.NewError(core.ErrorTypeConfiguration, "new client", "config is nil", nil).WithCode(core.ErrCodeInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	target, err := core.ParseTarget(config.URI)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = events.NopSink{}
	}

	c := &Client{
		config: *config,
		target: target,
		sink:   sink,
		state:  &ws.State{},
		logger: zerolog.Nop(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.builder = handshake.NewBuilder(c.config.OriginOrDefault(), c.rnd)
	c.policy = reconnect.New(reconnect.Config{
		MaxAttempts: c.config.MaxReconnectAttempts,
		Wait:        c.config.ReconnectWait,
	})
	c.limiter = ratelimit.New(c.config.SendRateLimit, c.config.SendBurst)
	c.SetLogger(c.logger)
	c.state.Store(ws.StateIdle)
	return c, nil
}

// SetLogger configures the logger for the client. It must be called before Connect.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger.With().Str("target", c.target.String()).Str("draft", c.config.Draft.String()).Logger()
	c.policy.SetLogger(c.logger)
}

// Connect starts the run loop and returns without waiting for the socket to
// open. Outcomes are reported through the sink. Connect may be called once.
func (c *Client) Connect() error {
	if !c.state.CompareAndSwap(ws.StateIdle, ws.StateConnecting) {
		if c.state.Load().Terminal() {
			return core.NewError(core.ErrorTypeConnection, "connect", "", core.ErrClientClosed).WithCode(core.ErrCodeClientClosed)
		}
		return core.NewError(core.ErrorTypeConnection, "connect", "", core.ErrAlreadyStarted).WithCode(core.ErrCodeInvalidState)
	}

	c.logger.Debug().Msg("starting run loop")
	go c.run()
	return nil
}

// Close stops the run loop, wakes the readiness wait and closes the socket.
// It may be called from any goroutine, before Connect, and more than once.
// A run loop sleeping between attempts observes Close when the pause ends.
func (c *Client) Close() error {
	c.stopping.Store(true)

	if c.state.CompareAndSwap(ws.StateIdle, ws.StateClosed) {
		c.closeDone()
		return nil
	}
	if !c.state.Advance(ws.StateClosing) {
		return nil
	}

	c.mu.Lock()
	p, conn := c.poller, c.conn
	c.mu.Unlock()

	if p != nil {
		p.Wakeup()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Send writes text as one frame. It fails with ErrNotConnected unless the
// connection is open.
func (c *Client) Send(text string) error {
	return c.SendContext(context.Background(), text)
}

// SendContext is like Send but waits for the send rate limiter under ctx.
func (c *Client) SendContext(ctx context.Context, text string) error {
	if c.state.Load() != ws.StateOpen {
		return core.NewError(core.ErrorTypeConnection, "send", "", core.ErrNotConnected).WithCode(core.ErrCodeNotConnected)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return core.NewError(core.ErrorTypeConnection, "send", "", core.ErrNotConnected).WithCode(core.ErrCodeNotConnected)
	}
	return conn.Send(text)
}

// SendJSON marshals v to JSON and sends it as a text frame.
func (c *Client) SendJSON(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return core.NewError(core.ErrorTypeUnknown, "marshal json", err.Error(), err)
	}
	return c.Send(string(data))
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	return c.state.Load()
}

// IsOpen returns true if the handshake has completed and frames are flowing.
func (c *Client) IsOpen() bool {
	return c.state.Load() == ws.StateOpen
}

// Target returns the resolved endpoint.
func (c *Client) Target() core.Target {
	return c.target
}

// Draft returns the configured protocol draft.
func (c *Client) Draft() core.Draft {
	return c.config.Draft
}

// Attempts returns the number of failed connection attempts since Connect.
func (c *Client) Attempts() int {
	return c.policy.Attempts()
}

// ReconnectMetrics returns a snapshot of the reconnection statistics.
func (c *Client) ReconnectMetrics() reconnect.MetricsSnapshot {
	return c.policy.Metrics()
}

// Done is closed once the client has reached StateClosed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the client is closed or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Client) stopped() bool {
	return c.stopping.Load()
}

func isWakeup(err error) bool {
	return errors.Is(err, poll.ErrWoken)
}
