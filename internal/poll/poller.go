// Package poll provides the readiness wait used by the client run loop.
//
// A Poller owns one socket for one connection attempt. Registering connect
// interest starts a dial; registering read interest replaces it, so connect
// readiness is reported at most once. Wait is the only place the run loop
// blocks, and Wakeup releases it from another goroutine.
package poll

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Interest identifies the kind of readiness an Event reports.
type Interest uint8

// Interest values.
const (
	Connect Interest = 1 << iota
	Read
)

// String returns the string representation of the interest.
func (i Interest) String() string {
	switch i {
	case Connect:
		return "connect"
	case Read:
		return "read"
	default:
		return "none"
	}
}

// Event is one readiness notification.
type Event struct {
	Interest Interest
	// Conn is the established socket for a Connect event.
	Conn net.Conn
	// Data holds the bytes read for a Read event.
	Data []byte
	// Err is set when the connect or read failed.
	Err error
}

// DialFunc opens a stream connection, typically (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

var (
	// ErrWoken is returned by Wait after Wakeup.
	ErrWoken = errors.New("poller woken up")
	// ErrClosed is returned by Wait once the poller is closed.
	ErrClosed = errors.New("poller closed")
)

// Poller multiplexes connect and read readiness for a single socket.
type Poller struct {
	dial     DialFunc
	bufSize  int
	interest atomic.Uint32

	events chan Event
	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	conn   net.Conn
	closed bool
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// New creates a Poller. A nil dial uses a zero net.Dialer.
func New(dial DialFunc, bufSize int) *Poller {
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	if bufSize <= 0 {
		bufSize = 4096
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		dial:    dial,
		bufSize: bufSize,
		events:  make(chan Event),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		logger:  zerolog.Nop(),
	}
}

// SetLogger configures the logger for the poller.
func (p *Poller) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// Dial registers connect interest and starts connecting to addr.
// A Connect event is delivered once the connection completes or fails.
func (p *Poller) Dial(network, addr string, timeout time.Duration) {
	p.interest.Store(uint32(Connect))
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()

		ctx := p.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		conn, err := p.dial(ctx, network, addr)
		if err == nil && !p.adopt(conn) {
			_ = conn.Close()
			return
		}
		if !p.post(Event{Interest: Connect, Conn: conn, Err: err}) && conn != nil {
			_ = conn.Close()
		}
	}()
}

// WatchRead replaces the registered interest with read readiness on conn.
// Read events carry the bytes read; the final event carries the read error.
func (p *Poller) WatchRead(conn net.Conn) {
	p.interest.Store(uint32(Read))
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.conn = conn
	p.wg.Add(1)
	p.mu.Unlock()
	go func() {
		defer p.wg.Done()
		for {
			buf := make([]byte, p.bufSize)
			n, err := conn.Read(buf)
			if n > 0 {
				if !p.post(Event{Interest: Read, Data: buf[:n]}) {
					return
				}
			}
			if err != nil {
				p.post(Event{Interest: Read, Err: err})
				return
			}
		}
	}()
}

func (p *Poller) adopt(conn net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if p.conn == nil {
		p.conn = conn
	}
	return true
}

func (p *Poller) current() net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn
}

func (p *Poller) post(ev Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-p.done:
		return false
	}
}

// Wait blocks until an event matching the registered interest is ready,
// Wakeup is called, or the poller is closed.
func (p *Poller) Wait() (Event, error) {
	for {
		select {
		case ev := <-p.events:
			if Interest(p.interest.Load())&ev.Interest == 0 {
				p.logger.Debug().Stringer("interest", ev.Interest).Msg("dropping event without registered interest")
				if ev.Conn != nil && ev.Conn != p.current() {
					_ = ev.Conn.Close()
				}
				continue
			}
			return ev, nil
		case <-p.wake:
			return Event{}, ErrWoken
		case <-p.done:
			return Event{}, ErrClosed
		}
	}
}

// Wakeup makes a blocked Wait return ErrWoken. If no Wait is in progress the
// next one returns immediately. It is safe to call from any goroutine.
func (p *Poller) Wakeup() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close cancels any pending dial, closes the socket and waits for the
// poller's goroutines to exit. It is idempotent.
func (p *Poller) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conn := p.conn
	p.mu.Unlock()

	close(p.done)
	p.cancel()

	var err error
	if conn != nil {
		err = conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	p.wg.Wait()
	return err
}
