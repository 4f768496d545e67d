// Package frame implements the draft-hixie-75/76 framing used once the
// opening handshake has been written: handshake reply accumulation, text
// frames delimited by 0x00 and 0xFF, and the Draft76 closing frame.
package frame

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"hixie/internal/handshake"
	"hixie/pkg/core"
)

const (
	frameText  = 0x00
	frameEnd   = 0xFF
	frameClose = 0xFF

	// MaxHandshakeSize bounds the server's handshake header block.
	MaxHandshakeSize = 16 << 10
	// MaxFrameSize bounds a single buffered frame.
	MaxFrameSize = 16 << 20

	closeWriteTimeout = time.Second
)

var (
	headerEnd = []byte("\r\n\r\n")

	// ErrFrameTooLarge is returned when a frame or handshake exceeds its size bound.
	ErrFrameTooLarge = errors.New("frame too large")
)

// Listener receives handshake and message notifications from a Conn. All
// calls happen on the goroutine that calls HandleRead.
type Listener interface {
	// OnHandshakeReceived is given the full header block and, for Draft76,
	// the 16 bytes following it. Returning false rejects the connection.
	OnHandshakeReceived(handshake string, reply []byte) (bool, error)
	OnOpen()
	OnMessage(text string)
}

// Conn speaks the legacy framing over one socket.
type Conn struct {
	draft    core.Draft
	listener Listener
	logger   zerolog.Logger

	wmu    sync.Mutex
	conn   net.Conn
	closed bool
	open   atomic.Bool

	// read side, owned by the HandleRead caller
	buf           []byte
	handshakeDone bool
}

// New creates a Conn for draft reporting to listener.
func New(draft core.Draft, listener Listener) *Conn {
	return &Conn{
		draft:    draft,
		listener: listener,
		logger:   zerolog.Nop(),
	}
}

// SetLogger configures the logger for the connection.
func (c *Conn) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Open attaches the connected socket.
func (c *Conn) Open(conn net.Conn) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn = conn
}

// IsOpen reports whether the handshake completed and the connection is not closed.
func (c *Conn) IsOpen() bool {
	return c.open.Load()
}

// WriteHandshake writes the raw upgrade request.
func (c *Conn) WriteHandshake(request []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil || c.closed {
		return core.NewError(core.ErrorTypeConnection, "write handshake", "", core.ErrNotConnected).WithCode(core.ErrCodeNotConnected)
	}
	if _, err := c.conn.Write(request); err != nil {
		return core.ConnectionError("write handshake", err)
	}
	return nil
}

// HandleRead consumes bytes read from the socket. Incomplete handshakes and
// frames are buffered until more data arrives.
func (c *Conn) HandleRead(data []byte) error {
	c.buf = append(c.buf, data...)

	if !c.handshakeDone {
		done, err := c.readHandshake()
		if err != nil || !done {
			return err
		}
	}
	return c.readFrames()
}

func (c *Conn) readHandshake() (bool, error) {
	idx := bytes.Index(c.buf, headerEnd)
	if idx < 0 {
		if len(c.buf) > MaxHandshakeSize {
			return false, core.ConnectionError("read handshake", ErrFrameTooLarge)
		}
		return false, nil
	}

	need := idx + len(headerEnd)
	var reply []byte
	if c.draft == core.Draft76 {
		if len(c.buf) < need+handshake.ChallengeSize {
			return false, nil
		}
		reply = append([]byte(nil), c.buf[need:need+handshake.ChallengeSize]...)
		need += handshake.ChallengeSize
	}

	ok, err := c.listener.OnHandshakeReceived(string(c.buf[:idx+len(headerEnd)]), reply)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, core.NewError(core.ErrorTypeHandshake, "verify handshake", "server reply did not match challenge", core.ErrHandshakeRejected).
			WithCode(core.ErrCodeHandshakeRejected)
	}

	c.consume(need)
	c.handshakeDone = true
	c.open.Store(true)
	c.logger.Debug().Str("draft", c.draft.String()).Msg("handshake accepted")
	c.listener.OnOpen()
	return true, nil
}

func (c *Conn) readFrames() error {
	for len(c.buf) > 0 {
		typ := c.buf[0]

		if typ&0x80 == 0 {
			end := bytes.IndexByte(c.buf[1:], frameEnd)
			if end < 0 {
				if len(c.buf) > MaxFrameSize {
					return core.ConnectionError("read frame", ErrFrameTooLarge)
				}
				return nil
			}
			if typ == frameText {
				c.listener.OnMessage(string(c.buf[1 : 1+end]))
			} else {
				c.logger.Debug().Uint8("type", typ).Msg("discarding sentinel frame")
			}
			c.consume(end + 2)
			continue
		}

		length, n, ok := readLength(c.buf[1:])
		if !ok {
			return nil
		}
		if typ == frameClose && length == 0 {
			c.open.Store(false)
			return core.ConnectionError("read frame", core.ErrClosedByPeer)
		}
		if length > MaxFrameSize {
			return core.ConnectionError("read frame", ErrFrameTooLarge)
		}
		total := 1 + n + length
		if len(c.buf) < total {
			return nil
		}
		c.logger.Debug().Uint8("type", typ).Int("length", length).Msg("discarding length-prefixed frame")
		c.consume(total)
	}
	return nil
}

func (c *Conn) consume(n int) {
	c.buf = c.buf[n:]
	if len(c.buf) == 0 {
		c.buf = nil
	}
}

// readLength decodes a base-128 big-endian length. ok is false when the
// length is not complete yet or would overflow MaxFrameSize.
func readLength(data []byte) (length, n int, ok bool) {
	for i, b := range data {
		length = length<<7 | int(b&0x7F)
		if length > MaxFrameSize {
			return length, i + 1, true
		}
		if b&0x80 == 0 {
			return length, i + 1, true
		}
	}
	return 0, 0, false
}

// Send writes text as a single text frame. Concurrent calls are serialized.
func (c *Conn) Send(text string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil || c.closed || !c.open.Load() {
		return core.NewError(core.ErrorTypeConnection, "send", "", core.ErrNotConnected).WithCode(core.ErrCodeNotConnected)
	}

	frame := make([]byte, 0, len(text)+2)
	frame = append(frame, frameText)
	frame = append(frame, text...)
	frame = append(frame, frameEnd)
	if _, err := c.conn.Write(frame); err != nil {
		return core.ConnectionError("send", err)
	}
	return nil
}

// Close sends the Draft76 closing frame when the connection is open and
// closes the socket. It is safe to call concurrently with HandleRead and
// more than once.
func (c *Conn) Close() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	wasOpen := c.open.Swap(false)
	if c.conn == nil {
		return nil
	}

	if wasOpen && c.draft == core.Draft76 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
		if _, err := c.conn.Write([]byte{frameClose, 0x00}); err != nil {
			c.logger.Debug().Err(err).Msg("failed to write closing frame")
		}
	}

	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
