package client

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hixie/internal/handshake"
	"hixie/pkg/core"
)

// legacyServer is a minimal draft-hixie-75/76 echo server.
type legacyServer struct {
	ln            net.Listener
	draft         core.Draft
	corruptReply  bool
	silent        bool
	dropAfterOpen bool

	requests chan string
	accepted atomic.Int32
	wg       sync.WaitGroup
}

func newLegacyServer(t *testing.T, draft core.Draft, configure ...func(*legacyServer)) *legacyServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &legacyServer{
		ln:       ln,
		draft:    draft,
		requests: make(chan string, 16),
	}
	for _, fn := range configure {
		fn(s)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.accepted.Add(1)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.serve(conn)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *legacyServer) uri() string {
	return "ws://" + s.ln.Addr().String() + "/echo"
}

func (s *legacyServer) serve(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	r := bufio.NewReader(conn)

	var request strings.Builder
	headers := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		request.WriteString(line)
		if line == "\r\n" {
			break
		}
		if name, value, ok := strings.Cut(strings.TrimSuffix(line, "\r\n"), ": "); ok {
			headers[name] = value
		}
	}

	var key3 [8]byte
	if s.draft == core.Draft76 {
		if _, err := io.ReadFull(r, key3[:]); err != nil {
			return
		}
	}

	select {
	case s.requests <- request.String():
	default:
	}

	if s.silent {
		_, _ = io.Copy(io.Discard, r)
		return
	}

	resp := "HTTP/1.1 101 Web Socket Protocol Handshake\r\n" +
		"Upgrade: WebSocket\r\n" +
		"Connection: Upgrade\r\n" +
		"\r\n"
	if s.draft == core.Draft76 {
		n1, err := handshake.DecodeKey(headers["Sec-WebSocket-Key1"])
		if err != nil {
			return
		}
		n2, err := handshake.DecodeKey(headers["Sec-WebSocket-Key2"])
		if err != nil {
			return
		}
		reply, err := handshake.NewVerifier(core.Draft76, nil).Expected(&handshake.Challenge{Number1: n1, Number2: n2, Key3: key3})
		if err != nil {
			return
		}
		if s.corruptReply {
			reply[0] ^= 0xFF
		}
		resp += string(reply)
	}
	if _, err := conn.Write([]byte(resp)); err != nil {
		return
	}
	if s.dropAfterOpen {
		return
	}

	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case 0x00:
			payload, err := r.ReadBytes(0xFF)
			if err != nil {
				return
			}
			if _, err := conn.Write(append([]byte{0x00}, payload...)); err != nil {
				return
			}
		case 0xFF:
			return
		}
	}
}

// recordingSink records notifications and flags overlapping calls.
type recordingSink struct {
	mu      sync.Mutex
	events  []string
	ch      chan string
	active  atomic.Int32
	overlap atomic.Bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan string, 256)}
}

func (r *recordingSink) record(event string) {
	if r.active.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.active.Add(-1)

	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.ch <- event
}

func (r *recordingSink) OnOpen()               { r.record("open") }
func (r *recordingSink) OnClose()              { r.record("close") }
func (r *recordingSink) OnMessage(text string) { r.record("message:" + text) }
func (r *recordingSink) OnReconnect()          { r.record("reconnect") }

func (r *recordingSink) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-r.ch:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sink event")
		return ""
	}
}

func (r *recordingSink) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingSink) count(event string) int {
	n := 0
	for _, e := range r.all() {
		if e == event {
			n++
		}
	}
	return n
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func waitDone(t *testing.T, c *Client, timeout time.Duration) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(timeout):
		t.Fatalf("client did not close within %s (state %s)", timeout, c.State())
	}
}
