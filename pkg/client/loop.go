package client

import (
	"errors"
	"io"

	"hixie/internal/frame"
	"hixie/internal/handshake"
	"hixie/internal/poll"
	"hixie/internal/ws"
	"hixie/pkg/core"
)

const network = "tcp"

func (c *Client) run() {
	defer c.finish()

	for {
		err := c.attempt()
		if c.stopped() {
			return
		}

		decision := c.policy.OnFailure(err)
		if !decision.Retry {
			return
		}

		c.policy.Backoff(decision)
		if c.stopped() || !c.state.Advance(ws.StateReconnecting) {
			return
		}
		c.logger.Info().Int("attempt", decision.Attempt+1).Msg("reconnecting")
		c.sink.OnReconnect()
	}
}

func (c *Client) finish() {
	c.state.Store(ws.StateClosed)
	c.logger.Info().Int("failed_attempts", c.policy.Attempts()).Msg("websocket closed")
	c.sink.OnClose()
	c.closeDone()
}

// attempt runs one connection from socket creation until it fails or Close
// is observed. It returns nil only when stopping.
func (c *Client) attempt() error {
	p := poll.New(poll.DialFunc(c.dial), c.config.ReadBufferSize)
	p.SetLogger(c.logger)

	l := &attemptListener{
		client:   c,
		verifier: handshake.NewVerifier(c.config.Draft, handshake.DigestFunc(c.digest)),
	}
	conn := frame.New(c.config.Draft, l)
	conn.SetLogger(c.logger)

	c.mu.Lock()
	c.poller, c.conn = p, conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.poller, c.conn = nil, nil
		c.mu.Unlock()
		_ = conn.Close()
		_ = p.Close()
	}()

	if c.stopped() {
		return nil
	}
	c.state.Advance(ws.StateConnecting)
	c.logger.Debug().Str("addr", c.target.Addr()).Msg("connecting")
	p.Dial(network, c.target.Addr(), c.config.DialTimeout)

	for !c.stopped() {
		ev, err := p.Wait()
		if err != nil {
			if isWakeup(err) {
				continue
			}
			return core.ConnectionError("poll", err)
		}

		switch ev.Interest {
		case poll.Connect:
			if ev.Err != nil {
				return core.ConnectionError("connect", ev.Err)
			}
			conn.Open(ev.Conn)
			p.WatchRead(ev.Conn)

			req, err := c.builder.Build(c.target, c.config.Draft)
			if err != nil {
				return err
			}
			l.challenge = req.Challenge
			if err := conn.WriteHandshake(req.Bytes); err != nil {
				return err
			}
			c.state.Advance(ws.StateHandshakeSent)
			c.logger.Debug().Int("bytes", len(req.Bytes)).Msg("handshake sent")

		case poll.Read:
			if ev.Err != nil {
				if errors.Is(ev.Err, io.EOF) {
					return core.ConnectionError("read", core.ErrClosedByPeer)
				}
				return core.ConnectionError("read", ev.Err)
			}
			if err := conn.HandleRead(ev.Data); err != nil {
				if core.IsEnvironmentError(err) {
					c.logger.Error().Err(err).Msg("skipping read event")
					continue
				}
				return err
			}
		}
	}
	return nil
}

// attemptListener binds the framing layer to one attempt. It owns that
// attempt's challenge, so a reconnect can never verify against stale values.
type attemptListener struct {
	client    *Client
	verifier  *handshake.Verifier
	challenge *handshake.Challenge
}

func (l *attemptListener) OnHandshakeReceived(_ string, reply []byte) (bool, error) {
	ok, err := l.verifier.Verify(l.challenge, reply)
	if err != nil {
		return false, err
	}
	l.challenge = nil
	return ok, nil
}

func (l *attemptListener) OnOpen() {
	c := l.client
	if !c.state.Advance(ws.StateOpen) {
		return
	}
	c.logger.Info().Msg("websocket connected")
	c.sink.OnOpen()
}

func (l *attemptListener) OnMessage(text string) {
	l.client.sink.OnMessage(text)
}
