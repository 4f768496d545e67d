package ws

import "sync/atomic"

// ConnState represents the lifecycle state of a legacy websocket client.
type ConnState int32

// Connection states for websocket lifecycle management.
const (
	// StateIdle indicates Connect has not been called yet.
	StateIdle ConnState = iota
	// StateConnecting indicates a socket was opened and is awaiting connect-readiness.
	StateConnecting
	// StateHandshakeSent indicates the upgrade request was written and the reply is pending.
	StateHandshakeSent
	// StateOpen indicates the handshake verified and frames are flowing.
	StateOpen
	// StateReconnecting indicates a failed attempt is about to be retried.
	StateReconnecting
	// StateClosing indicates Close was requested and the run loop is shutting down.
	StateClosing
	// StateClosed indicates the client has been permanently closed.
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnState) String() string {
	if s < StateIdle || s > StateClosed {
		return "unknown"
	}
	return [...]string{
		"idle",
		"connecting",
		"handshake_sent",
		"open",
		"reconnecting",
		"closing",
		"closed",
	}[s]
}

// Terminal reports whether no further reconnection can happen from s.
func (s ConnState) Terminal() bool {
	return s == StateClosing || s == StateClosed
}

// State provides thread-safe atomic access to a ConnState value.
type State struct {
	state atomic.Int32
}

// Load returns the current connection state.
func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

// Store sets the connection state to the given value.
func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}

// CompareAndSwap atomically compares the current state with old and swaps to new if equal.
// It returns true if the swap was performed.
func (s *State) CompareAndSwap(old, new ConnState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}

// Advance moves to next unless the current state is terminal.
// It returns false when the state was left untouched.
func (s *State) Advance(next ConnState) bool {
	for {
		cur := s.Load()
		if cur.Terminal() {
			return false
		}
		if s.CompareAndSwap(cur, next) {
			return true
		}
	}
}
