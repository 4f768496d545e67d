package events

import (
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// Envelope is the JSON form of one notification.
type Envelope struct {
	Target string    `json:"target"`
	Event  string    `json:"event"`
	Data   string    `json:"data,omitempty"`
	Time   time.Time `json:"time"`
}

// JSONSink writes each notification as one JSON line tagged with a target
// identifier, so that a host multiplexing several clients can route them.
type JSONSink struct {
	mu     sync.Mutex
	w      io.Writer
	target string
	now    func() time.Time
	logger zerolog.Logger
}

// NewJSONSink creates a JSONSink writing to w.
func NewJSONSink(w io.Writer, target string) *JSONSink {
	return &JSONSink{
		w:      w,
		target: target,
		now:    time.Now,
		logger: zerolog.Nop(),
	}
}

// SetLogger configures the logger used to report write failures.
func (s *JSONSink) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

func (s *JSONSink) OnOpen()               { s.emit(TypeOpen, "") }
func (s *JSONSink) OnClose()              { s.emit(TypeClose, "") }
func (s *JSONSink) OnMessage(text string) { s.emit(TypeMessage, text) }
func (s *JSONSink) OnReconnect()          { s.emit(TypeReconnect, "") }

func (s *JSONSink) emit(t Type, data string) {
	line, err := sonic.Marshal(Envelope{
		Target: s.target,
		Event:  t.String(),
		Data:   data,
		Time:   s.now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", t.String()).Msg("marshal event")
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		s.logger.Error().Err(err).Str("event", t.String()).Msg("write event")
	}
}
