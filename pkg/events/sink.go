// Package events defines the lifecycle notifications a client delivers and a
// few ready-made receivers for them.
package events

import "github.com/rs/zerolog"

// Type identifies a lifecycle notification.
type Type int

// Notification types.
const (
	TypeOpen Type = iota
	TypeClose
	TypeMessage
	TypeReconnect
)

// String returns the string representation of the notification type.
func (t Type) String() string {
	if t < TypeOpen || t > TypeReconnect {
		return "unknown"
	}
	return [...]string{
		"open",
		"close",
		"message",
		"reconnect",
	}[t]
}

// Sink receives lifecycle notifications. A client calls exactly one method
// per transition, from a single goroutine, so implementations need no locking
// unless they are shared between clients.
type Sink interface {
	OnOpen()
	OnClose()
	OnMessage(text string)
	OnReconnect()
}

// NopSink ignores every notification.
type NopSink struct{}

func (NopSink) OnOpen()          {}
func (NopSink) OnClose()         {}
func (NopSink) OnMessage(string) {}
func (NopSink) OnReconnect()     {}

// SinkFuncs adapts plain functions to a Sink. Nil fields are skipped.
type SinkFuncs struct {
	Open      func()
	Close     func()
	Message   func(text string)
	Reconnect func()
}

func (f SinkFuncs) OnOpen() {
	if f.Open != nil {
		f.Open()
	}
}

func (f SinkFuncs) OnClose() {
	if f.Close != nil {
		f.Close()
	}
}

func (f SinkFuncs) OnMessage(text string) {
	if f.Message != nil {
		f.Message(text)
	}
}

func (f SinkFuncs) OnReconnect() {
	if f.Reconnect != nil {
		f.Reconnect()
	}
}

// LogSink writes every notification to a logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnOpen() {
	s.logger.Info().Msg("connection opened")
}

func (s *LogSink) OnClose() {
	s.logger.Info().Msg("connection closed")
}

func (s *LogSink) OnMessage(text string) {
	s.logger.Info().Str("message", text).Msg("message from server")
}

func (s *LogSink) OnReconnect() {
	s.logger.Warn().Msg("reconnecting")
}

// Tee fans every notification out to sinks in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) OnOpen() {
	for _, s := range t {
		s.OnOpen()
	}
}

func (t tee) OnClose() {
	for _, s := range t {
		s.OnClose()
	}
}

func (t tee) OnMessage(text string) {
	for _, s := range t {
		s.OnMessage(text)
	}
}

func (t tee) OnReconnect() {
	for _, s := range t {
		s.OnReconnect()
	}
}
