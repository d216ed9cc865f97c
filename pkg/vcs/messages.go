package vcs

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// DefaultMessageCapacity bounds the number of messages kept by a working copy
const DefaultMessageCapacity = 1000

// Message is a log entry produced by an operation, flushed later by the caller
type Message struct {
	Level zapcore.Level
	Text  string
}

// messages is a bounded buffer. It is not safe for concurrent use.
type messages struct {
	capacity int
	entries  []Message
	dropped  int
}

func (m *messages) add(level zapcore.Level, format string, args ...interface{}) {
	if m.capacity > 0 && len(m.entries) >= m.capacity {
		m.dropped++
		return
	}
	m.entries = append(m.entries, Message{Level: level, Text: fmt.Sprintf(format, args...)})
}

// drain returns the buffered messages and resets the buffer
func (m *messages) drain() []Message {
	out := m.entries
	if m.dropped > 0 {
		out = append(out, Message{
			Level: zapcore.WarnLevel,
			Text:  fmt.Sprintf("%d more messages were dropped", m.dropped),
		})
	}
	m.entries = nil
	m.dropped = 0
	return out
}
