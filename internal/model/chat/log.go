package chat

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/yoda-bot/backend/internal/analysis/emotion"
)

// Entry pairs a message with the emotion reading recorded for it.
type Entry struct {
	Message Message         `json:"message"`
	Emotion emotion.Reading `json:"emotion"`
}

// Log is the append-only history of one session. Messages and readings are
// kept as parallel slices of equal length.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	readings []emotion.Reading
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{
		messages: make([]Message, 0, 16),
		readings: make([]emotion.Reading, 0, 16),
	}
}

// AppendTurn records a user utterance and the assistant reply under one lock
// so readers never observe a half-finished turn.
func (l *Log) AppendTurn(user string, userReading emotion.Reading, reply string, replyReading emotion.Reading) (Message, Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.appendLocked(user, userReading)
	a := l.appendLocked(reply, replyReading)
	return u, a
}

func (l *Log) appendLocked(content string, reading emotion.Reading) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAt(len(l.messages)),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	l.messages = append(l.messages, msg)
	l.readings = append(l.readings, reading)
	return msg
}

// LatestReading returns the most recent reading, or false when the log is empty.
func (l *Log) LatestReading() (emotion.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.readings) == 0 {
		return emotion.Reading{}, false
	}
	return l.readings[len(l.readings)-1], true
}

// Len returns the number of stored messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// All yields messages with their readings in insertion order. Each range over
// the sequence sees the log as it was when that range started.
func (l *Log) All() iter.Seq2[Message, emotion.Reading] {
	return func(yield func(Message, emotion.Reading) bool) {
		l.mu.RLock()
		n := len(l.messages)
		messages, readings := l.messages[:n:n], l.readings[:n:n]
		l.mu.RUnlock()

		for i := range n {
			if !yield(messages[i], readings[i]) {
				return
			}
		}
	}
}

// Entries copies the log into a slice.
func (l *Log) Entries() []Entry {
	entries := make([]Entry, 0, l.Len())
	for msg, reading := range l.All() {
		entries = append(entries, Entry{Message: msg, Emotion: reading})
	}
	return entries
}
