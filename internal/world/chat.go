package world

import (
	"sync"
	"time"
)

const DefaultChatLimit = 128

type ChatEntry struct {
	Id        string
	Name      string
	Text      string
	Timestamp time.Time
}

// ChatLog is a bounded append-only message log. The oldest entries
// fall off once the limit is reached. It lives outside the presence
// store because chat history is not reconciled state.
type ChatLog struct {
	limit int

	mu      sync.Mutex
	entries []ChatEntry
}

func NewChatLog(limit int) *ChatLog {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	return &ChatLog{limit: limit}
}

func (l *ChatLog) Append(e ChatEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
}

// Entries returns a copy of the log, oldest first.
func (l *ChatLog) Entries() []ChatEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]ChatEntry(nil), l.entries...)
}

func (l *ChatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
