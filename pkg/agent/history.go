package agent

import (
	"sync"
	"time"
)

type HistoryEntry struct {
	Role    string
	Content string
	Time    time.Time
}

// History is the bounded conversation memory shared across requests. Oldest
// entries are evicted once the capacity is exceeded.
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 20
	}
	return &History{capacity: capacity}
}

func (h *History) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{Role: role, Content: content, Time: time.Now()})
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// Entries returns a copy of the current history, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
