package router

import "sync"

// AccumulatorSet holds the multi-line protocol buffers, keyed by sub-protocol
// name. Buffers are created lazily on the first append and cleared atomically
// when taken for a flush.
type AccumulatorSet struct {
	mu      sync.Mutex
	buffers map[string][]string
}

func NewAccumulatorSet() *AccumulatorSet {
	return &AccumulatorSet{buffers: make(map[string][]string)}
}

// Append adds a payload line to the named buffer.
func (a *AccumulatorSet) Append(key, payload string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffers[key] = append(a.buffers[key], payload)
}

// Take returns the buffered lines in arrival order and clears the buffer.
// An empty buffer yields nil, which the caller treats as "nothing to flush".
func (a *AccumulatorSet) Take(key string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	lines := a.buffers[key]
	delete(a.buffers, key)
	return lines
}

// Len reports the current size of the named buffer.
func (a *AccumulatorSet) Len(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers[key])
}
