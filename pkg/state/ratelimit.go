package state

import (
	"sync"
	"time"
)

// NotifyLimiter gates ambient [NOTIFY] sends to one per interval. Direct
// replies and agent responses never pass through it.
type NotifyLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastSend time.Time
	now      func() time.Time
}

func NewNotifyLimiter(interval time.Duration) *NotifyLimiter {
	return &NotifyLimiter{interval: interval, now: time.Now}
}

// Allow reports whether a notification may be sent now, and records the send
// time when it may. Check and update are one atomic step.
func (l *NotifyLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.lastSend.IsZero() && now.Sub(l.lastSend) < l.interval {
		return false
	}
	l.lastSend = now
	return true
}
