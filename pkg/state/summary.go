// Package state holds the mutable observations shared between the serial read
// loop and the agent loop: a rolling summary of what the guest has reported,
// and the notification rate gate. Everything here is lock-guarded; the source
// streams mutate it from different goroutines.
package state

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Summary is the rolling picture of the guest used as completion-service
// context. The tag router writes it, the agent context builder reads it.
type Summary struct {
	mu             sync.RWMutex
	lastBoot       time.Time
	currentGoal    string
	lastTestResult string
	lastHeartbeat  string
	lastShellLine  string
}

func NewSummary() *Summary {
	return &Summary{}
}

func (s *Summary) RecordBoot(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBoot = now
}

func (s *Summary) SetGoal(goal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentGoal = strings.TrimSpace(goal)
}

func (s *Summary) Goal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentGoal
}

func (s *Summary) SetTestResult(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTestResult = strings.TrimSpace(result)
}

func (s *Summary) SetHeartbeat(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = strings.TrimSpace(line)
}

func (s *Summary) SetShellLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastShellLine = strings.TrimSpace(line)
}

// Render produces the state preamble injected into the system prompt.
func (s *Summary) Render() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	if !s.lastBoot.IsZero() {
		fmt.Fprintf(&b, "Last boot: %s\n", s.lastBoot.Format(time.RFC3339))
	}
	if s.currentGoal != "" {
		fmt.Fprintf(&b, "Current ambition: %s\n", s.currentGoal)
	}
	if s.lastTestResult != "" {
		fmt.Fprintf(&b, "Last test result: %s\n", s.lastTestResult)
	}
	if s.lastHeartbeat != "" {
		fmt.Fprintf(&b, "Last heartbeat: %s\n", s.lastHeartbeat)
	}
	if s.lastShellLine != "" {
		fmt.Fprintf(&b, "Last shell activity: %s\n", s.lastShellLine)
	}
	return strings.TrimRight(b.String(), "\n")
}
