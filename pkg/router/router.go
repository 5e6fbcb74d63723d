// Package router classifies guest output lines against an ordered table of
// tag predicates. Predicates are substring checks, not parsers, and they are
// not mutually exclusive: every rule is tested against every line, so one
// line can fire several handlers.
package router

import (
	"strings"
	"time"

	"genesisbridge/pkg/bus"
	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/serial"
	"genesisbridge/pkg/state"
)

// Buffer keys for the multi-line sub-protocols.
const (
	bufMemory  = "memory"
	bufJournal = "journal"
)

// Legacy command markers the kernel emits verbatim.
const (
	cmdHaiku    = "[LLM_REQUEST] TypeWrite haiku request"
	cmdStatus   = "[SHELL] Thomas's full prompt sent to bridge."
	cmdAmbition = "Trigger morning ambitions"
	cmdScout    = "[SCOUT] Video analysis requested:"
)

// Persistence is the durable side of the multi-line protocols.
type Persistence interface {
	SaveMemory(lines []string) error
	MemoryLines() ([]string, error)
	AppendJournal(lines []string) (string, error)
	SetAmbition(text string) error
	Ambition() (string, error)
	AmbitionHistory(limit int) ([]string, error)
}

// GuestWriter is the replay path back into the guest's input stream.
type GuestWriter interface {
	SendTagged(tag, payload string) error
}

// Notifier delivers outbound messages. Notify is subject to the ambient rate
// limit; Reply is unconditional.
type Notifier interface {
	Notify(text string)
	Reply(text string)
}

type Router struct {
	queue   *bus.Queue
	summary *state.Summary
	acc     *AccumulatorSet
	store   Persistence
	guest   GuestWriter
	notify  Notifier

	// When the completion service handles conversational replies,
	// [TELEGRAM_REPLY] lines are ignored to avoid double delivery.
	agentActive bool

	rules []rule
}

type rule struct {
	name   string
	match  func(line string) bool
	handle func(line string)
}

func NewRouter(queue *bus.Queue, summary *state.Summary, store Persistence, guest GuestWriter, notify Notifier, agentActive bool) *Router {
	r := &Router{
		queue:       queue,
		summary:     summary,
		acc:         NewAccumulatorSet(),
		store:       store,
		guest:       guest,
		notify:      notify,
		agentActive: agentActive,
	}
	r.rules = r.buildRules()
	return r
}

// Route tests a line against every rule in order. No short-circuiting:
// overlapping tags on one line all fire.
func (r *Router) Route(line string) {
	for _, rl := range r.rules {
		if rl.match(line) {
			logger.DebugCF("router", "Tag matched", map[string]interface{}{
				"rule": rl.name,
			})
			rl.handle(line)
		}
	}
}

func (r *Router) buildRules() []rule {
	contains := func(marker string) func(string) bool {
		return func(line string) bool { return strings.Contains(line, marker) }
	}
	return []rule{
		// State-update tags: summary only, no side effects.
		{"boot", contains("GENESIS BOOT"), func(string) { r.summary.RecordBoot(time.Now()) }},
		{"goal", contains("[GOAL]"), func(line string) { r.summary.SetGoal(payloadAfter(line, "[GOAL]")) }},
		{"test_result", contains("[TEST_RESULT]"), func(line string) { r.summary.SetTestResult(payloadAfter(line, "[TEST_RESULT]")) }},
		{"heartbeat", contains("[HEARTBEAT]"), func(line string) { r.summary.SetHeartbeat(payloadAfter(line, "[HEARTBEAT]")) }},
		{"shell", contains("[SHELL]"), func(line string) { r.summary.SetShellLine(payloadAfter(line, "[SHELL]")) }},

		// Multi-line protocols.
		{"memory_persist", contains(serial.TagMemoryPersist), func(line string) {
			r.acc.Append(bufMemory, payloadAfter(line, serial.TagMemoryPersist))
		}},
		{"memory_done", contains(serial.TagMemoryDone), func(string) { r.flushMemory() }},
		{"memory_request", contains(serial.TagMemoryRequest), func(string) { go r.replayMemory() }},
		{"journal", contains(serial.TagJournal), func(line string) {
			r.acc.Append(bufJournal, payloadAfter(line, serial.TagJournal))
		}},
		{"journal_done", contains(serial.TagJournalDone), func(string) { r.flushJournal() }},
		{"ambition_set", contains(serial.TagAmbitionSet), func(line string) {
			if err := r.store.SetAmbition(payloadAfter(line, serial.TagAmbitionSet)); err != nil {
				logger.ErrorCF("router", "Failed to persist ambition", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}},
		{"ambition_request", contains(serial.TagAmbitionReq), func(string) { go r.replayAmbition() }},

		// Notifications and replies.
		{"notify", contains(serial.TagNotify), func(line string) {
			r.notify.Notify(payloadAfter(line, serial.TagNotify))
		}},
		{"telegram_reply", contains(serial.TagTelegramReply), func(line string) {
			if r.agentActive {
				return
			}
			r.notify.Reply(payloadAfter(line, serial.TagTelegramReply))
		}},

		// Legacy commands.
		{"haiku", contains(cmdHaiku), func(string) {
			r.queue.Publish(bus.DispatchRequest{
				Source:  bus.SourceStream,
				Target:  bus.TargetHaiku,
				Content: "Write a haiku about what you are experiencing right now.",
			})
		}},
		{"status", contains(cmdStatus), func(string) {
			r.queue.Publish(bus.DispatchRequest{
				Source: bus.SourceStream,
				Target: bus.TargetStatusSummary,
			})
		}},
		{"ambition_trigger", contains(cmdAmbition), func(string) {
			r.queue.Publish(bus.DispatchRequest{
				Source: bus.SourceStream,
				Target: bus.TargetAmbition,
			})
		}},
		{"scout", contains(cmdScout), func(line string) {
			r.queue.Publish(bus.DispatchRequest{
				Source:    bus.SourceStream,
				Target:    bus.TargetMediaAnalysis,
				MediaPath: payloadAfter(line, cmdScout),
			})
		}},
	}
}

// flushMemory hands the accumulated dump to the store off the read path.
func (r *Router) flushMemory() {
	lines := r.acc.Take(bufMemory)
	if len(lines) == 0 {
		return
	}
	go func() {
		if err := r.store.SaveMemory(lines); err != nil {
			logger.ErrorCF("router", "Memory flush failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

func (r *Router) flushJournal() {
	lines := r.acc.Take(bufJournal)
	if len(lines) == 0 {
		return
	}
	go func() {
		path, err := r.store.AppendJournal(lines)
		if err != nil {
			logger.ErrorCF("router", "Journal flush failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		r.notify.Notify("Journal entry saved: " + path)
	}()
}

// replayMemory streams the persisted dump back into the guest. The done tag
// is sent even when memory is empty so the guest's loader always terminates.
func (r *Router) replayMemory() {
	lines, err := r.store.MemoryLines()
	if err != nil {
		logger.ErrorCF("router", "Memory replay failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	for _, line := range lines {
		if err := r.guest.SendTagged(serial.TagMemoryLoad, line); err != nil {
			logger.ErrorCF("router", "Memory replay write failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
	}
	if err := r.guest.SendTagged(serial.TagMemoryLoadDone, ""); err != nil {
		logger.ErrorCF("router", "Memory replay write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	logger.InfoCF("router", "Memory replayed to guest", map[string]interface{}{
		"entries": len(lines),
	})
}

func (r *Router) replayAmbition() {
	latest, err := r.store.Ambition()
	if err != nil {
		logger.ErrorCF("router", "Ambition replay failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if latest != "" {
		if err := r.guest.SendTagged(serial.TagAmbitionLoad, latest); err != nil {
			logger.ErrorCF("router", "Ambition replay write failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
	}
	history, err := r.store.AmbitionHistory(5)
	if err != nil {
		logger.WarnCF("router", "Ambition history unavailable", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	for _, entry := range history {
		if err := r.guest.SendTagged(serial.TagAmbitionHist, entry); err != nil {
			logger.ErrorCF("router", "Ambition replay write failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
	}
}

// payloadAfter returns the trimmed remainder of the line after the marker.
// Lines where the marker is the whole content yield "".
func payloadAfter(line, marker string) string {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+len(marker):])
}
