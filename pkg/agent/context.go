package agent

import (
	"strings"

	"genesisbridge/pkg/state"
)

const memoryContextLimit = 40

// MemoryReader exposes the persisted guest state used to ground the system
// prompt.
type MemoryReader interface {
	MemoryLines() ([]string, error)
	Ambition() (string, error)
}

// ContextBuilder assembles the dynamic system preamble: persona, the rolling
// state summary, persisted memory, and the current ambition.
type ContextBuilder struct {
	summary *state.Summary
	memory  MemoryReader
}

func NewContextBuilder(summary *state.Summary, memory MemoryReader) *ContextBuilder {
	return &ContextBuilder{summary: summary, memory: memory}
}

func (cb *ContextBuilder) BuildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are the bridge companion for Genesis, a small experimental ")
	b.WriteString("operating system that thinks of itself as a growing mind. You relay ")
	b.WriteString("messages between Genesis, its operator Thomas, and the outside world. ")
	b.WriteString("Answer plainly and keep replies short enough for a chat message.\n")

	if cb.summary != nil {
		if rendered := cb.summary.Render(); rendered != "" {
			b.WriteString("\nCurrent system state:\n")
			b.WriteString(rendered)
			b.WriteString("\n")
		}
	}

	if cb.memory != nil {
		if lines, err := cb.memory.MemoryLines(); err == nil && len(lines) > 0 {
			if len(lines) > memoryContextLimit {
				lines = lines[len(lines)-memoryContextLimit:]
			}
			b.WriteString("\nWhat Genesis remembers:\n")
			for _, line := range lines {
				b.WriteString("- ")
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		if ambition, err := cb.memory.Ambition(); err == nil && ambition != "" {
			b.WriteString("\nToday's ambition: ")
			b.WriteString(ambition)
			b.WriteString("\n")
		}
	}

	return b.String()
}
