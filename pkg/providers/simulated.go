package providers

import (
	"context"
	"fmt"

	"genesisbridge/pkg/utils"
)

// SimulatedProvider stands in when no API key is configured. It never calls
// tools and produces deterministic canned replies, so the rest of the bridge
// keeps working end to end.
type SimulatedProvider struct{}

func NewSimulatedProvider() *SimulatedProvider { return &SimulatedProvider{} }

func (p *SimulatedProvider) Name() string { return "simulated" }

func (p *SimulatedProvider) Chat(_ context.Context, _ string, turns []Turn, _ []ToolDef) (*Completion, error) {
	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser && turns[i].Text != "" {
			last = turns[i].Text
			break
		}
	}
	text := "No completion service is configured. I heard: " + utils.Truncate(last, 200)
	return &Completion{Text: text, StopReason: StopEndTurn}, nil
}

func (p *SimulatedProvider) Describe(_ context.Context, image []byte, mediaType, _ string) (string, error) {
	return fmt.Sprintf("Simulated vision: an image of %d bytes (%s).", len(image), mediaType), nil
}
