// Package providers abstracts the tool-augmented completion services the
// agent loop can talk to. Conversation turns use a neutral representation so
// the loop never depends on a vendor SDK directly.
package providers

import "context"

// ToolDef describes one callable tool offered to the completion service.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is the service asking for one tool execution.
type ToolCall struct {
	ID      string
	Name    string
	Args    map[string]interface{}
	RawArgs string
}

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry of the working conversation context.
type Turn struct {
	Role       string
	Text       string
	Image      []byte
	ImageType  string
	ToolCalls  []ToolCall // assistant turns only
	ToolCallID string     // tool result turns only
	IsError    bool       // tool result turns only
}

// Stop reasons a Completion can carry.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Usage is the token accounting reported by the service, when it reports
// any.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Known            bool
}

// Completion is one response from the service. When StopReason is
// StopToolUse the loop must execute ToolCalls and come back.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}

type Provider interface {
	Name() string

	// Chat sends the working context plus the tool catalog and returns the
	// service's next move.
	Chat(ctx context.Context, system string, turns []Turn, tools []ToolDef) (*Completion, error)

	// Describe returns a textual description of an image.
	Describe(ctx context.Context, image []byte, mediaType, prompt string) (string, error)
}
