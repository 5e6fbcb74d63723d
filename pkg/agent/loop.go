// Package agent runs the bounded tool loop against a completion service.
package agent

import (
	"context"
	"fmt"

	"genesisbridge/pkg/logger"
	"genesisbridge/pkg/providers"
	"genesisbridge/pkg/tools"
	"genesisbridge/pkg/utils"
)

const exhaustedMessage = "I ran out of tool iterations before finishing. Please try a simpler request."

type AgentLoop struct {
	provider       providers.Provider
	registry       *tools.Registry
	history        *History
	contextBuilder *ContextBuilder
	maxIterations  int
	onUsage        func(providers.Usage)
}

func NewAgentLoop(provider providers.Provider, registry *tools.Registry, history *History, contextBuilder *ContextBuilder, maxIterations int) *AgentLoop {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	return &AgentLoop{
		provider:       provider,
		registry:       registry,
		history:        history,
		contextBuilder: contextBuilder,
		maxIterations:  maxIterations,
	}
}

// SetUsageSink installs a callback invoked with the token accounting of
// every completed service call.
func (al *AgentLoop) SetUsageSink(fn func(providers.Usage)) {
	al.onUsage = fn
}

// Process answers one request. Tool failures become textual results inside
// the loop; only provider transport errors are returned to the caller.
func (al *AgentLoop) Process(ctx context.Context, content string, attachment []byte, mediaType string) (string, error) {
	system := ""
	if al.contextBuilder != nil {
		system = al.contextBuilder.BuildSystemPrompt()
	}

	turns := al.historyTurns()
	userTurn := providers.Turn{Role: providers.RoleUser, Text: content}
	if len(attachment) > 0 {
		userTurn.Image = attachment
		userTurn.ImageType = mediaType
	}
	turns = append(turns, userTurn)

	defs := al.registry.Definitions()

	for iteration := 0; iteration < al.maxIterations; iteration++ {
		completion, err := al.provider.Chat(ctx, system, turns, defs)
		if err != nil {
			return "", fmt.Errorf("completion request: %w", err)
		}
		if al.onUsage != nil {
			al.onUsage(completion.Usage)
		}

		if completion.StopReason != providers.StopToolUse || len(completion.ToolCalls) == 0 {
			reply := completion.Text
			if reply == "" {
				reply = "(no response)"
			}
			al.history.Add(providers.RoleUser, content)
			al.history.Add(providers.RoleAssistant, reply)
			return reply, nil
		}

		logger.InfoCF("agent", "Tool round", map[string]interface{}{
			"iteration": iteration + 1,
			"max":       al.maxIterations,
			"tools":     len(completion.ToolCalls),
		})

		turns = append(turns, providers.Turn{
			Role:      providers.RoleAssistant,
			Text:      completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			result := al.registry.Execute(ctx, call.Name, call.Args)
			if result.IsError {
				logger.WarnCF("agent", "Tool returned error", map[string]interface{}{
					"tool":  call.Name,
					"error": utils.Truncate(result.ForLLM, 120),
				})
			}
			turns = append(turns, providers.Turn{
				Role:       providers.RoleTool,
				Text:       result.LLMContent(),
				ToolCallID: call.ID,
				IsError:    result.IsError,
			})
		}
	}

	logger.WarnCF("agent", "Iteration bound reached", map[string]interface{}{
		"max": al.maxIterations,
	})
	al.history.Add(providers.RoleUser, content)
	al.history.Add(providers.RoleAssistant, exhaustedMessage)
	return exhaustedMessage, nil
}

// Describe forwards an image to the provider's vision endpoint.
func (al *AgentLoop) Describe(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	return al.provider.Describe(ctx, image, mediaType, prompt)
}

func (al *AgentLoop) historyTurns() []providers.Turn {
	entries := al.history.Entries()
	turns := make([]providers.Turn, 0, len(entries)+1)
	for _, e := range entries {
		turns = append(turns, providers.Turn{Role: e.Role, Text: e.Content})
	}
	return turns
}
