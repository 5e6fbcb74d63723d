package robot

import (
	"context"
	"fmt"

	"genesisbridge/pkg/tools"
)

// CommandTool exposes robot control to the completion service.
type CommandTool struct {
	client *Client
}

func NewCommandTool(client *Client) *CommandTool {
	return &CommandTool{client: client}
}

func (t *CommandTool) Name() string { return "robot_command" }

func (t *CommandTool) Description() string {
	return "Control the robot: move (forward/backward/left/right), stop, or query status."
}

func (t *CommandTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"move", "stop", "status"},
				"description": "What to do",
			},
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"forward", "backward", "left", "right"},
				"description": "Movement direction (for move)",
			},
			"amount": map[string]interface{}{
				"type":        "number",
				"description": "Distance in cm for forward/backward, degrees for left/right (default 10)",
			},
		},
		"required": []string{"action"},
	}
}

func (t *CommandTool) Execute(ctx context.Context, args map[string]interface{}) *tools.ToolResult {
	if t.client == nil {
		return tools.ErrorResult("robot bridge is not configured")
	}

	action, _ := args["action"].(string)
	switch action {
	case "move":
		direction, _ := args["direction"].(string)
		amount, ok := args["amount"].(float64)
		if !ok || amount <= 0 {
			amount = 10
		}
		resp, err := t.client.Move(ctx, direction, amount)
		if err != nil {
			return tools.ErrorResult(fmt.Sprintf("move failed: %v", err))
		}
		return &tools.ToolResult{ForLLM: resp.String()}
	case "stop":
		resp, err := t.client.Stop(ctx)
		if err != nil {
			return tools.ErrorResult(fmt.Sprintf("stop failed: %v", err))
		}
		return &tools.ToolResult{ForLLM: resp.String()}
	case "status":
		resp, err := t.client.Status(ctx)
		if err != nil {
			return tools.ErrorResult(fmt.Sprintf("status failed: %v", err))
		}
		return &tools.ToolResult{ForLLM: resp.String()}
	default:
		return tools.ErrorResult(fmt.Sprintf("unknown action: %q", action))
	}
}
