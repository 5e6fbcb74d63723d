package tools

import (
	"context"
	"fmt"

	"genesisbridge/pkg/providers"
)

// CameraTool captures a frame from the local camera device and returns a
// vision description of it. Capture is platform-specific; on unsupported
// platforms it degrades to an error result.
type CameraTool struct {
	device   string
	provider providers.Provider
}

func NewCameraTool(device string, provider providers.Provider) *CameraTool {
	if device == "" {
		device = "/dev/video0"
	}
	return &CameraTool{device: device, provider: provider}
}

func (t *CameraTool) Name() string { return "camera_look" }

func (t *CameraTool) Description() string {
	return "Capture an image from the camera and describe what is visible."
}

func (t *CameraTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Optional question about the captured scene",
			},
		},
	}
}

func (t *CameraTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	frame, err := captureFrame(ctx, t.device)
	if err != nil {
		return ErrorResult(fmt.Sprintf("camera capture failed: %v", err))
	}

	description, err := t.provider.Describe(ctx, frame, "image/jpeg", stringArg(args, "prompt"))
	if err != nil {
		return ErrorResult(fmt.Sprintf("vision description failed: %v", err))
	}
	return &ToolResult{ForLLM: description, ForUser: description}
}
