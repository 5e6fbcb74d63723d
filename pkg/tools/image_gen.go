package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"genesisbridge/pkg/providers"
	"genesisbridge/pkg/utils"
)

// ImageGenerator renders a text prompt to image bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// PhotoSender delivers an image to the messaging platform.
type PhotoSender func(ctx context.Context, data []byte, caption string) error

// GenerateImageTool renders a prompt, saves the result into the workspace,
// and optionally sends it to the operator.
type GenerateImageTool struct {
	workspace string
	generator ImageGenerator
	sender    PhotoSender
}

func NewGenerateImageTool(workspace string, generator ImageGenerator, sender PhotoSender) *GenerateImageTool {
	return &GenerateImageTool{workspace: workspace, generator: generator, sender: sender}
}

func (t *GenerateImageTool) Name() string { return "generate_image" }

func (t *GenerateImageTool) Description() string {
	return "Generate an image from a text prompt. The image is saved to the workspace and can be sent to the operator."
}

func (t *GenerateImageTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Description of the image to generate",
			},
			"send": map[string]interface{}{
				"type":        "boolean",
				"description": "Send the generated image to the operator (default: true)",
			},
		},
		"required": []string{"prompt"},
	}
}

func (t *GenerateImageTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	prompt := stringArg(args, "prompt")
	if prompt == "" {
		return ErrorResult("prompt parameter is required")
	}
	if t.generator == nil {
		return ErrorResult("image generation is not configured")
	}

	data, err := t.generator.GenerateImage(ctx, prompt)
	if err != nil {
		return ErrorResult(fmt.Sprintf("image generation failed: %v", err))
	}

	name := fmt.Sprintf("generated_%d_%s.png", time.Now().Unix(), utils.SanitizeFilename(utils.Truncate(prompt, 30)))
	path := filepath.Join(t.workspace, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return ErrorResult(fmt.Sprintf("save image: %v", err))
	}

	send := true
	if v, ok := args["send"].(bool); ok {
		send = v
	}
	if send && t.sender != nil {
		if err := t.sender(ctx, data, utils.Truncate(prompt, 200)); err != nil {
			return &ToolResult{
				ForLLM:  fmt.Sprintf("image saved to %s but sending failed: %v", path, err),
				IsError: true,
			}
		}
		return &ToolResult{ForLLM: fmt.Sprintf("image generated, saved to %s, and sent", path)}
	}
	return &ToolResult{ForLLM: fmt.Sprintf("image generated and saved to %s", path)}
}

// SendPhotoTool sends an existing workspace image to the operator.
type SendPhotoTool struct {
	workspace string
	sender    PhotoSender
}

func NewSendPhotoTool(workspace string, sender PhotoSender) *SendPhotoTool {
	return &SendPhotoTool{workspace: workspace, sender: sender}
}

func (t *SendPhotoTool) Name() string { return "send_photo" }

func (t *SendPhotoTool) Description() string {
	return "Send an image file from the workspace to the operator's chat."
}

func (t *SendPhotoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Image path relative to the workspace",
			},
			"caption": map[string]interface{}{
				"type":        "string",
				"description": "Optional caption",
			},
		},
		"required": []string{"path"},
	}
}

func (t *SendPhotoTool) Execute(ctx context.Context, args map[string]interface{}) *ToolResult {
	if t.sender == nil {
		return ErrorResult("photo sending is not configured")
	}
	path, err := resolveWorkspacePath(t.workspace, stringArg(args, "path"))
	if err != nil {
		return ErrorResult(err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrorResult(fmt.Sprintf("read image: %v", err))
	}
	if err := t.sender(ctx, data, stringArg(args, "caption")); err != nil {
		return ErrorResult(fmt.Sprintf("send failed: %v", err))
	}
	return &ToolResult{ForLLM: fmt.Sprintf("sent %s (%d bytes)", path, len(data))}
}

var _ ImageGenerator = (*providers.OpenAIProvider)(nil)
