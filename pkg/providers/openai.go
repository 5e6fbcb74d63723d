package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"genesisbridge/pkg/logger"
)

// OpenAIProvider also serves OpenAI-compatible endpoints via a custom base
// URL.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIProvider(apiKey, apiBase, model string, maxTokens int, temperature float64) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(apiBase))
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Chat(ctx context.Context, system string, turns []Turn, tools []ToolDef) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(p.model),
		Messages:  buildOpenAIMessages(system, turns),
		MaxTokens: openai.Int(int64(p.maxTokens)),
	}
	if p.temperature > 0 {
		params.Temperature = openai.Float(p.temperature)
	}
	if len(tools) > 0 {
		params.Tools = buildOpenAITools(tools)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: empty response")
	}

	msg := resp.Choices[0].Message
	completion := &Completion{
		Text:       msg.Content,
		StopReason: StopEndTurn,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			Known:            true,
		},
	}
	for _, call := range msg.ToolCalls {
		tc := ToolCall{
			ID:      call.ID,
			Name:    call.Function.Name,
			RawArgs: call.Function.Arguments,
		}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &tc.Args); err != nil {
				logger.WarnCF("openai", "Unparseable tool arguments", map[string]interface{}{
					"tool": tc.Name,
				})
			}
		}
		completion.ToolCalls = append(completion.ToolCalls, tc)
	}
	if len(completion.ToolCalls) > 0 {
		completion.StopReason = StopToolUse
	}
	return completion, nil
}

func (p *OpenAIProvider) Describe(ctx context.Context, image []byte, mediaType, prompt string) (string, error) {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	if prompt == "" {
		prompt = "Describe this image in a couple of sentences."
	}
	uri := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image))
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: uri}),
			}),
		},
		MaxTokens: openai.Int(1024),
	})
	if err != nil {
		return "", fmt.Errorf("openai describe: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai describe: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage renders a prompt to PNG bytes.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModelDallE3,
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("openai image: empty response")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}

func buildOpenAITools(tools []ToolDef) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}
	return out
}

func buildOpenAIMessages(system string, turns []Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, turn := range turns {
		switch turn.Role {
		case RoleAssistant:
			if len(turn.ToolCalls) == 0 {
				if turn.Text != "" {
					out = append(out, openai.AssistantMessage(turn.Text))
				}
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(turn.ToolCalls))
			for _, call := range turn.ToolCalls {
				args := call.RawArgs
				if strings.TrimSpace(args) == "" {
					args = "{}"
				}
				calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: args,
						},
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if turn.Text != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(turn.Text),
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case RoleTool:
			out = append(out, openai.ToolMessage(turn.Text, turn.ToolCallID))
		default:
			if len(turn.Image) > 0 {
				mediaType := turn.ImageType
				if mediaType == "" {
					mediaType = "image/jpeg"
				}
				uri := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(turn.Image))
				parts := []openai.ChatCompletionContentPartUnionParam{
					openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: uri}),
				}
				if turn.Text != "" {
					parts = append(parts, openai.TextContentPart(turn.Text))
				}
				out = append(out, openai.UserMessage(parts))
				continue
			}
			if turn.Text != "" {
				out = append(out, openai.UserMessage(turn.Text))
			}
		}
	}
	return out
}
