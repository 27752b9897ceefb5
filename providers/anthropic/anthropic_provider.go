package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 8192
)

// AnthropicConfig configures the Anthropic Messages API backend.
type AnthropicConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature *float32
	MaxTokens   int
}

// AnthropicBackend sends rounds to the Anthropic Messages API with tool use.
type AnthropicBackend struct {
	client      anthropicsdk.Client
	model       string
	maxTokens   int64
	temperature *float32
}

// NewAnthropicChatBackend creates the backend. Without an explicit key the
// SDK reads ANTHROPIC_API_KEY from the environment.
func NewAnthropicChatBackend(config *AnthropicConfig) (contracts.IChatBackend, error) {
	var opts []option.RequestOption
	if config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicBackend{
		client:      anthropicsdk.NewClient(opts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: config.Temperature,
	}, nil
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Model() string { return b.model }

// IsThreadSafe is true: the SDK client is safe for concurrent use.
func (b *AnthropicBackend) IsThreadSafe() bool { return true }

// Send performs one Messages API call.
func (b *AnthropicBackend) Send(ctx context.Context, request *models.Request) (*models.Response, error) {
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(b.model),
		MaxTokens: b.maxTokens,
		Messages:  toMessages(request.Input),
		Tools:     toTools(request.Tools),
	}
	if request.Instructions != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: request.Instructions}}
	}
	if b.temperature != nil {
		params.Temperature = anthropicsdk.Float(float64(*b.temperature))
	}

	message, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	return fromMessage(message), nil
}

// toMessages translates the history. Consecutive items of the same role are
// merged into one message, as the API expects alternating roles.
func toMessages(items []models.Item) []anthropicsdk.MessageParam {
	var messages []anthropicsdk.MessageParam
	appendBlock := func(role anthropicsdk.MessageParamRole, block anthropicsdk.ContentBlockParamUnion) {
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, block)
			return
		}
		messages = append(messages, anthropicsdk.MessageParam{
			Role:    role,
			Content: []anthropicsdk.ContentBlockParamUnion{block},
		})
	}

	for _, item := range items {
		switch item.Type {
		case models.ItemMessage:
			role := anthropicsdk.MessageParamRoleUser
			if item.Role == models.RoleAssistant {
				role = anthropicsdk.MessageParamRoleAssistant
			}
			appendBlock(role, anthropicsdk.NewTextBlock(item.Text))
		case models.ItemFunctionCall:
			args := item.Arguments
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			appendBlock(anthropicsdk.MessageParamRoleAssistant, anthropicsdk.NewToolUseBlock(item.CallID, args, item.Name))
		case models.ItemFunctionCallOutput:
			isError := strings.HasPrefix(item.Text, "Error:")
			appendBlock(anthropicsdk.MessageParamRoleUser, anthropicsdk.NewToolResultBlock(item.CallID, item.Text, isError))
		}
	}
	return messages
}

func toTools(tools []models.Tool) []anthropicsdk.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, t := range tools {
		tool := anthropicsdk.ToolParam{
			Name:        t.Name,
			Description: anthropicsdk.String(t.Description),
			InputSchema: anthropicsdk.ToolInputSchemaParam{
				Properties: t.Schema()["properties"],
				Required:   t.Required(),
			},
		}
		result[i] = anthropicsdk.ToolUnionParam{OfTool: &tool}
	}
	return result
}

// fromMessage maps the reply. The API counts cache reads apart from input
// tokens; they are folded into InputTokens so that cached input is always a
// part of the input count.
func fromMessage(message *anthropicsdk.Message) *models.Response {
	response := &models.Response{
		Usage: models.Usage{
			InputTokens:       int(message.Usage.InputTokens + message.Usage.CacheReadInputTokens),
			CachedInputTokens: int(message.Usage.CacheReadInputTokens),
			OutputTokens:      int(message.Usage.OutputTokens),
		},
	}
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			response.Output = append(response.Output, models.AssistantMessage(variant.Text))
		case anthropicsdk.ToolUseBlock:
			response.Output = append(response.Output, models.FunctionCall(variant.ID, variant.Name, variant.Input))
		}
	}
	return response
}
