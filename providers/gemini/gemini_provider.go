package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
	"google.golang.org/genai"
)

const (
	defaultModel = "gemini-2.5-flash"
	roleUser     = "user"
	roleModel    = "model"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature *float32
	MaxTokens   int
}

// GeminiBackend sends rounds to the Gemini API with function calling.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature *float32
	maxTokens   int32
}

// NewGeminiChatBackend creates the backend. Without an explicit key the SDK
// reads GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiChatBackend(ctx context.Context, config *GeminiConfig) (contracts.IChatBackend, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}
	return &GeminiBackend{
		client:      client,
		model:       model,
		temperature: config.Temperature,
		maxTokens:   int32(config.MaxTokens),
	}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) Model() string { return g.model }

func (g *GeminiBackend) IsThreadSafe() bool { return true }

// Send performs one GenerateContent call.
func (g *GeminiBackend) Send(ctx context.Context, request *models.Request) (*models.Response, error) {
	contents, err := toContents(request.Input)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: g.temperature,
		Tools:       toTools(request.Tools),
	}
	if g.maxTokens > 0 {
		config.MaxOutputTokens = g.maxTokens
	}
	if request.Instructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: request.Instructions}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	return fromResponse(resp)
}

// toContents translates the history. Consecutive parts of the same role are
// merged into one content entry.
func toContents(items []models.Item) ([]*genai.Content, error) {
	var contents []*genai.Content
	appendPart := func(role string, part *genai.Part) {
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, part)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}

	for _, item := range items {
		switch item.Type {
		case models.ItemMessage:
			role := roleUser
			if item.Role == models.RoleAssistant {
				role = roleModel
			}
			appendPart(role, &genai.Part{Text: item.Text})
		case models.ItemFunctionCall:
			args := map[string]any{}
			if len(item.Arguments) > 0 {
				if err := json.Unmarshal(item.Arguments, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments of function call %s: %w", item.CallID, err)
				}
			}
			appendPart(roleModel, &genai.Part{FunctionCall: &genai.FunctionCall{ID: item.CallID, Name: item.Name, Args: args}})
		case models.ItemFunctionCallOutput:
			appendPart(roleUser, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       item.CallID,
				Name:     item.Name,
				Response: map[string]any{"output": item.Text},
			}})
		}
	}
	return contents, nil
}

func toTools(tools []models.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		properties := make(map[string]*genai.Schema, len(t.Params))
		for _, p := range t.Params {
			properties[p.Name] = &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
		}
		declarations[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   t.Required(),
			},
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func schemaType(paramType string) genai.Type {
	switch paramType {
	case models.ParamInteger:
		return genai.TypeInteger
	case models.ParamNumber:
		return genai.TypeNumber
	case models.ParamBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// fromResponse maps the first candidate. Calls without an id get a generated
// one so that outputs can be correlated.
func fromResponse(resp *genai.GenerateContentResponse) (*models.Response, error) {
	result := &models.Response{}
	if resp.UsageMetadata != nil {
		result.Usage = models.Usage{
			InputTokens:       int(resp.UsageMetadata.PromptTokenCount),
			CachedInputTokens: int(resp.UsageMetadata.CachedContentTokenCount),
			OutputTokens:      int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return result, nil
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part == nil || part.Thought:
			continue
		case part.FunctionCall != nil:
			callArgs := part.FunctionCall.Args
			if callArgs == nil {
				callArgs = map[string]any{}
			}
			args, err := json.Marshal(callArgs)
			if err != nil {
				return nil, fmt.Errorf("invalid arguments of function call %s: %w", part.FunctionCall.Name, err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			result.Output = append(result.Output, models.FunctionCall(id, part.FunctionCall.Name, args))
		case part.Text != "":
			result.Output = append(result.Output, models.AssistantMessage(part.Text))
		}
	}
	return result, nil
}
