package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
	ollama_models "github.com/meysamhadeli/guidescan/providers/ollama/models"
)

// OllamaConfig configures the Ollama chat backend.
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Temperature *float32
	MaxTokens   int
	HTTPClient  *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	defaultModel   = "llama3.1"
)

// OllamaBackend talks to a local Ollama server through /api/chat.
type OllamaBackend struct {
	baseURL     string
	model       string
	temperature *float32
	maxTokens   int
	client      *http.Client
}

// NewOllamaChatBackend initializes a new OllamaBackend.
func NewOllamaChatBackend(config *OllamaConfig) contracts.IChatBackend {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaBackend{
		baseURL:     baseURL,
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		client:      client,
	}
}

func (o *OllamaBackend) Name() string { return "ollama" }

func (o *OllamaBackend) Model() string { return o.model }

func (o *OllamaBackend) IsThreadSafe() bool { return true }

// Send performs one non-streaming chat request.
func (o *OllamaBackend) Send(ctx context.Context, request *models.Request) (*models.Response, error) {
	reqBody := ollama_models.OllamaChatRequest{
		Model:    o.model,
		Messages: toMessages(request.Instructions, request.Input),
		Tools:    toTools(request.Tools),
		Stream:   false,
	}
	if o.temperature != nil || o.maxTokens > 0 {
		reqBody.Options = &ollama_models.ModelOptions{Temperature: o.temperature, NumPredict: o.maxTokens}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", o.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", err)
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError ollama_models.OllamaError
		if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
			return nil, fmt.Errorf("API request failed with status code '%d'", resp.StatusCode)
		}
		return nil, fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiError.Error)
	}

	var chatResponse ollama_models.OllamaChatResponse
	if err := json.Unmarshal(body, &chatResponse); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	return fromResponse(&chatResponse), nil
}

func toMessages(instructions string, items []models.Item) []ollama_models.Message {
	var messages []ollama_models.Message
	if instructions != "" {
		messages = append(messages, ollama_models.Message{Role: "system", Content: instructions})
	}

	for _, item := range items {
		switch item.Type {
		case models.ItemMessage:
			messages = append(messages, ollama_models.Message{Role: string(item.Role), Content: item.Text})
		case models.ItemFunctionCall:
			args := item.Arguments
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			call := ollama_models.ToolCall{Function: ollama_models.FunctionCall{Name: item.Name, Arguments: args}}
			// Calls of one round belong to a single assistant message.
			if n := len(messages); n > 0 && messages[n-1].Role == "assistant" && len(messages[n-1].ToolCalls) > 0 {
				messages[n-1].ToolCalls = append(messages[n-1].ToolCalls, call)
				continue
			}
			messages = append(messages, ollama_models.Message{Role: "assistant", ToolCalls: []ollama_models.ToolCall{call}})
		case models.ItemFunctionCallOutput:
			messages = append(messages, ollama_models.Message{Role: "tool", Content: item.Text, ToolName: item.Name})
		}
	}
	return messages
}

func toTools(tools []models.Tool) []ollama_models.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]ollama_models.Tool, len(tools))
	for i, t := range tools {
		result[i] = ollama_models.Tool{
			Type: "function",
			Function: ollama_models.Function{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema(),
			},
		}
	}
	return result
}

// fromResponse maps the reply. Ollama does not identify tool calls, so each
// call gets a generated id.
func fromResponse(response *ollama_models.OllamaChatResponse) *models.Response {
	result := &models.Response{
		Usage: models.Usage{
			InputTokens:  response.PromptEvalCount,
			OutputTokens: response.EvalCount,
		},
	}
	if response.Message.Content != "" {
		result.Output = append(result.Output, models.AssistantMessage(response.Message.Content))
	}
	for _, call := range response.Message.ToolCalls {
		result.Output = append(result.Output, models.FunctionCall(uuid.NewString(), call.Function.Name, call.Function.Arguments))
	}
	return result
}
