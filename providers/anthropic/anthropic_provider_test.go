package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messageResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-test",
  "content": [
    {"type": "text", "text": "Reading the file."},
    {"type": "tool_use", "id": "toolu_1", "name": "read_file_from_file_system", "input": {"path": "a.txt"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 5, "cache_read_input_tokens": 3, "cache_creation_input_tokens": 0}
}`

func TestSend(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, messageResponse)
	}))
	defer server.Close()

	backend, err := NewAnthropicChatBackend(&AnthropicConfig{BaseURL: server.URL, APIKey: "test", Model: "claude-test"})
	require.NoError(t, err)
	assert.True(t, backend.IsThreadSafe())
	assert.Equal(t, "claude-test", backend.Model())

	response, err := backend.Send(context.Background(), &models.Request{
		Instructions: "system text",
		Input:        []models.Item{models.UserMessage("hello")},
		Tools: []models.Tool{{
			Name:        "read_file_from_file_system",
			Description: "reads a file",
			Params:      []models.Param{{Name: "path", Type: models.ParamString, Required: true}},
		}},
	})
	require.NoError(t, err)

	require.Len(t, response.Output, 2)
	assert.Equal(t, models.AssistantMessage("Reading the file."), response.Output[0])
	assert.Equal(t, models.ItemFunctionCall, response.Output[1].Type)
	assert.Equal(t, "toolu_1", response.Output[1].CallID)
	assert.JSONEq(t, `{"path":"a.txt"}`, string(response.Output[1].Arguments))
	assert.Equal(t, models.Usage{InputTokens: 15, CachedInputTokens: 3, OutputTokens: 5}, response.Usage)

	assert.Equal(t, "claude-test", body["model"])
	assert.NotEmpty(t, body["system"])
	assert.Len(t, body["tools"], 1)
}

func TestToMessages_MergesSameRole(t *testing.T) {
	messages := toMessages([]models.Item{
		models.UserMessage("a"),
		models.UserMessage("b"),
		models.FunctionCall("c1", "x", json.RawMessage(`{}`)),
		models.FunctionCall("c2", "x", nil),
		models.FunctionCallOutput("c1", "x", "out"),
		models.FunctionCallOutput("c2", "x", "Error: boom"),
	})

	require.Len(t, messages, 3)
	assert.Equal(t, anthropicsdk.MessageParamRoleUser, messages[0].Role)
	assert.Len(t, messages[0].Content, 2)
	assert.Equal(t, anthropicsdk.MessageParamRoleAssistant, messages[1].Role)
	assert.Len(t, messages[1].Content, 2)
	assert.Equal(t, anthropicsdk.MessageParamRoleUser, messages[2].Role)
	assert.Len(t, messages[2].Content, 2)
}

func TestToTools(t *testing.T) {
	assert.Nil(t, toTools(nil))

	tools := toTools([]models.Tool{{Name: "t", Params: []models.Param{{Name: "p", Type: models.ParamInteger, Required: true}}}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "t", tools[0].OfTool.Name)
	assert.Equal(t, []string{"p"}, tools[0].OfTool.InputSchema.Required)
}
