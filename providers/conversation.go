package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/tools"
	"github.com/pterm/pterm"
)

// DefaultMaxRounds bounds the request/response rounds of one conversation.
const DefaultMaxRounds = 32

// EmptyToolOutput is sent back when a tool returns no output.
const EmptyToolOutput = "(empty)"

// ErrMaxRoundsExceeded is returned when the model keeps calling tools past
// the round limit.
var ErrMaxRoundsExceeded = errors.New("conversation exceeded the maximum number of rounds")

type state int

const (
	stateComposing state = iota
	stateAwaitingResponse
	stateHandlingToolCalls
	stateDone
)

func (s state) String() string {
	switch s {
	case stateComposing:
		return "composing"
	case stateAwaitingResponse:
		return "awaiting_response"
	case stateHandlingToolCalls:
		return "handling_tool_calls"
	default:
		return "done"
	}
}

// ConversationConfig configures a Conversation.
type ConversationConfig struct {
	Backend   contracts.IChatBackend
	MaxRounds int
	// OnUsage receives the usage of every round as soon as it is known.
	OnUsage func(models.Usage)
	Logger  *pterm.Logger
}

// Conversation is the IAIProvider implementation shared by every backend:
// it owns the input history and runs the tool-call loop, while the backend
// only performs single rounds.
type Conversation struct {
	backend      contracts.IChatBackend
	maxRounds    int
	onUsage      func(models.Usage)
	logger       *pterm.Logger
	instructions string
	input        []models.Item
	tools        []models.Tool
	toolIndex    map[string]int
	workingDir   string
}

var _ contracts.IAIProvider = (*Conversation)(nil)

// NewConversation creates an empty conversation on cfg.Backend.
func NewConversation(cfg ConversationConfig) *Conversation {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	return &Conversation{
		backend:   cfg.Backend,
		maxRounds: maxRounds,
		onUsage:   cfg.OnUsage,
		logger:    logger,
		toolIndex: make(map[string]int),
	}
}

func (c *Conversation) SetInstructions(text string) { c.instructions = text }

func (c *Conversation) AddInput(text string) {
	c.input = append(c.input, models.UserMessage(text))
}

// RegisterTool adds a tool; a later registration with the same name
// replaces the earlier one.
func (c *Conversation) RegisterTool(name string, description string, handler models.ToolHandler, params ...models.Param) {
	tool := models.Tool{Name: name, Description: description, Params: params, Handler: handler}
	if i, ok := c.toolIndex[name]; ok {
		c.tools[i] = tool
		return
	}
	c.toolIndex[name] = len(c.tools)
	c.tools = append(c.tools, tool)
}

func (c *Conversation) SetWorkingDirectory(path string) { c.workingDir = path }

func (c *Conversation) IsThreadSafe() bool { return c.backend.IsThreadSafe() }

// History returns a copy of the current input history.
func (c *Conversation) History() []models.Item {
	return append([]models.Item(nil), c.input...)
}

// Run sends the input to the backend and keeps answering function calls
// until a round contains none. The text of the last message of that round
// is the result. The history is cleared when Run returns.
func (c *Conversation) Run(ctx context.Context) (*models.Result, error) {
	defer c.reset()

	result := &models.Result{}
	var response *models.Response
	st := stateComposing

	for st != stateDone {
		c.logger.Trace("conversation state", c.logger.Args("state", st.String(), "round", result.Rounds))
		switch st {
		case stateComposing:
			if len(c.input) == 0 {
				return nil, fmt.Errorf("conversation has no input")
			}
			st = stateAwaitingResponse

		case stateAwaitingResponse:
			if result.Rounds >= c.maxRounds {
				return result, fmt.Errorf("%w (%d)", ErrMaxRoundsExceeded, c.maxRounds)
			}
			result.Rounds++
			c.logger.Debug("sending request", c.logger.Args("provider", c.backend.Name(), "round", result.Rounds, "items", len(c.input)))

			var err error
			response, err = c.backend.Send(ctx, c.request())
			if err != nil {
				return result, fmt.Errorf("%s request failed in round %d: %w", c.backend.Name(), result.Rounds, err)
			}
			result.Usage.Add(response.Usage)
			if c.onUsage != nil {
				c.onUsage(response.Usage)
			}
			st = stateHandlingToolCalls

		case stateHandlingToolCalls:
			called, err := c.handleResponse(ctx, response, result)
			if err != nil {
				return result, err
			}
			if called {
				st = stateAwaitingResponse
			} else {
				st = stateDone
			}
		}
	}

	return result, nil
}

// handleResponse scans the output items of one round in order. Every
// function call is appended to the history immediately followed by its
// output. It reports whether the round contained a function call.
func (c *Conversation) handleResponse(ctx context.Context, response *models.Response, result *models.Result) (bool, error) {
	result.Text = ""
	result.Found = false
	called := false

	for _, item := range response.Output {
		switch item.Type {
		case models.ItemFunctionCall:
			called = true
			c.input = append(c.input, item)
			output, err := c.callTool(ctx, item)
			if err != nil {
				return called, err
			}
			c.input = append(c.input, models.FunctionCallOutput(item.CallID, item.Name, output))
		case models.ItemMessage:
			result.Text = item.Text
			result.Found = true
		}
	}
	return called, nil
}

// callTool runs the handler of a function call. Ordinary failures become
// the output so that the model can react; only a TerminateError or a
// cancelled context ends the conversation.
func (c *Conversation) callTool(ctx context.Context, item models.Item) (string, error) {
	i, ok := c.toolIndex[item.Name]
	if !ok {
		c.logger.Warn("model called an unknown tool", c.logger.Args("tool", item.Name))
		return fmt.Sprintf("Error: %v: %s", tools.ErrUnknownTool, item.Name), nil
	}

	c.logger.Debug("calling tool", c.logger.Args("tool", item.Name, "call_id", item.CallID))
	output, err := c.tools[i].Handler(ctx, item.Arguments, c.workingDir)
	if err != nil {
		if tools.IsTerminate(err) {
			return "", err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		c.logger.Warn("tool failed", c.logger.Args("tool", item.Name, "error", err))
		return fmt.Sprintf("Error: %v", err), nil
	}
	if output == "" {
		return EmptyToolOutput, nil
	}
	return output, nil
}

func (c *Conversation) request() *models.Request {
	return &models.Request{
		Instructions: c.instructions,
		Input:        append([]models.Item(nil), c.input...),
		Tools:        c.tools,
	}
}

func (c *Conversation) reset() {
	c.input = nil
}
