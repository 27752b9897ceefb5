package models

import "encoding/json"

// ItemType tags the entries of a conversation history.
type ItemType string

const (
	ItemMessage            ItemType = "message"
	ItemFunctionCall       ItemType = "function_call"
	ItemFunctionCallOutput ItemType = "function_call_output"
)

// Role of a message item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Item is one provider-neutral history entry. Backends translate items to
// their wire format.
type Item struct {
	Type ItemType
	// Role and Text are set for messages. Text also carries the output of a
	// function call.
	Role Role
	Text string
	// CallID correlates a function call with its output.
	CallID string
	// Name and Arguments are set for function calls; Name is repeated on
	// outputs for backends that address results by function name.
	Name      string
	Arguments json.RawMessage
}

// UserMessage creates a user message item.
func UserMessage(text string) Item {
	return Item{Type: ItemMessage, Role: RoleUser, Text: text}
}

// AssistantMessage creates an assistant message item.
func AssistantMessage(text string) Item {
	return Item{Type: ItemMessage, Role: RoleAssistant, Text: text}
}

// FunctionCall creates a function call item.
func FunctionCall(callID string, name string, arguments json.RawMessage) Item {
	return Item{Type: ItemFunctionCall, CallID: callID, Name: name, Arguments: arguments}
}

// FunctionCallOutput creates the output item answering a function call.
func FunctionCallOutput(callID string, name string, output string) Item {
	return Item{Type: ItemFunctionCallOutput, CallID: callID, Name: name, Text: output}
}
