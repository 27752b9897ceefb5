package models

import (
	"context"
	"encoding/json"
)

// Parameter types understood by every backend.
const (
	ParamString  = "string"
	ParamInteger = "integer"
	ParamNumber  = "number"
	ParamBoolean = "boolean"
)

// Param describes one argument of a tool.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// ToolHandler runs a tool. args is the raw JSON object sent by the model and
// workingDir is the directory the conversation operates in.
type ToolHandler func(ctx context.Context, args json.RawMessage, workingDir string) (string, error)

// Tool is a registered local capability the model may call.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     ToolHandler
}

// Schema returns the JSON schema of the tool arguments.
func (t Tool) Schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(t.Params))
	for _, p := range t.Params {
		properties[p.Name] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   t.Required(),
	}
}

// Required returns the names of the required parameters.
func (t Tool) Required() []string {
	required := []string{}
	for _, p := range t.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}
