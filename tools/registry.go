package tools

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/utils"
)

// Registry holds the tools offered to the model. It is built once and is
// read-only afterwards, so it can be shared by every conversation.
type Registry struct {
	tools []models.Tool
	index map[string]int
}

// NewRegistry creates a registry from tools. Duplicate names are rejected.
func NewRegistry(tools ...models.Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("tool %q needs a name and a handler", t.Name)
		}
		if _, exists := r.index[t.Name]; exists {
			return nil, fmt.Errorf("tool %q registered twice", t.Name)
		}
		r.index[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Options configures the built-in tools.
type Options struct {
	CommandTimeout time.Duration
	HTTPClient     *http.Client
	// ReadOnly leaves out the tools that change files or run commands.
	ReadOnly bool
}

// NewDefaultRegistry registers every built-in tool.
func NewDefaultRegistry(opts Options) (*Registry, error) {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = utils.DefaultCommandTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	list := []models.Tool{
		readFileTool(),
		listFilesTool(),
		recursiveFileListTool(),
		webContentTool(opts.HTTPClient),
		gitChangesTool(),
		terminateTool(),
	}
	if !opts.ReadOnly {
		list = append(list,
			writeFileTool(),
			commandTool(&utils.CommandExecutor{Timeout: opts.CommandTimeout}),
		)
	}
	return NewRegistry(list...)
}

// Get returns the tool called name.
func (r *Registry) Get(name string) (models.Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return models.Tool{}, false
	}
	return r.tools[i], true
}

// All returns the tools in registration order.
func (r *Registry) All() []models.Tool {
	return append([]models.Tool(nil), r.tools...)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// decodeArgs unmarshals args into v. An empty payload decodes as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func requireArg(name string, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %q is required", ErrInvalidArguments, name)
	}
	return nil
}
