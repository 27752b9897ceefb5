package contracts

import (
	"context"

	"github.com/meysamhadeli/guidescan/providers/models"
)

// IChatBackend performs one request/response round with an AI service.
type IChatBackend interface {
	Name() string
	Model() string
	Send(ctx context.Context, request *models.Request) (*models.Response, error)
	// IsThreadSafe reports whether Send may be called concurrently.
	IsThreadSafe() bool
}

// IAIProvider holds the state of one conversation: instructions, input
// history and tools. An instance serves a single file and must not be
// shared between goroutines.
type IAIProvider interface {
	SetInstructions(text string)
	AddInput(text string)
	RegisterTool(name string, description string, handler models.ToolHandler, params ...models.Param)
	SetWorkingDirectory(path string)
	// Run drives the conversation until the model stops calling tools.
	Run(ctx context.Context) (*models.Result, error)
	IsThreadSafe() bool
}
