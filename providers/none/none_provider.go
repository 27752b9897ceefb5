package none

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
)

// NoneBackend prints every request instead of sending it. It is used for dry
// runs and to inspect what the model would receive.
type NoneBackend struct {
	out io.Writer
}

// NewNoneChatBackend creates a backend writing requests to out.
func NewNoneChatBackend(out io.Writer) contracts.IChatBackend {
	return &NoneBackend{out: out}
}

func (n *NoneBackend) Name() string { return "none" }

func (n *NoneBackend) Model() string { return "" }

// IsThreadSafe is false so that printed requests never interleave.
func (n *NoneBackend) IsThreadSafe() bool { return false }

// Send prints the request and answers with an empty round.
func (n *NoneBackend) Send(_ context.Context, request *models.Request) (*models.Response, error) {
	var b strings.Builder
	if request.Instructions != "" {
		b.WriteString(lipgloss.BlueSky.Render("Instructions:"))
		b.WriteString("\n")
		b.WriteString(request.Instructions)
		b.WriteString("\n\n")
	}
	for _, item := range request.Input {
		if item.Type != models.ItemMessage {
			continue
		}
		b.WriteString(lipgloss.BlueSky.Render("Input:"))
		b.WriteString("\n")
		b.WriteString(item.Text)
		b.WriteString("\n\n")
	}
	if len(request.Tools) > 0 {
		names := make([]string, len(request.Tools))
		for i, t := range request.Tools {
			names[i] = t.Name
		}
		b.WriteString(lipgloss.Gray.Render("Tools: " + strings.Join(names, ", ")))
		b.WriteString("\n")
	}

	if _, err := fmt.Fprint(n.out, b.String()); err != nil {
		return nil, fmt.Errorf("failed to print request: %w", err)
	}
	return &models.Response{}, nil
}
