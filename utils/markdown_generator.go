package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// RenderMarkdown writes an AI result to w with markdown syntax highlighting.
// Lines inside fenced code blocks starting with '+' or '-' are colored as
// diff additions and removals.
func RenderMarkdown(ctx context.Context, w io.Writer, content string, theme string) error {
	isCodeBlock := false
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if strings.HasPrefix(line, "```") {
			isCodeBlock = !isCodeBlock
		}

		if strings.HasPrefix(line, "+") && isCodeBlock {
			fmt.Fprint(w, "\x1b[92m"+line+"\x1b[0m\n")
		} else if strings.HasPrefix(line, "-") && isCodeBlock {
			fmt.Fprint(w, "\x1b[91m"+line+"\x1b[0m\n")
		} else {
			var buf bytes.Buffer
			if err := quick.Highlight(&buf, line+"\n", "markdown", "terminal256", theme); err != nil {
				return err
			}
			if _, err := w.Write(buf.Bytes()); err != nil {
				return err
			}
		}
	}

	return nil
}
