package guidance

import (
	"bytes"
	"fmt"
	"io"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"golang.org/x/net/html"
)

// HTMLExtractor finds guidance in <!-- --> comments of HTML and XML files.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTML/XML extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

func (e *HTMLExtractor) Name() string { return "html" }

func (e *HTMLExtractor) Extensions() []string {
	return []string{"html", "htm", "xhtml", "xml", "xsd", "svg", "vue"}
}

// Extract tokenizes file and returns the guidance of every marked comment.
func (e *HTMLExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}

	var comments []string
	z := html.NewTokenizer(bytes.NewReader(source))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return nil, fmt.Errorf("failed to tokenize %s: %w", file, z.Err())
			}
			break
		}
		if tt == html.CommentToken {
			comments = append(comments, cleanComment(string(z.Text()), nil, nil, nil))
		}
	}

	return newGuidance(projectRoot, file, collectGuidance(comments), fileTemplate), nil
}
