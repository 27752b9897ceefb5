package guidance

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var htmlCommentRegex = regexp.MustCompile(`(?s)<!--(.*?)-->`)

// MarkdownExtractor finds guidance in HTML comments of markdown documents.
// Comments inside code spans and fenced blocks are not guidance.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (e *MarkdownExtractor) Name() string { return "markdown" }

func (e *MarkdownExtractor) Extensions() []string { return []string{"md", "markdown"} }

// Extract returns the guidance of every marked HTML comment in file.
func (e *MarkdownExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}

	doc := e.md.Parser().Parse(text.NewReader(source))

	var html bytes.Buffer
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				html.Write(segment.Value(source))
			}
			if node.HasClosure() {
				html.Write(node.ClosureLine.Value(source))
			}
			html.WriteByte('\n')
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				html.Write(segment.Value(source))
			}
			html.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", file, err)
	}

	return newGuidance(projectRoot, file, collectGuidance(htmlComments(html.String())), fileTemplate), nil
}

// htmlComments returns the cleaned body of every <!-- --> comment in s.
func htmlComments(s string) []string {
	var comments []string
	for _, m := range htmlCommentRegex.FindAllStringSubmatch(s, -1) {
		comments = append(comments, cleanComment(m[1], nil, nil, nil))
	}
	return comments
}
