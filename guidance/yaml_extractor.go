package guidance

import (
	"fmt"
	"strings"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"gopkg.in/yaml.v3"
)

// YAMLExtractor finds guidance in '#' comments of YAML documents. Comments
// are read from the parsed node tree; documents that do not parse fall back
// to a line scan so that a syntax error never hides guidance.
type YAMLExtractor struct{}

// NewYAMLExtractor creates a YAML extractor.
func NewYAMLExtractor() *YAMLExtractor {
	return &YAMLExtractor{}
}

func (e *YAMLExtractor) Name() string { return "yaml" }

func (e *YAMLExtractor) Extensions() []string { return []string{"yaml", "yml"} }

// Extract returns the guidance of every marked comment in file.
func (e *YAMLExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}

	var comments []string
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err == nil {
		comments = nodeComments(&root, comments)
	} else {
		comments = lineComments(string(source))
	}

	return newGuidance(projectRoot, file, collectGuidance(comments), fileTemplate), nil
}

// nodeComments appends the head, line and foot comments of n and all of its
// descendants, in document order.
func nodeComments(n *yaml.Node, comments []string) []string {
	if n == nil {
		return comments
	}
	for _, c := range []string{n.HeadComment, n.LineComment} {
		if c != "" {
			comments = append(comments, cleanComment(c, nil, nil, hashPrefixes))
		}
	}
	for _, child := range n.Content {
		comments = nodeComments(child, comments)
	}
	if n.FootComment != "" {
		comments = append(comments, cleanComment(n.FootComment, nil, nil, hashPrefixes))
	}
	return comments
}

// lineComments groups consecutive '#' lines into comments.
func lineComments(source string) []string {
	var comments []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			comments = append(comments, cleanComment(strings.Join(current, "\n"), nil, nil, hashPrefixes))
			current = nil
		}
	}
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			current = append(current, trimmed)
			continue
		}
		flush()
	}
	flush()
	return comments
}
