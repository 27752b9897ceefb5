package guidance

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/meysamhadeli/guidescan/guidance/contracts"
	"github.com/meysamhadeli/guidescan/guidance/models"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// packageDescriptors are the files whose guidance applies to the whole
// package: Java's package-info.java and Go's doc.go.
var packageDescriptors = map[string]struct{}{
	"package-info.java": {},
	"doc.go":            {},
}

// commentQueries lists the comment queries tried for a grammar, in order.
// Grammar revisions disagree on whether comments are a single "comment"
// node or split into line and block comments.
var commentQueries = []string{
	`[(line_comment) (block_comment)] @comment`,
	`(comment) @comment`,
}

var (
	cStyleOpeners  = []string{"/**", "/*"}
	cStyleClosers  = []string{"*/"}
	cStylePrefixes = []string{"///", "//", "*"}
	hashPrefixes   = []string{"#"}
)

// TreeSitterExtractor finds guidance in the comments of a source file parsed
// with tree-sitter.
type TreeSitterExtractor struct {
	name       string
	extensions []string
	language   *sitter.Language
	query      string
	prefixes   []string
}

var _ contracts.IGuidanceExtractor = (*TreeSitterExtractor)(nil)

// NewTreeSitterExtractor creates an extractor for language. It fails when
// none of the comment queries compiles against the grammar.
func NewTreeSitterExtractor(name string, language *sitter.Language, prefixes []string, extensions ...string) (*TreeSitterExtractor, error) {
	var lastErr error
	for _, q := range commentQueries {
		query, err := sitter.NewQuery([]byte(q), language)
		if err != nil {
			lastErr = err
			continue
		}
		query.Close()
		return &TreeSitterExtractor{
			name:       name,
			extensions: extensions,
			language:   language,
			query:      q,
			prefixes:   prefixes,
		}, nil
	}
	return nil, fmt.Errorf("no comment query compiles for %s: %w", name, lastErr)
}

func (e *TreeSitterExtractor) Name() string { return e.name }

func (e *TreeSitterExtractor) Extensions() []string { return e.extensions }

// Extract parses file and returns the guidance of every marked comment.
func (e *TreeSitterExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}

	comments, err := e.comments(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	template := fileTemplate
	if _, ok := packageDescriptors[filepath.Base(file)]; ok {
		template = packageTemplate
	}

	return newGuidance(projectRoot, file, collectGuidance(comments), template), nil
}

// comments returns the cleaned text of every comment node in source.
// Parser, query and cursor are created per call: none of them may be shared
// between goroutines.
func (e *TreeSitterExtractor) comments(source []byte) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(e.query), e.language)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var comments []string
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			raw := capture.Node.Content(source)
			comments = append(comments, cleanComment(raw, cStyleOpeners, cStyleClosers, e.prefixes))
		}
	}
	return comments, nil
}

// newSourceExtractors builds the tree-sitter extractors for every supported
// programming language.
func newSourceExtractors() ([]contracts.IGuidanceExtractor, error) {
	specs := []struct {
		name       string
		language   *sitter.Language
		prefixes   []string
		extensions []string
	}{
		{"java", java.GetLanguage(), cStylePrefixes, []string{"java"}},
		{"go", golang.GetLanguage(), cStylePrefixes, []string{"go"}},
		{"python", python.GetLanguage(), hashPrefixes, []string{"py"}},
		{"javascript", javascript.GetLanguage(), cStylePrefixes, []string{"js", "jsx", "mjs", "cjs"}},
		{"typescript", typescript.GetLanguage(), cStylePrefixes, []string{"ts", "mts", "cts"}},
		{"tsx", tsx.GetLanguage(), cStylePrefixes, []string{"tsx"}},
		{"csharp", csharp.GetLanguage(), cStylePrefixes, []string{"cs"}},
	}

	extractors := make([]contracts.IGuidanceExtractor, 0, len(specs))
	for _, s := range specs {
		e, err := NewTreeSitterExtractor(s.name, s.language, s.prefixes, s.extensions...)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, e)
	}
	return extractors, nil
}
