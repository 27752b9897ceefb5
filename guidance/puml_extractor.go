package guidance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/meysamhadeli/guidescan/guidance/models"
)

var pumlBlockCommentRegex = regexp.MustCompile(`(?s)/'(.*?)'/`)

// PlantUMLExtractor finds guidance in PlantUML comments: single-quote line
// comments and /' ... '/ block comments.
type PlantUMLExtractor struct{}

// NewPlantUMLExtractor creates a PlantUML extractor.
func NewPlantUMLExtractor() *PlantUMLExtractor {
	return &PlantUMLExtractor{}
}

func (e *PlantUMLExtractor) Name() string { return "plantuml" }

func (e *PlantUMLExtractor) Extensions() []string { return []string{"puml", "plantuml", "iuml", "pu"} }

// Extract returns the guidance of every marked comment in file.
func (e *PlantUMLExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}

	content := string(source)
	var comments []string
	for _, m := range pumlBlockCommentRegex.FindAllStringSubmatch(content, -1) {
		comments = append(comments, cleanComment(m[1], nil, nil, []string{"'"}))
	}

	// Line comments, with block comments removed first so that their inner
	// lines are not counted twice.
	var current []string
	flush := func() {
		if len(current) > 0 {
			comments = append(comments, cleanComment(strings.Join(current, "\n"), nil, nil, []string{"'"}))
			current = nil
		}
	}
	for _, line := range strings.Split(pumlBlockCommentRegex.ReplaceAllString(content, ""), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "'") {
			current = append(current, trimmed)
			continue
		}
		flush()
	}
	flush()

	return newGuidance(projectRoot, file, collectGuidance(comments), fileTemplate), nil
}
