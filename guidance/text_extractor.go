package guidance

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/guidance/models"
)

// DirectoryGuidanceExtractor handles ReservedFileName: the whole file is
// guidance, and it applies to the directory that contains the file.
type DirectoryGuidanceExtractor struct{}

// NewDirectoryGuidanceExtractor creates the reserved-file extractor.
func NewDirectoryGuidanceExtractor() *DirectoryGuidanceExtractor {
	return &DirectoryGuidanceExtractor{}
}

func (e *DirectoryGuidanceExtractor) Name() string { return "directory" }

// Extensions is empty: the extractor is selected by file name, not extension.
func (e *DirectoryGuidanceExtractor) Extensions() []string { return nil }

// Matches reports whether file is the reserved guidance file.
func (e *DirectoryGuidanceExtractor) Matches(file string) bool {
	return strings.EqualFold(filepath.Base(file), ReservedFileName)
}

// Extract returns the file content as guidance for its parent directory.
func (e *DirectoryGuidanceExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	source, err := readSource(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s, error: %w", file, err)
	}
	return newGuidance(projectRoot, filepath.Dir(file), strings.TrimSpace(string(source)), directoryTemplate), nil
}
