package guidance

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/embed_data"
	"github.com/meysamhadeli/guidescan/guidance/models"
)

// Marker is the tag that introduces guidance inside a comment.
const Marker = "@guidance:"

// ReservedFileName is the file whose whole content is guidance for the
// directory containing it, whatever the project type.
const ReservedFileName = "@guidance.txt"

var (
	fileTemplate      = string(embed_data.FileGuidancePrompt)
	packageTemplate   = string(embed_data.PackageGuidancePrompt)
	directoryTemplate = string(embed_data.DirectoryGuidancePrompt)
	defaultTemplate   = string(embed_data.DefaultGuidancePrompt)
)

// textAfterMarker returns the text following Marker in a comment body whose
// delimiters were already removed, or "" when the marker is absent.
func textAfterMarker(comment string) string {
	idx := strings.Index(comment, Marker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(comment[idx+len(Marker):])
}

// collectGuidance joins the guidance of every comment that carries the marker.
func collectGuidance(comments []string) string {
	var parts []string
	for _, c := range comments {
		if text := textAfterMarker(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// cleanComment strips block delimiters and per-line prefixes from a raw
// comment. openers/closers are the block delimiters removed once at the
// ends, linePrefixes are removed from the start of every line.
func cleanComment(raw string, openers []string, closers []string, linePrefixes []string) string {
	raw = strings.TrimSpace(raw)
	for _, o := range openers {
		if strings.HasPrefix(raw, o) {
			raw = raw[len(o):]
			break
		}
	}
	for _, c := range closers {
		if strings.HasSuffix(raw, c) {
			raw = raw[:len(raw)-len(c)]
			break
		}
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		for _, p := range linePrefixes {
			if strings.HasPrefix(line, p) {
				line = strings.TrimSpace(line[len(p):])
				break
			}
		}
		lines[i] = line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// newGuidance builds a Guidance for file, or nil when text is empty.
func newGuidance(projectRoot string, file string, text string, template string) *models.Guidance {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &models.Guidance{
		File:         file,
		RelativePath: RelativePath(projectRoot, file),
		Text:         text,
		Template:     template,
	}
}

// RelativePath returns file relative to projectRoot with forward slashes,
// falling back to the cleaned absolute path when it cannot be relativized.
func RelativePath(projectRoot string, file string) string {
	rel, err := filepath.Rel(projectRoot, file)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(file))
	}
	return filepath.ToSlash(rel)
}

// DefaultGuidance builds the guidance used when a location has none of its
// own but a default was configured. For the project root itself the
// relative path is the root's absolute path, so the prompt names it.
func DefaultGuidance(projectRoot string, path string, text string) *models.Guidance {
	rel := RelativePath(projectRoot, path)
	if rel == "." {
		rel = filepath.ToSlash(filepath.Clean(path))
	}
	return &models.Guidance{
		File:         path,
		RelativePath: rel,
		Text:         text,
		Template:     defaultTemplate,
	}
}

func readSource(file string) ([]byte, error) {
	return os.ReadFile(file)
}
