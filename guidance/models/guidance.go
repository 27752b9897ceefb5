package models

import "fmt"

// Guidance is the instruction text found for one file or directory.
type Guidance struct {
	// File is the absolute path of the file or directory the guidance applies to.
	File string
	// RelativePath is File relative to the project root, with forward slashes.
	RelativePath string
	// Text is the extracted guidance without comment delimiters or marker.
	Text string
	// Template formats the final prompt: %[1]s is RelativePath, %[2]s is Text.
	// When empty, Text is used as the prompt as-is.
	Template string
}

// Prompt returns the text sent to the AI provider for this guidance.
func (g *Guidance) Prompt() string {
	if g.Template == "" {
		return g.Text
	}
	return fmt.Sprintf(g.Template, g.RelativePath, g.Text)
}
