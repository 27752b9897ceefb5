package composer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/utils"
	"github.com/pterm/pterm"
)

const (
	inputsDirName = "inputs"
	inputSuffix   = ".txt"
	// projectEntry names the log of guidance applied to the project directory itself.
	projectEntry = "_project"
)

// InputLog writes every composed request to
// <project>/.guidescan/inputs/<relative path>.txt.
type InputLog struct {
	logger *pterm.Logger
}

func NewInputLog(logger *pterm.Logger) *InputLog {
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	return &InputLog{logger: logger}
}

// Path returns the log file of target inside projectDir.
func (l *InputLog) Path(projectDir string, target string) string {
	rel, err := filepath.Rel(projectDir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		rel = projectEntry
	}
	return filepath.Join(projectDir, utils.WorkDirName, inputsDirName, rel+inputSuffix)
}

// Write stores instructions followed by inputs, separated by blank lines.
// Failures are logged and otherwise ignored.
func (l *InputLog) Write(projectDir string, target string, instructions string, inputs []string) {
	path := l.Path(projectDir, target)

	parts := make([]string, 0, len(inputs)+1)
	if instructions != "" {
		parts = append(parts, instructions)
	}
	parts = append(parts, inputs...)
	content := strings.Join(parts, "\n\n") + "\n"

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		l.logger.Warn("failed to create input log directory", l.logger.Args("file", path, "error", err))
		return
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		l.logger.Warn("failed to write input log", l.logger.Args("file", path, "error", err))
		return
	}
	l.logger.Trace("input logged", l.logger.Args("file", path))
}

// ClearInputLogs removes the input logs of root and of every project below
// it. It returns the number of log directories removed.
func ClearInputLogs(root string) (int, error) {
	removed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if d.Name() == utils.WorkDirName {
			inputs := filepath.Join(path, inputsDirName)
			if _, statErr := os.Stat(inputs); statErr == nil {
				if err := os.RemoveAll(inputs); err != nil {
					return fmt.Errorf("failed to remove %s: %w", inputs, err)
				}
				removed++
			}
			return filepath.SkipDir
		}
		if utils.IsExcludedName(d.Name()) {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return removed, err
	}
	return removed, nil
}
