package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/guidescan/project/contracts"
)

// detector inspects dir and returns a layout, or nil when dir is not a
// project of its kind.
type detector func(dir string) (*Layout, error)

// detectors are tried in order; the first match wins.
var detectors = []detector{
	detectGo,
	detectMaven,
	detectNpm,
	detectPython,
}

// Detect resolves the layout of dir. Directories that match no build system
// get a plain "directory" layout without modules.
func Detect(dir string) (contracts.IProjectLayout, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	for _, detect := range detectors {
		layout, err := detect(abs)
		if err != nil {
			return nil, err
		}
		if layout != nil {
			return layout, nil
		}
	}

	return &Layout{
		Dir:        abs,
		ID:         filepath.Base(abs),
		Type:       TypeDirectory,
		SourceDirs: []string{"."},
		DocDirs:    []string{"docs"},
	}, nil
}

// readIfExists returns the file content, or nil without error when the file
// does not exist.
func readIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
