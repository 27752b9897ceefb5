package project

import (
	"fmt"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// detectGo recognizes go.work workspaces (modules are the "use" entries)
// and single go.mod modules.
func detectGo(dir string) (*Layout, error) {
	workPath := filepath.Join(dir, "go.work")
	workData, err := readIfExists(workPath)
	if err != nil {
		return nil, err
	}
	modPath := filepath.Join(dir, "go.mod")
	modData, err := readIfExists(modPath)
	if err != nil {
		return nil, err
	}
	if workData == nil && modData == nil {
		return nil, nil
	}

	layout := &Layout{
		Dir:        dir,
		ID:         filepath.Base(dir),
		Type:       TypeGo,
		SourceDirs: []string{"."},
		TestDirs:   []string{"."},
		DocDirs:    []string{"docs"},
	}

	if modData != nil {
		if modulePath := modfile.ModulePath(modData); modulePath != "" {
			layout.ID = modulePath
			layout.Name = path.Base(modulePath)
		}
	}

	if workData != nil {
		workFile, err := modfile.ParseWork(workPath, workData, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", workPath, err)
		}
		var uses []string
		for _, use := range workFile.Use {
			uses = append(uses, use.Path)
		}
		layout.ModuleDirs, err = normalizeModules(dir, uses)
		if err != nil {
			return nil, err
		}
	}

	return layout, nil
}
