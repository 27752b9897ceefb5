package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// detectPython reads pyproject.toml. Python projects have no modules.
func detectPython(dir string) (*Layout, error) {
	path := filepath.Join(dir, "pyproject.toml")
	data, err := readIfExists(path)
	if err != nil || data == nil {
		return nil, err
	}

	var p pyproject
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	name := p.Project.Name
	if name == "" {
		name = p.Tool.Poetry.Name
	}

	sources := []string{"src"}
	if name != "" {
		sources = append(sources, strings.ReplaceAll(strings.ToLower(name), "-", "_"))
	}

	return &Layout{
		Dir:        dir,
		ID:         name,
		Name:       name,
		Type:       TypePython,
		SourceDirs: sources,
		TestDirs:   []string{"tests"},
		DocDirs:    []string{"docs"},
	}, nil
}
