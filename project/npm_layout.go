package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type packageJSON struct {
	Name       string          `json:"name"`
	Workspaces json.RawMessage `json:"workspaces"`
}

// detectNpm reads package.json; modules are the workspace directories
// that carry their own package.json. Workspace entries may be globs.
func detectNpm(dir string) (*Layout, error) {
	pkgPath := filepath.Join(dir, "package.json")
	data, err := readIfExists(pkgPath)
	if err != nil || data == nil {
		return nil, err
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pkgPath, err)
	}

	patterns, err := workspacePatterns(pkg.Workspaces)
	if err != nil {
		return nil, fmt.Errorf("invalid workspaces in %s: %w", pkgPath, err)
	}

	var workspaces []string
	fsys := os.DirFS(dir)
	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid workspace pattern %q in %s: %w", pattern, pkgPath, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, err := os.Stat(filepath.Join(dir, m, "package.json")); err == nil {
				workspaces = append(workspaces, m)
			}
		}
	}

	modules, err := normalizeModules(dir, workspaces)
	if err != nil {
		return nil, err
	}

	return &Layout{
		Dir:        dir,
		ID:         pkg.Name,
		Name:       pkg.Name,
		Type:       TypeNpm,
		ModuleDirs: modules,
		SourceDirs: []string{"src", "lib"},
		TestDirs:   []string{"test", "tests", "__tests__"},
		DocDirs:    []string{"docs"},
	}, nil
}

// workspacePatterns accepts both the array form and the
// {"packages": [...]} object form of "workspaces".
func workspacePatterns(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj.Packages, nil
}
