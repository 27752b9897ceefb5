package project

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/project/contracts"
)

// Layout types reported by LayoutType.
const (
	TypeGo        = "go"
	TypeMaven     = "maven"
	TypeNpm       = "npm"
	TypePython    = "python"
	TypeDirectory = "directory"
)

// Layout is the value type behind every detected project layout.
type Layout struct {
	Dir        string
	ID         string
	Name       string
	Type       string
	ModuleDirs []string
	SourceDirs []string
	TestDirs   []string
	DocDirs    []string
}

var _ contracts.IProjectLayout = (*Layout)(nil)

func (l *Layout) ProjectDir() string  { return l.Dir }
func (l *Layout) Modules() []string   { return l.ModuleDirs }
func (l *Layout) Sources() []string   { return l.SourceDirs }
func (l *Layout) Tests() []string     { return l.TestDirs }
func (l *Layout) Documents() []string { return l.DocDirs }
func (l *Layout) ProjectID() string   { return l.ID }
func (l *Layout) ProjectName() string { return l.Name }
func (l *Layout) LayoutType() string  { return l.Type }

// normalizeModules cleans module paths reported by a build descriptor,
// drops empty and self-referencing entries and rejects paths that leave
// the project directory.
func normalizeModules(dir string, modules []string) ([]string, error) {
	seen := make(map[string]struct{}, len(modules))
	var result []string
	for _, m := range modules {
		m = strings.TrimSpace(filepath.ToSlash(m))
		if m == "" {
			continue
		}
		m = path.Clean(m)
		if m == "." {
			continue
		}
		if path.IsAbs(m) || m == ".." || strings.HasPrefix(m, "../") {
			return nil, fmt.Errorf("module %q of %s is outside the project directory", m, dir)
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	return result, nil
}
