package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/meysamhadeli/guidescan/utils"
	ignore "github.com/sabhiram/go-gitignore"
)

const (
	globPrefix  = "glob:"
	regexPrefix = "regex:"
)

// IsPattern reports whether s is an include pattern rather than a plain path.
func IsPattern(s string) bool {
	return strings.HasPrefix(s, globPrefix) || strings.HasPrefix(s, regexPrefix)
}

// Pattern is a compiled include pattern, matched against forward-slash
// relative paths.
type Pattern struct {
	raw  string
	glob string
	re   *regexp.Regexp
}

// ParsePattern compiles a "glob:" or "regex:" pattern. Regular expressions
// must match the whole relative path.
func ParsePattern(s string) (*Pattern, error) {
	switch {
	case strings.HasPrefix(s, globPrefix):
		glob := strings.TrimPrefix(s, globPrefix)
		if glob == "" || !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("invalid glob pattern: %q", glob)
		}
		return &Pattern{raw: s, glob: glob}, nil
	case strings.HasPrefix(s, regexPrefix):
		expr := strings.TrimPrefix(s, regexPrefix)
		if expr == "" {
			return nil, fmt.Errorf("empty regex pattern")
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", expr, err)
		}
		return &Pattern{raw: s, re: re}, nil
	default:
		return nil, fmt.Errorf("pattern %q must start with %q or %q", s, globPrefix, regexPrefix)
	}
}

// Match reports whether rel, a relative path, matches the pattern.
func (p *Pattern) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if p.re != nil {
		return p.re.MatchString(rel)
	}
	ok, err := doublestar.Match(p.glob, rel)
	return err == nil && ok
}

func (p *Pattern) String() string { return p.raw }

// FilterConfig configures a PathFilter.
type FilterConfig struct {
	// Root is the directory the scan started from. Excludes and the ignore
	// file are matched against paths relative to it.
	Root string
	// ScanRoot restricts the scan to one directory below Root. Empty means
	// no restriction.
	ScanRoot string
	// Pattern is an optional "glob:" or "regex:" include pattern.
	Pattern string
	// Excludes are gitignore-style entries that are never visited.
	Excludes []string
	// IgnoreFile is a gitignore-style file; a missing file is ignored.
	IgnoreFile string
	// DefaultGuidance is set when a default guidance text is configured.
	DefaultGuidance bool
}

// PathFilter decides which files and directories the walker visits. Its
// decisions depend only on path strings and configuration.
type PathFilter struct {
	root            string
	scanRoot        string
	pattern         *Pattern
	excludes        *ignore.GitIgnore
	ignoreFile      *ignore.GitIgnore
	defaultGuidance bool
}

// NewPathFilter compiles cfg.
func NewPathFilter(cfg FilterConfig) (*PathFilter, error) {
	f := &PathFilter{
		excludes:        utils.CompileExcludes(cfg.Excludes),
		defaultGuidance: cfg.DefaultGuidance,
	}

	var err error
	if cfg.Root != "" {
		if f.root, err = filepath.Abs(cfg.Root); err != nil {
			return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
		}
	}
	if cfg.ScanRoot != "" {
		if f.scanRoot, err = filepath.Abs(cfg.ScanRoot); err != nil {
			return nil, fmt.Errorf("failed to resolve scan root %s: %w", cfg.ScanRoot, err)
		}
	}
	if cfg.Pattern != "" {
		if f.pattern, err = ParsePattern(cfg.Pattern); err != nil {
			return nil, err
		}
	}
	if cfg.IgnoreFile != "" {
		if f.ignoreFile, err = utils.LoadIgnoreFile(cfg.IgnoreFile); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ScanRoot returns the absolute scan root, or "" when none is set.
func (f *PathFilter) ScanRoot() string { return f.scanRoot }

// Pattern returns the include pattern, or nil.
func (f *PathFilter) Pattern() *Pattern { return f.pattern }

// Accept reports whether candidate, a file or directory below projectRoot,
// should be processed.
func (f *PathFilter) Accept(candidate string, projectRoot string) bool {
	candidate = filepath.Clean(candidate)
	projectRoot = filepath.Clean(projectRoot)

	relProject, ok := relative(projectRoot, candidate)
	if !ok {
		return false
	}
	if utils.IsDefaultIgnored(relProject) || f.excluded(candidate, relProject) {
		return false
	}

	if !f.inScan(candidate) {
		return false
	}
	if f.pattern == nil {
		if f.defaultGuidance {
			// Default guidance fires once per project, for its root.
			return candidate == projectRoot
		}
		return true
	}

	if f.pattern.Match(relProject) {
		return true
	}
	if f.scanRoot == "" {
		return false
	}
	if relScan, err := filepath.Rel(f.scanRoot, candidate); err == nil && f.pattern.Match(relScan) {
		return true
	}
	// Retry once with the candidate re-rooted under the scan root.
	rerooted, err := filepath.Rel(projectRoot, filepath.Join(f.scanRoot, relProject))
	return err == nil && f.pattern.Match(rerooted)
}

// InBoundary reports whether the walker may descend into dir: it lies under
// the scan root, or it is one of the scan root's ancestors.
func (f *PathFilter) InBoundary(dir string) bool {
	if f.scanRoot == "" {
		return true
	}
	dir = filepath.Clean(dir)
	return Within(dir, f.scanRoot) || Within(f.scanRoot, dir)
}

func (f *PathFilter) inScan(path string) bool {
	return f.scanRoot == "" || Within(path, f.scanRoot)
}

// excluded applies the user excludes and the ignore file.
func (f *PathFilter) excluded(candidate string, relProject string) bool {
	if f.excludes == nil && f.ignoreFile == nil {
		return false
	}
	rel := relProject
	if f.root != "" {
		if r, ok := relative(f.root, candidate); ok {
			rel = r
		}
	}
	if rel == "." {
		return false
	}
	if f.excludes != nil && f.excludes.MatchesPath(rel) {
		return true
	}
	return f.ignoreFile != nil && f.ignoreFile.MatchesPath(rel)
}

// Within reports whether path is root or lies below it.
func Within(path string, root string) bool {
	_, ok := relative(root, path)
	return ok
}

// relative returns path relative to root with forward slashes. ok is false
// when path is outside root.
func relative(root string, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
