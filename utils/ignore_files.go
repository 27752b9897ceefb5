package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// WorkDirName is the hidden directory guidescan keeps its own data in
// (diagnostic input logs, extraction cache). It is always excluded from scans.
const WorkDirName = ".guidescan"

// excludedDirs are directory names that are never scanned: version control,
// dependency caches, build output and tool-private directories.
var excludedDirs = map[string]struct{}{
	".git":             {},
	".svn":             {},
	".hg":              {},
	".bzr":             {},
	"node_modules":     {},
	"bower_components": {},
	"vendor":           {},
	".venv":            {},
	"venv":             {},
	"__pycache__":      {},
	".tox":             {},
	".gradle":          {},
	".m2":              {},
	"target":           {},
	"build":            {},
	"dist":             {},
	"out":              {},
	"bin":              {},
	"obj":              {},
	".idea":            {},
	".vscode":          {},
	".settings":        {},
	".cache":           {},
	".next":            {},
	WorkDirName:        {},
}

// ignoreCacheEntry holds a compiled ignore file with its modification time.
type ignoreCacheEntry struct {
	matcher *ignore.GitIgnore
	modTime time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// IsDefaultIgnored reports whether any segment of path is one of the fixed
// excluded directory names. Both '/' and the OS separator are accepted.
func IsDefaultIgnored(path string) bool {
	path = filepath.ToSlash(path)
	for _, part := range strings.Split(path, "/") {
		if _, ok := excludedDirs[part]; ok {
			return true
		}
	}
	return false
}

// IsExcludedName reports whether a single directory name is excluded.
func IsExcludedName(name string) bool {
	_, ok := excludedDirs[name]
	return ok
}

// LoadIgnoreFile compiles the gitignore-style file at path. A missing file
// yields a nil matcher and no error. Compiled files are cached until their
// modification time changes.
func LoadIgnoreFile(path string) (*ignore.GitIgnore, error) {
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", path, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[path]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.matcher, nil
	}
	cacheMutex.RUnlock()

	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cacheMutex.Lock()
	ignoreCache[path] = &ignoreCacheEntry{matcher: matcher, modTime: fileInfo.ModTime()}
	cacheMutex.Unlock()

	return matcher, nil
}

// CompileExcludes turns user supplied exclude entries into a matcher using
// gitignore semantics. Empty entries are dropped; nil is returned when
// nothing remains.
func CompileExcludes(excludes []string) *ignore.GitIgnore {
	var lines []string
	for _, e := range excludes {
		e = strings.TrimSpace(e)
		if e != "" {
			lines = append(lines, e)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
