package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilter(t *testing.T, cfg FilterConfig) *PathFilter {
	t.Helper()
	f, err := NewPathFilter(cfg)
	require.NoError(t, err)
	return f
}

func TestPathFilter_ExcludedDirectoriesAlwaysRejected(t *testing.T) {
	root := t.TempDir()
	candidates := []string{
		filepath.Join(root, "node_modules", "lib", "A.java"),
		filepath.Join(root, ".git", "config"),
		filepath.Join(root, "moduleA", "target", "Gen.java"),
		filepath.Join(root, ".guidescan", "inputs", "a.txt"),
	}

	filters := map[string]*PathFilter{
		"no pattern": newFilter(t, FilterConfig{}),
		"glob":       newFilter(t, FilterConfig{Pattern: "glob:**"}),
		"regex":      newFilter(t, FilterConfig{Pattern: "regex:.*"}),
		"default":    newFilter(t, FilterConfig{DefaultGuidance: true}),
	}

	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			for _, c := range candidates {
				assert.False(t, f.Accept(c, root), c)
			}
		})
	}
}

func TestPathFilter_RejectsOutsideProjectRoot(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{})

	assert.False(t, f.Accept(filepath.Join(filepath.Dir(root), "other.md"), root))
	assert.True(t, f.Accept(filepath.Join(root, "notes.md"), root))
}

func TestPathFilter_NoPattern(t *testing.T) {
	root := t.TempDir()
	scanRoot := filepath.Join(root, "moduleA")

	f := newFilter(t, FilterConfig{})
	assert.True(t, f.Accept(filepath.Join(root, "a", "b.md"), root))
	assert.True(t, f.Accept(root, root))

	scoped := newFilter(t, FilterConfig{ScanRoot: scanRoot})
	assert.True(t, scoped.Accept(filepath.Join(scanRoot, "x.md"), root))
	assert.False(t, scoped.Accept(filepath.Join(root, "notes.md"), root))
}

func TestPathFilter_DefaultGuidanceOnlyAcceptsProjectRoot(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{DefaultGuidance: true})

	assert.True(t, f.Accept(root, root))
	assert.False(t, f.Accept(filepath.Join(root, "notes.md"), root))
	assert.False(t, f.Accept(filepath.Join(root, "sub"), root))
}

func TestPathFilter_GlobPattern(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{Pattern: "glob:**/*.java"})

	assert.True(t, f.Accept(filepath.Join(root, "moduleA", "Foo.java"), root))
	assert.True(t, f.Accept(filepath.Join(root, "Foo.java"), root))
	assert.False(t, f.Accept(filepath.Join(root, "moduleA", "notes.md"), root))
	assert.False(t, f.Accept(root, root))
}

func TestPathFilter_RegexPatternIsAnchored(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{Pattern: `regex:src/.*\.go`})

	assert.True(t, f.Accept(filepath.Join(root, "src", "a", "main.go"), root))
	assert.False(t, f.Accept(filepath.Join(root, "lib", "src", "main.go"), root))
	assert.False(t, f.Accept(filepath.Join(root, "src", "main.gox"), root))
}

func TestPathFilter_PatternRelativeToScanRoot(t *testing.T) {
	root := t.TempDir()
	scanRoot := filepath.Join(root, "moduleA")
	f := newFilter(t, FilterConfig{ScanRoot: scanRoot, Pattern: "glob:src/*.java"})

	assert.True(t, f.Accept(filepath.Join(scanRoot, "src", "A.java"), root))
	assert.False(t, f.Accept(filepath.Join(root, "src", "A.java"), root))
	assert.False(t, f.Accept(filepath.Join(scanRoot, "test", "A.java"), root))
}

func TestPathFilter_PatternRetriesUnderScanRoot(t *testing.T) {
	root := t.TempDir()
	projectRoot := filepath.Join(root, "m")
	scanRoot := filepath.Join(projectRoot, "x")
	f := newFilter(t, FilterConfig{ScanRoot: scanRoot, Pattern: "glob:x/x/*.java"})

	assert.True(t, f.Accept(filepath.Join(scanRoot, "A.java"), projectRoot))
}

func TestPathFilter_ExcludesAndIgnoreFile(t *testing.T) {
	root := t.TempDir()
	ignoreFile := filepath.Join(root, ".guidescanignore")
	require.NoError(t, os.WriteFile(ignoreFile, []byte("# comment\n*.log\n"), 0644))

	f := newFilter(t, FilterConfig{
		Root:       root,
		Excludes:   []string{"*.tmp", "generated", " "},
		IgnoreFile: ignoreFile,
	})

	module := filepath.Join(root, "moduleA")
	assert.False(t, f.Accept(filepath.Join(module, "a.tmp"), module))
	assert.False(t, f.Accept(filepath.Join(module, "generated", "A.java"), module))
	assert.False(t, f.Accept(filepath.Join(root, "build.log"), root))
	assert.True(t, f.Accept(filepath.Join(module, "A.java"), module))
	assert.True(t, f.Accept(root, root))
}

func TestPathFilter_MissingIgnoreFile(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{Root: root, IgnoreFile: filepath.Join(root, ".guidescanignore")})
	assert.True(t, f.Accept(filepath.Join(root, "a.log"), root))
}

func TestPathFilter_PatternOutsideScanRoot(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{ScanRoot: filepath.Join(root, "a"), Pattern: "glob:**/*.md"})

	assert.True(t, f.Accept(filepath.Join(root, "a", "notes.md"), root))
	assert.False(t, f.Accept(filepath.Join(root, "b", "notes.md"), root))
}

func TestPathFilter_IsDeterministic(t *testing.T) {
	root := t.TempDir()
	f := newFilter(t, FilterConfig{ScanRoot: filepath.Join(root, "a"), Pattern: "glob:**/*.md"})
	candidate := filepath.Join(root, "a", "b", "c.md")

	first := f.Accept(candidate, root)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.Accept(candidate, root))
	}
}

func TestPathFilter_InBoundary(t *testing.T) {
	root := t.TempDir()
	scanRoot := filepath.Join(root, "a", "c")
	f := newFilter(t, FilterConfig{ScanRoot: scanRoot})

	assert.True(t, f.InBoundary(root))
	assert.True(t, f.InBoundary(filepath.Join(root, "a")))
	assert.True(t, f.InBoundary(scanRoot))
	assert.True(t, f.InBoundary(filepath.Join(scanRoot, "d")))
	assert.False(t, f.InBoundary(filepath.Join(root, "b")))
	assert.False(t, f.InBoundary(filepath.Join(root, "a", "cc")))

	assert.True(t, newFilter(t, FilterConfig{}).InBoundary(filepath.Join(root, "b")))
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"glob", "glob:**/*.java", false},
		{"regex", `regex:.*\.md`, false},
		{"empty glob", "glob:", true},
		{"bad glob", "glob:[", true},
		{"bad regex", "regex:(", true},
		{"no prefix", "**/*.java", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, p.String())
		})
	}
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern("glob:*.md"))
	assert.True(t, IsPattern("regex:.*"))
	assert.False(t, IsPattern("src/main"))
}
