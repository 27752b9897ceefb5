package guidance

import (
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	name       string
	extensions []string
	text       string
}

func (s *stubExtractor) Name() string         { return s.name }
func (s *stubExtractor) Extensions() []string { return s.extensions }
func (s *stubExtractor) Extract(projectRoot string, file string) (*models.Guidance, error) {
	return newGuidance(projectRoot, file, s.text, ""), nil
}

func TestRegistry_FirstRegisteredWins(t *testing.T) {
	r := NewRegistry()
	first := &stubExtractor{name: "first", extensions: []string{".TXT", "log"}}
	second := &stubExtractor{name: "second", extensions: []string{"txt", "cfg"}}

	assert.Equal(t, []string{"txt", "log"}, r.Register(first))
	assert.Equal(t, []string{"cfg"}, r.Register(second))

	assert.Same(t, first, r.ExtractorFor("txt"))
	assert.Same(t, first, r.ExtractorFor(".Txt"))
	assert.Same(t, second, r.ExtractorFor("cfg"))
	assert.Nil(t, r.ExtractorFor("java"))
	assert.Equal(t, []string{"cfg", "log", "txt"}, r.Extensions())
}

func TestRegistry_DuplicateOnlyExtractorIsNotListed(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "a", extensions: []string{"x"}})
	assert.Empty(t, r.Register(&stubExtractor{name: "b", extensions: []string{"x"}}))
	require.Len(t, r.Extractors(), 1)
	assert.Equal(t, "a", r.Extractors()[0].Name())
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, "java", NormalizeExtension(".JAVA"))
	assert.Equal(t, "md", NormalizeExtension("md"))
	assert.Equal(t, "", NormalizeExtension(""))
}

func TestRegistry_LookupPrefersReservedFile(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "text", extensions: []string{"txt"}})

	assert.Equal(t, "directory", r.Lookup(filepath.Join("a", ReservedFileName)).Name())
	assert.Equal(t, "text", r.Lookup(filepath.Join("a", "notes.txt")).Name())
	assert.Nil(t, r.Lookup(filepath.Join("a", "Makefile")))
}

func TestRegistry_ExtractWithoutExtractor(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "data.bin"), "@guidance: ignored")

	g, err := NewRegistry().Extract(root, file)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	for _, ext := range []string{"java", "go", "py", "js", "ts", "tsx", "cs", "md", "html", "xml", "yaml", "puml"} {
		assert.NotNil(t, r.ExtractorFor(ext), ext)
	}

	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "notes.md"), "<!-- @guidance: Fix typo -->\n")
	g, err := r.Extract(root, file)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Fix typo", g.Text)
}

func TestRegistry_ExtractUsesCache(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, filepath.Join(root, "notes.md"), "<!-- @guidance: Fix typo -->\n")

	cache, err := NewCacheManager(filepath.Join(root, ".guidescan", "cache"))
	require.NoError(t, err)

	r := NewRegistry()
	r.Register(NewMarkdownExtractor())
	r.SetCache(cache)

	first, err := r.Extract(root, file)
	require.NoError(t, err)
	second, err := r.Extract(root, file)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stats := cache.GetPerformanceStats()
	assert.Equal(t, int64(1), stats["cache_hits"])
	assert.Equal(t, int64(1), stats["cache_misses"])
}
