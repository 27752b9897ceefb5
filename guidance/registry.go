package guidance

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meysamhadeli/guidescan/guidance/contracts"
	"github.com/meysamhadeli/guidescan/guidance/models"
)

// Registry maps normalized file extensions to guidance extractors. It is
// filled once at start-up and is read-only afterwards, so one registry can
// be shared by every worker.
type Registry struct {
	byExtension map[string]contracts.IGuidanceExtractor
	extractors  []contracts.IGuidanceExtractor
	reserved    *DirectoryGuidanceExtractor
	cache       *CacheManager
}

// NewRegistry creates a registry holding only the reserved-file extractor.
func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]contracts.IGuidanceExtractor),
		reserved:    NewDirectoryGuidanceExtractor(),
	}
}

// NewDefaultRegistry registers every built-in extractor. An error here means
// a grammar could not be loaded and the process cannot start.
func NewDefaultRegistry() (*Registry, error) {
	sources, err := newSourceExtractors()
	if err != nil {
		return nil, fmt.Errorf("failed to load source extractors: %w", err)
	}

	r := NewRegistry()
	for _, e := range sources {
		r.Register(e)
	}
	r.Register(NewMarkdownExtractor())
	r.Register(NewHTMLExtractor())
	r.Register(NewYAMLExtractor())
	r.Register(NewPlantUMLExtractor())
	return r, nil
}

// NormalizeExtension lower-cases ext and strips its leading dots.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimLeft(ext, "."))
}

// Register adds e for each of its extensions. The first extractor
// registered for an extension keeps it; the extensions e actually claimed
// are returned.
func (r *Registry) Register(e contracts.IGuidanceExtractor) []string {
	var claimed []string
	for _, ext := range e.Extensions() {
		ext = NormalizeExtension(ext)
		if ext == "" {
			continue
		}
		if _, exists := r.byExtension[ext]; exists {
			continue
		}
		r.byExtension[ext] = e
		claimed = append(claimed, ext)
	}
	if len(claimed) > 0 {
		r.extractors = append(r.extractors, e)
	}
	return claimed
}

// SetCache enables the on-disk extraction cache for Extract.
func (r *Registry) SetCache(cache *CacheManager) {
	r.cache = cache
}

// ExtractorFor returns the extractor registered for ext, or nil.
func (r *Registry) ExtractorFor(ext string) contracts.IGuidanceExtractor {
	return r.byExtension[NormalizeExtension(ext)]
}

// Lookup returns the extractor responsible for file: the reserved-file
// extractor when the name matches, otherwise the one for its extension.
func (r *Registry) Lookup(file string) contracts.IGuidanceExtractor {
	if r.reserved.Matches(file) {
		return r.reserved
	}
	return r.ExtractorFor(filepath.Ext(file))
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extractors returns the registered extractors in registration order.
func (r *Registry) Extractors() []contracts.IGuidanceExtractor {
	return append([]contracts.IGuidanceExtractor(nil), r.extractors...)
}

// Extract runs the matching extractor for file. It returns nil when no
// extractor handles the file or the file carries no guidance.
func (r *Registry) Extract(projectRoot string, file string) (*models.Guidance, error) {
	extractor := r.Lookup(file)
	if extractor == nil {
		return nil, nil
	}

	if r.cache != nil {
		if g, ok := r.cache.Get(file); ok {
			return rebase(g, projectRoot), nil
		}
	}

	g, err := extractor.Extract(projectRoot, file)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		// A failed write only costs a re-extraction on the next run.
		_ = r.cache.Set(file, g)
	}
	return g, nil
}

// rebase recomputes the relative path of a cached guidance, which may have
// been stored while scanning from another project root.
func rebase(g *models.Guidance, projectRoot string) *models.Guidance {
	if g == nil {
		return nil
	}
	out := *g
	out.RelativePath = RelativePath(projectRoot, g.File)
	return &out
}
