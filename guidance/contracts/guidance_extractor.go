package contracts

import "github.com/meysamhadeli/guidescan/guidance/models"

// IGuidanceExtractor finds guidance in files of the extensions it declares.
// Extract returns nil when the file carries no guidance. Implementations
// must be safe for concurrent use.
type IGuidanceExtractor interface {
	Name() string
	Extensions() []string
	Extract(projectRoot string, file string) (*models.Guidance, error)
}
