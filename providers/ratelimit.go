package providers

import (
	"context"
	"fmt"

	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/models"
	"golang.org/x/time/rate"
)

// rateLimitedBackend shares one limiter between every conversation that
// uses the wrapped backend.
type rateLimitedBackend struct {
	contracts.IChatBackend
	limiter *rate.Limiter
}

// WithRateLimit wraps backend so that it sends at most requestsPerSecond
// requests. A non-positive rate returns backend unchanged.
func WithRateLimit(backend contracts.IChatBackend, requestsPerSecond float64) contracts.IChatBackend {
	if requestsPerSecond <= 0 {
		return backend
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedBackend{
		IChatBackend: backend,
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (b *rateLimitedBackend) Send(ctx context.Context, request *models.Request) (*models.Response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return b.IChatBackend.Send(ctx, request)
}
