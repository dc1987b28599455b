package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedProvider paces calls to the wrapped provider.
type RateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// WithRateLimit allows at most requestsPerMinute calls per minute with a
// burst of one.
func WithRateLimit(next Provider, requestsPerMinute int) *RateLimitedProvider {
	every := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

func (p *RateLimitedProvider) GetModel() string {
	return p.next.GetModel()
}

func (p *RateLimitedProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return p.next.Generate(ctx, req)
}
