package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces outbound requests with a token bucket so that concurrent
// drains do not exceed the provider's request quota.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing rps requests per second with the given
// burst. A non-positive rps disables pacing.
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent or the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent right now without waiting.
func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}
