package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Completer with a token bucket shared by every caller.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited returns next unchanged when rps <= 0.
func NewRateLimited(next Completer, rps float64, burst int) Completer {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Complete(ctx, req)
}
