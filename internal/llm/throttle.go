package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type throttled struct {
	base    Client
	limiter *rate.Limiter
}

// Throttled enforces a minimum interval between completion calls to stay
// inside the provider's per-minute quota. When the interval has not
// elapsed it fails fast with a RateLimitedError instead of blocking;
// backing off is the caller's job.
func Throttled(base Client, minInterval time.Duration) Client {
	if minInterval <= 0 {
		return base
	}
	return &throttled{
		base:    base,
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (t *throttled) Complete(ctx context.Context, req Request) (string, error) {
	res := t.limiter.Reserve()
	if !res.OK() {
		return "", &RateLimitedError{RetryAfter: time.Second}
	}
	if delay := res.Delay(); delay > 0 {
		res.Cancel()
		return "", &RateLimitedError{RetryAfter: delay}
	}
	return t.base.Complete(ctx, req)
}
