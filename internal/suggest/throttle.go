// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// throttled wraps a Suggester with a token-bucket limiter shared by every
// request that uses it.
type throttled struct {
	next    Suggester
	limiter *rate.Limiter
}

// Throttle limits s to rps calls per second with a burst of one. A
// non-positive rps returns s unchanged.
func Throttle(s Suggester, rps float64) Suggester {
	if rps <= 0 {
		return s
	}
	return &throttled{next: s, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (t *throttled) Name() string { return t.next.Name() }

func (t *throttled) Suggest(ctx context.Context, req Request) ([]types.Annotation, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Suggest(ctx, req)
}

// Check forwards to the wrapped suggester without consuming a token.
func (t *throttled) Check(ctx context.Context) error {
	if c, ok := t.next.(Checker); ok {
		return c.Check(ctx)
	}
	return nil
}
