package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
)

// Guard wraps a Completer with a per-run request budget and optional pacing.
// An exhausted budget is a permanent error, so callers fall back instead of
// retrying.
type Guard struct {
	next    llm.Completer
	limiter *rate.Limiter

	mu       sync.Mutex
	used     int
	max      int
	rejected int
}

// NewGuard builds a Guard. maxRequests <= 0 means unlimited; perSecond <= 0
// disables pacing.
func NewGuard(next llm.Completer, maxRequests int, perSecond float64) *Guard {
	g := &Guard{next: next, max: maxRequests}
	if perSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return g
}

func (g *Guard) Complete(ctx context.Context, prompt, apiKey, model string) (string, error) {
	if err := g.take(); err != nil {
		return "", err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}
	return g.next.Complete(ctx, prompt, apiKey, model)
}

func (g *Guard) take() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.max > 0 && g.used >= g.max {
		g.rejected++
		return fmt.Errorf("%w: request budget exhausted (%d/%d)", llm.ErrPermanent, g.used, g.max)
	}
	g.used++
	logger.Debug("AI usage", "used", g.used, "limit", g.max)
	return nil
}

// GetStats returns current usage.
func (g *Guard) GetStats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	return map[string]interface{}{
		"used":     g.used,
		"limit":    g.max,
		"rejected": g.rejected,
	}
}

// PrintStats logs current usage.
func (g *Guard) PrintStats() {
	stats := g.GetStats()
	logger.Info("AI request budget", "used", stats["used"], "limit", stats["limit"], "rejected", stats["rejected"])
}

var _ llm.Completer = (*Guard)(nil)
