package ai

import (
	"context"
	"sync"
	"time"

	"github.com/causality360/newsapi/internal/logger"
)

// Gate enforces a minimum spacing between outbound calls, system-wide.
// It is the only explicitly locked structure in the pipeline: the
// read-modify-write of the last-call timestamp happens under a single mutex,
// so no two calls through the same gate are ever issued closer than the
// configured interval.
type Gate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// NewGate builds a gate with the given minimum inter-call interval.
func NewGate(interval time.Duration) *Gate {
	return &Gate{interval: interval}
}

// Wait blocks until the minimum interval since the previous call has elapsed,
// then records the new call time. The mutex is held across the sleep so that
// concurrent callers queue up rather than racing the timestamp.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if remaining := g.interval - time.Since(g.last); remaining > 0 {
			logger.Get().Debug().
				Dur("wait", remaining).
				Msg("Rate limit gate: spacing out API call")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}

	g.last = time.Now()
	return nil
}
