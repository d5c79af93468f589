package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/causality360/newsapi/internal/logger"
)

// Throttle allows each caller at most one expensive request per window. The
// table is in-process; entries for idle callers are pruned lazily on access.
type Throttle struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration

	now func() time.Time
}

func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{
		last:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Allow records an attempt for caller and reports whether it is inside its
// window. When denied, remaining is how long until the next allowed attempt.
func (t *Throttle) Allow(caller string) (ok bool, remaining time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if prev, seen := t.last[caller]; seen {
		elapsed := now.Sub(prev)
		if elapsed < t.window {
			return false, t.window - elapsed
		}
	}

	t.prune(now)
	t.last[caller] = now
	return true, 0
}

// prune drops entries older than the window. Caller holds the mutex.
func (t *Throttle) prune(now time.Time) {
	for caller, at := range t.last {
		if now.Sub(at) >= t.window {
			delete(t.last, caller)
		}
	}
}

// Handler enforces the throttle per client IP and endpoint, answering 429
// with a retry-after hint when the caller is too early. Scoping by path keeps
// a request to one expensive endpoint from locking the caller out of the
// others.
func (t *Throttle) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, remaining := t.Allow(c.IP() + " " + c.Path())
		if !ok {
			logger.Get().Warn().
				Str("ip", c.IP()).
				Str("path", c.Path()).
				Dur("retry_after", remaining).
				Msg("Throttled expensive request")
			seconds := int(remaining.Round(time.Second).Seconds())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests",
				"retry_after": seconds,
			})
		}
		return c.Next()
	}
}
