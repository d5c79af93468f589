package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/causality360/newsapi/internal/logger"
)

// RequestLogger logs one structured line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		event := logger.Get().Info()
		if err != nil || status >= fiber.StatusInternalServerError {
			event = logger.Get().Error().Err(err)
		} else if status >= fiber.StatusBadRequest {
			event = logger.Get().Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Msg("Request")

		return err
	}
}
