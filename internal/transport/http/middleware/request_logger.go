// Package middleware contains HTTP middlewares for delivery.
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs HTTP requests with method, path, status and duration.
// Health probes are skipped to keep webhook traffic readable in the log.
func RequestLogger(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/healthz" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		log.Infow("http",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"bytes_in", len(c.Body()),
			"duration_ms", float64(dur.Microseconds())/1000.0,
			"request_id", reqID,
		)
		return err
	}
}
