package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request with status and latency. Static
// asset requests under staticPrefix are skipped to keep the log readable.
func RequestLogger(staticPrefix string) fiber.Handler {
	logger := slog.Default()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Path()
		if staticPrefix != "" && strings.HasPrefix(path, staticPrefix) {
			return err
		}

		logger.Info("request",
			"method", c.Method(),
			"path", path,
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}
