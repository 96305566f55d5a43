package middleware

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(accountID, action, resource, resourceID, details, ip, userAgent string) error
}

// AuditMiddleware logs every request for traceability.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		accountID := GetAccountID(c)
		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":      method,
			"path":        path,
			"status":      statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		detailsJSON, _ := json.Marshal(details)

		// Write asynchronously — all values are captured, safe to use in goroutine
		go func() {
			if writeErr := writer.WriteAudit(
				accountID,
				"http_request",
				"api",
				path,
				string(detailsJSON),
				ip,
				userAgent,
			); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
