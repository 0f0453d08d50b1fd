package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// PublishKey gates the broadcast endpoint behind a shared secret sent as
// X-Relay-Key. An empty key disables the check, which keeps the endpoint open
// for deployments that restrict it at the network level instead.
func PublishKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		got := c.Get("X-Relay-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return c.Status(403).JSON(fiber.Map{"success": false, "message": "invalid relay key"})
		}
		return c.Next()
	}
}
