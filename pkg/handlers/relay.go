package handlers

import (
	"encoding/json"
	"time"

	"relay/pkg/hub"

	"github.com/gofiber/fiber/v2"
)

// EventNewApplication is what the billing backend publishes when a customer
// application is created; browser tabs refresh their lists on it.
const EventNewApplication = "new-application"

type RelayHandler struct {
	hub     *hub.Hub
	started time.Time
}

func NewRelay(h *hub.Hub) *RelayHandler {
	return &RelayHandler{hub: h, started: time.Now()}
}

// POST /broadcast/new-application
// The 200 ack means the broadcast was issued, not that anyone received it.
func (rh *RelayHandler) BroadcastNewApplication(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 || !json.Valid(body) {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "invalid JSON body"})
	}

	// fasthttp reuses the request buffer after the handler returns
	payload := append([]byte(nil), body...)

	if err := rh.hub.Publish(EventNewApplication, payload); err != nil {
		return c.Status(502).JSON(fiber.Map{"success": false, "message": "broadcast backplane unavailable"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Notification broadcasted"})
}

// GET /health
func (rh *RelayHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":          true,
		"connectedClients": rh.hub.ClientCount(),
		"uptime":           time.Since(rh.started).Seconds(),
	})
}
