package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"relay/pkg/broker"
	"relay/pkg/config"
	"relay/pkg/handlers"
	"relay/pkg/hub"
	"relay/pkg/middleware"
	"relay/pkg/server"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	cfg := config.Load()

	wsHub := hub.New()

	if cfg.RedisURL != "" {
		b, err := broker.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("[RELAY] redis backplane: %v", err)
		}
		defer b.Close()
		wsHub.AttachBroker(b, cfg.RelayChannel)
		log.Printf("[RELAY] backplane enabled channel=%s", cfg.RelayChannel)
	}

	app := server.NewApp("relay", middleware.CORSConfig(cfg.AllowedOrigins))
	relay := handlers.NewRelay(wsHub)

	app.Get("/health", relay.Health)
	app.Post("/broadcast/new-application", middleware.PublishKey(cfg.PublishKey), relay.BroadcastNewApplication)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws", websocket.New(wsHub.HandleClientConn))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		log.Printf("[RELAY] %s received, shutting down", s)
		if err := app.Shutdown(); err != nil {
			log.Printf("[RELAY] shutdown error: %v", err)
		}
	}()

	addr := "0.0.0.0:" + cfg.Port
	log.Printf("[RELAY] WebSocket: ws://<host>:%s/ws", cfg.Port)
	log.Printf("[RELAY] listening on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("[RELAY] failed to start: %v", err)
	}

	log.Printf("[RELAY] stopped")
}
