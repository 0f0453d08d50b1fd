package config

import (
	"os"
	"strings"
)

// Config holds every knob the relay reads from the environment. Fallbacks
// match local development; production deployments override all of them.
type Config struct {
	Port           string
	AllowedOrigins []string
	PublishKey     string
	RedisURL       string
	RelayChannel   string
}

func Load() Config {
	return Config{
		Port:           getenv("PORT", "4001"),
		AllowedOrigins: splitList(getenv("RELAY_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		PublishKey:     os.Getenv("RELAY_PUBLISH_KEY"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RelayChannel:   getenv("RELAY_CHANNEL", "relay:broadcast"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
