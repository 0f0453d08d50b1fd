package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "RELAY_ALLOWED_ORIGINS", "RELAY_PUBLISH_KEY", "REDIS_URL", "RELAY_CHANNEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, "4001", cfg.Port)
	require.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	require.Empty(t, cfg.PublishKey)
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, "relay:broadcast", cfg.RelayChannel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "https://backoffice.example.com, https://ops.example.com")
	t.Setenv("RELAY_PUBLISH_KEY", "sekret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("RELAY_CHANNEL", "relay:staging")

	cfg := Load()
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, []string{"https://backoffice.example.com", "https://ops.example.com"}, cfg.AllowedOrigins)
	require.Equal(t, "sekret", cfg.PublishKey)
	require.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	require.Equal(t, "relay:staging", cfg.RelayChannel)
}
