package broker

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"relay/pkg/envelope"

	"github.com/stretchr/testify/require"
)

// Needs a reachable Redis; set REDIS_URL to run.
func TestPublishSubscribeRoundTrip(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	b, err := New(redisURL)
	require.NoError(t, err)
	defer b.Close()

	received := make(chan envelope.Envelope, 1)
	b.Subscribe("relay:test", func(env envelope.Envelope) {
		received <- env
	})

	// Subscription setup races with the first publish; retry until it lands.
	env := envelope.NewRaw("new-application", json.RawMessage(`{"applicationId":"APP-9"}`))
	require.Eventually(t, func() bool {
		if err := b.Publish("relay:test", env); err != nil {
			return false
		}
		select {
		case got := <-received:
			require.Equal(t, "new-application", got.Event)
			require.JSONEq(t, `{"applicationId":"APP-9"}`, string(got.Data))
			return true
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not-a-redis-url")
	require.Error(t, err)
}
