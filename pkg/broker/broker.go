package broker

import (
	"context"
	"log"

	"relay/pkg/envelope"

	"github.com/redis/go-redis/v9"
)

type HandlerFunc func(envelope.Envelope)

// Broker bridges relay instances over Redis pub/sub. Every instance publishes
// to the same channel and fans received events out to its local connections,
// which keeps "all subscribers see all events" true behind a load balancer.
type Broker struct {
	rdb    *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

func New(redisURL string) (*Broker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		rdb.Close()
		return nil, err
	}

	return &Broker{rdb: rdb, ctx: ctx, cancel: cancel}, nil
}

func (b *Broker) Publish(channel string, env envelope.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	return b.rdb.Publish(b.ctx, channel, data).Err()
}

// Subscribe consumes the channel until Close, handing each decoded envelope
// to fn. Undecodable payloads are skipped.
func (b *Broker) Subscribe(channel string, fn HandlerFunc) {
	sub := b.rdb.Subscribe(b.ctx, channel)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-b.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				env, err := envelope.Unmarshal([]byte(msg.Payload))
				if err != nil {
					log.Printf("[BROKER] bad payload on %s: %v", channel, err)
					continue
				}
				fn(env)
			}
		}
	}()
}

func (b *Broker) Close() {
	b.cancel()
	b.rdb.Close()
}
