package hub

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"relay/pkg/envelope"

	"github.com/fasthttp/websocket"
	"github.com/sethvargo/go-retry"
)

// NotificationHandler receives one callback per event frame delivered to a
// subscribed connection. Payload bytes are the publisher's, JSON-decoded only
// as far as framing requires.
type NotificationHandler func(event string, payload json.RawMessage)

// Subscriber is the Go counterpart of a browser tab: it keeps one connection
// to the relay open, joins the notifications group, and hands incoming events
// to a registered handler. Unlike the browser code it reconnects on its own,
// with capped exponential backoff, and re-joins the group after each
// reconnect.
type Subscriber struct {
	relayURL string // ex: "ws://localhost:4001/ws"

	mu      sync.Mutex
	conn    *websocket.Conn
	wantSub bool

	onNotification NotificationHandler
	done           chan struct{}
	closeOnce      sync.Once
}

func NewSubscriber(relayURL string) *Subscriber {
	return &Subscriber{
		relayURL: relayURL,
		done:     make(chan struct{}),
	}
}

// OnNotification registers the handler invoked once per received event.
// Must be called before Connect.
func (s *Subscriber) OnNotification(fn NotificationHandler) {
	s.onNotification = fn
}

// Connect dials the relay and keeps the connection alive until Close.
// Blocks; call with go.
func (s *Subscriber) Connect() {
	backoff := newBackoff()
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.dial(); err != nil {
			wait, _ := backoff.Next()
			log.Printf("[SUBSCRIBER] dial %s failed: %v (retry in %s)", s.relayURL, err, wait)
			select {
			case <-s.done:
				return
			case <-time.After(wait):
			}
			continue
		}

		backoff = newBackoff()
		log.Printf("[SUBSCRIBER] connected to %s", s.relayURL)
		s.readLoop()

		select {
		case <-s.done:
			return
		default:
			log.Printf("[SUBSCRIBER] disconnected from %s, reconnecting", s.relayURL)
		}
	}
}

func newBackoff() retry.Backoff {
	return retry.WithCappedDuration(15*time.Second, retry.NewExponential(500*time.Millisecond))
}

var errSubscriberClosed = errors.New("subscriber closed")

func (s *Subscriber) dial() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.relayURL, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	// Close may have finished while the dial was in flight; storing the
	// fresh conn then would leak it past teardown.
	select {
	case <-s.done:
		s.mu.Unlock()
		conn.Close()
		return errSubscriberClosed
	default:
	}
	s.conn = conn
	want := s.wantSub
	s.mu.Unlock()

	// Re-join after every successful dial so membership survives relay
	// restarts. The relay holds the membership; we only hold the intent.
	if want {
		s.sendSubscribe()
	}
	return nil
}

// Subscribe joins the notifications group. Safe to call before Connect: the
// intent is recorded and the frame goes out as soon as a dial succeeds.
func (s *Subscriber) Subscribe() {
	s.mu.Lock()
	s.wantSub = true
	connected := s.conn != nil
	s.mu.Unlock()

	if connected {
		s.sendSubscribe()
	}
}

func (s *Subscriber) sendSubscribe() {
	env := envelope.New(EventSubscribe)
	data, err := env.Marshal()
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[SUBSCRIBER] subscribe send error: %v", err)
	}
}

func (s *Subscriber) readLoop() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}

	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			continue
		}
		if env.Event == EventPong || env.Error != nil {
			continue
		}
		if s.onNotification != nil {
			s.onNotification(env.Event, env.Data)
		}
	}
}

// Close tears the connection down and stops the reconnect loop. Idempotent;
// the owning surface must call it on every exit path.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
}
