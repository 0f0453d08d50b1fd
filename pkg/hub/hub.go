package hub

import (
	"encoding/json"
	"log"
	"sync"

	"relay/pkg/broker"
	"relay/pkg/envelope"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// EventSubscribe is the client-to-server control frame that joins the
// connection to the notifications group. There is no unsubscribe; membership
// ends with the connection.
const (
	EventSubscribe = "subscribe-notifications"
	EventPing      = "ping"
	EventPong      = "pong"
)

type clientConn struct {
	conn       *websocket.Conn
	id         string
	subscribed bool
	mu         sync.Mutex
}

// send serializes writes on the connection. A failed write is logged and
// swallowed: delivery is at-most-effort and one bad socket must not affect
// anything else.
func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[HUB] send error conn=%s: %v", cc.id, err)
	}
}

// Hub owns every open connection and the notifications-group membership.
// All state lives on the instance so tests can run hubs side by side.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn

	broker  *broker.Broker
	channel string
}

func New() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*clientConn),
	}
}

// AttachBroker routes publishes through a shared Redis channel so several
// relay instances see the same events. Each instance still fans out only to
// its own local connections.
func (h *Hub) AttachBroker(b *broker.Broker, channel string) {
	h.broker = b
	h.channel = channel
	b.Subscribe(channel, func(env envelope.Envelope) {
		h.broadcastLocal(env)
	})
}

// HandleClientConn runs the read loop for one websocket connection. It blocks
// until the client disconnects and must be called from the websocket handler.
func (h *Hub) HandleClientConn(c *websocket.Conn) {
	cc := &clientConn{conn: c, id: uuid.NewString()}

	h.mu.Lock()
	h.clients[c] = cc
	h.mu.Unlock()

	log.Printf("[HUB] client connected conn=%s total=%d", cc.id, h.ClientCount())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
		log.Printf("[HUB] client disconnected conn=%s total=%d", cc.id, h.ClientCount())
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			resp := envelope.NewError(400, "invalid JSON")
			data, _ := resp.Marshal()
			cc.send(data)
			continue
		}

		switch env.Event {
		case EventSubscribe:
			h.subscribe(cc)
		case EventPing:
			pong := envelope.New(EventPong)
			data, _ := pong.Marshal()
			cc.send(data)
		default:
			resp := envelope.NewError(404, "unknown event: "+env.Event)
			data, _ := resp.Marshal()
			cc.send(data)
		}
	}
}

// subscribe is idempotent: joining twice is the same as joining once.
func (h *Hub) subscribe(cc *clientConn) {
	h.mu.Lock()
	already := cc.subscribed
	cc.subscribed = true
	h.mu.Unlock()
	if !already {
		log.Printf("[HUB] conn=%s joined notifications subscribers=%d", cc.id, h.SubscriberCount())
	}
}

// Publish fans an event out to the current subscribers. With a broker
// attached the event takes a round trip through Redis first so every relay
// instance delivers it; otherwise delivery is direct and in-process.
func (h *Hub) Publish(event string, data json.RawMessage) error {
	env := envelope.NewRaw(event, data)
	if h.broker != nil {
		return h.broker.Publish(h.channel, env)
	}
	h.broadcastLocal(env)
	return nil
}

// broadcastLocal delivers to the membership snapshot at call time. Later
// subscribers never see this event; there is no replay buffer.
func (h *Hub) broadcastLocal(env envelope.Envelope) {
	raw, err := env.Marshal()
	if err != nil {
		log.Printf("[HUB] broadcast marshal error: %v", err)
		return
	}

	n := 0
	h.mu.RLock()
	for _, cc := range h.clients {
		if !cc.subscribed {
			continue
		}
		cc.send(raw)
		n++
	}
	h.mu.RUnlock()
	log.Printf("[HUB] broadcast event=%s subscribers=%d", env.Event, n)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, cc := range h.clients {
		if cc.subscribed {
			n++
		}
	}
	return n
}
