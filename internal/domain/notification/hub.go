package notification

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const eventsChannel = "monetization:events"

// Hub fans domain events out to connected websocket subscribers (the admin
// dashboard feed). With Redis configured, events published on one instance
// reach subscribers connected to any instance.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *connection
	unregister chan *connection

	ctx    context.Context
	cancel context.CancelFunc
}

type connection struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[*connection]bool),
		redis:       redisClient,
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		ctx:         ctx,
		cancel:      cancel,
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, eventsChannel)
	}

	return h
}

// Run processes connection churn and cross-instance events until Stop.
func (h *Hub) Run() {
	var redisCh <-chan *redis.Message
	if h.pubsub != nil {
		redisCh = h.pubsub.Channel()
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.connections[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.connections[c] {
				delete(h.connections, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg, ok := <-redisCh:
			if !ok {
				redisCh = nil
				continue
			}
			h.deliver([]byte(msg.Payload))

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

// Broadcast sends an event to all subscribers. With Redis the event routes
// through pub/sub; without, it is delivered to local connections only.
func (h *Hub) Broadcast(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event for broadcast")
		return
	}

	if h.redis != nil {
		if err := h.redis.Publish(h.ctx, eventsChannel, payload).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis publish failed, delivering locally")
			h.deliver(payload)
		}
		return
	}

	h.deliver(payload)
}

func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections {
		select {
		case c.send <- payload:
		default:
			// Slow subscriber, drop the event rather than block the hub.
		}
	}
}

func (h *Hub) attach(conn *websocket.Conn) {
	c := &connection{conn: conn, send: make(chan []byte, 32)}
	h.register <- c
	go c.writeLoop(h)
	go c.readLoop(h)
}

func (c *connection) writeLoop(h *Hub) {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readLoop exists only to notice closes; subscribers never send.
func (c *connection) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
