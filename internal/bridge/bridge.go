package bridge

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// sendQueueDepth bounds the per-subscriber backlog before the
	// subscriber is considered too slow and dropped.
	sendQueueDepth = 32

	writeTimeout = 5 * time.Second
)

// NodeSample is one node of a decoded preview frame.
type NodeSample struct {
	Key          uint32     `json:"key"`
	Name         string     `json:"name,omitempty"`
	Quaternion   [4]float32 `json:"quaternion"`
	Euler        [3]float32 `json:"euler"`
	Acceleration [3]float32 `json:"acceleration"`
}

// Frame is the JSON document broadcast for each sample message.
type Frame struct {
	Session string       `json:"session"`
	Seq     uint64       `json:"seq"`
	Time    time.Time    `json:"time"`
	Nodes   []NodeSample `json:"nodes"`
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan Frame
}

// Hub fans decoded frames out to websocket subscribers.
type Hub struct {
	session  string
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu          sync.Mutex
	closed      bool
	seq         uint64
	subscribers map[string]*subscriber
}

// NewHub returns an empty hub with a fresh session identity.
func NewHub() *Hub {
	session := uuid.NewString()
	return &Hub{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:      log.With().Str("component", "bridge").Str("session", session).Logger(),
		subscribers: make(map[string]*subscriber),
	}
}

// Session returns the identity stamped on every broadcast frame.
func (h *Hub) Session() string {
	return h.session
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Handle upgrades an HTTP request to a websocket subscription. The
// subscription lives until the peer disconnects, falls too far behind, or
// the hub closes.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := &subscriber{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Frame, sendQueueDepth),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	h.logger.Info().Str("subscriber", sub.id).
		Str("remote", conn.RemoteAddr().String()).Msg("subscriber connected")

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Broadcast stamps a frame with the session and next sequence number and
// queues it to every subscriber. Subscribers whose queue is full are
// dropped.
func (h *Hub) Broadcast(when time.Time, nodes []NodeSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.seq++
	frame := Frame{
		Session: h.session,
		Seq:     h.seq,
		Time:    when,
		Nodes:   nodes,
	}
	for id, sub := range h.subscribers {
		select {
		case sub.send <- frame:
		default:
			delete(h.subscribers, id)
			close(sub.send)
			h.logger.Warn().Str("subscriber", id).Msg("subscriber too slow, dropping")
		}
	}
}

// Close drops every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		close(sub.send)
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for frame := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := sub.conn.WriteJSON(frame); err != nil {
			h.drop(sub.id)
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "bridge closing"),
		time.Now().Add(writeTimeout))
}

// readLoop drains the connection so pings and close frames are processed,
// and tears the subscription down when the peer goes away.
func (h *Hub) readLoop(sub *subscriber) {
	for {
		if _, _, err := sub.conn.NextReader(); err != nil {
			h.drop(sub.id)
			return
		}
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.send)
		h.logger.Info().Str("subscriber", id).Msg("subscriber disconnected")
	}
}
