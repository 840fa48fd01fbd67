package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

// Event is the frame pushed to subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *subscriber) write(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub keeps track of websocket subscribers to the user change feed.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	log         *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{subscribers: make(map[string]*subscriber), log: log}
}

// Register registers a subscriber, replacing any existing one with the same id.
func (h *Hub) Register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.subscribers[id]; ok && old.conn != conn {
		_ = old.conn.Close()
	}
	h.subscribers[id] = &subscriber{conn: conn}
}

// Unregister removes and closes a subscriber.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subscribers[id]; ok {
		_ = s.conn.Close()
		delete(h.subscribers, id)
	}
}

// Notify sends the event to every subscriber. Subscribers that fail the
// write are dropped.
func (h *Hub) Notify(eventType string, payload interface{}) {
	b, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		h.log.WithError(err).Error("marshal event")
		return
	}

	h.mu.RLock()
	targets := make(map[string]*subscriber, len(h.subscribers))
	for id, s := range h.subscribers {
		targets[id] = s
	}
	h.mu.RUnlock()

	for id, s := range targets {
		if err := s.write(b); err != nil {
			h.log.WithError(err).WithField("subscriber", id).Warn("dropping subscriber")
			h.Unregister(id)
		}
	}
}

// Close drops every subscriber. Their read loops end once the connection
// is closed underneath them.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subscribers {
		_ = s.conn.Close()
		delete(h.subscribers, id)
	}
}

// List returns a copy of current subscriber ids.
func (h *Hub) List() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	return ids
}
