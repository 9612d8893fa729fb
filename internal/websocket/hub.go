// Package websocket streams receiver events to connected dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	EventOrderReceived = "order_received"
	EventConnected     = "connected"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	// The mock receiver is a local development tool.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the envelope written to every subscriber as one text frame.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
	hub  *Hub
}

type Hub struct {
	source      string
	subscribers map[*subscriber]struct{}
	broadcast   chan Event
	register    chan *subscriber
	unregister  chan *subscriber
	done        chan struct{}
	mutex       sync.RWMutex
	now         func() time.Time
	logger      *logrus.Logger
}

func NewHub(source string, logger *logrus.Logger) *Hub {
	return &Hub{
		source:      source,
		subscribers: make(map[*subscriber]struct{}),
		broadcast:   make(chan Event, 256),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		done:        make(chan struct{}),
		now:         time.Now,
		logger:      logger,
	}
}

// Run dispatches events until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for s := range h.subscribers {
				delete(h.subscribers, s)
				close(s.send)
			}
			h.mutex.Unlock()
			return

		case s := <-h.register:
			h.mutex.Lock()
			h.subscribers[s] = struct{}{}
			count := len(h.subscribers)
			h.mutex.Unlock()
			h.logger.WithField("client_count", count).Info("Client connected")

		case s := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.send)
			}
			count := len(h.subscribers)
			h.mutex.Unlock()
			h.logger.WithField("client_count", count).Info("Client disconnected")

		case event := <-h.broadcast:
			h.mutex.Lock()
			for s := range h.subscribers {
				select {
				case s.send <- event:
				default:
					// slow consumer
					delete(h.subscribers, s)
					close(s.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues an event for every subscriber. It never blocks.
func (h *Hub) Publish(eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		Data:      data,
		Timestamp: h.now().UTC(),
		Source:    h.source,
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.WithField("type", eventType).Warn("Broadcast channel full, dropping event")
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	s := &subscriber{
		conn: conn,
		send: make(chan Event, sendBuffer),
		hub:  h,
	}
	s.send <- Event{Type: EventConnected, Timestamp: h.now().UTC(), Source: h.source}

	select {
	case h.register <- s:
	case <-h.done:
		conn.Close()
		return
	}

	go s.writePump()
	go s.readPump()
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

// readPump only drains control frames; subscribers never send data.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.WithError(err).Error("WebSocket error")
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				s.hub.logger.WithError(err).Error("Failed to marshal WebSocket event")
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
