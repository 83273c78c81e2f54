package sessionws

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/CoachMarketBack/internal/logger"
	"github.com/saeid-a/CoachMarketBack/internal/models"
	"github.com/sirupsen/logrus"
)

// Observer receives hub lifecycle signals, typically for metrics.
type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	EventDropped()
}

type noopObserver struct{}

func (noopObserver) ConnectionOpened() {}
func (noopObserver) ConnectionClosed() {}
func (noopObserver) EventDropped()     {}

// Hub fans committed session events out to the connected parties. A single
// goroutine running Run owns the client map.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.SessionEvent
	done       chan struct{}
	observer   Observer
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

type Message struct {
	Type      string               `json:"type"`
	Event     *models.SessionEvent `json:"event,omitempty"`
	Timestamp string               `json:"timestamp"`
}

func NewHub(observer Observer) *Hub {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.SessionEvent, 64),
		done:       make(chan struct{}),
		observer:   observer,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

// Run serves registrations and deliveries until ctx is cancelled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
					h.observer.ConnectionClosed()
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.observer.ConnectionOpened()
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishSessionEvent queues the event for delivery. It never blocks; the
// event is dropped when the queue is full.
func (h *Hub) PublishSessionEvent(event models.SessionEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.observer.EventDropped()
		logger.Log.WithFields(logrus.Fields{
			"event":      event.Type,
			"session_id": event.SessionID,
		}).Warn("session event queue full, dropping event")
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
		h.observer.ConnectionClosed()
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) deliver(event models.SessionEvent) {
	encoded, err := encodeMessage(Message{
		Type:      event.Type,
		Event:     &event,
		Timestamp: event.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Log.WithError(err).Error("session hub encode event")
		return
	}

	for _, recipient := range event.Recipients() {
		h.sendToUser(strconv.FormatInt(recipient, 10), encoded)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
			h.observer.ConnectionClosed()
			h.observer.EventDropped()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func encodeMessage(message Message) ([]byte, error) {
	return json.Marshal(message)
}

// ReadPump drains the connection until it closes. The feed is one-way, so
// client frames are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
