package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tacticalgrid/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before Notify starts dropping.
	broadcastBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event names carried in Message.Event
const (
	EventSnapshot  = "snapshot"
	EventOccupancy = "occupancy"
)

// Message represents a WebSocket message
type Message struct {
	MatchID string         `json:"match_id"`
	Event   string         `json:"event"`
	Change  *service.Event `json:"change,omitempty"`
	Data    interface{}    `json:"data,omitempty"`
}

// SnapshotFunc returns the state sent to a client right after it connects
type SnapshotFunc func(matchID string) (interface{}, error)

// Client represents a WebSocket client
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	matchID string
}

// Hub maintains the set of active clients and broadcasts match events.
// It implements service.Notifier.
type Hub struct {
	// Registered clients by match ID
	matches map[string]map[*Client]bool
	mu      sync.RWMutex

	// Outbound messages for a match
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	snapshot SnapshotFunc
	logger   *zap.Logger
}

// NewHub creates a new WebSocket hub. A nil logger discards output.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		matches:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetSnapshotFunc installs the source of the initial state sent on connect.
// Call before Run.
func (h *Hub) SetSnapshotFunc(fn SnapshotFunc) {
	h.snapshot = fn
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, matchID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		matchID: matchID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// Notify queues an occupancy change for every client watching the match.
// It never blocks the caller; when the queue is full the event is dropped.
func (h *Hub) Notify(matchID string, event service.Event) {
	h.BroadcastEvent(matchID, EventOccupancy, &event, nil)
}

// BroadcastEvent queues a custom event for every client watching the match
func (h *Hub) BroadcastEvent(matchID, name string, change *service.Event, data interface{}) {
	message := &Message{
		MatchID: matchID,
		Event:   name,
		Change:  change,
		Data:    data,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast dropped", zap.String("match", matchID), zap.String("event", name))
	}
}

// ClientCount returns how many clients watch a match
func (h *Hub) ClientCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matches[matchID])
}

// registerClient adds a client to a match and sends it the current snapshot
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.matches[client.matchID] == nil {
		h.matches[client.matchID] = make(map[*Client]bool)
	}
	h.matches[client.matchID][client] = true
	total := len(h.matches[client.matchID])
	h.mu.Unlock()

	h.logger.Debug("websocket client registered",
		zap.String("match", client.matchID),
		zap.Int("clients", total))

	if h.snapshot == nil {
		return
	}
	state, err := h.snapshot(client.matchID)
	if err != nil {
		h.logger.Warn("websocket snapshot failed", zap.String("match", client.matchID), zap.Error(err))
		return
	}
	data, err := json.Marshal(&Message{MatchID: client.matchID, Event: EventSnapshot, Data: state})
	if err != nil {
		h.logger.Warn("failed to marshal snapshot", zap.Error(err))
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// unregisterClient removes a client from a match
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.matches[client.matchID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	// Clean up empty matches
	if len(clients) == 0 {
		delete(h.matches, client.matchID)
	}

	h.logger.Debug("websocket client unregistered",
		zap.String("match", client.matchID),
		zap.Int("remaining", len(clients)))
}

// broadcastMessage sends a message to all clients of a match
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Warn("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for client := range h.matches[message.MatchID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Client's send channel is full, drop it
	for _, client := range slow {
		h.unregisterClient(client)
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients only listen; reads keep the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.String("match", c.matchID), zap.Error(err))
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
