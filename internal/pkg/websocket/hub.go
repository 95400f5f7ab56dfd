package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/scholarhub/internal/pkg/metrics"
)

// Message is a frame pushed to connected browsers.
type Message struct {
	// Type of message, e.g. "notification"
	Type string `json:"type"`

	// Payload is the frame body, already shaped for the client
	Payload interface{} `json:"payload"`

	// Timestamp when the frame was produced
	Timestamp time.Time `json:"timestamp"`
}

type delivery struct {
	userIDs []int64
	data    []byte
}

// Hub maintains the set of active clients, keyed by user, and pushes frames
// to them. A user may hold several connections (tabs).
type Hub struct {
	clients map[int64]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		deliver:    make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and deliveries until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.deliver:
			h.deliverMessage(d)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	metrics.WebsocketConnected(1)

	h.logger.Debug().Int64("userID", client.userID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	metrics.WebsocketConnected(-1)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Debug().Int64("userID", client.userID).Msg("Client unregistered")
}

// deliverMessage fans a frame out to every connection of the target users.
// Clients whose buffer is full are dropped.
func (h *Hub) deliverMessage(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, userID := range d.userIDs {
		for client := range h.clients[userID] {
			select {
			case client.send <- d.data:
				sent++
			default:
				h.removeLocked(client)
			}
		}
	}
	h.logger.Debug().Int("users", len(d.userIDs)).Int("connections", sent).Msg("Frame delivered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.removeLocked(client)
		}
	}
}

// SendToUsers queues msg for every connection of userIDs. It never blocks the
// caller: when the queue is full the frame is dropped and logged.
func (h *Hub) SendToUsers(userIDs []int64, msg *Message) {
	if len(userIDs) == 0 {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal websocket frame")
		return
	}

	ids := append([]int64(nil), userIDs...)
	select {
	case h.deliver <- delivery{userIDs: ids, data: data}:
	default:
		h.logger.Warn().Str("type", msg.Type).Int("users", len(ids)).Msg("Websocket queue full, frame dropped")
	}
}

// ConnectedCount returns the number of open connections of a user
func (h *Hub) ConnectedCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
