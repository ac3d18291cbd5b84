package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillsync/internal/metrics"
)

type envelope struct {
	userID  uuid.UUID
	payload []byte
}

// Hub fans events out to connected clients. An envelope addressed to uuid.Nil goes to
// every client, otherwise only to that user's connections.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *zap.Logger

	// done is closed when Run returns. lifecycle guards stopped so no Register can slip
	// into the channel after the final drain.
	done      chan struct{}
	lifecycle sync.RWMutex
	stopped   bool
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger.Named("ws"),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.WSClients.Set(float64(total))
			h.logger.Debug("client connected", zap.String("user_id", client.userID.String()), zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				if msg.userID == uuid.Nil || c.userID == msg.userID {
					targets = append(targets, c)
				}
			}
			h.mutex.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- msg.payload:
				default:
					h.logger.Warn("client too slow, disconnecting", zap.String("user_id", client.userID.String()))
					h.remove(client)
				}
			}
			h.logger.Debug("event delivered", zap.Int("clients", len(targets)))
		}
	}
}

func (h *Hub) remove(client *Client) {
	if client == nil {
		return
	}
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mutex.Unlock()
	metrics.WSClients.Set(float64(total))
	h.logger.Debug("client disconnected", zap.String("user_id", client.userID.String()), zap.Int("total_clients", total))
}

func (h *Hub) shutdown() {
	close(h.done)

	h.lifecycle.Lock()
	h.stopped = true
drain:
	for {
		select {
		case c := <-h.register:
			if c != nil {
				close(c.send)
			}
		default:
			break drain
		}
	}
	h.lifecycle.Unlock()

	h.closeAll()
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mutex.Unlock()
	metrics.WSClients.Set(0)
}

// Register adds client to the hub. Once the hub has stopped the client's send channel is
// closed instead, so its write pump exits.
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	if h.stopped {
		close(client.send)
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister never blocks after the hub has stopped; shutdown already closed every client.
func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues payload for userID's clients, dropping it when the buffer is full.
func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- envelope{userID: userID, payload: payload}:
	default:
		h.logger.Warn("event dropped", zap.String("reason", "buffer_full"))
	}
}

func (h *Hub) Broadcast(payload []byte) {
	h.SendToUser(uuid.Nil, payload)
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
