package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/courtside/ranking-service/internal/domain"
)

// Message types
const (
	MessageTypeRankingUpdate = "ranking_update"
	MessageTypeRatingChange  = "rating_change"
	MessageTypeSubscribe     = "subscribe"
	MessageTypeUnsubscribe   = "unsubscribe"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
	MessageTypeError         = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Category  string      `json:"category,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RankingUpdate contains ranking data for broadcast
type RankingUpdate struct {
	Category     domain.Category       `json:"category"`
	Entries      []domain.RankingEntry `json:"entries"`
	TotalPlayers int64                 `json:"total_players"`
}

// RatingChange is the per-player payload pushed after a match completes,
// e.g. the "+18 points" a client shows on the result screen.
type RatingChange struct {
	PlayerID     string `json:"player_id"`
	MatchID      string `json:"match_id"`
	Result       string `json:"result"`
	PointsChange int    `json:"points_change"`
	NewRating    int    `json:"new_rating"`
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by category
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound messages from clients
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client   *Client
	category string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				// Remove from all category subscriptions
				for category, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, category)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.clients[req.category]; !ok {
				h.clients[req.category] = make(map[*Client]bool)
			}
			h.clients[req.category][req.client] = true
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "category", req.category)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.category]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.category)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "category", req.category)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to all subscribed clients
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	// If message has a category, only send to subscribed clients
	if message.Category != "" {
		if clients, ok := h.clients[message.Category]; ok {
			for client := range clients {
				select {
				case client.send <- data:
				default:
					// Client's buffer is full, skip
					h.logger.Warn("client buffer full, skipping", "client_id", client.id)
				}
			}
		}
	} else {
		// Broadcast to all clients
		for client := range h.allClients {
			select {
			case client.send <- data:
			default:
				h.logger.Warn("client buffer full, skipping", "client_id", client.id)
			}
		}
	}
}

// BroadcastRankingUpdate sends a ranking refresh to all subscribed clients
func (h *Hub) BroadcastRankingUpdate(category domain.Category, entries []domain.RankingEntry, totalPlayers int64) {
	message := &Message{
		Type:     MessageTypeRankingUpdate,
		Category: string(category),
		Data: RankingUpdate{
			Category:     category,
			Entries:      entries,
			TotalPlayers: totalPlayers,
		},
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastRatingChange sends a per-player rating change notification
func (h *Hub) BroadcastRatingChange(category domain.Category, change RatingChange) {
	message := &Message{
		Type:      MessageTypeRatingChange,
		Category:  string(category),
		Data:      change,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a category subscription
func (h *Hub) Subscribe(client *Client, category string) {
	h.subscribe <- &subscriptionRequest{
		client:   client,
		category: category,
	}
}

// Unsubscribe removes a client from a category subscription
func (h *Hub) Unsubscribe(client *Client, category string) {
	h.unsubscribe <- &subscriptionRequest{
		client:   client,
		category: category,
	}
}

// GetSubscriberCount returns the number of subscribers for a category
func (h *Hub) GetSubscriberCount(category string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[category]; ok {
		return len(clients)
	}
	return 0
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
