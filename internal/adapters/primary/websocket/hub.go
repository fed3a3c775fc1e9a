package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	apperrors "github.com/taskflow/taskflow-backend/internal/core/errors"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// Hub is the connection registry and broadcast dispatcher. It owns the
// only mutable shared state of the real-time core: the connection set
// and the scope rooms, guarded by a single RWMutex.
type Hub struct {
	// connections maps connection IDs to clients
	connections map[uuid.UUID]*Client

	// users maps user IDs to their active connections
	// A single user can have multiple connections (multiple tabs/devices)
	users map[uuid.UUID]map[*Client]bool

	// rooms maps broadcast scopes to subscribed clients
	rooms map[domain.Scope]map[*Client]bool

	// resolver derives a connection's scope set at join time
	resolver ports.MembershipResolver

	// mu protects the connections, users and rooms maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(resolver ports.MembershipResolver, logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Client),
		users:       make(map[uuid.UUID]map[*Client]bool),
		rooms:       make(map[domain.Scope]map[*Client]bool),
		resolver:    resolver,
		logger:      logger.With("component", "websocket_hub"),
	}
}

// Register adds a client to the registry. The connection ID must be
// unused; a reconnecting client registers under a fresh ID and
// re-subscribes from scratch. Registration subscribes nothing: the
// scope set is primed by the client's join-room message.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[client.ID]; exists {
		return apperrors.ErrDuplicateConnection
	}
	h.connections[client.ID] = client

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)
	}
	h.users[client.UserID][client] = true

	h.logger.Info("client registered",
		"connection_id", client.ID,
		"user_id", client.UserID,
		"user_connections", len(h.users[client.UserID]),
	)
	return nil
}

// Unregister removes a client from the registry and every room it was
// subscribed to, immediately and unconditionally. The send channel is
// closed exactly once; pending events for this connection are dropped.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[client.ID]; !exists {
		return
	}
	delete(h.connections, client.ID)

	if userClients, ok := h.users[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.users, client.UserID)
		}
	}

	for _, scope := range client.Scopes() {
		if room, ok := h.rooms[scope]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, scope)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered",
		"connection_id", client.ID,
		"user_id", client.UserID,
	)
}

// JoinRoom resolves the client's scope set and subscribes it to every
// resolved scope. Called once per connection, on the client's
// join-room control message.
func (h *Hub) JoinRoom(ctx context.Context, client *Client) {
	scopes := h.resolver.ScopesFor(ctx, client.UserID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, registered := h.connections[client.ID]; !registered {
		return
	}

	for _, scope := range scopes {
		if h.rooms[scope] == nil {
			h.rooms[scope] = make(map[*Client]bool)
		}
		h.rooms[scope][client] = true
		client.addScope(scope)
	}

	h.logger.Debug("client joined rooms",
		"connection_id", client.ID,
		"user_id", client.UserID,
		"scope_count", len(scopes),
	)
}

// Dispatch delivers an event to every connection subscribed to one of
// its scopes, each connection at most once. Enqueueing is
// fire-and-forget: a connection whose send buffer is full has the
// event dropped with a log line, and delivery to the remaining
// connections continues. Events are enqueued under the read lock so a
// concurrent Unregister cannot close a send channel mid-dispatch.
func (h *Hub) Dispatch(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[*Client]bool)
	for _, scope := range event.Scopes {
		for client := range h.rooms[scope] {
			if delivered[client] {
				continue
			}
			delivered[client] = true

			select {
			case client.Send <- event:
			default:
				h.logger.Warn("send buffer full, dropping event",
					"connection_id", client.ID,
					"user_id", client.UserID,
					"event_type", event.Type,
				)
			}
		}
	}

	h.logger.Debug("event dispatched",
		"event_type", event.Type,
		"scope_count", len(event.Scopes),
		"client_count", len(delivered),
	)
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// RoomCount returns the number of active scope rooms
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients subscribed to a scope
func (h *Hub) ClientsInRoom(scope domain.Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[scope])
}

// ClientsForUser returns every active connection for a user.
func (h *Hub) ClientsForUser(userID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.users[userID]))
	for client := range h.users[userID] {
		clients = append(clients, client)
	}
	return clients
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}
