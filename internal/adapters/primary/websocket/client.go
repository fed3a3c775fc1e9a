package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound buffer per connection. The buffer is the only queue an
	// event ever waits in; when it fills the event is dropped.
	sendBufferSize = 256

	// Time allowed to resolve the scope set on join-room.
	joinResolveTimeout = 5 * time.Second
)

// Client is a middleman between one websocket connection and the hub.
// Its Send channel is the single ordered outbound stream for the
// connection: events arrive at the peer in dispatch order.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// Connection ID, unique per registration.
	ID uuid.UUID

	// Authenticated user ID for this connection.
	UserID uuid.UUID

	// scopes this connection is subscribed to.
	scopes map[domain.Scope]bool

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// mu protects the scopes map
	mu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan domain.Event, sendBufferSize),
		ID:     id,
		UserID: userID,
		scopes: make(map[domain.Scope]bool),
		logger: logger.With("connection_id", id.String(), "user_id", userID.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *Client) addScope(scope domain.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes[scope] = true
}

// Scopes returns a copy of the connection's subscribed scopes
func (c *Client) Scopes() []domain.Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scopes := make([]domain.Scope, 0, len(c.scopes))
	for scope := range c.scopes {
		scopes = append(scopes, scope)
	}
	return scopes
}

// ReadPump pumps control messages from the websocket connection to the
// hub. This method runs in its own goroutine; it unregisters the
// client on any read error, which cancels only this connection's
// pending sends.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the Send channel to the websocket
// connection, in channel order. This method runs in its own goroutine.
// A write past the deadline fails the connection; the dispatcher never
// waits on it.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for control messages sent by the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinRoomPayload is the payload for the join-room control message.
type JoinRoomPayload struct {
	UserID string `json:"userId"`
}

// handleIncomingMessage processes control messages received from the
// client. join-room is the only message in the protocol; everything
// else is ignored with a debug log.
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "join-room":
		c.handleJoinRoom(msg.Payload)

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

// handleJoinRoom primes the connection's scope set. The user ID in the
// payload must match the authenticated identity; the claim from the
// handshake wins, never the message.
func (c *Client) handleJoinRoom(payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal join-room payload", "error", err)
		return
	}

	if p.UserID != "" && p.UserID != c.UserID.String() {
		c.logger.Warn("join-room user mismatch, ignoring", "claimed_user_id", p.UserID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinResolveTimeout)
	defer cancel()
	c.Hub.JoinRoom(ctx, c)
}
