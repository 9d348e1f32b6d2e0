// Package ws pushes gateway events to connected clients over WebSockets.
// Connections are keyed by the authenticated principal: an event published
// for a principal reaches every device that principal has open, and nothing
// else.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/gateway/internal/platform/identity"
)

// Envelope wraps every pushed event with its kind and emission time.
type Envelope struct {
	Kind string          `json:"kind"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected device.
type Client struct {
	ID        string
	Principal string
	Send      chan []byte
	conn      Conn
}

// Hub tracks connected clients per principal. All operations are safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // principal -> set of clients
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.With().Str("component", "ws").Logger(),
	}
}

// Register adds a client under its principal.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Principal] == nil {
		h.clients[client.Principal] = make(map[*Client]struct{})
	}
	h.clients[client.Principal][client] = struct{}{}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.Principal]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.Principal)
	}
	close(client.Send)
}

// Publish sends an event to every device the principal has connected. Slow
// clients are skipped rather than blocking the publisher.
func (h *Hub) Publish(principal, kind string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error().Str("kind", kind).Err(err).Msg("event payload marshal failed")
			return
		}
		data = raw
	}
	msg, err := json.Marshal(Envelope{Kind: kind, At: time.Now(), Data: data})
	if err != nil {
		h.logger.Error().Str("kind", kind).Err(err).Msg("event envelope marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[principal] {
		select {
		case client.Send <- msg:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// ClientCount returns the number of devices connected for a principal.
func (h *Hub) ClientCount(principal string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[principal])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the CORS layer in front.
	},
}

// Handler upgrades HTTP connections and binds them to the hub.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (wh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wh.HandleConnect)
}

// HandleConnect upgrades the connection for an authenticated caller and
// starts the read/write pumps. Anonymous callers are rejected before the
// upgrade.
func (wh *Handler) HandleConnect(c echo.Context) error {
	principal := identity.PrincipalFromContext(c.Request().Context())
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:        uuid.New().String(),
		Principal: principal,
		Send:      make(chan []byte, 256),
		conn:      &gorillaConnAdapter{conn},
	}
	wh.hub.Register(client)

	go wh.writePump(client, conn)
	go wh.readPump(client, conn)

	return nil
}

// readPump drains inbound frames until the peer goes away. Clients have
// nothing to say; the read loop exists to detect disconnects.
func (wh *Handler) readPump(client *Client, conn *gorillawebsocket.Conn) {
	defer func() {
		wh.hub.Unregister(client)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (wh *Handler) writePump(client *Client, conn *gorillawebsocket.Conn) {
	defer conn.Close()

	for message := range client.Send {
		if err := conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
