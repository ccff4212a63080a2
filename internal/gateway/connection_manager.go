package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/models"
)

// ConnectionManager owns all live WebSocket connections and their room
// groups. It implements room.Transport: the hub never sees a raw socket.
type ConnectionManager struct {
	// groups organizes connections by room id for broadcasting.
	groups map[string]map[*Connection]bool
	conns  map[*Connection]bool
	mu     sync.RWMutex

	upgrader   websocket.Upgrader
	config     ConnectionConfig
	dispatcher *Dispatcher
}

// Connection represents one WebSocket connection to a client. It is the
// connection handle the registry tracks; handle identity is pointer
// identity.
type Connection struct {
	ID       string
	DeviceID string
	Locale   string
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	// done is closed when the connection is unregistered so in-flight
	// sends never touch a closed channel.
	done chan struct{}

	roomID string

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnID returns the unique id of this connection handle.
func (c *Connection) ConnID() string { return c.ID }

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// outboundEvent is the wire envelope for every server-to-client message.
type outboundEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		groups: make(map[string]map[*Connection]bool),
		conns:  make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// SetDispatcher wires the inbound event dispatcher. Must be called before
// the first upgrade.
func (cm *ConnectionManager) SetDispatcher(d *Dispatcher) {
	cm.dispatcher = d
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its read/write pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, deviceID, locale string) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		DeviceID:    deviceID,
		Locale:      locale,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("device_id", deviceID).
		Str("locale", locale).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conns[conn] = true
}

// unregisterConnection removes a connection from the manager and its group.
// Safe to call more than once.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.conns[conn] {
		return
	}
	delete(cm.conns, conn)
	cm.removeFromGroup(conn)
	close(conn.done)

	log.Info().
		Str("connection_id", conn.ID).
		Str("device_id", conn.DeviceID).
		Msg("connection unregistered")
}

// removeFromGroup drops the connection from its current room group. Caller
// holds cm.mu.
func (cm *ConnectionManager) removeFromGroup(conn *Connection) {
	if conn.roomID == "" {
		return
	}
	if group, ok := cm.groups[conn.roomID]; ok {
		delete(group, conn)
		if len(group) == 0 {
			delete(cm.groups, conn.roomID)
		}
	}
	conn.roomID = ""
}

// JoinGroup subscribes a connection to a room's broadcasts. A connection
// belongs to at most one group at a time.
func (cm *ConnectionManager) JoinGroup(handle models.Conn, roomID string) {
	conn, ok := handle.(*Connection)
	if !ok || conn == nil {
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.conns[conn] {
		return
	}
	cm.removeFromGroup(conn)
	if cm.groups[roomID] == nil {
		cm.groups[roomID] = make(map[*Connection]bool)
	}
	cm.groups[roomID][conn] = true
	conn.roomID = roomID
}

// LeaveGroup unsubscribes a connection from a room's broadcasts.
func (cm *ConnectionManager) LeaveGroup(handle models.Conn, roomID string) {
	conn, ok := handle.(*Connection)
	if !ok || conn == nil {
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn.roomID == roomID {
		cm.removeFromGroup(conn)
	}
}

// Send pushes a single event to one connection. Delivery is fire-and-forget.
func (cm *ConnectionManager) Send(handle models.Conn, event string, payload any) {
	conn, ok := handle.(*Connection)
	if !ok || conn == nil {
		return
	}

	data, err := json.Marshal(outboundEvent{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal event")
		return
	}
	cm.enqueue(conn, data)
}

// Broadcast pushes an event to every connection in a room group. The
// payload is marshaled once.
func (cm *ConnectionManager) Broadcast(roomID string, event string, payload any) {
	data, err := json.Marshal(outboundEvent{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to marshal event for broadcast")
		return
	}

	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.groups[roomID]))
	for conn := range cm.groups[roomID] {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		cm.enqueue(conn, data)
	}

	log.Debug().
		Str("event", event).
		Str("room_id", roomID).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// enqueue puts data on the connection's send queue, closing the connection
// when its buffer is full: a client that cannot keep up is dropped rather
// than allowed to stall the room.
func (cm *ConnectionManager) enqueue(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	case <-conn.done:
	default:
		log.Warn().
			Str("connection_id", conn.ID).
			Str("device_id", conn.DeviceID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// Stats returns counts of active connections and room groups.
func (cm *ConnectionManager) Stats() (totalConnections, activeGroups int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.conns), len(cm.groups)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump handles reading messages from the WebSocket connection and feeds
// them to the dispatcher. When the read loop ends the connection counts as
// disconnected.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
		if c.Manager.dispatcher != nil {
			c.Manager.dispatcher.Disconnected(c)
		}
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.dispatcher != nil {
			c.Manager.dispatcher.Dispatch(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
