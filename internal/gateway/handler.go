package gateway

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for game connections.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	dispatcher        *Dispatcher
	defaultLocale     string
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, d *Dispatcher, defaultLocale string) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		dispatcher:        d,
		defaultLocale:     defaultLocale,
	}
}

// HandleConnection handles a client WebSocket connection. The persistent
// device identity is a caller-supplied opaque token, trusted as-is; a fresh
// id is generated when the client supplies none.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		deviceID = uuid.New().String()
	}

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.defaultLocale
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, deviceID, locale)
	if err != nil {
		log.Error().
			Err(err).
			Str("device_id", deviceID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	h.dispatcher.Connected(conn)
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, groups := h.connectionManager.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("{"))
	w.Write([]byte("\"total_connections\":" + strconv.Itoa(total) + ","))
	w.Write([]byte("\"active_rooms\":" + strconv.Itoa(groups)))
	w.Write([]byte("}"))
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
