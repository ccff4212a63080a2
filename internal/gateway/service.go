package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/room"
)

// Service bundles the WebSocket transport: connection manager, inbound
// dispatcher and the upgrade handler. The connection manager doubles as the
// hub's room.Transport.
type Service struct {
	connectionManager *ConnectionManager
	dispatcher        *Dispatcher
	wsHandler         *WebSocketHandler
}

// NewService creates the gateway around an already-constructed connection
// manager and hub. The manager must be the same instance the hub was given
// as its transport.
func NewService(cm *ConnectionManager, hub *room.Hub, defaultLocale string) *Service {
	dispatcher := NewDispatcher(hub)
	cm.SetDispatcher(dispatcher)

	return &Service{
		connectionManager: cm,
		dispatcher:        dispatcher,
		wsHandler:         NewWebSocketHandler(cm, dispatcher, defaultLocale),
	}
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}
