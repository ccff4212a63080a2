package room

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/models"
)

// removal is a pending grace-period removal for a disconnected device. It is
// keyed to the specific connection handle that disconnected: if a newer
// connection has replaced the handle by the time the timer fires, the
// removal detects the mismatch and does nothing.
type removal struct {
	deviceID string
	conn     models.Conn
	timer    clockwork.Timer
}

// RegisterDevice creates a device on first sight of the persistent id, or
// refreshes the existing one: the connection handle is replaced, the device
// goes active again and any pending removal is cancelled. Idempotent per
// connection.
func (h *Hub) RegisterDevice(deviceID string, conn models.Conn, locale string) *models.Device {
	h.mu.Lock()
	defer h.mu.Unlock()

	if locale == "" {
		locale = h.cfg.DefaultLocale
	}

	d, ok := h.devices[deviceID]
	if !ok {
		d = &models.Device{
			ID:       deviceID,
			Locale:   locale,
			Role:     models.DeviceRoleGuest,
			IsActive: true,
			Conn:     conn,
		}
		h.devices[deviceID] = d
		log.Info().Str("device_id", deviceID).Str("locale", locale).Msg("device registered")
		return d
	}

	d.Conn = conn
	d.IsActive = true
	d.Locale = locale
	h.cancelRemoval(deviceID)

	log.Info().Str("device_id", deviceID).Msg("device reconnected")

	if r, ok := h.rooms[d.RoomID]; ok {
		h.transport.JoinGroup(conn, r.ID)
		h.broadcastUpdate(r)
	}
	return d
}

// MarkInactive flags the device as disconnected and schedules its removal
// after the grace period. A disconnect notification for a handle that has
// already been superseded by a reconnect is ignored.
func (h *Hub) MarkInactive(deviceID string, conn models.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[deviceID]
	if !ok || d.Conn != conn {
		return
	}

	d.IsActive = false
	h.scheduleRemoval(d, conn)

	log.Info().Str("device_id", deviceID).Dur("grace_period", h.cfg.GracePeriod).Msg("device inactive, removal scheduled")

	if r, ok := h.rooms[d.RoomID]; ok {
		h.broadcastUpdate(r)
	}
}

// GetDevice returns the device for the persistent id, if registered.
func (h *Hub) GetDevice(deviceID string) (*models.Device, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.devices[deviceID]
	return d, ok
}

// SetDeviceStatus updates the device's activity flag from an explicit
// client status report and refreshes the room view.
func (h *Hub) SetDeviceStatus(deviceID string, active bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[deviceID]
	if !ok {
		return
	}
	d.IsActive = active
	if r, ok := h.rooms[d.RoomID]; ok {
		h.broadcastUpdate(r)
	}
}

// UpdateLocale changes the locale used for localized question delivery.
func (h *Hub) UpdateLocale(deviceID, locale string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[deviceID]
	if !ok || locale == "" {
		return
	}
	d.Locale = locale
	if r, ok := h.rooms[d.RoomID]; ok {
		h.broadcastUpdate(r)
	}
}

// scheduleRemoval arms the grace-period timer for a disconnect, replacing
// any prior pending removal for the same device.
func (h *Hub) scheduleRemoval(d *models.Device, conn models.Conn) {
	h.cancelRemoval(d.ID)

	rm := &removal{deviceID: d.ID, conn: conn}
	rm.timer = h.clock.AfterFunc(h.cfg.GracePeriod, func() {
		h.removalFired(rm)
	})
	h.removals[d.ID] = rm
}

// cancelRemoval stops and forgets the pending removal for a device, if any.
func (h *Hub) cancelRemoval(deviceID string) {
	if rm, ok := h.removals[deviceID]; ok {
		rm.timer.Stop()
		delete(h.removals, deviceID)
	}
}

// removalFired runs when a grace period elapses with no reconnect. The
// handle identity is checked at fire time, not just elapsed time: a device
// that reconnected with a different handle is left alone.
func (h *Hub) removalFired(rm *removal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.removals[rm.deviceID]; !ok || current != rm {
		return
	}
	delete(h.removals, rm.deviceID)

	d, ok := h.devices[rm.deviceID]
	if !ok || d.Conn != rm.conn {
		log.Debug().Str("device_id", rm.deviceID).Msg("grace period fired for stale handle, ignoring")
		return
	}

	log.Info().Str("device_id", d.ID).Msg("grace period expired, removing device")

	if r, ok := h.rooms[d.RoomID]; ok {
		if r.AdminID == d.ID {
			h.forceClose(r, "admin_disconnected", false)
		} else {
			h.removeFromRoom(r, d, "")
		}
	}
	delete(h.devices, d.ID)
}
