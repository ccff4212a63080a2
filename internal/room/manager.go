package room

import (
	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/models"
)

// CreateRoom creates a room owned by the given device and returns the
// creator's personalized view.
func (h *Hub) CreateRoom(roomID, adminDeviceID, displayName string) (*RoomView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.rooms[roomID]; exists {
		return nil, ErrRoomAlreadyExists
	}
	d, ok := h.devices[adminDeviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	h.leaveCurrentRoom(d)

	r := &models.Room{
		ID:      roomID,
		AdminID: adminDeviceID,
		Votes:   make(map[string][]string),
	}
	h.rooms[roomID] = r

	if displayName != "" {
		d.DisplayName = displayName
	}
	d.Role = models.DeviceRoleAdmin
	d.IsReady = false
	d.RoomID = roomID
	r.MemberIDs = append(r.MemberIDs, d.ID)
	h.transport.JoinGroup(d.Conn, roomID)

	log.Info().Str("room_id", roomID).Str("admin_id", adminDeviceID).Msg("room created")
	return h.buildView(r, d.Locale), nil
}

// JoinRoom adds a device to an existing room, broadcasts the updated view to
// all members and returns the joiner's personalized view.
func (h *Hub) JoinRoom(roomID, deviceID, displayName string) (*RoomView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	d, ok := h.devices[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}

	if d.RoomID != roomID {
		h.leaveCurrentRoom(d)
	}

	if displayName != "" {
		d.DisplayName = displayName
	}
	if deviceID == r.AdminID {
		d.Role = models.DeviceRoleAdmin
	} else {
		d.Role = models.DeviceRoleGuest
	}
	d.IsReady = false
	d.RoomID = roomID
	if !r.IsMember(deviceID) {
		r.MemberIDs = append(r.MemberIDs, deviceID)
	}
	h.transport.JoinGroup(d.Conn, roomID)

	log.Info().Str("room_id", roomID).Str("device_id", deviceID).Msg("device joined room")

	h.broadcastUpdate(r)
	return h.buildView(r, d.Locale), nil
}

// Leave handles a voluntary leave. An admin leaving force-closes the room;
// a guest is simply removed.
func (h *Hub) Leave(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	d, ok := h.devices[deviceID]
	if !ok {
		return
	}
	h.leaveCurrentRoom(d)
}

// leaveCurrentRoom detaches a device from whatever room it is in. A
// departing admin takes the whole room down with it.
func (h *Hub) leaveCurrentRoom(d *models.Device) {
	r, ok := h.rooms[d.RoomID]
	if !ok {
		return
	}
	if r.AdminID == d.ID {
		h.forceClose(r, "admin_left", false)
		return
	}
	h.removeFromRoom(r, d, "")
}

// RemoveMember evicts a member on the admin's behalf. The operation is a
// silent no-op when the requester lacks authority, the target is the admin
// itself, or the target is not a member.
func (h *Hub) RemoveMember(roomID, requesterID, targetID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || targetID == r.AdminID || !r.IsMember(targetID) {
		log.Debug().Str("room_id", roomID).Str("requester_id", requesterID).Str("target_id", targetID).
			Msg("remove-device ignored")
		return
	}
	d, ok := h.devices[targetID]
	if !ok {
		return
	}

	log.Info().Str("room_id", roomID).Str("target_id", targetID).Str("reason", reason).Msg("member removed by admin")
	h.removeFromRoom(r, d, reason)
}

// SetReady updates a member's ready flag and refreshes the room view.
func (h *Hub) SetReady(roomID, deviceID string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || !r.IsMember(deviceID) {
		return
	}
	d, ok := h.devices[deviceID]
	if !ok {
		return
	}
	d.IsReady = ready
	h.broadcastUpdate(r)
}

// removeFromRoom detaches a guest and notifies the remainder. The departed
// member receives a direct force-leave signal only when an explicit reason
// was supplied.
func (h *Hub) removeFromRoom(r *models.Room, d *models.Device, reason string) {
	h.detachMember(r, d, reason)

	if _, exists := h.rooms[r.ID]; exists {
		h.broadcastUpdate(r)
	}
}

// detachMember clears a device's membership state and deletes the room if it
// became empty. No broadcast is sent here; broadcasting an empty room would
// reach no one.
func (h *Hub) detachMember(r *models.Room, d *models.Device, reason string) {
	r.RemoveMemberID(d.ID)
	d.RoomID = ""
	d.Role = models.DeviceRoleGuest
	d.IsReady = false
	h.transport.LeaveGroup(d.Conn, r.ID)

	if reason != "" {
		h.transport.Send(d.Conn, EventForceLeaveChannel, ForceLeavePayload{RoomID: r.ID, Reason: reason})
	}

	if len(r.MemberIDs) == 0 {
		h.deleteRoom(r)
	}
}

// forceClose evicts every member, notifying non-admin members with the
// reason, then deletes the room. Intermediate per-member broadcasts are
// suppressed.
func (h *Hub) forceClose(r *models.Room, reason string, notifyAdmin bool) {
	h.cancelCountdown(r.ID)

	members := append([]string(nil), r.MemberIDs...)
	for _, id := range members {
		d, ok := h.devices[id]
		if !ok {
			continue
		}
		d.RoomID = ""
		d.Role = models.DeviceRoleGuest
		d.IsReady = false
		h.transport.LeaveGroup(d.Conn, r.ID)

		if id != r.AdminID || notifyAdmin {
			h.transport.Send(d.Conn, EventForceLeaveChannel, ForceLeavePayload{RoomID: r.ID, Reason: reason})
		}
	}
	r.MemberIDs = nil

	log.Info().Str("room_id", r.ID).Str("reason", reason).Msg("room force-closed")
	h.deleteRoom(r)
}

// deleteRoom removes the room and any countdown still attached to it.
func (h *Hub) deleteRoom(r *models.Room) {
	h.cancelCountdown(r.ID)
	delete(h.rooms, r.ID)
	log.Info().Str("room_id", r.ID).Msg("room deleted")
}
