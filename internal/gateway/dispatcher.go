package gateway

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/room"
)

// reason attached to admin-initiated evictions.
const reasonRemovedByAdmin = "removed_by_admin"

// Dispatcher decodes inbound client events and invokes the matching hub
// handler. Handlers run to completion before the next message from the same
// connection is read.
type Dispatcher struct {
	hub *room.Hub
}

// NewDispatcher creates a dispatcher bound to the hub.
func NewDispatcher(hub *room.Hub) *Dispatcher {
	return &Dispatcher{hub: hub}
}

// Connected registers the device identity behind a fresh connection.
func (d *Dispatcher) Connected(c *Connection) {
	d.hub.RegisterDevice(c.DeviceID, c, c.Locale)
}

// Disconnected feeds the transport-level disconnect into the registry,
// starting the grace period for this connection handle.
func (d *Dispatcher) Disconnected(c *Connection) {
	d.hub.MarkInactive(c.DeviceID, c)
}

// Dispatch routes one raw inbound message. Undecodable messages and unknown
// event names are dropped with a log line; a misbehaving client gets no
// diagnostic over the wire.
func (d *Dispatcher) Dispatch(c *Connection, raw []byte) {
	var env inboundEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("undecodable inbound message")
		return
	}

	switch env.Event {
	case EventCreateChannel:
		var p displayNamePayload
		decode(env.Payload, &p)
		deviceID := env.DeviceID
		if deviceID == "" {
			deviceID = c.DeviceID
		}
		view, err := d.hub.CreateRoom(env.RoomID, deviceID, p.DisplayName)
		if err != nil {
			d.sendError(c, err)
			return
		}
		c.Manager.Send(c, room.EventJoinedChannel, view)

	case EventJoinChannel:
		var p displayNamePayload
		decode(env.Payload, &p)
		deviceID := env.DeviceID
		if deviceID == "" {
			deviceID = c.DeviceID
		}
		view, err := d.hub.JoinRoom(env.RoomID, deviceID, p.DisplayName)
		if err != nil {
			d.sendError(c, err)
			return
		}
		c.Manager.Send(c, room.EventJoinedChannel, view)

	case EventLeaveChannel:
		d.hub.Leave(c.DeviceID)

	case EventDeviceStatus:
		var p deviceStatusPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.SetDeviceStatus(c.DeviceID, p.IsActive)

	case EventUpdateCategoryVote:
		var p categoryVotePayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.SubmitVote(roomID(env, p.RoomID), c.DeviceID, p.Categories)

	case EventUpdateReadyState:
		var p readyStatePayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.SetReady(roomID(env, p.RoomID), c.DeviceID, p.IsReady)

	case EventCloseCategoryVote:
		var p roomPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.CloseVoting(roomID(env, p.RoomID), c.DeviceID)

	case EventStartGame:
		var p startGamePayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.StartGame(roomID(env, p.RoomID), c.DeviceID, p.Settings)

	case EventUpdateGameSettings:
		var p gameSettingsPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.ConfigureSettings(roomID(env, p.RoomID), c.DeviceID, p.Settings)

	case EventLoadQuestions:
		var p loadQuestionsPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.LoadQuestions(roomID(env, p.RoomID), c.DeviceID, p.Questions)

	case EventSubmitAnswer:
		var p submitAnswerPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.SubmitAnswer(roomID(env, p.RoomID), c.DeviceID, p.QuestionIndex, p.AnswerIndex, p.TimeSpent)

	case EventNextQuestion:
		var p roomPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.AdvanceQuestion(roomID(env, p.RoomID), c.DeviceID)

	case EventResetGame:
		var p roomPayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.ResetGame(roomID(env, p.RoomID), c.DeviceID)

	case EventRemoveDevice:
		var p removeDevicePayload
		if !decode(env.Payload, &p) {
			return
		}
		d.hub.RemoveMember(roomID(env, p.RoomID), c.DeviceID, p.TargetDeviceID, reasonRemovedByAdmin)

	case EventUpdateLocale:
		var p updateLocalePayload
		if !decode(env.Payload, &p) {
			return
		}
		c.Locale = p.Locale
		d.hub.UpdateLocale(c.DeviceID, p.Locale)

	case EventPing:
		c.Manager.Send(c, room.EventPong, pongPayload{Timestamp: time.Now().UnixMilli()})

	default:
		log.Debug().Str("event", env.Event).Str("connection_id", c.ID).Msg("unknown inbound event")
	}
}

func (d *Dispatcher) sendError(c *Connection, err error) {
	c.Manager.Send(c, room.EventChannelError, room.ChannelErrorPayload{Error: room.ErrorCode(err)})
}

// roomID prefers the payload-level room id and falls back to the envelope.
func roomID(env inboundEvent, payloadRoomID string) string {
	if payloadRoomID != "" {
		return payloadRoomID
	}
	return env.RoomID
}

func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Debug().Err(err).Msg("undecodable event payload")
		return false
	}
	return true
}
