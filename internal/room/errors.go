package room

import "errors"

// Protocol errors are surfaced to the originating caller as a channel-error
// event. Everything else (wrong role, stale indexes, duplicate answers,
// malformed settings) is a silent no-op, logged but not sent over the wire.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
)

// ErrorCode maps a protocol error to its wire representation.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, ErrDeviceNotFound):
		return "DEVICE_NOT_FOUND"
	case errors.Is(err, ErrRoomAlreadyExists):
		return "ROOM_ALREADY_EXISTS"
	default:
		return "INTERNAL_ERROR"
	}
}
