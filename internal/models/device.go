package models

// DeviceRole defines the role a device holds within its room.
type DeviceRole string

const (
	DeviceRoleAdmin DeviceRole = "admin"
	DeviceRoleGuest DeviceRole = "guest"
)

// Conn is the transport-level handle for a device's live connection.
// Handles are compared by identity: a reconnect replaces the handle, and
// deferred cleanup keyed to the old handle must detect the mismatch.
type Conn interface {
	ConnID() string
}

// Device represents a persistent participant identity. It survives
// reconnects; only the connection handle is replaced.
type Device struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Locale      string     `json:"locale"`
	Role        DeviceRole `json:"role"`
	IsReady     bool       `json:"isReady"`
	IsActive    bool       `json:"isActive"`

	// Conn is the current live connection, nil while disconnected.
	Conn Conn `json:"-"`

	// RoomID is a non-owning back-reference, empty when not in a room.
	RoomID string `json:"-"`
}
