package room

import "github.com/quizhive/quizhive/internal/models"

// Transport is the wire collaborator consumed by the hub. Broadcasting is
// fire-and-forget: the hub computes a payload reflecting state exactly as of
// the mutation that triggered it and never blocks on delivery.
type Transport interface {
	Send(conn models.Conn, event string, payload any)
	Broadcast(roomID string, event string, payload any)
	JoinGroup(conn models.Conn, roomID string)
	LeaveGroup(conn models.Conn, roomID string)
}
