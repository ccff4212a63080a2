package room

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quizhive/quizhive/internal/models"
)

type sentEvent struct {
	conn    models.Conn
	roomID  string
	event   string
	payload any
}

// fakeTransport records everything the hub pushes.
type fakeTransport struct {
	mu     sync.Mutex
	events []sentEvent
}

func (t *fakeTransport) Send(conn models.Conn, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{conn: conn, event: event, payload: payload})
}

func (t *fakeTransport) Broadcast(roomID string, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{roomID: roomID, event: event, payload: payload})
}

func (t *fakeTransport) JoinGroup(conn models.Conn, roomID string)  {}
func (t *fakeTransport) LeaveGroup(conn models.Conn, roomID string) {}

func (t *fakeTransport) named(event string) []sentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentEvent
	for _, e := range t.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (t *fakeTransport) last(event string) (sentEvent, bool) {
	matches := t.named(event)
	if len(matches) == 0 {
		return sentEvent{}, false
	}
	return matches[len(matches)-1], true
}

func (t *fakeTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

type fakeConn struct{ id string }

func (c *fakeConn) ConnID() string { return c.id }

func newTestHub(t *testing.T) (*Hub, *fakeTransport, *clockwork.FakeClock) {
	t.Helper()
	transport := &fakeTransport{}
	clock := clockwork.NewFakeClock()
	return NewHub(DefaultConfig(), transport, clock), transport, clock
}

// waitFor polls until cond holds, tolerating timer callbacks that fire on a
// separate goroutine.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// addMember registers a device and joins it to the room.
func addMember(t *testing.T, h *Hub, roomID, deviceID, name string) *fakeConn {
	t.Helper()
	conn := &fakeConn{id: "conn-" + deviceID}
	h.RegisterDevice(deviceID, conn, "en")
	if _, err := h.JoinRoom(roomID, deviceID, name); err != nil {
		t.Fatalf("join %s: %v", deviceID, err)
	}
	return conn
}

// newRoom registers an admin device and creates a room for it.
func newRoom(t *testing.T, h *Hub, roomID, adminID string) *fakeConn {
	t.Helper()
	conn := &fakeConn{id: "conn-" + adminID}
	h.RegisterDevice(adminID, conn, "en")
	if _, err := h.CreateRoom(roomID, adminID, "Admin"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	return conn
}
