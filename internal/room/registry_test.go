package room

import (
	"errors"
	"testing"
	"time"

	"github.com/quizhive/quizhive/internal/models"
)

func TestReconnectWithinGraceKeepsMembership(t *testing.T) {
	h, _, clock := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	conn1 := addMember(t, h, "r1", "guest", "Guest")

	h.MarkInactive("guest", conn1)
	clock.Advance(5 * time.Minute)

	conn2 := &fakeConn{id: "conn-guest-2"}
	h.RegisterDevice("guest", conn2, "en")

	// The grace period keyed to the old handle must not fire anymore.
	clock.Advance(20 * time.Minute)

	waitFor(t, func() bool {
		d, ok := h.GetDevice("guest")
		return ok && d.IsActive && d.RoomID == "r1" && d.Role == models.DeviceRoleGuest
	})
}

func TestGraceExpiryRemovesGuest(t *testing.T) {
	h, transport, clock := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	conn := addMember(t, h, "r1", "guest", "Guest")
	transport.reset()

	h.MarkInactive("guest", conn)
	clock.Advance(10 * time.Minute)

	waitFor(t, func() bool {
		_, ok := h.GetDevice("guest")
		return !ok
	})

	ev, ok := transport.last(EventChannelUpdate)
	if !ok {
		t.Fatal("expected channel-update after removal")
	}
	view := ev.payload.(*RoomView)
	if len(view.Devices) != 1 || view.Devices[0].ID != "admin" {
		t.Fatalf("guest should be gone from the view: %+v", view.Devices)
	}
}

func TestGraceExpiryForAdminForceClosesRoom(t *testing.T) {
	h, transport, clock := newTestHub(t)
	adminConn := newRoom(t, h, "r1", "admin")
	guestConn := addMember(t, h, "r1", "guest", "Guest")
	transport.reset()

	h.MarkInactive("admin", adminConn)
	clock.Advance(10 * time.Minute)

	waitFor(t, func() bool {
		_, ok := h.GetDevice("admin")
		return !ok
	})

	evs := transport.named(EventForceLeaveChannel)
	if len(evs) != 1 || evs[0].conn != guestConn {
		t.Fatalf("guest should be evicted, got %+v", evs)
	}
	if p := evs[0].payload.(ForceLeavePayload); p.Reason != "admin_disconnected" {
		t.Fatalf("unexpected reason %q", p.Reason)
	}
	if _, err := h.JoinRoom("r1", "guest", ""); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("room should no longer exist, got %v", err)
	}
}

func TestMarkInactiveIgnoresStaleHandle(t *testing.T) {
	h, _, clock := newTestHub(t)
	conn1 := &fakeConn{id: "c1"}
	h.RegisterDevice("dev", conn1, "en")
	conn2 := &fakeConn{id: "c2"}
	h.RegisterDevice("dev", conn2, "en")

	// The close notification for the superseded handle arrives late.
	h.MarkInactive("dev", conn1)

	d, _ := h.GetDevice("dev")
	if !d.IsActive {
		t.Fatal("device should still be active on its new connection")
	}

	clock.Advance(30 * time.Minute)
	if _, ok := h.GetDevice("dev"); !ok {
		t.Fatal("no removal should have been scheduled for the stale handle")
	}
}

func TestRegisterRefreshesLocaleAndHandle(t *testing.T) {
	h, _, _ := newTestHub(t)
	conn1 := &fakeConn{id: "c1"}
	h.RegisterDevice("dev", conn1, "en")
	conn2 := &fakeConn{id: "c2"}
	d := h.RegisterDevice("dev", conn2, "de")

	if d.Conn != conn2 || d.Locale != "de" || !d.IsActive {
		t.Fatalf("refresh did not replace handle/locale: %+v", d)
	}
}
