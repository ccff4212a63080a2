package room

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/models"
)

// countdown is the per-room one-second question timer. At most one countdown
// is active per room; every transition that invalidates the current question
// cancels it before arming a new one.
type countdown struct {
	roomID string
	timer  clockwork.Timer
}

// startCountdown arms the repeating tick for a room's current question,
// replacing any countdown already attached to the room. Caller holds h.mu.
func (h *Hub) startCountdown(r *models.Room) {
	h.cancelCountdown(r.ID)

	c := &countdown{roomID: r.ID}
	h.countdowns[r.ID] = c
	c.timer = h.clock.AfterFunc(time.Second, func() {
		h.tick(c)
	})

	log.Debug().Str("room_id", r.ID).Int("seconds", r.Session.TimerRemainingSeconds).Msg("countdown started")
}

// cancelCountdown stops and forgets the room's countdown, if any. A tick
// that already fired but lost the race detects the replacement in tick and
// does nothing. Caller holds h.mu.
func (h *Hub) cancelCountdown(roomID string) {
	if c, ok := h.countdowns[roomID]; ok {
		c.timer.Stop()
		delete(h.countdowns, roomID)
		log.Debug().Str("room_id", roomID).Msg("countdown cancelled")
	}
}

// tick decrements the remaining time, broadcasts the updated view and either
// re-arms itself or, at zero, retires and emits the timeout notification.
func (h *Hub) tick(c *countdown) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.countdowns[c.roomID]; !ok || current != c {
		return
	}
	r, ok := h.rooms[c.roomID]
	if !ok || r.Session == nil || r.Session.IsShowingResults {
		delete(h.countdowns, c.roomID)
		return
	}
	s := r.Session

	if s.TimerRemainingSeconds > 0 {
		s.TimerRemainingSeconds--
	}

	if s.TimerRemainingSeconds > 0 {
		// Re-arm before broadcasting so the next tick is always pending by
		// the time clients observe this one.
		c.timer = h.clock.AfterFunc(time.Second, func() {
			h.tick(c)
		})
		h.broadcastUpdate(r)
		return
	}

	delete(h.countdowns, c.roomID)
	h.broadcastUpdate(r)
	log.Info().Str("room_id", r.ID).Int("question_index", s.CurrentQuestionIndex).Msg("question timed out")
	h.transport.Broadcast(r.ID, EventQuestionTimeout, QuestionTimeoutPayload{
		QuestionIndex: s.CurrentQuestionIndex,
	})
}
