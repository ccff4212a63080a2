package room

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quizhive/quizhive/internal/models"
)

// Config holds the hub's tunable defaults.
type Config struct {
	// GracePeriod is how long a disconnected device keeps its identity and
	// room membership before removal.
	GracePeriod time.Duration

	// DefaultTimerSeconds is the per-question countdown used when a room
	// has no configured timer duration.
	DefaultTimerSeconds int

	// DefaultMaxCategorySelections caps vote submissions for rooms without
	// configured settings.
	DefaultMaxCategorySelections int

	// DefaultLocale is the fallback locale for question delivery.
	DefaultLocale string
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		GracePeriod:                  10 * time.Minute,
		DefaultTimerSeconds:          60,
		DefaultMaxCategorySelections: 5,
		DefaultLocale:                "en",
	}
}

// Hub owns every room and device table in the process. All state mutation
// happens inside run-to-completion handlers serialized by mu: inbound
// events, countdown ticks and grace-period expiries all take the lock, so
// no two handlers ever interleave on the same room.
type Hub struct {
	mu        sync.Mutex
	cfg       Config
	clock     clockwork.Clock
	transport Transport

	devices map[string]*models.Device
	rooms   map[string]*models.Room

	// countdowns holds at most one active countdown per room.
	countdowns map[string]*countdown

	// removals holds the pending grace-period removal per device id,
	// replaced on every disconnect and cancelled on reconnect.
	removals map[string]*removal
}

// NewHub creates a hub with the given transport and clock. Pass
// clockwork.NewRealClock() in production; tests inject a fake clock.
func NewHub(cfg Config, transport Transport, clock clockwork.Clock) *Hub {
	return &Hub{
		cfg:        cfg,
		clock:      clock,
		transport:  transport,
		devices:    make(map[string]*models.Device),
		rooms:      make(map[string]*models.Room),
		countdowns: make(map[string]*countdown),
		removals:   make(map[string]*removal),
	}
}

// maxSelections returns the vote cap for a room.
func (h *Hub) maxSelections(r *models.Room) int {
	if r.Settings != nil {
		return r.Settings.MaxCategorySelections
	}
	return h.cfg.DefaultMaxCategorySelections
}

// timerSeconds returns the configured countdown duration for a room, or
// (0, false) for untimed mode.
func (h *Hub) timerSeconds(r *models.Room) (int, bool) {
	if r.Settings != nil {
		if r.Settings.TimerDurationSeconds == nil {
			return 0, false
		}
		return *r.Settings.TimerDurationSeconds, true
	}
	return h.cfg.DefaultTimerSeconds, true
}
