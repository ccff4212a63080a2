package room

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/quizhive/quizhive/internal/models"
)

func questionsJSON() json.RawMessage {
	return json.RawMessage(`[
		{"id":"q1","prompt":"2+2?","options":["3","4"],"correctAnswerIndex":1,"points":10,"difficulty":"easy","category":"Math"},
		{"id":"q2","prompt":"Capital of France?","options":["Paris","Rome"],"correctAnswerIndex":0,"points":10,"difficulty":"easy","category":"Geography"}
	]`)
}

func validSettings(timerSeconds *int) models.GameSettings {
	return models.GameSettings{
		QuestionCount:                2,
		TimerDurationSeconds:         timerSeconds,
		MaxCategorySelections:        5,
		TopCategoriesCount:           5,
		LowTimeThresholdSeconds:      10,
		CriticalTimeThresholdSeconds: 5,
	}
}

// startedGame builds a room with admin plus guests x and y, passes the ready
// gate, starts the game and loads two questions.
func startedGame(t *testing.T, h *Hub, timerSeconds *int) {
	t.Helper()
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "x", "X")
	addMember(t, h, "r1", "y", "Y")
	h.SetReady("r1", "x", true)
	h.SetReady("r1", "y", true)
	if timerSeconds != nil {
		s := validSettings(timerSeconds)
		h.ConfigureSettings("r1", "admin", s)
	}
	h.StartGame("r1", "admin", nil)
	h.LoadQuestions("r1", "admin", questionsJSON())
}

func TestStartGameReadyGate(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "guest", "Guest")
	transport.reset()

	// Guest not ready: start fails silently.
	h.StartGame("r1", "admin", nil)
	if _, ok := transport.last(EventGameStarted); ok {
		t.Fatal("start should be blocked while a guest is not ready")
	}

	h.SetReady("r1", "guest", true)
	h.StartGame("r1", "admin", nil)
	ev, ok := transport.last(EventGameStarted)
	if !ok {
		t.Fatal("start should succeed once all guests are ready")
	}
	p := ev.payload.(GameStartedPayload)
	if p.RoomID != "r1" || len(p.Devices) != 2 {
		t.Fatalf("unexpected roster: %+v", p)
	}
}

func TestStartGameRequiresNonAdminMember(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	transport.reset()

	h.StartGame("r1", "admin", nil)
	if _, ok := transport.last(EventGameStarted); ok {
		t.Fatal("start with only the admin should be blocked")
	}
}

func TestStartGameRequiresAdmin(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "guest", "Guest")
	h.SetReady("r1", "guest", true)
	transport.reset()

	h.StartGame("r1", "guest", nil)
	if _, ok := transport.last(EventGameStarted); ok {
		t.Fatal("non-admin start should be a silent no-op")
	}
}

func TestSubmitAnswerAcceptedOnce(t *testing.T) {
	h, transport, _ := newTestHub(t)
	startedGame(t, h, nil)
	transport.reset()

	h.SubmitAnswer("r1", "x", 0, 1, 2.5)
	h.SubmitAnswer("r1", "x", 0, 0, 3.0)

	evs := transport.named(EventAnswerResult)
	if len(evs) != 1 {
		t.Fatalf("duplicate answer should be dropped, got %d results", len(evs))
	}
	p := evs[0].payload.(AnswerResultPayload)
	if !p.IsCorrect || p.Points != 10 || p.DeviceID != "x" || p.QuestionIndex != 0 {
		t.Fatalf("unexpected answer result: %+v", p)
	}
}

func TestSubmitAnswerStaleIndexDropped(t *testing.T) {
	h, transport, _ := newTestHub(t)
	startedGame(t, h, nil)
	transport.reset()

	h.SubmitAnswer("r1", "x", 1, 0, 1.0)
	if evs := transport.named(EventAnswerResult); len(evs) != 0 {
		t.Fatal("answer for a non-current question should be dropped")
	}
}

func TestRankingOrder(t *testing.T) {
	h, transport, _ := newTestHub(t)
	startedGame(t, h, nil)

	// X answers both questions correctly, Y gets one of two.
	h.SubmitAnswer("r1", "x", 0, 1, 2.0)
	h.SubmitAnswer("r1", "y", 0, 0, 2.0)
	h.AdvanceQuestion("r1", "admin")
	h.SubmitAnswer("r1", "x", 1, 0, 2.0)
	h.SubmitAnswer("r1", "y", 1, 0, 2.0)
	h.AdvanceQuestion("r1", "admin")

	ev, ok := transport.last(EventGameFinished)
	if !ok {
		t.Fatal("expected game-finished after the last question")
	}
	p := ev.payload.(GameFinishedPayload)
	if p.TotalQuestions != 2 || len(p.Ranking) != 2 {
		t.Fatalf("unexpected payload: %+v", p)
	}
	first, second := p.Ranking[0], p.Ranking[1]
	if first.DeviceID != "x" || first.Position != 1 || first.Points != 20 || first.Accuracy != 100 {
		t.Fatalf("unexpected winner: %+v", first)
	}
	if second.DeviceID != "y" || second.Position != 2 || second.Points != 10 || second.Accuracy != 50 {
		t.Fatalf("unexpected runner-up: %+v", second)
	}
}

func TestAdvanceRequiresAdmin(t *testing.T) {
	h, transport, _ := newTestHub(t)
	startedGame(t, h, nil)
	transport.reset()

	h.AdvanceQuestion("r1", "x")
	ev, ok := transport.last(EventChannelUpdate)
	if ok && ev.payload.(*RoomView).Session.CurrentQuestionIndex != 0 {
		t.Fatal("non-admin advance should be a silent no-op")
	}
}

func TestCountdownTicksAndTimesOut(t *testing.T) {
	h, transport, clock := newTestHub(t)
	timer := 5
	startedGame(t, h, &timer)

	for expect := 4; expect >= 1; expect-- {
		clock.Advance(time.Second)
		waitFor(t, func() bool {
			ev, ok := transport.last(EventChannelUpdate)
			if !ok {
				return false
			}
			v := ev.payload.(*RoomView)
			return v.Session != nil && v.Session.TimerRemainingSeconds == expect
		})
	}

	clock.Advance(time.Second)
	waitFor(t, func() bool {
		_, ok := transport.last(EventQuestionTimeout)
		return ok
	})

	ev, _ := transport.last(EventQuestionTimeout)
	if p := ev.payload.(QuestionTimeoutPayload); p.QuestionIndex != 0 {
		t.Fatalf("unexpected timeout payload: %+v", p)
	}

	// The state machine does not auto-advance on timeout.
	view, _ := transport.last(EventChannelUpdate)
	if view.payload.(*RoomView).Session.CurrentQuestionIndex != 0 {
		t.Fatal("timeout must not advance the question")
	}
}

func TestAdvanceRestartsCountdown(t *testing.T) {
	h, transport, clock := newTestHub(t)
	timer := 5
	startedGame(t, h, &timer)

	clock.Advance(2 * time.Second)
	waitFor(t, func() bool {
		ev, ok := transport.last(EventChannelUpdate)
		return ok && ev.payload.(*RoomView).Session.TimerRemainingSeconds == 3
	})

	h.AdvanceQuestion("r1", "admin")
	ev, _ := transport.last(EventChannelUpdate)
	v := ev.payload.(*RoomView).Session
	if v.CurrentQuestionIndex != 1 || v.TimerRemainingSeconds != 5 {
		t.Fatalf("advance should reset the countdown: %+v", v)
	}
}

func TestUntimedModeSkipsCountdown(t *testing.T) {
	h, _, clock := newTestHub(t)
	startedGameUntimed(t, h)

	clock.Advance(time.Minute)

	h.mu.Lock()
	active := len(h.countdowns)
	h.mu.Unlock()
	if active != 0 {
		t.Fatal("untimed mode must not run a countdown")
	}
}

// startedGameUntimed configures a nil timer duration before starting.
func startedGameUntimed(t *testing.T, h *Hub) {
	t.Helper()
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "x", "X")
	h.SetReady("r1", "x", true)
	s := validSettings(nil)
	h.ConfigureSettings("r1", "admin", s)
	h.StartGame("r1", "admin", nil)
	h.LoadQuestions("r1", "admin", questionsJSON())
}

func TestResetGamePreservesVotes(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "x", "X")
	h.SubmitVote("r1", "x", []any{"Science"})
	h.CloseVoting("r1", "admin")
	h.SetReady("r1", "x", true)
	h.StartGame("r1", "admin", nil)
	h.LoadQuestions("r1", "admin", questionsJSON())
	h.SubmitAnswer("r1", "x", 0, 1, 1.0)

	h.ResetGame("r1", "admin")

	if _, ok := transport.last(EventGameReset); !ok {
		t.Fatal("expected game-reset signal")
	}
	ev, _ := transport.last(EventChannelUpdate)
	view := ev.payload.(*RoomView)
	if view.IsGameStarted || view.Session != nil {
		t.Fatalf("session should be cleared: %+v", view)
	}
	if !view.IsVotingClosed || len(view.CategoryTally) != 1 {
		t.Fatal("votes and voting-closed state must survive a reset")
	}
	d, _ := h.GetDevice("x")
	if d.IsReady {
		t.Fatal("guest ready state must be cleared on reset")
	}
}

func TestConfigureSettingsValidation(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	addMember(t, h, "r1", "x", "X")
	transport.reset()

	bad := validSettings(nil)
	bad.QuestionCount = 0
	h.ConfigureSettings("r1", "admin", bad)
	if _, ok := transport.last(EventChannelUpdate); ok {
		t.Fatal("invalid settings should be rejected wholesale")
	}

	good := validSettings(nil)
	h.ConfigureSettings("r1", "admin", good)
	ev, ok := transport.last(EventChannelUpdate)
	if !ok || ev.payload.(*RoomView).Settings == nil {
		t.Fatal("valid settings should be applied and broadcast")
	}

	// Settings are frozen once the game starts.
	h.SetReady("r1", "x", true)
	h.StartGame("r1", "admin", nil)
	changed := validSettings(nil)
	changed.QuestionCount = 50
	h.ConfigureSettings("r1", "admin", changed)
	ev, _ = transport.last(EventChannelUpdate)
	if ev.payload.(*RoomView).Settings.QuestionCount != 2 {
		t.Fatal("settings must not change after the game started")
	}
}

func TestLocalizedQuestionViews(t *testing.T) {
	h, transport, _ := newTestHub(t)
	newRoom(t, h, "r1", "admin")
	conn := &fakeConn{id: "conn-x"}
	h.RegisterDevice("x", conn, "de")
	if _, err := h.JoinRoom("r1", "x", "X"); err != nil {
		t.Fatalf("join: %v", err)
	}
	h.SetReady("r1", "x", true)
	h.StartGame("r1", "admin", nil)
	transport.reset()

	payload := json.RawMessage(`{
		"en": [{"id":"q1","prompt":"Hello?","options":["a","b"],"correctAnswerIndex":0,"points":5,"difficulty":"easy","category":"Misc"}],
		"de": [{"id":"q1","prompt":"Hallo?","options":["a","b"],"correctAnswerIndex":0,"points":5,"difficulty":"easy","category":"Misc"}]
	}`)
	h.LoadQuestions("r1", "admin", payload)

	var sawGerman, sawEnglish bool
	for _, ev := range transport.named(EventChannelUpdate) {
		if ev.conn == nil {
			t.Fatal("localized sessions must send per-member views, not group broadcasts")
		}
		view := ev.payload.(*RoomView)
		switch view.Session.Questions[0].Prompt {
		case "Hallo?":
			sawGerman = true
		case "Hello?":
			sawEnglish = true
		}
	}
	if !sawGerman || !sawEnglish {
		t.Fatal("each member should receive its own locale's questions")
	}
}

func TestViewOmitsCorrectAnswer(t *testing.T) {
	h, transport, _ := newTestHub(t)
	startedGame(t, h, nil)

	ev, _ := transport.last(EventChannelUpdate)
	data, err := json.Marshal(ev.payload)
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	if strings.Contains(string(data), "correctAnswerIndex") {
		t.Fatal("public view must not expose the correct answer index")
	}
}
