package room

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quizhive/quizhive/internal/models"
)

// ConfigureSettings validates and applies a candidate settings object. A
// rejected object leaves the prior settings untouched. Settings cannot be
// changed once the game has started.
func (h *Hub) ConfigureSettings(roomID, requesterID string, settings models.GameSettings) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || r.IsGameStarted {
		return
	}
	if err := settings.Validate(); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("settings rejected")
		return
	}
	r.Settings = &settings
	h.broadcastUpdate(r)
}

// StartGame opens the game once the ready gate passes: at least one
// non-admin member exists and every non-admin member is ready. Optional
// settings go through the same validation as ConfigureSettings; an invalid
// object is discarded without blocking the start.
func (h *Hub) StartGame(roomID, requesterID string, settings *models.GameSettings) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || r.IsGameStarted {
		return
	}

	guests := 0
	for _, id := range r.MemberIDs {
		d, ok := h.devices[id]
		if !ok || id == r.AdminID {
			continue
		}
		guests++
		if !d.IsReady {
			log.Debug().Str("room_id", roomID).Str("device_id", id).Msg("start-game blocked, member not ready")
			return
		}
	}
	if guests == 0 {
		log.Debug().Str("room_id", roomID).Msg("start-game blocked, no non-admin members")
		return
	}

	if settings != nil {
		if err := settings.Validate(); err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("start-game settings rejected, keeping previous")
		} else {
			r.Settings = settings
		}
	}

	r.IsGameStarted = true
	log.Info().Str("room_id", roomID).Int("members", len(r.MemberIDs)).Msg("game started")

	h.transport.Broadcast(r.ID, EventGameStarted, GameStartedPayload{
		RoomID:  r.ID,
		Devices: h.memberViews(r),
	})
	h.broadcastUpdate(r)
}

// LoadQuestions initializes a game session from the admin's question
// payload. The payload is either a flat question list or a mapping from
// locale code to per-locale lists.
func (h *Hub) LoadQuestions(roomID, requesterID string, payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || !r.IsGameStarted {
		return
	}

	questions, localized, err := parseQuestionsPayload(payload, h.cfg.DefaultLocale)
	if err != nil || len(questions) == 0 {
		log.Warn().Err(err).Str("room_id", roomID).Msg("load-questions payload rejected")
		return
	}

	h.cancelCountdown(r.ID)

	seconds, timed := h.timerSeconds(r)
	r.Session = &models.GameSession{
		Questions:             questions,
		DefaultLocale:         h.cfg.DefaultLocale,
		Localized:             localized,
		CurrentQuestionIndex:  0,
		QuestionStartTime:     h.clock.Now(),
		TimerRemainingSeconds: seconds,
		Answers:               make(map[string][]models.AnswerRecord),
	}

	log.Info().Str("room_id", roomID).Int("questions", r.Session.QuestionCount()).
		Bool("localized", localized).Bool("timed", timed).Msg("questions loaded")

	if timed {
		h.startCountdown(r)
	}
	h.broadcastUpdate(r)
}

// parseQuestionsPayload accepts the legacy flat list or the multilingual
// locale map. A flat list is stored under the fallback locale.
func parseQuestionsPayload(payload json.RawMessage, defaultLocale string) (map[string][]models.Question, bool, error) {
	var flat []models.Question
	if err := json.Unmarshal(payload, &flat); err == nil {
		return map[string][]models.Question{defaultLocale: flat}, false, nil
	}

	var byLocale map[string][]models.Question
	if err := json.Unmarshal(payload, &byLocale); err != nil {
		return nil, false, err
	}
	if _, ok := byLocale[defaultLocale]; !ok {
		// Promote any locale to the fallback so QuestionsFor always resolves.
		for _, qs := range byLocale {
			byLocale[defaultLocale] = qs
			break
		}
	}
	return byLocale, true, nil
}

// SubmitAnswer records a device's answer to the current question. Late,
// stale and duplicate answers are dropped, not queued. The per-device
// result is broadcast to every member so all clients can render
// synchronized feedback.
func (h *Hub) SubmitAnswer(roomID, deviceID string, questionIndex, answerIndex int, timeSpent float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || !r.IsMember(deviceID) {
		return
	}
	s := r.Session
	if s == nil || s.IsShowingResults {
		return
	}
	if questionIndex != s.CurrentQuestionIndex || s.HasAnswered(deviceID, questionIndex) {
		log.Debug().Str("room_id", roomID).Str("device_id", deviceID).
			Int("question_index", questionIndex).Int("current_index", s.CurrentQuestionIndex).
			Msg("answer dropped")
		return
	}
	q := s.CurrentQuestion()
	if q == nil {
		return
	}

	correct := answerIndex == q.CorrectAnswerIndex
	points := 0
	if correct {
		points = q.Points
	}
	s.Answers[deviceID] = append(s.Answers[deviceID], models.AnswerRecord{
		QuestionIndex:     questionIndex,
		ChosenAnswerIndex: answerIndex,
		TimeSpentSeconds:  timeSpent,
		IsCorrect:         correct,
		PointsAwarded:     points,
		Timestamp:         h.clock.Now(),
	})

	h.transport.Broadcast(r.ID, EventAnswerResult, AnswerResultPayload{
		QuestionIndex: questionIndex,
		IsCorrect:     correct,
		Points:        points,
		DeviceID:      deviceID,
	})
}

// AdvanceQuestion moves the session to the next question, or to the results
// screen when the question list is exhausted. Only the admin advances; a
// question timeout does not auto-advance.
func (h *Hub) AdvanceQuestion(roomID, requesterID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || !r.IsGameStarted {
		return
	}
	s := r.Session
	if s == nil || s.IsShowingResults {
		return
	}

	h.cancelCountdown(r.ID)
	s.CurrentQuestionIndex++

	if s.CurrentQuestionIndex >= s.QuestionCount() {
		s.IsShowingResults = true
		ranking := h.computeRanking(r)
		log.Info().Str("room_id", roomID).Int("players_ranked", len(ranking)).Msg("game finished")

		h.transport.Broadcast(r.ID, EventGameFinished, GameFinishedPayload{
			Ranking:        ranking,
			TotalQuestions: s.QuestionCount(),
		})
		h.broadcastUpdate(r)
		return
	}

	seconds, timed := h.timerSeconds(r)
	s.QuestionStartTime = h.clock.Now()
	s.TimerRemainingSeconds = seconds
	if timed {
		h.startCountdown(r)
	}
	h.broadcastUpdate(r)
}

// ResetGame returns the room to the lobby: the session is discarded, every
// guest's ready flag drops, while category votes and the voting-closed flag
// are intentionally preserved.
func (h *Hub) ResetGame(roomID, requesterID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID {
		return
	}

	h.cancelCountdown(r.ID)
	r.IsGameStarted = false
	r.Session = nil
	for _, id := range r.MemberIDs {
		if d, ok := h.devices[id]; ok && id != r.AdminID {
			d.IsReady = false
		}
	}

	log.Info().Str("room_id", roomID).Msg("game reset")

	h.transport.Broadcast(r.ID, EventGameReset, GameResetPayload{RoomID: r.ID})
	h.broadcastUpdate(r)
}
