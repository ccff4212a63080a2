package models

import "time"

// Question is a single quiz question as loaded by the room admin.
type Question struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Points             int      `json:"points"`
	Difficulty         string   `json:"difficulty"`
	Category           string   `json:"category"`
}

// AnswerRecord captures one device's answer to one question.
type AnswerRecord struct {
	QuestionIndex     int       `json:"questionIndex"`
	ChosenAnswerIndex int       `json:"chosenAnswerIndex"`
	TimeSpentSeconds  float64   `json:"timeSpentSeconds"`
	IsCorrect         bool      `json:"isCorrect"`
	PointsAwarded     int       `json:"pointsAwarded"`
	Timestamp         time.Time `json:"timestamp"`
}

// GameSession is the active or just-finished quiz round within a room.
type GameSession struct {
	// Questions is keyed by locale. Legacy flat payloads are stored under
	// the default locale with Localized left false, in which case every
	// member receives the identical question set.
	Questions     map[string][]Question
	DefaultLocale string
	Localized     bool

	CurrentQuestionIndex  int
	QuestionStartTime     time.Time
	TimerRemainingSeconds int
	IsShowingResults      bool

	// Answers maps device id to that device's answer history for this
	// session, in answer order.
	Answers map[string][]AnswerRecord
}

// QuestionsFor returns the question set for the given locale, falling back
// to the default locale.
func (s *GameSession) QuestionsFor(locale string) []Question {
	if qs, ok := s.Questions[locale]; ok {
		return qs
	}
	return s.Questions[s.DefaultLocale]
}

// QuestionCount returns the number of questions loaded for the default
// locale. Every locale is expected to carry the same count.
func (s *GameSession) QuestionCount() int {
	return len(s.Questions[s.DefaultLocale])
}

// CurrentQuestion returns the question at the current index for the default
// locale, or nil when the index is out of range.
func (s *GameSession) CurrentQuestion() *Question {
	qs := s.Questions[s.DefaultLocale]
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(qs) {
		return nil
	}
	return &qs[s.CurrentQuestionIndex]
}

// HasAnswered reports whether the device already answered the question index.
func (s *GameSession) HasAnswered(deviceID string, questionIndex int) bool {
	for _, rec := range s.Answers[deviceID] {
		if rec.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}
