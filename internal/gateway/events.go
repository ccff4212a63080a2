package gateway

import (
	"encoding/json"

	"github.com/quizhive/quizhive/internal/models"
)

// Inbound event names received from clients.
const (
	EventCreateChannel      = "create-channel"
	EventJoinChannel        = "join-channel"
	EventLeaveChannel       = "leave-channel"
	EventDeviceStatus       = "device-status"
	EventUpdateCategoryVote = "update-category-vote"
	EventUpdateReadyState   = "update-ready-state"
	EventCloseCategoryVote  = "close-category-vote"
	EventStartGame          = "start-game"
	EventUpdateGameSettings = "update-game-settings"
	EventLoadQuestions      = "load-questions"
	EventSubmitAnswer       = "submit-answer"
	EventNextQuestion       = "next-question"
	EventResetGame          = "reset-game"
	EventRemoveDevice       = "remove-device"
	EventUpdateLocale       = "update-locale"
	EventPing               = "ping"
)

// inboundEvent is the wire envelope for every client-to-server message.
// Room and device ids may arrive at the envelope level (channel lifecycle
// events) or inside the payload (everything else).
type inboundEvent struct {
	Event    string          `json:"event"`
	RoomID   string          `json:"roomId,omitempty"`
	DeviceID string          `json:"deviceId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type displayNamePayload struct {
	DisplayName string `json:"displayName"`
}

type deviceStatusPayload struct {
	IsActive bool `json:"isActive"`
}

type categoryVotePayload struct {
	RoomID     string `json:"roomId"`
	Categories []any  `json:"categories"`
}

type readyStatePayload struct {
	RoomID  string `json:"roomId"`
	IsReady bool   `json:"isReady"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type startGamePayload struct {
	RoomID   string               `json:"roomId"`
	Settings *models.GameSettings `json:"settings,omitempty"`
}

type gameSettingsPayload struct {
	RoomID   string              `json:"roomId"`
	Settings models.GameSettings `json:"settings"`
}

type loadQuestionsPayload struct {
	RoomID    string          `json:"roomId"`
	Questions json.RawMessage `json:"questions"`
}

type submitAnswerPayload struct {
	RoomID        string  `json:"roomId"`
	QuestionIndex int     `json:"questionIndex"`
	AnswerIndex   int     `json:"answerIndex"`
	TimeSpent     float64 `json:"timeSpent"`
}

type removeDevicePayload struct {
	RoomID         string `json:"roomId"`
	TargetDeviceID string `json:"targetDeviceId"`
}

type updateLocalePayload struct {
	Locale string `json:"locale"`
}

type pongPayload struct {
	Timestamp int64 `json:"timestamp"`
}
