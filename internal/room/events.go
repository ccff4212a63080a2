package room

// Outbound event names pushed through the transport.
const (
	EventChannelError      = "channel-error"
	EventJoinedChannel     = "joined-channel"
	EventChannelUpdate     = "channel-update"
	EventForceLeaveChannel = "force-leave-channel"
	EventGameStarted       = "game-started"
	EventQuestionTimeout   = "question-timeout"
	EventAnswerResult      = "answer-result"
	EventGameFinished      = "game-finished"
	EventGameReset         = "game-reset"
	EventPong              = "pong"
)

// ChannelErrorPayload carries a protocol error back to the caller.
type ChannelErrorPayload struct {
	Error string `json:"error"`
}

// ForceLeavePayload tells a member it has been evicted from a room.
type ForceLeavePayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// GameStartedPayload announces the roster once the start gate passes.
type GameStartedPayload struct {
	RoomID  string       `json:"roomId"`
	Devices []MemberView `json:"devices"`
}

// QuestionTimeoutPayload is emitted when a countdown reaches zero. The admin
// is expected to advance the question in response; the state machine does
// not auto-advance.
type QuestionTimeoutPayload struct {
	QuestionIndex int `json:"questionIndex"`
}

// AnswerResultPayload is broadcast to the whole room after each accepted
// answer so every client can render synchronized feedback.
type AnswerResultPayload struct {
	QuestionIndex int    `json:"questionIndex"`
	IsCorrect     bool   `json:"isCorrect"`
	Points        int    `json:"points"`
	DeviceID      string `json:"deviceId"`
}

// GameFinishedPayload carries the final ranking.
type GameFinishedPayload struct {
	Ranking        []RankingEntry `json:"ranking"`
	TotalQuestions int            `json:"totalQuestions"`
}

// GameResetPayload signals all members to return to the lobby.
type GameResetPayload struct {
	RoomID string `json:"roomId"`
}
