package models

import "fmt"

// Room represents a named group of participants sharing one game session.
type Room struct {
	ID      string
	AdminID string

	// MemberIDs preserves join order. A room is deleted the instant it
	// becomes empty, so a live room always has at least one member.
	MemberIDs []string

	// Votes maps a member's device id to its sanitized category picks.
	// Entries are removed when the member leaves.
	Votes map[string][]string

	IsVotingClosed bool
	IsGameStarted  bool

	Settings *GameSettings
	Session  *GameSession
}

// IsMember reports whether the device id is a current member.
func (r *Room) IsMember(deviceID string) bool {
	for _, id := range r.MemberIDs {
		if id == deviceID {
			return true
		}
	}
	return false
}

// RemoveMemberID drops the device id from the member list and its votes.
func (r *Room) RemoveMemberID(deviceID string) {
	for i, id := range r.MemberIDs {
		if id == deviceID {
			r.MemberIDs = append(r.MemberIDs[:i], r.MemberIDs[i+1:]...)
			break
		}
	}
	delete(r.Votes, deviceID)
}

// JoinOrder returns the position at which the device joined the room, or
// len(members) if it is not a member.
func (r *Room) JoinOrder(deviceID string) int {
	for i, id := range r.MemberIDs {
		if id == deviceID {
			return i
		}
	}
	return len(r.MemberIDs)
}

// GameSettings holds the validated per-room game configuration.
type GameSettings struct {
	QuestionCount                int  `json:"questionCount"`
	TimerDurationSeconds         *int `json:"timerDurationSeconds"` // nil = untimed
	MaxCategorySelections        int  `json:"maxCategorySelections"`
	TopCategoriesCount           int  `json:"topCategoriesCount"`
	LowTimeThresholdSeconds      int  `json:"lowTimeThresholdSeconds"`
	CriticalTimeThresholdSeconds int  `json:"criticalTimeThresholdSeconds"`
}

// Validate checks every field against its admissible range. A settings
// object is accepted wholesale or rejected wholesale; a partially valid
// object is never applied.
func (s GameSettings) Validate() error {
	if s.QuestionCount < 1 || s.QuestionCount > 100 {
		return fmt.Errorf("questionCount %d out of range [1,100]", s.QuestionCount)
	}
	if s.TimerDurationSeconds != nil {
		if d := *s.TimerDurationSeconds; d < 5 || d > 600 {
			return fmt.Errorf("timerDurationSeconds %d out of range [5,600]", d)
		}
	}
	if s.MaxCategorySelections < 1 || s.MaxCategorySelections > 10 {
		return fmt.Errorf("maxCategorySelections %d out of range [1,10]", s.MaxCategorySelections)
	}
	if s.TopCategoriesCount < 1 || s.TopCategoriesCount > 10 {
		return fmt.Errorf("topCategoriesCount %d out of range [1,10]", s.TopCategoriesCount)
	}
	if s.LowTimeThresholdSeconds < 1 || s.LowTimeThresholdSeconds > 60 {
		return fmt.Errorf("lowTimeThresholdSeconds %d out of range [1,60]", s.LowTimeThresholdSeconds)
	}
	if s.CriticalTimeThresholdSeconds < 1 || s.CriticalTimeThresholdSeconds > 30 {
		return fmt.Errorf("criticalTimeThresholdSeconds %d out of range [1,30]", s.CriticalTimeThresholdSeconds)
	}
	return nil
}
