package room

import "github.com/quizhive/quizhive/internal/models"

const tallyViewSize = 10

// MemberView is the public projection of one room member.
type MemberView struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"displayName"`
	Locale      string            `json:"locale"`
	Role        models.DeviceRole `json:"role"`
	IsReady     bool              `json:"isReady"`
	IsActive    bool              `json:"isActive"`
}

// QuestionView is the question as delivered to clients. The correct answer
// index is deliberately omitted; correctness only ever travels back inside
// answer-result events.
type QuestionView struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	Points     int      `json:"points"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
}

// SessionView is the public projection of an in-progress or finished round.
type SessionView struct {
	Questions             []QuestionView `json:"questions"`
	CurrentQuestionIndex  int            `json:"currentQuestionIndex"`
	TimerRemainingSeconds int            `json:"timerRemainingSeconds"`
	IsShowingResults      bool           `json:"isShowingResults"`
}

// RoomView is the full public view of a room, pushed on every mutation.
type RoomView struct {
	RoomID                string               `json:"roomId"`
	AdminID               string               `json:"adminId"`
	Devices               []MemberView         `json:"devices"`
	CategoryTally         []CategoryTally      `json:"categoryTally"`
	MaxCategorySelections int                  `json:"maxCategorySelections"`
	IsVotingClosed        bool                 `json:"isVotingClosed"`
	IsGameStarted         bool                 `json:"isGameStarted"`
	Settings              *models.GameSettings `json:"settings,omitempty"`
	Session               *SessionView         `json:"session,omitempty"`
}

// memberViews projects the current member list. Caller holds h.mu.
func (h *Hub) memberViews(r *models.Room) []MemberView {
	views := make([]MemberView, 0, len(r.MemberIDs))
	for _, id := range r.MemberIDs {
		d, ok := h.devices[id]
		if !ok {
			continue
		}
		views = append(views, MemberView{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Locale:      d.Locale,
			Role:        d.Role,
			IsReady:     d.IsReady,
			IsActive:    d.IsActive,
		})
	}
	return views
}

// buildView computes the room view localized for the given locale. Caller
// holds h.mu.
func (h *Hub) buildView(r *models.Room, locale string) *RoomView {
	tally := TallyVotes(r.Votes)
	if len(tally) > tallyViewSize {
		tally = tally[:tallyViewSize]
	}

	view := &RoomView{
		RoomID:                r.ID,
		AdminID:               r.AdminID,
		Devices:               h.memberViews(r),
		CategoryTally:         tally,
		MaxCategorySelections: h.maxSelections(r),
		IsVotingClosed:        r.IsVotingClosed,
		IsGameStarted:         r.IsGameStarted,
		Settings:              r.Settings,
	}

	if s := r.Session; s != nil {
		questions := s.QuestionsFor(locale)
		qv := make([]QuestionView, 0, len(questions))
		for _, q := range questions {
			qv = append(qv, QuestionView{
				ID:         q.ID,
				Prompt:     q.Prompt,
				Options:    q.Options,
				Points:     q.Points,
				Difficulty: q.Difficulty,
				Category:   q.Category,
			})
		}
		view.Session = &SessionView{
			Questions:             qv,
			CurrentQuestionIndex:  s.CurrentQuestionIndex,
			TimerRemainingSeconds: s.TimerRemainingSeconds,
			IsShowingResults:      s.IsShowingResults,
		}
	}
	return view
}

// broadcastUpdate pushes the room view to every member. When questions were
// loaded multilingually each member gets a view localized to its own locale;
// otherwise one identical view goes to the whole group. Caller holds h.mu.
func (h *Hub) broadcastUpdate(r *models.Room) {
	if r.Session != nil && r.Session.Localized {
		for _, id := range r.MemberIDs {
			d, ok := h.devices[id]
			if !ok || d.Conn == nil {
				continue
			}
			h.transport.Send(d.Conn, EventChannelUpdate, h.buildView(r, d.Locale))
		}
		return
	}
	h.transport.Broadcast(r.ID, EventChannelUpdate, h.buildView(r, h.cfg.DefaultLocale))
}
