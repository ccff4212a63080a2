package room

import (
	"math"
	"sort"

	"github.com/quizhive/quizhive/internal/models"
)

// RankingEntry is one row of the final scoreboard.
type RankingEntry struct {
	DeviceID       string `json:"deviceId"`
	DisplayName    string `json:"displayName"`
	Points         int    `json:"points"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalAnswered  int    `json:"totalAnswered"`
	Accuracy       int    `json:"accuracy"`
	Position       int    `json:"position"`
}

// computeRanking scores every device with at least one answer record.
// Ordering is total points descending; ties break by accuracy descending,
// then by room join order, so the result is deterministic.
func (h *Hub) computeRanking(r *models.Room) []RankingEntry {
	s := r.Session
	if s == nil {
		return nil
	}

	entries := make([]RankingEntry, 0, len(s.Answers))
	for deviceID, records := range s.Answers {
		if len(records) == 0 {
			continue
		}
		entry := RankingEntry{DeviceID: deviceID, TotalAnswered: len(records)}
		for _, rec := range records {
			entry.Points += rec.PointsAwarded
			if rec.IsCorrect {
				entry.CorrectAnswers++
			}
		}
		entry.Accuracy = int(math.Round(float64(entry.CorrectAnswers) / float64(entry.TotalAnswered) * 100))
		if d, ok := h.devices[deviceID]; ok {
			entry.DisplayName = d.DisplayName
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Accuracy != entries[j].Accuracy {
			return entries[i].Accuracy > entries[j].Accuracy
		}
		return r.JoinOrder(entries[i].DeviceID) < r.JoinOrder(entries[j].DeviceID)
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}
