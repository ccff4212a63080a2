package room

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxCategoryNameLength = 50

// SubmitVote replaces a member's entire category vote set with the sanitized
// input. Submissions for unknown rooms, non-members or after voting closed
// are dropped silently.
func (h *Hub) SubmitVote(roomID, deviceID string, rawCategories []any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || !r.IsMember(deviceID) || r.IsVotingClosed {
		log.Debug().Str("room_id", roomID).Str("device_id", deviceID).Msg("vote ignored")
		return
	}

	r.Votes[deviceID] = sanitizeCategories(rawCategories, h.maxSelections(r))
	h.broadcastUpdate(r)
}

// CloseVoting flips the voting-closed flag. The flag is monotonic: repeated
// calls are no-ops, and only a full game reset could ever matter after it.
func (h *Hub) CloseVoting(roomID, requesterID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok || r.AdminID != requesterID || r.IsVotingClosed {
		return
	}
	r.IsVotingClosed = true
	log.Info().Str("room_id", roomID).Msg("category voting closed")
	h.broadcastUpdate(r)
}

// sanitizeCategories normalizes a raw vote submission: non-string entries
// are dropped, names are trimmed and truncated to 50 characters, duplicates
// are removed case-sensitively and at most max entries survive, preserving
// input order up to the cap.
func sanitizeCategories(raw []any, max int) []string {
	out := make([]string, 0, max)
	seen := make(map[string]struct{})
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if runes := []rune(s); len(runes) > maxCategoryNameLength {
			s = string(runes[:maxCategoryNameLength])
		}
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == max {
			break
		}
	}
	return out
}

// CategoryTally is one entry of the ranked category tally.
type CategoryTally struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TallyVotes counts category occurrences across all members' vote sets,
// sorted by count descending with ties broken by name ascending.
func TallyVotes(votes map[string][]string) []CategoryTally {
	counts := make(map[string]int)
	for _, set := range votes {
		for _, c := range set {
			counts[c]++
		}
	}

	tally := make([]CategoryTally, 0, len(counts))
	for c, n := range counts {
		tally = append(tally, CategoryTally{Category: c, Count: n})
	}
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Count != tally[j].Count {
			return tally[i].Count > tally[j].Count
		}
		return tally[i].Category < tally[j].Category
	})
	return tally
}
