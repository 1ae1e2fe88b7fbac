package brackets

import (
	"github.com/cardhall/tournament-engine/models"
)

// Pairing is one table for the next round: two player IDs for a match,
// a single ID for a bye.
type Pairing []int

type pairKey struct {
	a, b int
}

// CreatePairings produces the next round's Swiss pairings.
//
// playerIDs must already be ordered best-to-worst (by standings, or by seed
// for round one). previousMatches is the tournament's full match history and
// is used both for repeat-opponent detection and for bye bookkeeping.
//
// useSeedsForByes is accepted for compatibility with the structure config but
// both policies reduce to the same bottom-up scan today, so it does not change
// the selection.
//
// The matcher is a greedy top-down heuristic, not a maximum-matching solver:
// when the best-ranked remaining player has already faced everyone left in the
// pool, they are paired with the best-ranked remaining opponent regardless of
// the repeat. The bye pairing, if any, is first in the returned slice.
func CreatePairings(playerIDs []int, previousMatches []*models.Match, useSeedsForByes bool) []Pairing {
	previousPairings := make(map[pairKey]struct{})
	for _, m := range previousMatches {
		if m.Player2ID != nil {
			previousPairings[pairKey{m.Player1ID, *m.Player2ID}] = struct{}{}
			previousPairings[pairKey{*m.Player2ID, m.Player1ID}] = struct{}{}
		}
	}

	pairings := make([]Pairing, 0, len(playerIDs)/2+1)

	if len(playerIDs)%2 != 0 {
		hasHadBye := make(map[int]struct{})
		for _, m := range previousMatches {
			if m.Player2ID == nil {
				hasHadBye[m.Player1ID] = struct{}{}
			}
		}

		byePlayer := 0
		found := false
		// Lowest-ranked player without a previous bye. The seed-based policy
		// walks the same list in the same direction.
		for i := len(playerIDs) - 1; i >= 0; i-- {
			if _, had := hasHadBye[playerIDs[i]]; !had {
				byePlayer = playerIDs[i]
				found = true
				break
			}
		}
		// Everyone has had one: the bottom player takes a second bye.
		if !found {
			byePlayer = playerIDs[len(playerIDs)-1]
		}

		filtered := make([]int, 0, len(playerIDs)-1)
		for _, id := range playerIDs {
			if id != byePlayer {
				filtered = append(filtered, id)
			}
		}
		playerIDs = filtered

		pairings = append(pairings, Pairing{byePlayer})
	}

	remaining := make([]int, len(playerIDs))
	copy(remaining, playerIDs)

	for len(remaining) > 0 {
		player1 := remaining[0]
		remaining = remaining[1:]

		player2 := 0
		idx := -1
		for i, p := range remaining {
			if _, played := previousPairings[pairKey{player1, p}]; !played {
				player2 = p
				idx = i
				break
			}
		}
		// All legal opponents exhausted: fall back to the best-ranked one.
		if idx == -1 {
			player2 = remaining[0]
			idx = 0
		}

		remaining = append(remaining[:idx], remaining[idx+1:]...)
		pairings = append(pairings, Pairing{player1, player2})
	}

	return pairings
}
