// Package standings holds the tiebreak math: match/game win percentages,
// opponents' percentages and the four-key ranking. It works on loaded rows
// only; the standing service owns persistence.
package standings

import (
	"sort"

	"github.com/cardhall/tournament-engine/models"
)

// Recalculate refreshes the percentage columns of every standing in place.
//
// Pass one computes each player's own match-win and game-win percentages from
// the completed matches; pass two averages opponents' freshly computed values
// into OMW/OGW. The second pass deliberately reads the first pass's output and
// stops there: one level of averaging, no fixed-point iteration.
//
// No floor is applied to match-win percentage: an 0-x record contributes 0.0
// to its opponents' OMW. A player with no completed matches keeps 0.0
// everywhere.
func Recalculate(stands []*models.Standing, matches []*models.Match) {
	byPlayer := make(map[int]*models.Standing, len(stands))
	for _, s := range stands {
		byPlayer[s.PlayerID] = s
	}

	completed := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchCompleted {
			completed = append(completed, m)
		}
	}

	for _, s := range stands {
		if s.MatchesPlayed == 0 {
			s.MatchWinPercentage = 0
			s.GameWinPercentage = 0
			continue
		}
		s.MatchWinPercentage = float64(s.MatchPoints) / float64(s.MatchesPlayed*3)

		gamesWon := 0
		totalGames := 0
		for _, m := range completed {
			games := m.Player1Wins + m.Player2Wins + m.Draws
			if m.Player1ID == s.PlayerID {
				gamesWon += m.Player1Wins
				totalGames += games
			} else if m.Player2ID != nil && *m.Player2ID == s.PlayerID {
				gamesWon += m.Player2Wins
				totalGames += games
			}
		}
		if totalGames > 0 {
			s.GameWinPercentage = float64(gamesWon) / float64(totalGames)
		} else {
			s.GameWinPercentage = 0
		}
	}

	for _, s := range stands {
		opponents := make(map[int]struct{})
		for _, m := range completed {
			if m.Player1ID == s.PlayerID && m.Player2ID != nil {
				opponents[*m.Player2ID] = struct{}{}
			} else if m.Player2ID != nil && *m.Player2ID == s.PlayerID {
				opponents[m.Player1ID] = struct{}{}
			}
		}

		if len(opponents) == 0 {
			s.OpponentsMatchWinPercentage = 0
			s.OpponentsGameWinPercentage = 0
			continue
		}

		var omw, ogw float64
		count := 0
		for opponentID := range opponents {
			opp, ok := byPlayer[opponentID]
			if !ok {
				continue
			}
			omw += opp.MatchWinPercentage
			ogw += opp.GameWinPercentage
			count++
		}
		if count > 0 {
			s.OpponentsMatchWinPercentage = omw / float64(count)
			s.OpponentsGameWinPercentage = ogw / float64(count)
		}
	}
}

// Rank sorts standings in place by the tiebreaker key, descending:
// match points, then OMW, then game-win percentage, then OGW. The sort is
// stable, so ties beyond the four keys keep their incoming relative order.
// Ranks are assigned 1..N positionally over the sorted order.
func Rank(stands []*models.Standing) {
	sort.SliceStable(stands, func(i, j int) bool {
		a, b := stands[i], stands[j]
		if a.MatchPoints != b.MatchPoints {
			return a.MatchPoints > b.MatchPoints
		}
		if a.OpponentsMatchWinPercentage != b.OpponentsMatchWinPercentage {
			return a.OpponentsMatchWinPercentage > b.OpponentsMatchWinPercentage
		}
		if a.GameWinPercentage != b.GameWinPercentage {
			return a.GameWinPercentage > b.GameWinPercentage
		}
		return a.OpponentsGameWinPercentage > b.OpponentsGameWinPercentage
	})
	for i, s := range stands {
		rank := i + 1
		s.Rank = &rank
	}
}
