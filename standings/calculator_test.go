package standings

import (
	"testing"

	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standing(playerID, played, matchPoints int) *models.Standing {
	return &models.Standing{
		PlayerID:      playerID,
		MatchesPlayed: played,
		MatchPoints:   matchPoints,
	}
}

func completed(p1, p2, w1, w2, draws int) *models.Match {
	return &models.Match{
		Player1ID:   p1,
		Player2ID:   &p2,
		Player1Wins: w1,
		Player2Wins: w2,
		Draws:       draws,
		Status:      models.MatchCompleted,
	}
}

func byeFor(p1 int) *models.Match {
	return &models.Match{
		Player1ID:   p1,
		Player1Wins: 2,
		Result:      models.ResultBye,
		Status:      models.MatchCompleted,
	}
}

func TestRankFullTiesKeepRowOrder(t *testing.T) {
	// Player IDs deliberately out of order relative to the rows: a fully tied
	// group must be ranked by the incoming (row id) order, not by player id.
	a := &models.Standing{ID: 1, PlayerID: 30}
	b := &models.Standing{ID: 2, PlayerID: 10}
	c := &models.Standing{ID: 3, PlayerID: 20}
	stands := []*models.Standing{a, b, c}

	Rank(stands)

	require.Equal(t, []*models.Standing{a, b, c}, stands)
	for i, s := range stands {
		require.NotNil(t, s.Rank)
		assert.Equal(t, i+1, *s.Rank)
	}
}

func TestRecalculateSingleMatch(t *testing.T) {
	a := standing(1, 1, 3)
	b := standing(2, 1, 0)
	matches := []*models.Match{completed(1, 2, 2, 1, 0)}

	Recalculate([]*models.Standing{a, b}, matches)

	assert.InDelta(t, 1.0, a.MatchWinPercentage, 1e-9)
	assert.InDelta(t, 0.0, b.MatchWinPercentage, 1e-9, "no floor under the loser's percentage")
	assert.InDelta(t, 2.0/3.0, a.GameWinPercentage, 1e-9)
	assert.InDelta(t, 1.0/3.0, b.GameWinPercentage, 1e-9)

	// One level of opponent averaging, no iteration.
	assert.InDelta(t, 0.0, a.OpponentsMatchWinPercentage, 1e-9)
	assert.InDelta(t, 1.0/3.0, a.OpponentsGameWinPercentage, 1e-9)
	assert.InDelta(t, 1.0, b.OpponentsMatchWinPercentage, 1e-9)
	assert.InDelta(t, 2.0/3.0, b.OpponentsGameWinPercentage, 1e-9)
}

func TestRecalculateDrawsCountAsGamesPlayed(t *testing.T) {
	a := standing(1, 1, 1)
	b := standing(2, 1, 1)
	matches := []*models.Match{completed(1, 2, 1, 1, 1)}

	Recalculate([]*models.Standing{a, b}, matches)

	assert.InDelta(t, 1.0/3.0, a.MatchWinPercentage, 1e-9)
	assert.InDelta(t, 1.0/3.0, a.GameWinPercentage, 1e-9)
	assert.InDelta(t, 1.0/3.0, b.GameWinPercentage, 1e-9)
}

func TestRecalculateByeContributesNoOpponent(t *testing.T) {
	// A byed round one and beat B in round two; only B counts for OMW/OGW.
	a := standing(1, 2, 6)
	b := standing(2, 1, 0)
	matches := []*models.Match{
		byeFor(1),
		completed(1, 2, 2, 0, 0),
	}

	Recalculate([]*models.Standing{a, b}, matches)

	assert.InDelta(t, 1.0, a.MatchWinPercentage, 1e-9)
	assert.InDelta(t, 0.0, a.OpponentsMatchWinPercentage, 1e-9, "bye is not an opponent")
	assert.InDelta(t, 1.0, b.OpponentsGameWinPercentage, 1e-9, "B faced only A, who won every game")
	assert.InDelta(t, 1.0, b.OpponentsMatchWinPercentage, 1e-9)
}

func TestRecalculateDistinctOpponentsOnly(t *testing.T) {
	// A rematch counts its opponent once in the average.
	a := standing(1, 2, 6)
	b := standing(2, 2, 0)
	c := standing(3, 0, 0)
	matches := []*models.Match{
		completed(1, 2, 2, 0, 0),
		completed(1, 2, 2, 1, 0),
	}

	Recalculate([]*models.Standing{a, b, c}, matches)

	assert.InDelta(t, 0.0, a.OpponentsMatchWinPercentage, 1e-9)
	assert.InDelta(t, 1.0, b.OpponentsMatchWinPercentage, 1e-9)
	assert.InDelta(t, 0.0, c.MatchWinPercentage, 1e-9, "idle player keeps zeros")
	assert.InDelta(t, 0.0, c.OpponentsMatchWinPercentage, 1e-9)
}

func TestRecalculateZeroMatchesStaysZero(t *testing.T) {
	s := standing(1, 0, 0)
	Recalculate([]*models.Standing{s}, nil)

	assert.Zero(t, s.MatchWinPercentage)
	assert.Zero(t, s.GameWinPercentage)
	assert.Zero(t, s.OpponentsMatchWinPercentage)
	assert.Zero(t, s.OpponentsGameWinPercentage)
}

func TestRankOrdersByFourKeys(t *testing.T) {
	a := standing(1, 3, 9)
	b := standing(2, 3, 6)
	c := standing(3, 3, 6)
	d := standing(4, 3, 0)
	b.OpponentsMatchWinPercentage = 0.5
	c.OpponentsMatchWinPercentage = 0.7

	stands := []*models.Standing{a, b, c, d}
	Rank(stands)

	require.Equal(t, 1, stands[0].PlayerID)
	assert.Equal(t, 3, stands[1].PlayerID, "higher OMW breaks the points tie")
	assert.Equal(t, 2, stands[2].PlayerID)
	assert.Equal(t, 4, stands[3].PlayerID)

	for i, s := range stands {
		require.NotNil(t, s.Rank)
		assert.Equal(t, i+1, *s.Rank)
	}
}

func TestRankStableOnFullTie(t *testing.T) {
	a := standing(1, 1, 3)
	b := standing(2, 1, 3)

	stands := []*models.Standing{a, b}
	Rank(stands)

	// Identical keys keep their incoming order.
	assert.Equal(t, 1, stands[0].PlayerID)
	assert.Equal(t, 2, stands[1].PlayerID)
}

func TestRankGWPBeforeOGW(t *testing.T) {
	a := standing(1, 2, 3)
	b := standing(2, 2, 3)
	a.GameWinPercentage = 0.4
	a.OpponentsGameWinPercentage = 0.9
	b.GameWinPercentage = 0.6
	b.OpponentsGameWinPercentage = 0.1

	stands := []*models.Standing{a, b}
	Rank(stands)

	assert.Equal(t, 2, stands[0].PlayerID, "own game-win percentage outranks opponents'")
}
