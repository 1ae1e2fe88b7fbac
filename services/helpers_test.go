package services

import (
	"testing"
	"time"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwissRoundCount(t *testing.T) {
	cases := map[int]int{
		2:  3,
		4:  3,
		8:  3,
		9:  4,
		16: 4,
		17: 5,
		32: 5,
		33: 6,
	}
	for players, want := range cases {
		assert.Equal(t, want, swissRoundCount(players), "players=%d", players)
	}
}

func TestEliminationRoundCount(t *testing.T) {
	cases := map[int]int{2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4}
	for players, want := range cases {
		assert.Equal(t, want, eliminationRoundCount(players), "players=%d", players)
	}
}

func TestRoundMatchesNumbersEveryTable(t *testing.T) {
	now := time.Now()
	pairings := []brackets.Pairing{{5}, {1, 4}, {2, 3}}

	matches := roundMatches(7, 2, pairings, now)
	require.Len(t, matches, 3)

	// Tables run sequentially over the pairing order, bye included.
	for i, m := range matches {
		require.NotNil(t, m.TableNumber)
		assert.Equal(t, i+1, *m.TableNumber)
		assert.Equal(t, 7, m.TournamentID)
		assert.Equal(t, 2, m.Round)
	}

	bye := matches[0]
	assert.True(t, bye.IsBye())
	assert.Equal(t, models.MatchCompleted, bye.Status)
	assert.Equal(t, models.ResultBye, bye.Result)
	assert.Equal(t, 2, bye.Player1Wins)

	assert.Equal(t, 1, matches[1].Player1ID)
	require.NotNil(t, matches[1].Player2ID)
	assert.Equal(t, 4, *matches[1].Player2ID)
	assert.Equal(t, models.MatchPending, matches[1].Status)
}
