package brackets

import (
	"testing"

	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playedMatch(p1, p2 int) *models.Match {
	id := p2
	return &models.Match{
		Player1ID: p1,
		Player2ID: &id,
		Status:    models.MatchCompleted,
	}
}

func byeMatch(p1 int) *models.Match {
	return &models.Match{
		Player1ID: p1,
		Status:    models.MatchCompleted,
		Result:    models.ResultBye,
	}
}

func pairedWith(t *testing.T, pairings []Pairing, player int) int {
	t.Helper()
	for _, p := range pairings {
		if len(p) == 2 {
			if p[0] == player {
				return p[1]
			}
			if p[1] == player {
				return p[0]
			}
		}
	}
	t.Fatalf("player %d has no opponent", player)
	return 0
}

func TestCreatePairingsEvenFieldNoBye(t *testing.T) {
	pairings := CreatePairings([]int{1, 2, 3, 4, 5, 6, 7, 8}, nil, false)

	require.Len(t, pairings, 4)
	seen := make(map[int]bool)
	for _, p := range pairings {
		require.Len(t, p, 2)
		seen[p[0]] = true
		seen[p[1]] = true
	}
	assert.Len(t, seen, 8, "every player paired exactly once")
}

func TestCreatePairingsPairsAdjacentRanks(t *testing.T) {
	// With no history the greedy matcher pairs 1v2, 3v4, 5v6.
	pairings := CreatePairings([]int{1, 2, 3, 4, 5, 6}, nil, false)

	require.Len(t, pairings, 3)
	assert.Equal(t, Pairing{1, 2}, pairings[0])
	assert.Equal(t, Pairing{3, 4}, pairings[1])
	assert.Equal(t, Pairing{5, 6}, pairings[2])
}

func TestCreatePairingsOddFieldByeGoesToBottom(t *testing.T) {
	pairings := CreatePairings([]int{1, 2, 3, 4, 5}, nil, false)

	require.Len(t, pairings, 3)
	require.Len(t, pairings[0], 1, "bye pairing comes first")
	assert.Equal(t, 5, pairings[0][0], "lowest-ranked player takes the bye")
}

func TestCreatePairingsByeSkipsPlayersWithPreviousBye(t *testing.T) {
	history := []*models.Match{byeMatch(5)}
	pairings := CreatePairings([]int{1, 2, 3, 4, 5}, history, false)

	require.Len(t, pairings[0], 1)
	assert.Equal(t, 4, pairings[0][0], "bye rotates up past player 5")
}

func TestCreatePairingsForcedSecondBye(t *testing.T) {
	history := []*models.Match{byeMatch(1), byeMatch(2), byeMatch(3)}
	pairings := CreatePairings([]int{1, 2, 3}, history, false)

	require.Len(t, pairings[0], 1)
	assert.Equal(t, 3, pairings[0][0], "bottom player absorbs the second bye")
}

func TestCreatePairingsAvoidsRematches(t *testing.T) {
	history := []*models.Match{
		playedMatch(1, 2),
		playedMatch(3, 4),
	}
	pairings := CreatePairings([]int{1, 2, 3, 4}, history, false)

	assert.NotEqual(t, 2, pairedWith(t, pairings, 1))
	assert.NotEqual(t, 4, pairedWith(t, pairings, 3))
}

func TestCreatePairingsRepeatFallbackWhenUnavoidable(t *testing.T) {
	history := []*models.Match{playedMatch(1, 2)}
	pairings := CreatePairings([]int{1, 2}, history, false)

	require.Len(t, pairings, 1)
	assert.Equal(t, Pairing{1, 2}, pairings[0], "two players must rematch")
}

func TestCreatePairingsSinglePlayerGetsBye(t *testing.T) {
	pairings := CreatePairings([]int{7}, nil, false)

	require.Len(t, pairings, 1)
	assert.Equal(t, Pairing{7}, pairings[0])
}

func TestCreatePairingsFivePlayerThreeRounds(t *testing.T) {
	// Simulate three rounds of a five-player event: the bye must hit three
	// different players.
	standingsOrder := []int{1, 2, 3, 4, 5}
	var history []*models.Match
	byes := make(map[int]int)

	for round := 1; round <= 3; round++ {
		pairings := CreatePairings(standingsOrder, history, false)
		require.Len(t, pairings, 3)
		require.Len(t, pairings[0], 1)

		byes[pairings[0][0]]++
		history = append(history, byeMatch(pairings[0][0]))
		for _, p := range pairings[1:] {
			require.Len(t, p, 2)
			history = append(history, playedMatch(p[0], p[1]))
		}
	}

	assert.Len(t, byes, 3, "three distinct players received the bye")
	for player, count := range byes {
		assert.Equal(t, 1, count, "player %d byed more than once", player)
	}
}

func TestCreatePairingsUsesFullPool(t *testing.T) {
	// 1 has already played 2 and 3; the matcher should reach down to 4.
	history := []*models.Match{
		playedMatch(1, 2),
		playedMatch(1, 3),
	}
	pairings := CreatePairings([]int{1, 2, 3, 4}, history, false)

	assert.Equal(t, 4, pairedWith(t, pairings, 1))
	assert.Equal(t, 3, pairedWith(t, pairings, 2))
}
