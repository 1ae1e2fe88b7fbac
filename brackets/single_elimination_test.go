package brackets

import (
	"testing"

	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateSE(t *testing.T, playerIDs []int, config models.StructureConfig) ([]*BracketMatch, map[string]*BracketMatch) {
	t.Helper()
	matches, err := NewSingleEliminationGenerator().GenerateBracket(GenerateBracketParams{
		PlayerIDs: playerIDs,
		Config:    config,
	})
	require.NoError(t, err)

	byUID := make(map[string]*BracketMatch, len(matches))
	for _, m := range matches {
		byUID[m.UID] = m
	}
	return matches, byUID
}

func TestSingleEliminationRejectsSinglePlayer(t *testing.T) {
	_, err := NewSingleEliminationGenerator().GenerateBracket(GenerateBracketParams{PlayerIDs: []int{1}})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestSingleEliminationEightSeeded(t *testing.T) {
	matches, byUID := generateSE(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, models.StructureConfig{Seeded: true})

	// Full bracket: 4 + 2 + 1 matches, no byes.
	require.Len(t, matches, 7)
	for _, m := range matches {
		assert.False(t, m.IsBye, "full field has no byes")
	}

	// Template layout: 1v8, 4v5, 2v7, 3v6 in round one.
	r1 := byUID[matchUID(models.BracketWinners, 1, 0)]
	assert.Equal(t, 1, *r1.Player1ID)
	assert.Equal(t, 8, *r1.Player2ID)
	r1 = byUID[matchUID(models.BracketWinners, 1, 1)]
	assert.Equal(t, 4, *r1.Player1ID)
	assert.Equal(t, 5, *r1.Player2ID)

	// Seeds 1 and 2 start in different halves so they can only meet in the
	// final.
	final := byUID[matchUID(models.BracketWinners, 3, 0)]
	require.NotNil(t, final)
	assert.Nil(t, final.WinnerTo)
}

func TestSingleEliminationFiveSeeded(t *testing.T) {
	matches, byUID := generateSE(t, []int{1, 2, 3, 4, 5}, models.StructureConfig{Seeded: true})

	// Size 8 bracket: 7 matches, three byes, one real round-one match.
	require.Len(t, matches, 7)
	byes := 0
	real := 0
	for _, m := range matches {
		if m.Round != 1 {
			continue
		}
		if m.IsBye {
			byes++
		} else {
			real++
		}
	}
	assert.Equal(t, 3, byes)
	assert.Equal(t, 1, real)

	// Seeds 4 and 5 hold the only real round-one match.
	m := byUID[matchUID(models.BracketWinners, 1, 1)]
	assert.False(t, m.IsBye)
	assert.Equal(t, 4, *m.Player1ID)
	assert.Equal(t, 5, *m.Player2ID)

	// Bye winners are pre-placed downstream: seed 1 sits in the semifinal.
	semi := byUID[matchUID(models.BracketWinners, 2, 0)]
	require.NotNil(t, semi.Player1ID)
	assert.Equal(t, 1, *semi.Player1ID)
}

func TestSingleEliminationWinnerLinksChainByHalvedPosition(t *testing.T) {
	_, byUID := generateSE(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, models.StructureConfig{Seeded: true})

	for p := 0; p < 4; p++ {
		m := byUID[matchUID(models.BracketWinners, 1, p)]
		require.NotNil(t, m.WinnerTo)
		assert.Equal(t, matchUID(models.BracketWinners, 2, p/2), *m.WinnerTo)
	}
	for p := 0; p < 2; p++ {
		m := byUID[matchUID(models.BracketWinners, 2, p)]
		require.NotNil(t, m.WinnerTo)
		assert.Equal(t, matchUID(models.BracketWinners, 3, 0), *m.WinnerTo)
	}
}

func TestSingleEliminationThirdPlaceMatch(t *testing.T) {
	matches, byUID := generateSE(t, []int{1, 2, 3, 4}, models.StructureConfig{
		Seeded:          true,
		ThirdPlaceMatch: true,
	})

	require.Len(t, matches, 4)
	tp := byUID[matchUID(models.BracketThirdPlace, 2, 0)]
	require.NotNil(t, tp)

	// Both semifinals route their losers to it.
	for p := 0; p < 2; p++ {
		semi := byUID[matchUID(models.BracketWinners, 1, p)]
		require.NotNil(t, semi.LoserTo)
		assert.Equal(t, tp.UID, *semi.LoserTo)
	}
}

func TestSingleEliminationUnseededNeverPairsTwoByes(t *testing.T) {
	// 5 players in a size-8 bracket leave three empty slots; the shuffled
	// field still flows through the seeding template, so every round-one
	// match keeps at least one player.
	for i := 0; i < 20; i++ {
		matches, _ := generateSE(t, []int{10, 20, 30, 40, 50}, models.StructureConfig{Seeded: false})
		for _, m := range matches {
			if m.Round == 1 {
				assert.NotNil(t, m.Player1ID, "round-one match without any player")
			}
		}
	}
}

func TestSingleEliminationTwoPlayers(t *testing.T) {
	matches, byUID := generateSE(t, []int{1, 2}, models.StructureConfig{Seeded: true})

	require.Len(t, matches, 1)
	final := byUID[matchUID(models.BracketWinners, 1, 0)]
	assert.Equal(t, 1, *final.Player1ID)
	assert.Equal(t, 2, *final.Player2ID)
	assert.Nil(t, final.WinnerTo)
}
