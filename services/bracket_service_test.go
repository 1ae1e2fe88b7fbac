package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func findBracketMatch(t *testing.T, repo *fakeMatchRepo, bracket models.BracketName, round, position int) *models.Match {
	t.Helper()
	for _, m := range repo.matches {
		if m.Bracket != nil && *m.Bracket == bracket && m.Round == round &&
			m.BracketPosition != nil && *m.BracketPosition == position {
			return m
		}
	}
	t.Fatalf("no %s match at round %d position %d", bracket, round, position)
	return nil
}

// Five seeded players leave the losers bracket's first round with a single
// match whose second feeder was a bye. The loser dropping into it must win it
// as a walkover and keep moving.
func TestAdvanceResolvesLoserBracketWalkover(t *testing.T) {
	ctx := context.Background()
	matchRepo := newFakeMatchRepo()
	standingRepo := newFakeStandingRepo()
	standingRepo.seed(1, 1, 2, 3, 4, 5)
	svc := NewBracketService(matchRepo, standingRepo, testLogger())

	tournament := &models.Tournament{
		ID:              1,
		Structure:       models.StructureDoubleElimination,
		PlayerIDs:       []int{1, 2, 3, 4, 5},
		StructureConfig: models.StructureConfig{Seeded: true},
	}
	require.NoError(t, svc.GenerateAndSaveBracket(ctx, nil, tournament))

	var real *models.Match
	for _, m := range matchRepo.matches {
		if m.Bracket != nil && *m.Bracket == models.BracketWinners && m.Round == 1 && !m.IsBye() {
			real = m
			break
		}
	}
	require.NotNil(t, real, "five players leave one real round-one match")

	winner := real.Player1ID
	loser := *real.Player2ID
	require.NoError(t, matchRepo.CompleteWithResult(ctx, nil, real.ID, 2, 1, 0, models.ResultWin, time.Now()))
	require.NoError(t, svc.AdvanceAfterCompletion(ctx, nil, real, winner))

	// Winner joins the pre-seeded bye winner in winners round 2.
	wb2 := findBracketMatch(t, matchRepo, models.BracketWinners, 2, 0)
	require.NotNil(t, wb2.Player2ID)
	assert.Equal(t, winner, *wb2.Player2ID)

	// The loser's drop-down match has no other possible entrant, so it
	// resolves as a bye and credits the standing like a generated one.
	lb1 := findBracketMatch(t, matchRepo, models.BracketLosers, 1, 0)
	assert.Equal(t, models.MatchCompleted, lb1.Status)
	assert.Equal(t, models.ResultBye, lb1.Result)
	assert.Equal(t, loser, lb1.Player1ID)
	assert.Nil(t, lb1.Player2ID)

	standing, err := standingRepo.GetByTournamentAndPlayer(ctx, 1, loser)
	require.NoError(t, err)
	assert.Equal(t, 1, standing.MatchesPlayed)
	assert.Equal(t, 3, standing.MatchPoints)
	assert.Equal(t, 2, standing.GamePoints)

	// And the walkover winner moves on to losers round 2.
	lb2 := findBracketMatch(t, matchRepo, models.BracketLosers, 2, 0)
	assert.Equal(t, loser, lb2.Player1ID)
	assert.Equal(t, models.MatchPending, lb2.Status)
}

func TestAdvanceOverwritesOccupiedSlot(t *testing.T) {
	ctx := context.Background()
	matchRepo := newFakeMatchRepo()
	standingRepo := newFakeStandingRepo()
	svc := NewBracketService(matchRepo, standingRepo, testLogger())

	winners := models.BracketWinners
	target := &models.Match{
		TournamentID:    1,
		Round:           2,
		Player1ID:       10,
		Player2ID:       intPtr(9),
		Status:          models.MatchPending,
		Bracket:         &winners,
		BracketPosition: intPtr(0),
	}
	require.NoError(t, matchRepo.Create(ctx, nil, target))

	source := &models.Match{
		TournamentID:     1,
		Round:            1,
		Player1ID:        4,
		Player2ID:        intPtr(5),
		Player1Wins:      2,
		Result:           models.ResultWin,
		Status:           models.MatchCompleted,
		Bracket:          &winners,
		BracketPosition:  intPtr(1),
		WinnersNextMatch: &target.ID,
	}
	require.NoError(t, matchRepo.Create(ctx, nil, source))

	require.NoError(t, svc.AdvanceAfterCompletion(ctx, nil, source, 4))

	// A re-advance simply replaces whoever held the slot.
	require.NotNil(t, target.Player2ID)
	assert.Equal(t, 4, *target.Player2ID)
	assert.Equal(t, 10, target.Player1ID)
	assert.Equal(t, models.MatchPending, target.Status)
}
