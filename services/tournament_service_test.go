package services

import (
	"context"
	"testing"

	"github.com/cardhall/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTournamentService(tournamentRepo *fakeTournamentRepo, matchRepo *fakeMatchRepo, standingRepo *fakeStandingRepo) TournamentService {
	return NewTournamentService(nil, tournamentRepo, nil, matchRepo, standingRepo, nil, nil, nil, nil, testLogger())
}

// Starting a Swiss tournament fixes the round budget and activates the event;
// round one is only paired by an explicit CreateNextRound call afterwards.
func TestStartSwissLeavesRoundOneUnpaired(t *testing.T) {
	ctx := context.Background()
	tournamentRepo := newFakeTournamentRepo()
	matchRepo := newFakeMatchRepo()
	standingRepo := newFakeStandingRepo()
	svc := newTestTournamentService(tournamentRepo, matchRepo, standingRepo)

	tournament := &models.Tournament{
		Name:      "FNM",
		Structure: models.StructureSwiss,
		Status:    models.TournamentPlanned,
	}
	require.NoError(t, tournamentRepo.Create(ctx, tournament))
	for _, pid := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, tournamentRepo.AddPlayer(ctx, nil, tournament.ID, pid))
	}

	started, err := svc.Start(ctx, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TournamentActive, started.Status)
	assert.Equal(t, 3, started.Rounds)
	assert.Equal(t, 0, started.CurrentRound)

	matches, err := matchRepo.ListByTournament(ctx, tournament.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, matches, "no matches exist until the first round is paired")
}

func TestUpdateRejectsFrozenFieldsAfterStart(t *testing.T) {
	ctx := context.Background()
	tournamentRepo := newFakeTournamentRepo()
	svc := newTestTournamentService(tournamentRepo, newFakeMatchRepo(), newFakeStandingRepo())

	tournament := &models.Tournament{
		Name:      "Weekly",
		Structure: models.StructureSwiss,
		Status:    models.TournamentActive,
		Rounds:    4,
	}
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	rounds := 5
	_, err := svc.Update(ctx, tournament.ID, UpdateTournamentInput{Rounds: &rounds})
	assert.ErrorIs(t, err, ErrProtectedField)
	assert.ErrorIs(t, err, ErrValidationFailed)

	// The name stays editable mid-event.
	name := "Weekly (moved)"
	updated, err := svc.Update(ctx, tournament.ID, UpdateTournamentInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	svc := newTestTournamentService(newFakeTournamentRepo(), newFakeMatchRepo(), newFakeStandingRepo())

	status := models.TournamentStatus("archived")
	_, err := svc.List(context.Background(), &status, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
