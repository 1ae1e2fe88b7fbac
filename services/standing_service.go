package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
	"github.com/cardhall/tournament-engine/standings"
)

// StandingService recomputes and serves the tiebreaker columns. Counter
// increments happen inline with result submission; everything derived from the
// counters funnels through Recompute.
type StandingService interface {
	Recompute(ctx context.Context, tournamentID int) error
	ListRanked(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	GetForPlayer(ctx context.Context, tournamentID, playerID int) (*models.Standing, error)
}

type standingService struct {
	db           *sql.DB
	standingRepo repositories.StandingRepository
	matchRepo    repositories.MatchRepository
	logger       *slog.Logger
}

func NewStandingService(
	db *sql.DB,
	standingRepo repositories.StandingRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) StandingService {
	return &standingService{
		db:           db,
		standingRepo: standingRepo,
		matchRepo:    matchRepo,
		logger:       logger,
	}
}

// Recompute reloads every standing and completed match for the tournament,
// recalculates the four percentage columns and the ranks, and persists the
// whole set in one transaction.
func (s *standingService) Recompute(ctx context.Context, tournamentID int) error {
	stands, err := s.standingRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return fmt.Errorf("failed to load standings for tournament %d: %w", tournamentID, err)
	}
	if len(stands) == 0 {
		return nil
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load matches for tournament %d: %w", tournamentID, err)
	}

	standings.Recalculate(stands, matches)
	standings.Rank(stands)

	err = runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, st := range stands {
			if updateErr := s.standingRepo.Update(ctx, tx, st); updateErr != nil {
				return fmt.Errorf("failed to persist standing %d: %w", st.ID, updateErr)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "standings recomputed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("players", len(stands)))
	return nil
}

func (s *standingService) ListRanked(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	return s.standingRepo.ListByTournament(ctx, tournamentID, true)
}

func (s *standingService) GetForPlayer(ctx context.Context, tournamentID, playerID int) (*models.Standing, error) {
	st, err := s.standingRepo.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return st, nil
}
