package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
)

type SubmitResultInput struct {
	Player1Wins int `json:"player1_wins"`
	Player2Wins int `json:"player2_wins"`
	Draws       int `json:"draws"`
}

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	ListAll(ctx context.Context) ([]*models.Match, error)

	SubmitResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error)
	SubmitIntentionalDraw(ctx context.Context, matchID int) (*models.Match, error)
	StartMatch(ctx context.Context, matchID int) (*models.Match, error)
	EndMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type matchService struct {
	db              *sql.DB
	matchRepo       repositories.MatchRepository
	tournamentRepo  repositories.TournamentRepository
	standingRepo    repositories.StandingRepository
	bracketService  BracketService
	standingService StandingService
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	standingRepo repositories.StandingRepository,
	bracketService BracketService,
	standingService StandingService,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:              db,
		matchRepo:       matchRepo,
		tournamentRepo:  tournamentRepo,
		standingRepo:    standingRepo,
		bracketService:  bracketService,
		standingService: standingService,
		hub:             hub,
		logger:          logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID, round, status)
}

func (s *matchService) ListAll(ctx context.Context) ([]*models.Match, error) {
	return s.matchRepo.ListAll(ctx)
}

// SubmitResult records a played match. Standings counters are credited in the
// same transaction as the match update; in elimination tournaments the winner
// and loser are routed downstream there too. Percentages and ranks are then
// recomputed and the result is pushed to the tournament's websocket room.
func (s *matchService) SubmitResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error) {
	if input.Player1Wins < 0 || input.Player2Wins < 0 || input.Draws < 0 {
		return nil, ErrNegativeWinCounts
	}

	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyCompleted
	}
	if match.IsBye() {
		return nil, ErrByeMatchImmutable
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", match.TournamentID, err)
	}

	var result models.MatchResult
	var winnerID int
	switch {
	case input.Player1Wins > input.Player2Wins:
		result = models.ResultWin
		winnerID = match.Player1ID
	case input.Player2Wins > input.Player1Wins:
		result = models.ResultLoss
		winnerID = *match.Player2ID
	default:
		if tournament.IsElimination() {
			return nil, ErrBracketMatchNeedsWin
		}
		result = models.ResultDraw
	}

	now := time.Now()
	err = runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if txErr := s.matchRepo.CompleteWithResult(ctx, tx, matchID,
			input.Player1Wins, input.Player2Wins, input.Draws, result, now); txErr != nil {
			return txErr
		}

		p1Points, p2Points := 0, 0
		switch result {
		case models.ResultWin:
			p1Points = 3
		case models.ResultLoss:
			p2Points = 3
		case models.ResultDraw:
			p1Points, p2Points = 1, 1
		}

		if txErr := s.standingRepo.IncrementCounters(ctx, tx,
			match.TournamentID, match.Player1ID, 1, p1Points, input.Player1Wins); txErr != nil {
			return txErr
		}
		if txErr := s.standingRepo.IncrementCounters(ctx, tx,
			match.TournamentID, *match.Player2ID, 1, p2Points, input.Player2Wins); txErr != nil {
			return txErr
		}

		if tournament.IsElimination() {
			return s.bracketService.AdvanceAfterCompletion(ctx, tx, match, winnerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.standingService.Recompute(ctx, match.TournamentID); err != nil {
		return nil, fmt.Errorf("result saved but standings recompute failed: %w", err)
	}

	updated, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	s.broadcast(match.TournamentID, "MATCH_RESULT", updated)
	s.broadcast(match.TournamentID, "STANDINGS_UPDATED", nil)
	s.logger.InfoContext(ctx, "match result submitted",
		slog.Int("match_id", matchID),
		slog.Int("tournament_id", match.TournamentID),
		slog.String("result", string(result)))
	return updated, nil
}

// SubmitIntentionalDraw records a 0-0 draw agreed before any games.
func (s *matchService) SubmitIntentionalDraw(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.IsBye() {
		return nil, ErrByeMatchImmutable
	}
	return s.SubmitResult(ctx, matchID, SubmitResultInput{Draws: 1})
}

func (s *matchService) StartMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchPending {
		return nil, ErrMatchNotPending
	}
	if match.IsBye() {
		return nil, ErrByeMatchImmutable
	}
	if err := s.matchRepo.MarkInProgress(ctx, matchID, time.Now()); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, matchID)
}

// EndMatch closes an in-progress match administratively, keeping whatever
// score is on the row. Result submission is the normal path to completion.
func (s *matchService) EndMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchInProgress {
		return nil, ErrMatchNotInProgress
	}
	if err := s.matchRepo.MarkCompleted(ctx, matchID, time.Now()); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, matchID)
}

func (s *matchService) broadcast(tournamentID int, messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  strconv.Itoa(tournamentID),
	})
}
