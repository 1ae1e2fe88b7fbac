package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
)

const (
	byeMatchPoints = 3
	byeGamePoints  = 2
)

// BracketService materializes generated brackets into match rows and routes
// players through them as results come in.
type BracketService interface {
	// GenerateAndSaveBracket builds the full bracket for the tournament and
	// persists it inside exec. Byes are stored as already-completed walkovers
	// and their standings counters are credited immediately.
	GenerateAndSaveBracket(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament) error

	// AdvanceAfterCompletion pushes the winner (and, in double elimination,
	// the loser) of a completed match into the downstream slots.
	AdvanceAfterCompletion(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int) error
}

type bracketService struct {
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StandingRepository
	logger       *slog.Logger
}

func NewBracketService(
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		logger:       logger,
	}
}

func (s *bracketService) generatorFor(structure models.TournamentStructure) (brackets.BracketGenerator, error) {
	switch structure {
	case models.StructureSingleElimination:
		return brackets.NewSingleEliminationGenerator(), nil
	case models.StructureDoubleElimination:
		return brackets.NewDoubleEliminationGenerator(), nil
	default:
		return nil, ErrInvalidStructure
	}
}

func (s *bracketService) GenerateAndSaveBracket(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	generator, err := s.generatorFor(t.Structure)
	if err != nil {
		return err
	}

	generated, err := generator.GenerateBracket(brackets.GenerateBracketParams{
		PlayerIDs: t.PlayerIDs,
		Config:    t.StructureConfig,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughPlayers) {
			return ErrNotEnoughPlayers
		}
		return fmt.Errorf("failed to generate %s bracket: %w", generator.GetName(), err)
	}

	// Pass one: insert every match and remember which DB id each UID got.
	idByUID := make(map[string]int, len(generated))
	now := time.Now()
	for _, bm := range generated {
		match := &models.Match{
			TournamentID:    t.ID,
			Round:           bm.Round,
			Player2ID:       bm.Player2ID,
			Status:          models.MatchPending,
			Bracket:         bracketPtr(bm.Bracket),
			BracketPosition: intPtr(bm.Position),
		}
		if bm.Player1ID != nil {
			match.Player1ID = *bm.Player1ID
		}
		if bm.IsBye {
			match.Player1Wins = byeGamePoints
			match.Result = models.ResultBye
			match.Status = models.MatchCompleted
			match.EndTime = &now
		}

		if createErr := s.matchRepo.Create(ctx, exec, match); createErr != nil {
			return fmt.Errorf("failed to create bracket match %s: %w", bm.UID, createErr)
		}
		idByUID[bm.UID] = match.ID

		if bm.IsBye {
			incErr := s.standingRepo.IncrementCounters(ctx, exec, t.ID, match.Player1ID, 1, byeMatchPoints, byeGamePoints)
			if incErr != nil {
				return fmt.Errorf("failed to credit bye for player %d: %w", match.Player1ID, incErr)
			}
		}
	}

	// Pass two: resolve WinnerTo/LoserTo UIDs into match id pointers.
	for _, bm := range generated {
		if bm.WinnerTo == nil && bm.LoserTo == nil {
			continue
		}
		var winnersNext, losersNext *int
		if bm.WinnerTo != nil {
			id, ok := idByUID[*bm.WinnerTo]
			if !ok {
				return fmt.Errorf("bracket link target %s was never created", *bm.WinnerTo)
			}
			winnersNext = &id
		}
		if bm.LoserTo != nil {
			id, ok := idByUID[*bm.LoserTo]
			if !ok {
				return fmt.Errorf("bracket link target %s was never created", *bm.LoserTo)
			}
			losersNext = &id
		}
		if linkErr := s.matchRepo.UpdateNextMatchInfo(ctx, exec, idByUID[bm.UID], winnersNext, losersNext); linkErr != nil {
			return fmt.Errorf("failed to link bracket match %s: %w", bm.UID, linkErr)
		}
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("tournament_id", t.ID),
		slog.String("structure", generator.GetName()),
		slog.Int("matches", len(generated)))
	return nil
}

func (s *bracketService) AdvanceAfterCompletion(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int) error {
	all, err := s.matchRepo.ListByTournament(ctx, match.TournamentID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load bracket matches: %w", err)
	}
	return s.advance(ctx, exec, match, winnerID, all)
}

func (s *bracketService) advance(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int, all []*models.Match) error {
	var loserID *int
	if match.Player2ID != nil {
		if winnerID == match.Player1ID {
			loserID = match.Player2ID
		} else {
			loserID = intPtr(match.Player1ID)
		}
	}

	if match.WinnersNextMatch != nil {
		if err := s.routePlayer(ctx, exec, match, *match.WinnersNextMatch, winnerID, true, all); err != nil {
			return err
		}
	}
	if match.LosersNextMatch != nil && loserID != nil {
		if err := s.routePlayer(ctx, exec, match, *match.LosersNextMatch, *loserID, false, all); err != nil {
			return err
		}
	}

	if match.Bracket != nil && *match.Bracket == models.BracketGrandFinals && match.Round == 1 {
		return s.handleGrandFinals(ctx, exec, match, winnerID, loserID, all)
	}
	return nil
}

// routePlayer seats playerID in its slot of the downstream match. A repeated
// advance simply overwrites the slot. When the opposite slot is empty and no
// upstream match can ever fill it, the downstream match resolves as a
// walkover and the player keeps moving.
func (s *bracketService) routePlayer(ctx context.Context, exec repositories.SQLExecutor, source *models.Match, targetID, playerID int, winner bool, all []*models.Match) error {
	var target *models.Match
	for _, m := range all {
		if m.ID == targetID {
			target = m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("downstream match %d: %w", targetID, ErrMatchNotFound)
	}

	slot := brackets.AdvanceSlot(source, target, winner)
	other := 3 - slot
	if target.Status == models.MatchPending && !slotFilledIn(target, other) &&
		!brackets.SlotReachable(target, other, all) {
		return s.resolveWalkover(ctx, exec, target, playerID, all)
	}

	var p1, p2 *int
	if slot == 1 {
		target.Player1ID = playerID
		p1 = &playerID
	} else {
		target.Player2ID = intPtr(playerID)
		p2 = &playerID
	}
	return s.matchRepo.UpdatePlayers(ctx, exec, target.ID, p1, p2)
}

// resolveWalkover completes target as a bye for playerID, credits the
// standings counters the same way a generated bye does, and advances the
// player further down the bracket.
func (s *bracketService) resolveWalkover(ctx context.Context, exec repositories.SQLExecutor, target *models.Match, playerID int, all []*models.Match) error {
	now := time.Now()
	if err := s.matchRepo.UpdatePlayers(ctx, exec, target.ID, &playerID, nil); err != nil {
		return err
	}
	if err := s.matchRepo.CompleteWithResult(ctx, exec, target.ID, byeGamePoints, 0, 0, models.ResultBye, now); err != nil {
		return fmt.Errorf("failed to complete walkover match %d: %w", target.ID, err)
	}
	if err := s.standingRepo.IncrementCounters(ctx, exec, target.TournamentID, playerID, 1, byeMatchPoints, byeGamePoints); err != nil {
		return fmt.Errorf("failed to credit walkover for player %d: %w", playerID, err)
	}

	target.Player1ID = playerID
	target.Player2ID = nil
	target.Player1Wins = byeGamePoints
	target.Player2Wins = 0
	target.Draws = 0
	target.Result = models.ResultBye
	target.Status = models.MatchCompleted
	target.EndTime = &now

	s.logger.InfoContext(ctx, "walkover resolved",
		slog.Int("tournament_id", target.TournamentID),
		slog.Int("match_id", target.ID),
		slog.Int("player_id", playerID))
	return s.advance(ctx, exec, target, playerID, all)
}

func slotFilledIn(m *models.Match, slot int) bool {
	if slot == 1 {
		return m.Player1ID != 0
	}
	return m.Player2ID != nil
}

// handleGrandFinals arms the bracket-reset match after the first grand finals.
// The reset only happens when the losers-bracket finalist (slot 2) takes the
// first set; a winners-bracket finalist win ends the tournament and the reset
// row stays an empty placeholder.
func (s *bracketService) handleGrandFinals(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, winnerID int, loserID *int, all []*models.Match) error {
	if match.Player2ID == nil || winnerID != *match.Player2ID || loserID == nil {
		return nil
	}

	for _, m := range all {
		if m.Bracket != nil && *m.Bracket == models.BracketGrandFinals && m.Round == 2 {
			// Winners-bracket finalist keeps slot 1 in the reset.
			m.Player1ID = *loserID
			m.Player2ID = &winnerID
			return s.matchRepo.UpdatePlayers(ctx, exec, m.ID, loserID, &winnerID)
		}
	}
	return nil
}

func bracketPtr(b models.BracketName) *models.BracketName {
	return &b
}
