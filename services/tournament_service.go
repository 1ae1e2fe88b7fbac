package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cardhall/tournament-engine/brackets"
	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
	"github.com/cardhall/tournament-engine/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name            string                     `json:"name"`
	Format          string                     `json:"format"`
	Structure       models.TournamentStructure `json:"structure"`
	Date            time.Time                  `json:"date"`
	Location        *string                    `json:"location,omitempty"`
	Rounds          int                        `json:"rounds,omitempty"`
	StructureConfig models.StructureConfig     `json:"structure_config"`
}

// UpdateTournamentInput carries only the editable fields. Status and the
// round counters move through Start, CreateNextRound and End, never here.
type UpdateTournamentInput struct {
	Name            *string                     `json:"name,omitempty"`
	Format          *string                     `json:"format,omitempty"`
	Structure       *models.TournamentStructure `json:"structure,omitempty"`
	Date            *time.Time                  `json:"date,omitempty"`
	Location        *string                     `json:"location,omitempty"`
	Rounds          *int                        `json:"rounds,omitempty"`
	StructureConfig *models.StructureConfig     `json:"structure_config,omitempty"`
}

type PlayerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PairingView is one table of a round as shown to players.
type PairingView struct {
	MatchID     int                `json:"match_id"`
	TableNumber *int               `json:"table_number,omitempty"`
	Player1     PlayerRef          `json:"player1"`
	Player2     *PlayerRef         `json:"player2,omitempty"`
	IsBye       bool               `json:"is_bye"`
	Status      models.MatchStatus `json:"status"`
	Result      models.MatchResult `json:"result,omitempty"`
}

type RoundSummary struct {
	Round     int  `json:"round"`
	Matches   int  `json:"matches"`
	Completed int  `json:"completed"`
	Finished  bool `json:"finished"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error

	RegisterPlayer(ctx context.Context, tournamentID, playerID int) error
	DropPlayer(ctx context.Context, tournamentID, playerID int) error
	ReinstatePlayer(ctx context.Context, tournamentID, playerID int) error

	Start(ctx context.Context, id int) (*models.Tournament, error)
	CreateNextRound(ctx context.Context, id int) ([]PairingView, error)
	End(ctx context.Context, id int) (*models.Tournament, error)

	GetRounds(ctx context.Context, id int) ([]RoundSummary, error)
	GetRoundPairings(ctx context.Context, id, round int) ([]PairingView, error)
	GetStandings(ctx context.Context, id int) ([]*models.Standing, error)
	GetPlayerStanding(ctx context.Context, id, playerID int) (*models.Standing, error)
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	bracketService  BracketService
	standingService StandingService
	uploader        storage.FileUploader
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	bracketService BracketService,
	standingService StandingService,
	uploader storage.FileUploader,
	hub *brackets.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
		matchRepo:       matchRepo,
		standingRepo:    standingRepo,
		bracketService:  bracketService,
		standingService: standingService,
		uploader:        uploader,
		hub:             hub,
		logger:          logger,
	}
}

func validStructure(s models.TournamentStructure) bool {
	switch s {
	case models.StructureSwiss, models.StructureSingleElimination, models.StructureDoubleElimination:
		return true
	}
	return false
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if !validStructure(input.Structure) {
		return nil, ErrInvalidStructure
	}
	if mod := input.StructureConfig.GrandFinalsModifier; mod != "" && mod != models.GrandFinalsReset {
		return nil, ErrInvalidGrandFinalsMod
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Format:          input.Format,
		Structure:       input.Structure,
		Date:            input.Date,
		Location:        input.Location,
		Status:          models.TournamentPlanned,
		Rounds:          input.Rounds,
		CurrentRound:    0,
		StructureConfig: input.StructureConfig,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameTaken
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("structure", string(tournament.Structure)))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	playerIDs, err := s.tournamentRepo.ListPlayerIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered players: %w", err)
	}
	tournament.PlayerIDs = playerIDs
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 || offset < 0 {
		return nil, ErrInvalidPagination
	}
	if status != nil {
		switch *status {
		case models.TournamentPlanned, models.TournamentActive, models.TournamentCompleted:
		default:
			return nil, ErrInvalidStatus
		}
	}
	return s.tournamentRepo.List(ctx, status, limit, offset)
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Structure and round count are frozen once the tournament starts.
	if tournament.Status != models.TournamentPlanned {
		if input.Structure != nil || input.Rounds != nil || input.StructureConfig != nil {
			return nil, ErrProtectedField
		}
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrNameRequired
		}
		tournament.Name = *input.Name
	}
	if input.Format != nil {
		tournament.Format = *input.Format
	}
	if input.Structure != nil {
		if !validStructure(*input.Structure) {
			return nil, ErrInvalidStructure
		}
		tournament.Structure = *input.Structure
	}
	if input.Date != nil {
		tournament.Date = *input.Date
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.Rounds != nil {
		if *input.Rounds < 0 {
			return nil, fmt.Errorf("%w: rounds must be non-negative", ErrValidationFailed)
		}
		tournament.Rounds = *input.Rounds
	}
	if input.StructureConfig != nil {
		if mod := input.StructureConfig.GrandFinalsModifier; mod != "" && mod != models.GrandFinalsReset {
			return nil, ErrInvalidGrandFinalsMod
		}
		tournament.StructureConfig = *input.StructureConfig
	}

	if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameTaken
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.Status == models.TournamentActive {
		return ErrTournamentActive
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}

	// Completed tournaments may have a published export; clean it up too.
	if s.uploader != nil && tournament.Status == models.TournamentCompleted {
		if delErr := s.uploader.Delete(ctx, standingsExportKey(id)); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete standings export",
				slog.Int("tournament_id", id),
				slog.Any("error", delErr))
		}
	}
	return nil
}

// RegisterPlayer enrolls a player and opens their standing row. Registering
// a player who is already enrolled is a no-op.
func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentPlanned {
		return ErrTournamentNotPlanned
	}
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}

	err = runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if addErr := s.tournamentRepo.AddPlayer(ctx, tx, tournamentID, playerID); addErr != nil {
			return addErr
		}
		return s.standingRepo.Create(ctx, tx, &models.Standing{
			TournamentID: tournamentID,
			PlayerID:     playerID,
			Active:       true,
		})
	})
	if errors.Is(err, repositories.ErrRegistrationConflict) {
		return nil
	}
	return err
}

// DropPlayer removes a player before the event or deactivates them mid-event.
// A dropped player keeps their results but is excluded from future pairings.
func (s *tournamentService) DropPlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}

	switch tournament.Status {
	case models.TournamentPlanned:
		return runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
			if rmErr := s.tournamentRepo.RemovePlayer(ctx, tx, tournamentID, playerID); rmErr != nil {
				if errors.Is(rmErr, repositories.ErrTournamentNotFound) {
					return ErrPlayerNotRegistered
				}
				return rmErr
			}
			return s.standingRepo.DeleteByTournamentAndPlayer(ctx, tx, tournamentID, playerID)
		})
	case models.TournamentActive:
		err := s.standingRepo.SetActive(ctx, nil, tournamentID, playerID, false)
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return ErrPlayerNotRegistered
		}
		return err
	default:
		return ErrTournamentNotActive
	}
}

func (s *tournamentService) ReinstatePlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentActive {
		return ErrTournamentNotActive
	}
	err = s.standingRepo.SetActive(ctx, nil, tournamentID, playerID, true)
	if errors.Is(err, repositories.ErrStandingNotFound) {
		return ErrPlayerNotRegistered
	}
	return err
}

// Start moves a planned tournament to active. Swiss events get their round
// budget fixed, with round one paired by a later CreateNextRound call;
// elimination events have the whole bracket generated up front.
func (s *tournamentService) Start(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentPlanned {
		return nil, ErrTournamentNotPlanned
	}
	if len(tournament.PlayerIDs) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	if tournament.Structure == models.StructureSwiss {
		if tournament.Rounds == 0 {
			tournament.Rounds = swissRoundCount(len(tournament.PlayerIDs))
		}
		tournament.Status = models.TournamentActive
		if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
			return nil, err
		}
	} else {
		tournament.Rounds = eliminationRoundCount(len(tournament.PlayerIDs))
		tournament.Status = models.TournamentActive
		tournament.CurrentRound = 1
		err = runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
			if genErr := s.bracketService.GenerateAndSaveBracket(ctx, tx, tournament); genErr != nil {
				return genErr
			}
			return s.tournamentRepo.Update(ctx, tx, tournament)
		})
		if err != nil {
			return nil, err
		}
		if err := s.standingService.Recompute(ctx, id); err != nil {
			return nil, err
		}
	}

	s.broadcast(id, "TOURNAMENT_STARTED", nil)
	s.logger.InfoContext(ctx, "tournament started",
		slog.Int("tournament_id", id),
		slog.Int("players", len(tournament.PlayerIDs)),
		slog.Int("rounds", tournament.Rounds))
	return s.GetByID(ctx, id)
}

// CreateNextRound pairs the next Swiss round. It refuses to run while the
// current round has unfinished matches or once the round budget is spent.
func (s *tournamentService) CreateNextRound(ctx context.Context, id int) ([]PairingView, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentActive {
		return nil, ErrTournamentNotActive
	}
	if tournament.Structure != models.StructureSwiss {
		return nil, ErrSwissOnlyOperation
	}
	if tournament.CurrentRound >= tournament.Rounds {
		return nil, ErrRoundLimitReached
	}

	allMatches, err := s.matchRepo.ListByTournament(ctx, id, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	if tournament.CurrentRound > 0 {
		for _, m := range allMatches {
			if m.Round == tournament.CurrentRound && m.Status != models.MatchCompleted {
				return nil, ErrRoundInProgress
			}
		}
	}

	// Ranked order doubles as pairing order; with zero results (round one)
	// the id tiebreak reduces it to registration order.
	stands, err := s.standingRepo.ListByTournament(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	playerIDs := make([]int, 0, len(stands))
	for _, st := range stands {
		if st.Active {
			playerIDs = append(playerIDs, st.PlayerID)
		}
	}
	if len(playerIDs) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	pairings := brackets.CreatePairings(playerIDs, allMatches, tournament.StructureConfig.UseSeedsForByes)

	nextRound := tournament.CurrentRound + 1
	err = runInTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, match := range roundMatches(id, nextRound, pairings, time.Now()) {
			if createErr := s.matchRepo.Create(ctx, tx, match); createErr != nil {
				return fmt.Errorf("failed to create round %d match: %w", nextRound, createErr)
			}
			if match.Result == models.ResultBye {
				incErr := s.standingRepo.IncrementCounters(ctx, tx, id, match.Player1ID, 1, byeMatchPoints, byeGamePoints)
				if incErr != nil {
					return fmt.Errorf("failed to credit bye for player %d: %w", match.Player1ID, incErr)
				}
			}
		}
		tournament.CurrentRound = nextRound
		return s.tournamentRepo.Update(ctx, tx, tournament)
	})
	if err != nil {
		return nil, err
	}

	if err := s.standingService.Recompute(ctx, id); err != nil {
		return nil, err
	}

	views, err := s.GetRoundPairings(ctx, id, nextRound)
	if err != nil {
		return nil, err
	}
	s.broadcast(id, "PAIRINGS_POSTED", views)
	s.logger.InfoContext(ctx, "round paired",
		slog.Int("tournament_id", id),
		slog.Int("round", nextRound),
		slog.Int("tables", len(views)))
	return views, nil
}

// End completes the tournament. Final standings are recomputed one last time
// and published as a CSV export when an uploader is configured; a failed
// upload is logged, not fatal.
func (s *tournamentService) End(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentActive {
		return nil, ErrTournamentNotActive
	}

	if err := s.standingService.Recompute(ctx, id); err != nil {
		return nil, err
	}

	tournament.Status = models.TournamentCompleted
	if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
		return nil, err
	}

	if s.uploader != nil {
		if uploadErr := s.publishFinalStandings(ctx, tournament); uploadErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish final standings",
				slog.Int("tournament_id", id),
				slog.Any("error", uploadErr))
		}
	}

	s.broadcast(id, "TOURNAMENT_COMPLETED", nil)
	s.logger.InfoContext(ctx, "tournament completed", slog.Int("tournament_id", id))
	return tournament, nil
}

func (s *tournamentService) publishFinalStandings(ctx context.Context, tournament *models.Tournament) error {
	stands, err := s.GetStandings(ctx, tournament.ID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"rank", "player", "match_points", "omw", "gwp", "ogw"})
	for _, st := range stands {
		rank := ""
		if st.Rank != nil {
			rank = strconv.Itoa(*st.Rank)
		}
		name := strconv.Itoa(st.PlayerID)
		if st.PlayerName != nil {
			name = *st.PlayerName
		}
		_ = w.Write([]string{
			rank,
			name,
			strconv.Itoa(st.MatchPoints),
			strconv.FormatFloat(st.OpponentsMatchWinPercentage, 'f', 4, 64),
			strconv.FormatFloat(st.GameWinPercentage, 'f', 4, 64),
			strconv.FormatFloat(st.OpponentsGameWinPercentage, 'f', 4, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	result, err := s.uploader.Upload(ctx, standingsExportKey(tournament.ID), "text/csv", &buf)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "final standings published",
		slog.Int("tournament_id", tournament.ID),
		slog.String("location", result.Location))
	return nil
}

func standingsExportKey(tournamentID int) string {
	return fmt.Sprintf("standings/tournament-%d-final.csv", tournamentID)
}

func (s *tournamentService) GetRounds(ctx context.Context, id int) ([]RoundSummary, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, id, nil, nil)
	if err != nil {
		return nil, err
	}

	maxRound := 0
	totals := make(map[int]int)
	completed := make(map[int]int)
	for _, m := range matches {
		totals[m.Round]++
		if m.Status == models.MatchCompleted {
			completed[m.Round]++
		}
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}

	summaries := make([]RoundSummary, 0, maxRound)
	for round := 1; round <= maxRound; round++ {
		summaries = append(summaries, RoundSummary{
			Round:     round,
			Matches:   totals[round],
			Completed: completed[round],
			Finished:  totals[round] > 0 && completed[round] == totals[round],
		})
	}
	return summaries, nil
}

// GetRoundPairings resolves one round into views with player names, fetching
// matches and names concurrently.
func (s *tournamentService) GetRoundPairings(ctx context.Context, id, round int) ([]PairingView, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// The round budget only bounds Swiss; elimination losers rounds run past
	// the winners-bracket depth.
	if round < 1 || (tournament.Structure == models.StructureSwiss && round > tournament.Rounds) {
		return nil, ErrRoundNotFound
	}

	var matches []*models.Match
	var players []*models.Player

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gErr error
		matches, gErr = s.matchRepo.ListByTournament(gctx, id, &round, nil)
		return gErr
	})
	g.Go(func() error {
		var gErr error
		players, gErr = s.playerRepo.ListByIDs(gctx, tournament.PlayerIDs)
		return gErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrRoundNotFound
	}

	nameByID := make(map[int]string, len(players))
	for _, p := range players {
		nameByID[p.ID] = p.Name
	}
	playerRef := func(playerID int) PlayerRef {
		name, ok := nameByID[playerID]
		if !ok {
			name = fmt.Sprintf("Player %d", playerID)
		}
		return PlayerRef{ID: playerID, Name: name}
	}

	views := make([]PairingView, 0, len(matches))
	for _, m := range matches {
		view := PairingView{
			MatchID:     m.ID,
			TableNumber: m.TableNumber,
			Player1:     playerRef(m.Player1ID),
			IsBye:       m.IsBye(),
			Status:      m.Status,
			Result:      m.Result,
		}
		if m.Player2ID != nil {
			ref := playerRef(*m.Player2ID)
			view.Player2 = &ref
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *tournamentService) GetStandings(ctx context.Context, id int) ([]*models.Standing, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var stands []*models.Standing
	var players []*models.Player

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gErr error
		stands, gErr = s.standingService.ListRanked(gctx, id)
		return gErr
	})
	g.Go(func() error {
		var gErr error
		players, gErr = s.playerRepo.ListByIDs(gctx, tournament.PlayerIDs)
		return gErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nameByID := make(map[int]string, len(players))
	for _, p := range players {
		nameByID[p.ID] = p.Name
	}
	for _, st := range stands {
		if name, ok := nameByID[st.PlayerID]; ok {
			n := name
			st.PlayerName = &n
		}
	}
	return stands, nil
}

func (s *tournamentService) GetPlayerStanding(ctx context.Context, id, playerID int) (*models.Standing, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	st, err := s.standingService.GetForPlayer(ctx, id, playerID)
	if err != nil {
		return nil, err
	}
	if player, playerErr := s.playerRepo.GetByID(ctx, playerID); playerErr == nil {
		name := player.Name
		st.PlayerName = &name
	}
	return st, nil
}

func (s *tournamentService) broadcast(tournamentID int, messageType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(strconv.Itoa(tournamentID), brackets.WebSocketMessage{
		Type:    messageType,
		Payload: payload,
		RoomID:  strconv.Itoa(tournamentID),
	})
}
