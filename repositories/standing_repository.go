package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cardhall/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrStandingNotFound = errors.New("standing not found")
	ErrStandingConflict = errors.New("standing already exists for this player")
)

const standingColumns = `
	id, tournament_id, player_id, matches_played, match_points, game_points,
	match_win_percentage, game_win_percentage,
	opponents_match_win_percentage, opponents_game_win_percentage,
	rank, active`

type StandingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Standing, error)
	ListByTournament(ctx context.Context, tournamentID int, sortByRank bool) ([]*models.Standing, error)
	Update(ctx context.Context, exec SQLExecutor, standing *models.Standing) error
	IncrementCounters(ctx context.Context, exec SQLExecutor, tournamentID, playerID, playedDelta, matchPointsDelta, gamePointsDelta int) error
	SetActive(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, active bool) error
	DeleteByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings
			(tournament_id, player_id, matches_played, match_points, game_points,
			 match_win_percentage, game_win_percentage,
			 opponents_match_win_percentage, opponents_game_win_percentage, rank, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		s.TournamentID, s.PlayerID, s.MatchesPlayed, s.MatchPoints, s.GamePoints,
		s.MatchWinPercentage, s.GameWinPercentage,
		s.OpponentsMatchWinPercentage, s.OpponentsGameWinPercentage, s.Rank, s.Active,
	).Scan(&s.ID)
	return r.handleStandingError(err)
}

func (r *postgresStandingRepository) scanStanding(row interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	var s models.Standing
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.PlayerID, &s.MatchesPlayed, &s.MatchPoints, &s.GamePoints,
		&s.MatchWinPercentage, &s.GameWinPercentage,
		&s.OpponentsMatchWinPercentage, &s.OpponentsGameWinPercentage,
		&s.Rank, &s.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM standings WHERE tournament_id = $1 AND player_id = $2`
	return r.scanStanding(r.db.QueryRowContext(ctx, query, tournamentID, playerID))
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, tournamentID int, sortByRank bool) ([]*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM standings WHERE tournament_id = $1`
	if sortByRank {
		query += `
		ORDER BY match_points DESC, opponents_match_win_percentage DESC,
		         game_win_percentage DESC, opponents_game_win_percentage DESC, id ASC`
	} else {
		// Row id is also the final tiebreak of the ranked order, so rank
		// assignment over this listing agrees with ListRanked on full ties.
		query += ` ORDER BY id ASC`
	}

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	stands := make([]*models.Standing, 0)
	for rows.Next() {
		s, scanErr := r.scanStanding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stands = append(stands, s)
	}
	return stands, rows.Err()
}

func (r *postgresStandingRepository) Update(ctx context.Context, exec SQLExecutor, s *models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE standings
		SET matches_played = $1, match_points = $2, game_points = $3,
		    match_win_percentage = $4, game_win_percentage = $5,
		    opponents_match_win_percentage = $6, opponents_game_win_percentage = $7,
		    rank = $8, active = $9
		WHERE id = $10`
	result, err := executor.ExecContext(ctx, query,
		s.MatchesPlayed, s.MatchPoints, s.GamePoints,
		s.MatchWinPercentage, s.GameWinPercentage,
		s.OpponentsMatchWinPercentage, s.OpponentsGameWinPercentage,
		s.Rank, s.Active, s.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) IncrementCounters(ctx context.Context, exec SQLExecutor, tournamentID, playerID, playedDelta, matchPointsDelta, gamePointsDelta int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE standings
		SET matches_played = matches_played + $1,
		    match_points = match_points + $2,
		    game_points = game_points + $3
		WHERE tournament_id = $4 AND player_id = $5`
	result, err := executor.ExecContext(ctx, query, playedDelta, matchPointsDelta, gamePointsDelta, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("IncrementCounters: failed for player %d in tournament %d: %w", playerID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) SetActive(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, active bool) error {
	executor := r.getExecutor(exec)
	query := `UPDATE standings SET active = $1 WHERE tournament_id = $2 AND player_id = $3`
	result, err := executor.ExecContext(ctx, query, active, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) DeleteByTournamentAndPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`DELETE FROM standings WHERE tournament_id = $1 AND player_id = $2`, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *postgresStandingRepository) DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresStandingRepository) handleStandingError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "standings_tournament_id_player_id_key" {
			return ErrStandingConflict
		}
	}
	return err
}
