package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cardhall/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchPlayerInvalid     = errors.New("match player conflict or invalid")
)

const matchColumns = `
	id, tournament_id, round, table_number, player1_id, player2_id,
	player1_wins, player2_wins, draws, result, status, start_time, end_time,
	bracket, bracket_position, winners_next_match, losers_next_match, created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListAll(ctx context.Context) ([]*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	CompleteWithResult(ctx context.Context, exec SQLExecutor, id int, p1Wins, p2Wins, draws int, result models.MatchResult, endTime time.Time) error
	MarkInProgress(ctx context.Context, id int, startTime time.Time) error
	MarkCompleted(ctx context.Context, id int, endTime time.Time) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, player1ID *int, player2ID *int) error
	UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, id int, winnersNext, losersNext *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round, table_number, player1_id, player2_id,
			 player1_wins, player2_wins, draws, result, status, start_time, end_time,
			 bracket, bracket_position, winners_next_match, losers_next_match)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`
	// Player1ID == 0 marks an unfilled elimination slot; stored as NULL so
	// the players foreign key holds.
	var player1 sql.NullInt64
	if m.Player1ID != 0 {
		player1 = sql.NullInt64{Int64: int64(m.Player1ID), Valid: true}
	}
	err := executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.TableNumber, player1, m.Player2ID,
		m.Player1Wins, m.Player2Wins, m.Draws, m.Result, m.Status, m.StartTime, m.EndTime,
		m.Bracket, m.BracketPosition, m.WinnersNextMatch, m.LosersNextMatch,
	).Scan(&m.ID, &m.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var player1 sql.NullInt64
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.TableNumber, &player1, &m.Player2ID,
		&m.Player1Wins, &m.Player2Wins, &m.Draws, &m.Result, &m.Status, &m.StartTime, &m.EndTime,
		&m.Bracket, &m.BracketPosition, &m.WinnersNextMatch, &m.LosersNextMatch, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	m.Player1ID = int(player1.Int64)
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListAll(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY tournament_id ASC, round ASC, id ASC`
	return r.queryMatches(ctx, query)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}
	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY round ASC, id ASC")
	return r.queryMatches(ctx, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CompleteWithResult(ctx context.Context, exec SQLExecutor, id int, p1Wins, p2Wins, draws int, result models.MatchResult, endTime time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET player1_wins = $1, player2_wins = $2, draws = $3, result = $4,
		    status = $5, end_time = $6
		WHERE id = $7`
	res, err := executor.ExecContext(ctx, query, p1Wins, p2Wins, draws, result, models.MatchCompleted, endTime, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkInProgress(ctx context.Context, id int, startTime time.Time) error {
	query := `UPDATE matches SET status = $1, start_time = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, models.MatchInProgress, startTime, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkCompleted(ctx context.Context, id int, endTime time.Time) error {
	query := `UPDATE matches SET status = $1, end_time = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, models.MatchCompleted, endTime, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, player1ID *int, player2ID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET player1_id = COALESCE($1, player1_id), player2_id = COALESCE($2, player2_id) WHERE id = $3`
	res, err := executor.ExecContext(ctx, query, player1ID, player2ID, id)
	if err != nil {
		return fmt.Errorf("UpdatePlayers: failed for match %d: %w", id, err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateNextMatchInfo(ctx context.Context, exec SQLExecutor, id int, winnersNext, losersNext *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET winners_next_match = $1, losers_next_match = $2 WHERE id = $3`
	res, err := executor.ExecContext(ctx, query, winnersNext, losersNext, id)
	if err != nil {
		return fmt.Errorf("UpdateNextMatchInfo: failed for match %d: %w", id, err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player1_id_fkey", "matches_player2_id_fkey":
			return ErrMatchPlayerInvalid
		}
	}
	return err
}
