package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cardhall/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
	ErrRegistrationConflict   = errors.New("player already registered for this tournament")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error

	AddPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	RemovePlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	ListPlayerIDs(ctx context.Context, tournamentID int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	configJSON, err := json.Marshal(t.StructureConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal structure config: %w", err)
	}

	query := `
		INSERT INTO tournaments
			(name, format, structure, date, location, status, rounds, current_round,
			 structure_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	err = r.db.QueryRowContext(ctx, query,
		t.Name, t.Format, t.Structure, t.Date, t.Location, t.Status,
		t.Rounds, t.CurrentRound, configJSON, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	var configJSON []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.Format, &t.Structure, &t.Date, &t.Location,
		&t.Status, &t.Rounds, &t.CurrentRound, &configJSON, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &t.StructureConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal structure config for tournament %d: %w", t.ID, err)
		}
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, format, structure, date, location, status, rounds, current_round,
		       structure_config, created_at, updated_at
		FROM tournaments
		WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	query := `
		SELECT id, name, format, structure, date, location, status, rounds, current_round,
		       structure_config, created_at, updated_at
		FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	configJSON, err := json.Marshal(t.StructureConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal structure config: %w", err)
	}

	query := `
		UPDATE tournaments
		SET name = $1, format = $2, structure = $3, date = $4, location = $5,
		    status = $6, rounds = $7, current_round = $8, structure_config = $9, updated_at = $10
		WHERE id = $11`
	t.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Format, t.Structure, t.Date, t.Location,
		t.Status, t.Rounds, t.CurrentRound, configJSON, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddPlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO tournament_players (tournament_id, player_id) VALUES ($1, $2)`
	_, err := executor.ExecContext(ctx, query, tournamentID, playerID)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) RemovePlayer(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`
	result, err := executor.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListPlayerIDs(ctx context.Context, tournamentID int) ([]int, error) {
	query := `
		SELECT player_id FROM tournament_players
		WHERE tournament_id = $1
		ORDER BY player_id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament players: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "tournaments_name_key":
			return ErrTournamentNameConflict
		case "tournament_players_pkey", "tournament_players_tournament_id_player_id_key":
			return ErrRegistrationConflict
		}
	}
	return err
}
