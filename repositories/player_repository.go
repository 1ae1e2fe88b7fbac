package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cardhall/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerEmailConflict = errors.New("player email already in use")
	ErrPlayerDCIConflict   = errors.New("player dci number already in use")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (name, email, phone, dci_number, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	now := time.Now()
	player.CreatedAt = now
	player.UpdatedAt = now
	if !player.Active {
		player.Active = true
	}
	err := r.db.QueryRowContext(ctx, query,
		player.Name, player.Email, player.Phone, player.DCINumber,
		player.Active, player.CreatedAt, player.UpdatedAt,
	).Scan(&player.ID)
	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	var p models.Player
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.DCINumber, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, name, email, phone, dci_number, active, created_at, updated_at
		FROM players
		WHERE id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT id, name, email, phone, dci_number, active, created_at, updated_at
		FROM players
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, scanErr := r.scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	query := `
		SELECT id, name, email, phone, dci_number, active, created_at, updated_at
		FROM players
		WHERE id = ANY($1)
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query players by ids: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0, len(ids))
	for rows.Next() {
		p, scanErr := r.scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET name = $1, email = $2, phone = $3, dci_number = $4, active = $5, updated_at = $6
		WHERE id = $7`
	player.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		player.Name, player.Email, player.Phone, player.DCINumber,
		player.Active, player.UpdatedAt, player.ID,
	)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "players_email_key":
			return ErrPlayerEmailConflict
		case "players_dci_number_key":
			return ErrPlayerDCIConflict
		}
	}
	return err
}
