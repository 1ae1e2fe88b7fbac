package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardhall/tournament-engine/models"
	"github.com/cardhall/tournament-engine/repositories"
)

type CreatePlayerInput struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	DCINumber *string `json:"dci_number,omitempty"`
}

type UpdatePlayerInput struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	DCINumber *string `json:"dci_number,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type PlayerService interface {
	Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	Update(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id int) error
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func (s *playerService) Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidationFailed)
	}

	player := &models.Player{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		DCINumber: input.DCINumber,
		Active:    true,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	return s.playerRepo.List(ctx)
}

func (s *playerService) Update(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrNameRequired
		}
		player.Name = *input.Name
	}
	if input.Email != nil {
		player.Email = *input.Email
	}
	if input.Phone != nil {
		player.Phone = input.Phone
	}
	if input.DCINumber != nil {
		player.DCINumber = input.DCINumber
	}
	if input.Active != nil {
		player.Active = *input.Active
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return player, nil
}

func (s *playerService) Delete(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return mapPlayerRepoError(err)
	}
	return nil
}

func mapPlayerRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerEmailConflict):
		return ErrPlayerEmailTaken
	case errors.Is(err, repositories.ErrPlayerDCIConflict):
		return ErrPlayerDCITaken
	default:
		return err
	}
}
