package service

import (
	"context"
	"fmt"

	"matchbook/models"
)

type leagueService struct {
	uowFactory UnitOfWorkFactory
}

// NewLeagueService creates a new league service
func NewLeagueService(uowFactory UnitOfWorkFactory) LeagueService {
	return &leagueService{
		uowFactory: uowFactory,
	}
}

// AddLeague creates a league bound to a channel. Each channel hosts at most
// one running league.
func (s *leagueService) AddLeague(ctx context.Context, params LeagueParams) (*models.League, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.LeagueRepository().GetByChannel(ctx, params.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to check channel: %w", err)
	}
	if existing != nil {
		return nil, ErrChannelInUse
	}

	league := &models.League{
		ID:          models.NewLeagueID(),
		Name:        params.Name,
		Description: params.Description,
		ChannelID:   params.ChannelID,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
	}

	if err := uow.LeagueRepository().Create(ctx, league); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return league, nil
}

// UpdateLeague applies partial updates. Moving the league to another
// channel re-checks that the channel is free.
func (s *leagueService) UpdateLeague(ctx context.Context, leagueID string, params UpdateLeagueParams) (*models.League, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	league, err := uow.LeagueRepository().GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	if league == nil {
		return nil, ErrLeagueNotFound
	}
	if league.IsCompleted {
		return nil, ErrLeagueCompleted
	}

	if params.ChannelID != nil && *params.ChannelID != league.ChannelID {
		existing, err := uow.LeagueRepository().GetByChannel(ctx, *params.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("failed to check channel: %w", err)
		}
		if existing != nil {
			return nil, ErrChannelInUse
		}
		league.ChannelID = *params.ChannelID
	}

	if params.Name != nil {
		league.Name = *params.Name
	}
	if params.Description != nil {
		league.Description = *params.Description
	}
	if params.StartDate != nil {
		league.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		league.EndDate = *params.EndDate
	}

	if err := uow.LeagueRepository().Update(ctx, league); err != nil {
		return nil, fmt.Errorf("failed to update league: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return league, nil
}

// EndLeague marks a league as completed, freeing its channel
func (s *leagueService) EndLeague(ctx context.Context, leagueID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	league, err := uow.LeagueRepository().GetByID(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("failed to get league: %w", err)
	}
	if league == nil {
		return ErrLeagueNotFound
	}
	if league.IsCompleted {
		return ErrLeagueCompleted
	}

	if err := uow.LeagueRepository().Complete(ctx, leagueID); err != nil {
		return fmt.Errorf("failed to complete league: %w", err)
	}

	return uow.Commit()
}

// GetLeague retrieves a league by ID
func (s *leagueService) GetLeague(ctx context.Context, leagueID string) (*models.League, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	league, err := uow.LeagueRepository().GetByID(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	if league == nil {
		return nil, ErrLeagueNotFound
	}

	return league, nil
}

// ListLeagues returns all active leagues
func (s *leagueService) ListLeagues(ctx context.Context) ([]*models.League, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LeagueRepository().ListActive(ctx)
}
