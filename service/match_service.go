package service

import (
	"context"
	"fmt"

	"matchbook/config"
	"matchbook/events"
	"matchbook/models"
)

type matchService struct {
	uowFactory UnitOfWorkFactory
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory) MatchService {
	return &matchService{
		uowFactory: uowFactory,
	}
}

// CreateMatch posts a new match into a league. The league must exist, still
// be running and have room under its active match cap.
func (s *matchService) CreateMatch(ctx context.Context, params CreateMatchParams) (*models.Match, error) {
	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	league, err := uow.LeagueRepository().GetByID(ctx, params.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	if league == nil {
		return nil, ErrLeagueNotFound
	}
	if league.IsCompleted {
		return nil, ErrLeagueCompleted
	}

	active, err := uow.MatchRepository().CountActiveByLeague(ctx, params.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active matches: %w", err)
	}
	if active >= cfg.MaxActiveMatches {
		return nil, ErrTooManyActiveMatches
	}

	match := &models.Match{
		ID:          models.NewMatchID(),
		LeagueID:    league.ID,
		ChannelID:   league.ChannelID,
		HomeTeam:    params.HomeTeam,
		AwayTeam:    params.AwayTeam,
		HomeOdds:    params.HomeOdds,
		AwayOdds:    params.AwayOdds,
		DrawOdds:    params.DrawOdds,
		KickoffTime: params.Kickoff,
		Venue:       params.Venue,
	}

	// The line's sign tells us which side it belongs to
	if params.Handicap != nil {
		if params.Handicap.IsHome() {
			match.HomeHandicap = params.Handicap
		} else {
			match.AwayHandicap = params.Handicap
		}
	}

	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// GetMatch retrieves a match by ID
func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	return match, nil
}

// GetMatchDetail retrieves a match with its bets
func (s *matchService) GetMatchDetail(ctx context.Context, matchID string) (*models.MatchDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.MatchRepository().GetDetail(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match detail: %w", err)
	}
	if detail == nil {
		return nil, ErrMatchNotFound
	}

	return detail, nil
}

// ListActiveMatches returns matches still open for settlement
func (s *matchService) ListActiveMatches(ctx context.Context) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.MatchRepository().ListActive(ctx)
}

// UpdateMatch applies partial updates to odds and the betting lock
func (s *matchService) UpdateMatch(ctx context.Context, matchID string, params UpdateMatchParams) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}
	if match.IsCompleted {
		return nil, ErrAlreadyCompleted
	}
	if match.IsAborted {
		return nil, ErrMatchAborted
	}

	if params.HomeOdds != nil {
		match.HomeOdds = *params.HomeOdds
	}
	if params.AwayOdds != nil {
		match.AwayOdds = *params.AwayOdds
	}
	if params.DrawOdds != nil {
		match.DrawOdds = params.DrawOdds
	}

	lockedNow := false
	if params.BetsLocked != nil {
		lockedNow = *params.BetsLocked && !match.BetsLocked
		match.BetsLocked = *params.BetsLocked
	}

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	if lockedNow {
		uow.EventBus().Publish(events.MatchLockedEvent{
			MatchID:   matchID,
			ChannelID: match.ChannelID,
			MessageID: match.MessageID,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// SetMessageIDs records where the match embed was posted
func (s *matchService) SetMessageIDs(ctx context.Context, matchID string, channelID, messageID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return ErrMatchNotFound
	}

	match.ChannelID = channelID
	match.MessageID = messageID

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	return uow.Commit()
}
