package service

import (
	"context"
	"fmt"
	"time"

	"matchbook/config"
	"matchbook/events"
	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

// leaderboardPageSize is the number of entries shown per leaderboard page
const leaderboardPageSize = 10

type userService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// GetOrCreateUser retrieves an existing user or creates one with the mode's
// starting balance
func (s *userService) GetOrCreateUser(ctx context.Context, discordID int64, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		cfg := config.Get()
		user, err = uow.UserRepository().Create(ctx, discordID, username, cfg.StartingBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		log.WithFields(log.Fields{
			"discordID": discordID,
			"username":  username,
			"points":    cfg.StartingBalance,
		}).Info("Created new user")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user, failing with ErrUserNotFound when absent
func (s *userService) GetUser(ctx context.Context, discordID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// AddPoints grants points to a user
func (s *userService) AddPoints(ctx context.Context, discordID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return s.adjustPoints(ctx, discordID, func(points int64) int64 {
		return points + amount
	}, "points granted")
}

// RemovePoints takes points from a user, clamped at zero
func (s *userService) RemovePoints(ctx context.Context, discordID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return s.adjustPoints(ctx, discordID, func(points int64) int64 {
		if amount > points {
			return 0
		}
		return points - amount
	}, "points removed")
}

// SetPoints overwrites a user's balance
func (s *userService) SetPoints(ctx context.Context, discordID int64, points int64) (*models.User, error) {
	if points < 0 {
		return nil, fmt.Errorf("points must not be negative")
	}
	return s.adjustPoints(ctx, discordID, func(int64) int64 {
		return points
	}, "points set")
}

// adjustPoints reads the user, computes the new balance and writes it back
// in one transaction
func (s *userService) adjustPoints(ctx context.Context, discordID int64, compute func(int64) int64, reason string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	oldBalance := user.Points
	newBalance := compute(oldBalance)

	if err := uow.UserRepository().SetPoints(ctx, discordID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to set points: %w", err)
	}
	user.Points = newBalance

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       discordID,
		OldBalance:   oldBalance,
		NewBalance:   newBalance,
		ChangeAmount: newBalance - oldBalance,
		Reason:       reason,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// Leaderboard returns one page of the point ranking for the given period.
// Pages are 1-based; out-of-range pages come back empty.
func (s *userService) Leaderboard(ctx context.Context, period LeaderboardPeriod, page int) (*LeaderboardPage, error) {
	if page < 1 {
		page = 1
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	since := period.Cutoff(s.now())

	total, err := uow.UserRepository().Count(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	offset := (page - 1) * leaderboardPageSize
	entries, err := uow.UserRepository().Leaderboard(ctx, since, offset, leaderboardPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	totalPages := int((total + leaderboardPageSize - 1) / leaderboardPageSize)
	if totalPages == 0 {
		totalPages = 1
	}

	return &LeaderboardPage{
		Entries:    entries,
		Page:       page,
		TotalPages: totalPages,
		TotalUsers: total,
		Period:     period,
	}, nil
}
