package service

import (
	"context"
	"testing"
	"time"

	"matchbook/config"
	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("existing user is returned untouched", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		existing := &models.User{DiscordID: 123, Username: "alice", Points: 42}
		userRepo.On("GetByDiscordID", ctx, int64(123)).Return(existing, nil)

		svc := NewUserService(factory)
		user, err := svc.GetOrCreateUser(ctx, 123, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.Points)
		userRepo.AssertNotCalled(t, "Create", ctx, int64(123), "alice", config.Get().StartingBalance)
	})

	t.Run("new user gets the starting balance", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		cfg := config.Get()
		created := &models.User{DiscordID: 456, Username: "bob", Points: cfg.StartingBalance}
		userRepo.On("GetByDiscordID", ctx, int64(456)).Return(nil, nil)
		userRepo.On("Create", ctx, int64(456), "bob", cfg.StartingBalance).Return(created, nil)

		svc := NewUserService(factory)
		user, err := svc.GetOrCreateUser(ctx, 456, "bob")
		require.NoError(t, err)
		assert.Equal(t, cfg.StartingBalance, user.Points)
	})
}

func TestGetUser_NotFound(t *testing.T) {
	factory, _, userRepo, _, _ := newTestUnitOfWork()
	ctx := context.Background()

	userRepo.On("GetByDiscordID", ctx, int64(999)).Return(nil, nil)

	svc := NewUserService(factory)
	_, err := svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestPointAdjustments(t *testing.T) {
	ctx := context.Background()

	setup := func(points int64) (*MockUnitOfWork, *MockUserRepository, UserService) {
		factory, uow, userRepo, _, _ := newTestUnitOfWork()
		userRepo.On("GetByDiscordID", ctx, int64(123)).Return(&models.User{DiscordID: 123, Points: points}, nil)
		return uow, userRepo, NewUserService(factory)
	}

	t.Run("add", func(t *testing.T) {
		uow, userRepo, svc := setup(100)
		userRepo.On("SetPoints", ctx, int64(123), int64(150)).Return(nil)

		user, err := svc.AddPoints(ctx, 123, 50)
		require.NoError(t, err)
		assert.Equal(t, int64(150), user.Points)

		require.Len(t, uow.Events.Events, 1)
		change := uow.Events.Events[0].(events.BalanceChangeEvent)
		assert.Equal(t, int64(50), change.ChangeAmount)
	})

	t.Run("remove clamps at zero", func(t *testing.T) {
		_, userRepo, svc := setup(30)
		userRepo.On("SetPoints", ctx, int64(123), int64(0)).Return(nil)

		user, err := svc.RemovePoints(ctx, 123, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), user.Points)
	})

	t.Run("set overwrites", func(t *testing.T) {
		_, userRepo, svc := setup(30)
		userRepo.On("SetPoints", ctx, int64(123), int64(777)).Return(nil)

		user, err := svc.SetPoints(ctx, 123, 777)
		require.NoError(t, err)
		assert.Equal(t, int64(777), user.Points)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		_, _, svc := setup(30)

		_, err := svc.AddPoints(ctx, 123, 0)
		assert.Error(t, err)
		_, err = svc.RemovePoints(ctx, 123, -1)
		assert.Error(t, err)
		_, err = svc.SetPoints(ctx, 123, -10)
		assert.Error(t, err)
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("all time has no cutoff", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		entries := []*models.User{{DiscordID: 1, Points: 300}, {DiscordID: 2, Points: 200}}
		userRepo.On("Count", ctx, (*time.Time)(nil)).Return(int64(2), nil)
		userRepo.On("Leaderboard", ctx, (*time.Time)(nil), 0, leaderboardPageSize).Return(entries, nil)

		svc := NewUserService(factory)
		page, err := svc.Leaderboard(ctx, PeriodAllTime, 1)
		require.NoError(t, err)
		assert.Len(t, page.Entries, 2)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, int64(2), page.TotalUsers)
	})

	t.Run("weekly window passes a cutoff", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		cutoff := now.AddDate(0, 0, -7)
		userRepo.On("Count", ctx, &cutoff).Return(int64(0), nil)
		userRepo.On("Leaderboard", ctx, &cutoff, 0, leaderboardPageSize).Return([]*models.User(nil), nil)

		svc := NewUserService(factory).(*userService)
		svc.now = func() time.Time { return now }

		page, err := svc.Leaderboard(ctx, PeriodWeekly, 1)
		require.NoError(t, err)
		assert.Empty(t, page.Entries)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("later pages use the right offset", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		userRepo.On("Count", ctx, (*time.Time)(nil)).Return(int64(25), nil)
		userRepo.On("Leaderboard", ctx, (*time.Time)(nil), 2*leaderboardPageSize, leaderboardPageSize).Return([]*models.User{{DiscordID: 21}}, nil)

		svc := NewUserService(factory)
		page, err := svc.Leaderboard(ctx, PeriodAllTime, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalPages)
		assert.Len(t, page.Entries, 1)
	})

	t.Run("page below one is normalized", func(t *testing.T) {
		factory, _, userRepo, _, _ := newTestUnitOfWork()
		userRepo.On("Count", ctx, (*time.Time)(nil)).Return(int64(0), nil)
		userRepo.On("Leaderboard", ctx, (*time.Time)(nil), 0, leaderboardPageSize).Return([]*models.User(nil), nil)

		svc := NewUserService(factory)
		page, err := svc.Leaderboard(ctx, PeriodAllTime, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
	})
}
