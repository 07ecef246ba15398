package service

import (
	"context"
	"testing"
	"time"

	"matchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("free channel", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		leagueRepo.On("GetByChannel", ctx, int64(555)).Return(nil, nil)
		leagueRepo.On("Create", ctx, mock.AnythingOfType("*models.League")).Return(nil)

		svc := NewLeagueService(factory)
		league, err := svc.AddLeague(ctx, LeagueParams{
			Name:      "Premier League",
			ChannelID: 555,
			StartDate: time.Now(),
			EndDate:   time.Now().AddDate(0, 9, 0),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, league.ID)
		assert.Equal(t, int64(555), league.ChannelID)
	})

	t.Run("channel already hosts a league", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		leagueRepo.On("GetByChannel", ctx, int64(555)).Return(runningLeague(555), nil)

		svc := NewLeagueService(factory)
		_, err := svc.AddLeague(ctx, LeagueParams{Name: "Clash", ChannelID: 555})
		assert.ErrorIs(t, err, ErrChannelInUse)
		leagueRepo.AssertNotCalled(t, "Create", ctx, mock.Anything)
	})
}

func TestUpdateLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("moving channels re-checks uniqueness", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(555)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		leagueRepo.On("GetByChannel", ctx, int64(666)).Return(runningLeague(666), nil)

		target := int64(666)
		svc := NewLeagueService(factory)
		_, err := svc.UpdateLeague(ctx, league.ID, UpdateLeagueParams{ChannelID: &target})
		assert.ErrorIs(t, err, ErrChannelInUse)
	})

	t.Run("same channel skips the check", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(555)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		leagueRepo.On("Update", ctx, league).Return(nil)

		same := int64(555)
		name := "Renamed"
		svc := NewLeagueService(factory)
		updated, err := svc.UpdateLeague(ctx, league.ID, UpdateLeagueParams{ChannelID: &same, Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		leagueRepo.AssertNotCalled(t, "GetByChannel", ctx, same)
	})

	t.Run("ended league rejects updates", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(555)
		league.IsCompleted = true
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)

		svc := NewLeagueService(factory)
		_, err := svc.UpdateLeague(ctx, league.ID, UpdateLeagueParams{})
		assert.ErrorIs(t, err, ErrLeagueCompleted)
	})
}

func TestEndLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("running league ends", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(555)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		leagueRepo.On("Complete", ctx, league.ID).Return(nil)

		svc := NewLeagueService(factory)
		require.NoError(t, svc.EndLeague(ctx, league.ID))
		leagueRepo.AssertExpectations(t)
	})

	t.Run("ending twice fails", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(555)
		league.IsCompleted = true
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)

		svc := NewLeagueService(factory)
		err := svc.EndLeague(ctx, league.ID)
		assert.ErrorIs(t, err, ErrLeagueCompleted)
	})

	t.Run("unknown league", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		leagueRepo.On("GetByID", ctx, "missing").Return(nil, nil)

		svc := NewLeagueService(factory)
		err := svc.EndLeague(ctx, "missing")
		assert.ErrorIs(t, err, ErrLeagueNotFound)
	})
}

func TestGetLeague(t *testing.T) {
	factory, _, _, _, leagueRepo := newTestUnitOfWork()
	ctx := context.Background()

	league := runningLeague(555)
	leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
	leagueRepo.On("GetByID", ctx, "missing").Return(nil, nil)

	svc := NewLeagueService(factory)

	found, err := svc.GetLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Equal(t, league.ID, found.ID)

	_, err = svc.GetLeague(ctx, "missing")
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestListLeagues(t *testing.T) {
	factory, _, _, _, leagueRepo := newTestUnitOfWork()
	ctx := context.Background()

	leagues := []*models.League{runningLeague(1), runningLeague(2)}
	leagueRepo.On("ListActive", ctx).Return(leagues, nil)

	svc := NewLeagueService(factory)
	listed, err := svc.ListLeagues(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
