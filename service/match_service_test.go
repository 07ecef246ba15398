package service

import (
	"context"
	"testing"
	"time"

	"matchbook/config"
	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func runningLeague(channelID int64) *models.League {
	return &models.League{
		ID:        models.NewLeagueID(),
		Name:      "Test League",
		ChannelID: channelID,
		StartDate: time.Now().AddDate(0, 0, -7),
		EndDate:   time.Now().AddDate(0, 3, 0),
	}
}

func TestCreateMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("match inherits the league channel", func(t *testing.T) {
		factory, _, _, matchRepo, leagueRepo := newTestUnitOfWork()
		league := runningLeague(777)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		matchRepo.On("CountActiveByLeague", ctx, league.ID).Return(int64(0), nil)
		matchRepo.On("Create", ctx, mock.AnythingOfType("*models.Match")).Return(nil)

		svc := NewMatchService(factory)
		match, err := svc.CreateMatch(ctx, CreateMatchParams{
			LeagueID: league.ID,
			HomeTeam: "Arsenal",
			AwayTeam: "Chelsea",
			HomeOdds: 1.85,
			AwayOdds: 2.40,
			Kickoff:  time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(777), match.ChannelID)
		assert.NotEmpty(t, match.ID)
	})

	t.Run("handicap sign picks the side", func(t *testing.T) {
		factory, _, _, matchRepo, leagueRepo := newTestUnitOfWork()
		league := runningLeague(777)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		matchRepo.On("CountActiveByLeague", ctx, league.ID).Return(int64(0), nil)
		matchRepo.On("Create", ctx, mock.AnythingOfType("*models.Match")).Return(nil)

		home := models.Handicap("+0.75")
		svc := NewMatchService(factory)
		match, err := svc.CreateMatch(ctx, CreateMatchParams{
			LeagueID: league.ID,
			HomeTeam: "Arsenal",
			AwayTeam: "Chelsea",
			Handicap: &home,
			Kickoff:  time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, &home, match.HomeHandicap)
		assert.Nil(t, match.AwayHandicap)

		away := models.Handicap("-1.5")
		match, err = svc.CreateMatch(ctx, CreateMatchParams{
			LeagueID: league.ID,
			HomeTeam: "Arsenal",
			AwayTeam: "Chelsea",
			Handicap: &away,
			Kickoff:  time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Nil(t, match.HomeHandicap)
		assert.Equal(t, &away, match.AwayHandicap)
	})

	t.Run("unknown league", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		leagueRepo.On("GetByID", ctx, "missing").Return(nil, nil)

		svc := NewMatchService(factory)
		_, err := svc.CreateMatch(ctx, CreateMatchParams{LeagueID: "missing"})
		assert.ErrorIs(t, err, ErrLeagueNotFound)
	})

	t.Run("ended league", func(t *testing.T) {
		factory, _, _, _, leagueRepo := newTestUnitOfWork()
		league := runningLeague(777)
		league.IsCompleted = true
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)

		svc := NewMatchService(factory)
		_, err := svc.CreateMatch(ctx, CreateMatchParams{LeagueID: league.ID})
		assert.ErrorIs(t, err, ErrLeagueCompleted)
	})

	t.Run("active match cap", func(t *testing.T) {
		factory, _, _, matchRepo, leagueRepo := newTestUnitOfWork()
		league := runningLeague(777)
		leagueRepo.On("GetByID", ctx, league.ID).Return(league, nil)
		matchRepo.On("CountActiveByLeague", ctx, league.ID).Return(config.Get().MaxActiveMatches, nil)

		svc := NewMatchService(factory)
		_, err := svc.CreateMatch(ctx, CreateMatchParams{LeagueID: league.ID})
		assert.ErrorIs(t, err, ErrTooManyActiveMatches)
		matchRepo.AssertNotCalled(t, "Create", ctx, mock.Anything)
	})
}

func TestUpdateMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update touches only given fields", func(t *testing.T) {
		factory, uow, _, matchRepo, _ := newTestUnitOfWork()
		match := testMatch(time.Now().Add(time.Hour))
		matchRepo.On("GetByID", ctx, match.ID).Return(match, nil)
		matchRepo.On("Update", ctx, match).Return(nil)

		newHome := 2.10
		svc := NewMatchService(factory)
		updated, err := svc.UpdateMatch(ctx, match.ID, UpdateMatchParams{HomeOdds: &newHome})
		require.NoError(t, err)
		assert.Equal(t, 2.10, updated.HomeOdds)
		assert.Equal(t, 2.40, updated.AwayOdds)
		assert.Empty(t, uow.Events.Events)
	})

	t.Run("locking publishes the lock event once", func(t *testing.T) {
		factory, uow, _, matchRepo, _ := newTestUnitOfWork()
		match := testMatch(time.Now().Add(time.Hour))
		matchRepo.On("GetByID", ctx, match.ID).Return(match, nil)
		matchRepo.On("Update", ctx, match).Return(nil)

		lock := true
		svc := NewMatchService(factory)
		_, err := svc.UpdateMatch(ctx, match.ID, UpdateMatchParams{BetsLocked: &lock})
		require.NoError(t, err)

		require.Len(t, uow.Events.Events, 1)
		_, ok := uow.Events.Events[0].(events.MatchLockedEvent)
		assert.True(t, ok)

		// Locking an already locked match is quiet
		_, err = svc.UpdateMatch(ctx, match.ID, UpdateMatchParams{BetsLocked: &lock})
		require.NoError(t, err)
		assert.Len(t, uow.Events.Events, 1)
	})

	t.Run("terminal matches reject updates", func(t *testing.T) {
		factory, _, _, matchRepo, _ := newTestUnitOfWork()
		match := testMatch(time.Now())
		match.IsCompleted = true
		matchRepo.On("GetByID", ctx, match.ID).Return(match, nil)

		svc := NewMatchService(factory)
		_, err := svc.UpdateMatch(ctx, match.ID, UpdateMatchParams{})
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})
}

func TestSetMessageIDs(t *testing.T) {
	factory, _, _, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	match := testMatch(time.Now().Add(time.Hour))
	matchRepo.On("GetByID", ctx, match.ID).Return(match, nil)
	matchRepo.On("Update", ctx, match).Return(nil)

	svc := NewMatchService(factory)
	err := svc.SetMessageIDs(ctx, match.ID, 42, 43)
	require.NoError(t, err)
	assert.Equal(t, int64(42), match.ChannelID)
	assert.Equal(t, int64(43), match.MessageID)
}
