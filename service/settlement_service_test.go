package service

import (
	"context"
	"testing"
	"time"

	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettle_PaysWinnersAndUpdatesStats(t *testing.T) {
	factory, uow, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	match := testMatch(time.Now().Add(-2 * time.Hour))
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 100},
			{ID: 2, MatchID: match.ID, UserID: 222, Selection: models.OutcomeAway, Stake: 60},
		},
	}
	winner := &models.User{DiscordID: 111, Points: 400}
	loser := &models.User{DiscordID: 222, Points: 340}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("GetByDiscordID", ctx, int64(111)).Return(winner, nil)
	userRepo.On("GetByDiscordID", ctx, int64(222)).Return(loser, nil)
	userRepo.On("UpdateStats", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(1)).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(2)).Return(nil)
	matchRepo.On("MarkCompleted", ctx, match.ID, 2, 1, false).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Settle(ctx, match.ID, 2, 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, models.OutcomeHome, result.Outcome)
	require.Len(t, result.Updates, 2)

	// floor(100 * 1.85) = 185, stake included in the payout
	assert.True(t, result.Updates[0].Won)
	assert.Equal(t, int64(185), result.Updates[0].Winnings)
	assert.False(t, result.Updates[1].Won)
	assert.Equal(t, 1, result.WinnersCount())

	assert.Equal(t, int64(585), winner.Points)
	assert.Equal(t, int64(1), winner.BetsCorrect)
	assert.Equal(t, int64(85), winner.Profits)
	assert.Equal(t, int64(100), winner.StakeInvestment)

	assert.Equal(t, int64(340), loser.Points)
	assert.Equal(t, int64(1), loser.BetsIncorrect)
	assert.Equal(t, int64(60), loser.Loss)

	matchRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)

	// Balance change for the winner plus the settled announcement
	var settled *events.MatchSettledEvent
	winnerPaid := false
	for _, ev := range uow.Events.Events {
		switch e := ev.(type) {
		case events.MatchSettledEvent:
			settled = &e
		case events.BalanceChangeEvent:
			if e.UserID == 111 {
				winnerPaid = true
			}
		}
	}
	assert.True(t, winnerPaid)
	require.NotNil(t, settled)
	assert.Equal(t, 1, settled.Winners)
	assert.Equal(t, "home", settled.Outcome)
}

func TestSettle_DrawPaysAwayPrice(t *testing.T) {
	factory, _, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	drawOdds := 3.2
	match := testMatch(time.Now().Add(-2 * time.Hour))
	match.DrawOdds = &drawOdds
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeDraw, Stake: 100},
		},
	}
	user := &models.User{DiscordID: 111, Points: 0}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("GetByDiscordID", ctx, int64(111)).Return(user, nil)
	userRepo.On("UpdateStats", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(1)).Return(nil)
	matchRepo.On("MarkCompleted", ctx, match.ID, 1, 1, true).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Settle(ctx, match.ID, 1, 1)
	require.NoError(t, err)

	// Draw selections pay at the away price, not the posted draw odds
	require.Len(t, result.Updates, 1)
	assert.True(t, result.Updates[0].Won)
	assert.Equal(t, int64(240), result.Updates[0].Winnings)
}

func TestSettle_HandicapFeedsItsBucket(t *testing.T) {
	factory, _, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	handicap := models.Handicap("+0.5")
	match := testMatch(time.Now().Add(-2 * time.Hour))
	match.HomeHandicap = &handicap
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 80},
		},
	}
	user := &models.User{DiscordID: 111, Points: 20}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("GetByDiscordID", ctx, int64(111)).Return(user, nil)
	userRepo.On("UpdateStats", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(1)).Return(nil)
	matchRepo.On("MarkCompleted", ctx, match.ID, 1, 1, false).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Settle(ctx, match.ID, 1, 1)
	require.NoError(t, err)

	// The half goal line turns the level game into a home win
	assert.Equal(t, models.OutcomeHome, result.Outcome)
	assert.Equal(t, int64(80), user.InvestmentAsianHandicap)
	assert.Zero(t, user.Investment1x2)
}

func TestSettle_RetrySkipsAlreadySettledBets(t *testing.T) {
	factory, _, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	// A crash after the first payout leaves bet 1 flagged settled and the
	// match still open. The retry must only touch bet 2.
	match := testMatch(time.Now().Add(-2 * time.Hour))
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 100, Settled: true},
			{ID: 2, MatchID: match.ID, UserID: 222, Selection: models.OutcomeHome, Stake: 50},
		},
	}
	paid := &models.User{DiscordID: 111, Points: 585}
	pending := &models.User{DiscordID: 222, Points: 0}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("GetByDiscordID", ctx, int64(222)).Return(pending, nil)
	userRepo.On("UpdateStats", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(2)).Return(nil)
	matchRepo.On("MarkCompleted", ctx, match.ID, 2, 1, false).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Settle(ctx, match.ID, 2, 1)
	require.NoError(t, err)

	require.Len(t, result.Updates, 1)
	assert.Equal(t, int64(222), result.Updates[0].UserID)
	assert.True(t, result.Updates[0].Won)

	// The already paid bettor is never touched again
	userRepo.AssertNotCalled(t, "GetByDiscordID", ctx, int64(111))
	matchRepo.AssertNotCalled(t, "MarkBetSettled", ctx, int64(1))
	assert.Equal(t, int64(585), paid.Points)

	matchRepo.AssertCalled(t, "MarkCompleted", ctx, match.ID, 2, 1, false)
}

func TestSettle_TerminalStatesRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown match", func(t *testing.T) {
		factory, _, _, matchRepo, _ := newTestUnitOfWork()
		matchRepo.On("GetDetail", ctx, "missing").Return(nil, nil)

		svc := NewSettlementService(factory)
		_, err := svc.Settle(ctx, "missing", 1, 0)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("already settled", func(t *testing.T) {
		factory, _, _, matchRepo, _ := newTestUnitOfWork()
		match := testMatch(time.Now())
		match.IsCompleted = true
		matchRepo.On("GetDetail", ctx, match.ID).Return(&models.MatchDetail{Match: match}, nil)

		svc := NewSettlementService(factory)
		_, err := svc.Settle(ctx, match.ID, 1, 0)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("cancelled match", func(t *testing.T) {
		factory, _, _, matchRepo, _ := newTestUnitOfWork()
		match := testMatch(time.Now())
		match.IsAborted = true
		matchRepo.On("GetDetail", ctx, match.ID).Return(&models.MatchDetail{Match: match}, nil)

		svc := NewSettlementService(factory)
		_, err := svc.Settle(ctx, match.ID, 1, 0)
		assert.ErrorIs(t, err, ErrMatchAborted)
	})
}

func TestSettle_MissingBettorDoesNotAbortTheRun(t *testing.T) {
	factory, _, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	match := testMatch(time.Now().Add(-2 * time.Hour))
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 100},
			{ID: 2, MatchID: match.ID, UserID: 222, Selection: models.OutcomeHome, Stake: 50},
		},
	}
	survivor := &models.User{DiscordID: 222, Points: 0}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("GetByDiscordID", ctx, int64(111)).Return(nil, nil)
	userRepo.On("GetByDiscordID", ctx, int64(222)).Return(survivor, nil)
	userRepo.On("UpdateStats", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	matchRepo.On("MarkBetSettled", ctx, int64(2)).Return(nil)
	matchRepo.On("MarkCompleted", ctx, match.ID, 3, 0, false).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Settle(ctx, match.ID, 3, 0)
	require.NoError(t, err)

	require.Len(t, result.Updates, 2)
	assert.ErrorIs(t, result.Updates[0].Err, ErrUserNotFound)
	assert.NoError(t, result.Updates[1].Err)
	assert.True(t, result.Updates[1].Won)

	// The anomaly is reported, the rest of the payouts still land
	matchRepo.AssertCalled(t, "MarkCompleted", ctx, match.ID, 3, 0, false)
}

func TestCancel_RefundsEveryStake(t *testing.T) {
	factory, uow, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	match := testMatch(time.Now().Add(time.Hour))
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 100},
			{ID: 2, MatchID: match.ID, UserID: 222, Selection: models.OutcomeAway, Stake: 40},
		},
	}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("Refund", ctx, int64(111), int64(100)).Return(nil)
	userRepo.On("Refund", ctx, int64(222), int64(40)).Return(nil)
	matchRepo.On("MarkAborted", ctx, match.ID).Return(nil)

	svc := NewSettlementService(factory)
	result, err := svc.Cancel(ctx, match.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Refunded)
	assert.Equal(t, int64(140), result.Total)
	userRepo.AssertExpectations(t)
	matchRepo.AssertExpectations(t)

	var cancelled *events.MatchCancelledEvent
	for _, ev := range uow.Events.Events {
		if e, ok := ev.(events.MatchCancelledEvent); ok {
			cancelled = &e
		}
	}
	require.NotNil(t, cancelled)
	assert.Equal(t, 2, cancelled.Refunded)
}

func TestCancel_RefundFailureAbortsEverything(t *testing.T) {
	factory, _, userRepo, matchRepo, _ := newTestUnitOfWork()
	ctx := context.Background()

	match := testMatch(time.Now().Add(time.Hour))
	detail := &models.MatchDetail{
		Match: match,
		Bets: []*models.Bet{
			{ID: 1, MatchID: match.ID, UserID: 111, Selection: models.OutcomeHome, Stake: 100},
			{ID: 2, MatchID: match.ID, UserID: 222, Selection: models.OutcomeAway, Stake: 40},
		},
	}

	matchRepo.On("GetDetail", ctx, match.ID).Return(detail, nil)
	userRepo.On("Refund", ctx, int64(111), int64(100)).Return(nil)
	userRepo.On("Refund", ctx, int64(222), int64(40)).Return(assert.AnError)

	svc := NewSettlementService(factory)
	_, err := svc.Cancel(ctx, match.ID)
	require.Error(t, err)

	// The whole refund run rolls back, the match is not aborted
	matchRepo.AssertNotCalled(t, "MarkAborted", ctx, match.ID)
}
