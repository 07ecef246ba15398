package service

import (
	"context"
	"fmt"

	"matchbook/events"
	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// Settle records the final score and pays out every bet on the match.
//
// Each bettor's update runs in its own short transaction, so a failure for
// one user never blocks the payouts of the rest; failures are reported in
// the per-bet results instead. Bets are processed in placement order, and
// bets already flagged settled are skipped so a retried run pays each bet
// at most once.
func (s *settlementService) Settle(ctx context.Context, matchID string, homeScore, awayScore int) (*models.SettlementResult, error) {
	detail, err := s.loadForResolution(ctx, matchID)
	if err != nil {
		return nil, err
	}
	match := detail.Match

	outcome, err := models.ResolveOutcome(homeScore, awayScore, match.Handicap())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve outcome: %w", err)
	}

	result := &models.SettlementResult{
		MatchID:   matchID,
		Outcome:   outcome,
		HomeScore: homeScore,
		AwayScore: awayScore,
	}

	for _, bet := range detail.Bets {
		if bet.Settled {
			continue
		}
		update := s.settleBet(ctx, match, bet, outcome)
		result.Updates = append(result.Updates, update)
		if update.Err != nil {
			log.WithFields(log.Fields{
				"matchID": matchID,
				"userID":  bet.UserID,
				"betID":   bet.ID,
			}).WithError(update.Err).Warn("Bet settlement step failed, continuing")
		}
	}

	// Flip the match to completed last, so a crash mid-run leaves it
	// resolvable again rather than half-paid and closed.
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	isDraw := outcome == models.OutcomeDraw
	if err := uow.MatchRepository().MarkCompleted(ctx, matchID, homeScore, awayScore, isDraw); err != nil {
		return nil, fmt.Errorf("failed to mark match completed: %w", err)
	}

	uow.EventBus().Publish(events.MatchSettledEvent{
		MatchID:   matchID,
		ChannelID: match.ChannelID,
		MessageID: match.MessageID,
		Outcome:   string(outcome),
		HomeScore: homeScore,
		AwayScore: awayScore,
		Winners:   result.WinnersCount(),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// settleBet applies one bet's outcome to its owner in a dedicated
// transaction and reports what happened.
func (s *settlementService) settleBet(ctx context.Context, match *models.Match, bet *models.Bet, outcome models.Outcome) models.BetSettlement {
	update := models.BetSettlement{
		UserID: bet.UserID,
		Stake:  bet.Stake,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		update.Err = fmt.Errorf("failed to begin transaction: %w", err)
		return update
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByDiscordID(ctx, bet.UserID)
	if err != nil {
		update.Err = fmt.Errorf("failed to get user: %w", err)
		return update
	}
	if user == nil {
		update.Err = fmt.Errorf("bettor %d has no account: %w", bet.UserID, ErrUserNotFound)
		return update
	}

	oldBalance := user.Points
	storedProfits := user.Profits

	if bet.Selection == outcome {
		odds := match.OddsFor(bet.Selection)
		winnings := int64(float64(bet.Stake) * odds)
		user.ApplyWin(bet.Stake, winnings)
		update.Won = true
		update.Winnings = winnings
	} else {
		user.ApplyLoss(bet.Stake)
	}
	user.ApplyInvestment(bet.Stake, match.IsHandicapMarket(), storedProfits)

	if err := uow.UserRepository().UpdateStats(ctx, user); err != nil {
		update.Err = fmt.Errorf("failed to update stats: %w", err)
		return update
	}

	if err := uow.MatchRepository().MarkBetSettled(ctx, bet.ID); err != nil {
		update.Err = fmt.Errorf("failed to mark bet settled: %w", err)
		return update
	}

	if update.Won {
		uow.EventBus().Publish(events.BalanceChangeEvent{
			UserID:       user.DiscordID,
			OldBalance:   oldBalance,
			NewBalance:   user.Points,
			ChangeAmount: update.Winnings,
			Reason:       "bet won",
		})
	}

	if err := uow.Commit(); err != nil {
		update.Err = fmt.Errorf("failed to commit transaction: %w", err)
	}
	return update
}

// Cancel aborts a match and hands every stake back. Refunds and the state
// flip run in one transaction so a cancelled match can never be half
// refunded.
func (s *settlementService) Cancel(ctx context.Context, matchID string) (*models.RefundResult, error) {
	detail, err := s.loadForResolution(ctx, matchID)
	if err != nil {
		return nil, err
	}
	match := detail.Match

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result := &models.RefundResult{MatchID: matchID}
	for _, bet := range detail.Bets {
		if err := uow.UserRepository().Refund(ctx, bet.UserID, bet.Stake); err != nil {
			return nil, fmt.Errorf("failed to refund user %d: %w", bet.UserID, err)
		}
		result.Refunded++
		result.Total += bet.Stake
	}

	if err := uow.MatchRepository().MarkAborted(ctx, matchID); err != nil {
		return nil, fmt.Errorf("failed to mark match aborted: %w", err)
	}

	uow.EventBus().Publish(events.MatchCancelledEvent{
		MatchID:   matchID,
		ChannelID: match.ChannelID,
		MessageID: match.MessageID,
		Refunded:  result.Refunded,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// loadForResolution fetches a match with its bets and rejects terminal
// states up front.
func (s *settlementService) loadForResolution(ctx context.Context, matchID string) (*models.MatchDetail, error) {
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
	// CanSettle and CanCancel reject the same terminal states, so one gate
	// serves both callers; the flags only pick which error to report.
	if !detail.Match.CanSettle() {
		if detail.Match.IsAborted {
			return nil, ErrMatchAborted
		}
		return nil, ErrAlreadyCompleted
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return detail, nil
}
