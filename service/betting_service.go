package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchbook/config"
	"matchbook/events"
	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// PlaceBet validates and records a bet. The whole placement, including the
// stake debit and the duplicate check, runs in a single transaction that
// holds a row lock on the match, so two concurrent clicks cannot both get
// through.
func (s *bettingService) PlaceBet(ctx context.Context, matchID string, discordID int64, username string, selection models.Outcome, stake int64) (*models.Bet, error) {
	if stake <= 0 {
		return nil, ErrInvalidStake
	}

	cfg := config.Get()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// The row lock serializes placements on this match until commit; without
	// it two overlapping conflict checks could both miss each other's insert.
	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.IsTerminal() || match.BetsLocked || match.IsStarted {
		return nil, ErrBettingClosed
	}

	// Kickoff acts as the cutoff. The first bet arriving after kickoff
	// flips the match to started so the embed can lock its buttons.
	if match.KickoffPassed(s.now()) {
		if err := uow.MatchRepository().MarkStarted(ctx, matchID); err != nil {
			return nil, fmt.Errorf("failed to mark match started: %w", err)
		}
		uow.EventBus().Publish(events.MatchLockedEvent{
			MatchID:   matchID,
			ChannelID: match.ChannelID,
			MessageID: match.MessageID,
		})
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, ErrBettingClosed
	}

	// First bet creates the account with the mode's starting grant
	user, err := uow.UserRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		user, err = uow.UserRepository().Create(ctx, discordID, username, cfg.StartingBalance)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		log.WithFields(log.Fields{
			"discordID": discordID,
			"username":  username,
			"points":    cfg.StartingBalance,
		}).Info("Created new user on first bet")
	}

	bet := &models.Bet{
		MatchID:   matchID,
		UserID:    discordID,
		Selection: selection,
		Stake:     stake,
	}

	// Extended mode lets users add to an existing selection; simple mode
	// allows one bet per match, full stop.
	sameSelectionAllowed := cfg.BettingMode == config.ModeExtended
	if err := uow.MatchRepository().AddBet(ctx, bet, sameSelectionAllowed); err != nil {
		if errors.Is(err, ErrBetConflict) {
			if sameSelectionAllowed {
				return nil, ErrSelectionConflict
			}
			return nil, ErrAlreadyBet
		}
		return nil, fmt.Errorf("failed to add bet: %w", err)
	}

	if err := uow.UserRepository().DebitStake(ctx, discordID, stake); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		MatchID:   matchID,
		ChannelID: match.ChannelID,
		MessageID: match.MessageID,
		UserID:    discordID,
		Selection: string(selection),
		Stake:     stake,
		TotalBets: match.TotalBets + 1,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       discordID,
		OldBalance:   user.Points,
		NewBalance:   user.Points - stake,
		ChangeAmount: -stake,
		Reason:       "bet placed",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}
