package service

import "errors"

// Validation rejections surfaced to the Discord layer. Handlers match these
// with errors.Is and turn them into user-facing replies; anything else is an
// internal failure.
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrLeagueNotFound = errors.New("league not found")
	ErrUserNotFound   = errors.New("user not found")

	// Betting rejections
	ErrBettingClosed      = errors.New("betting is closed for this match")
	ErrAlreadyBet         = errors.New("user already placed a bet on this match")
	ErrSelectionConflict  = errors.New("user already bet on a different selection")
	ErrInsufficientFunds  = errors.New("insufficient points")
	ErrInvalidStake       = errors.New("stake must be positive")
	ErrBetConflict        = errors.New("conflicting bet exists")

	// Lifecycle rejections
	ErrAlreadyCompleted = errors.New("match already completed")
	ErrMatchAborted     = errors.New("match was cancelled")

	// League rejections
	ErrChannelInUse         = errors.New("channel already hosts a league")
	ErrLeagueCompleted      = errors.New("league already ended")
	ErrTooManyActiveMatches = errors.New("league reached the active match limit")
)
