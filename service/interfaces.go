package service

import (
	"context"
	"time"

	"matchbook/events"
	"matchbook/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByDiscordID retrieves a user by their Discord ID, nil if absent
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// Create creates a new user with the starting point balance
	Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*models.User, error)

	// AddPoints adds to a user's point balance atomically
	AddPoints(ctx context.Context, discordID int64, amount int64) error

	// DebitStake deducts a stake and counts the placed bet in one atomic
	// step, failing with ErrInsufficientFunds when the balance is short
	DebitStake(ctx context.Context, discordID int64, stake int64) error

	// SetPoints overwrites a user's point balance
	SetPoints(ctx context.Context, discordID int64, points int64) error

	// UpdateStats writes back the full statistics block after a settlement step
	UpdateStats(ctx context.Context, user *models.User) error

	// Refund returns a stake to a user and counts the withdrawal
	Refund(ctx context.Context, discordID int64, amount int64) error

	// Leaderboard returns a page of users ranked by points, restricted to
	// users active since the cutoff when one is given
	Leaderboard(ctx context.Context, since *time.Time, offset, limit int) ([]*models.User, error)

	// Count returns how many users fall inside the leaderboard window
	Count(ctx context.Context, since *time.Time) (int64, error)
}

// MatchRepository defines the interface for match and bet data access
type MatchRepository interface {
	// Create persists a new match
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by its ID, nil if absent
	GetByID(ctx context.Context, id string) (*models.Match, error)

	// GetByIDForUpdate retrieves a match and locks its row for the rest of
	// the surrounding transaction, serializing concurrent bet placements
	GetByIDForUpdate(ctx context.Context, id string) (*models.Match, error)

	// GetDetail retrieves a match together with its bets in placement order
	GetDetail(ctx context.Context, id string) (*models.MatchDetail, error)

	// ListActive returns all matches that are not completed or aborted
	ListActive(ctx context.Context) ([]*models.Match, error)

	// CountActiveByLeague returns the number of non-terminal matches in a league
	CountActiveByLeague(ctx context.Context, leagueID string) (int64, error)

	// Update writes back mutable match fields (odds, lock flag, message ids)
	Update(ctx context.Context, match *models.Match) error

	// AddBet appends a bet unless the user already has a conflicting bet on
	// the match. With sameSelectionAllowed only a bet on a different
	// selection conflicts, otherwise any earlier bet does. Conflicts fail
	// with ErrBetConflict; success also bumps the match bet counter.
	AddBet(ctx context.Context, bet *models.Bet, sameSelectionAllowed bool) error

	// MarkBetSettled flags a single bet as paid out
	MarkBetSettled(ctx context.Context, betID int64) error

	// MarkStarted flags a match as started, locking out further bets.
	// Calling it again is a no-op.
	MarkStarted(ctx context.Context, id string) error

	// MarkCompleted records the final score and flags the match completed
	MarkCompleted(ctx context.Context, id string, homeScore, awayScore int, isDraw bool) error

	// MarkAborted flags the match as cancelled
	MarkAborted(ctx context.Context, id string) error
}

// LeagueRepository defines the interface for league data access
type LeagueRepository interface {
	// Create persists a new league
	Create(ctx context.Context, league *models.League) error

	// GetByID retrieves a league by its ID, nil if absent
	GetByID(ctx context.Context, id string) (*models.League, error)

	// GetByChannel retrieves the league bound to a channel, nil if absent
	GetByChannel(ctx context.Context, channelID int64) (*models.League, error)

	// ListActive returns all leagues that have not been ended
	ListActive(ctx context.Context) ([]*models.League, error)

	// Update writes back mutable league fields
	Update(ctx context.Context, league *models.League) error

	// Complete flags the league as ended
	Complete(ctx context.Context, id string) error
}

// BettingService defines the interface for placing bets
type BettingService interface {
	// PlaceBet validates and records a bet, debiting the stake. The user is
	// created lazily with the mode's starting balance on their first bet.
	PlaceBet(ctx context.Context, matchID string, discordID int64, username string, selection models.Outcome, stake int64) (*models.Bet, error)
}

// SettlementService defines the interface for resolving matches
type SettlementService interface {
	// Settle records the final score, pays out winning bets and updates
	// bettor statistics. Per-bet failures are collected in the result
	// rather than aborting the run.
	Settle(ctx context.Context, matchID string, homeScore, awayScore int) (*models.SettlementResult, error)

	// Cancel aborts a match and refunds every stake
	Cancel(ctx context.Context, matchID string) (*models.RefundResult, error)
}

// MatchService defines the interface for match lifecycle operations
type MatchService interface {
	// CreateMatch posts a new match into a league
	CreateMatch(ctx context.Context, params CreateMatchParams) (*models.Match, error)

	// GetMatch retrieves a match by ID
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)

	// GetMatchDetail retrieves a match with its bets
	GetMatchDetail(ctx context.Context, matchID string) (*models.MatchDetail, error)

	// ListActiveMatches returns matches still open for settlement
	ListActiveMatches(ctx context.Context) ([]*models.Match, error)

	// UpdateMatch applies partial updates (odds, betting lock)
	UpdateMatch(ctx context.Context, matchID string, params UpdateMatchParams) (*models.Match, error)

	// SetMessageIDs records where the match embed was posted
	SetMessageIDs(ctx context.Context, matchID string, channelID, messageID int64) error
}

// LeagueService defines the interface for league operations
type LeagueService interface {
	// AddLeague creates a league bound to a channel
	AddLeague(ctx context.Context, params LeagueParams) (*models.League, error)

	// UpdateLeague applies partial updates, re-checking channel uniqueness
	UpdateLeague(ctx context.Context, leagueID string, params UpdateLeagueParams) (*models.League, error)

	// EndLeague marks a league as completed
	EndLeague(ctx context.Context, leagueID string) error

	// GetLeague retrieves a league by ID
	GetLeague(ctx context.Context, leagueID string) (*models.League, error)

	// ListLeagues returns all active leagues
	ListLeagues(ctx context.Context) ([]*models.League, error)
}

// UserService defines the interface for user and points operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates one with the
	// mode's starting balance
	GetOrCreateUser(ctx context.Context, discordID int64, username string) (*models.User, error)

	// GetUser retrieves a user, failing with ErrUserNotFound when absent
	GetUser(ctx context.Context, discordID int64) (*models.User, error)

	// AddPoints grants points to a user
	AddPoints(ctx context.Context, discordID int64, amount int64) (*models.User, error)

	// RemovePoints takes points from a user, clamped at zero
	RemovePoints(ctx context.Context, discordID int64, amount int64) (*models.User, error)

	// SetPoints overwrites a user's balance
	SetPoints(ctx context.Context, discordID int64, points int64) (*models.User, error)

	// Leaderboard returns one page of the ranking for the given period
	Leaderboard(ctx context.Context, period LeaderboardPeriod, page int) (*LeaderboardPage, error)
}

// CreateMatchParams carries the fields needed to post a match
type CreateMatchParams struct {
	LeagueID string
	HomeTeam string
	AwayTeam string
	HomeOdds float64
	AwayOdds float64
	DrawOdds *float64
	Handicap *models.Handicap
	Kickoff  time.Time
	Venue    string
}

// UpdateMatchParams carries optional match updates; nil fields are untouched
type UpdateMatchParams struct {
	HomeOdds   *float64
	AwayOdds   *float64
	DrawOdds   *float64
	BetsLocked *bool
}

// LeagueParams carries the fields needed to create a league
type LeagueParams struct {
	Name        string
	Description string
	ChannelID   int64
	StartDate   time.Time
	EndDate     time.Time
}

// UpdateLeagueParams carries optional league updates; nil fields are untouched
type UpdateLeagueParams struct {
	Name        *string
	Description *string
	ChannelID   *int64
	StartDate   *time.Time
	EndDate     *time.Time
}

// LeaderboardPeriod selects the activity window for the ranking
type LeaderboardPeriod string

const (
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "alltime"
)

// Cutoff returns the lower bound of the activity window, nil for all time
func (p LeaderboardPeriod) Cutoff(now time.Time) *time.Time {
	switch p {
	case PeriodWeekly:
		t := now.AddDate(0, 0, -7)
		return &t
	case PeriodMonthly:
		t := now.AddDate(0, -1, 0)
		return &t
	default:
		return nil
	}
}

// LeaderboardPage is one page of the ranking
type LeaderboardPage struct {
	Entries    []*models.User
	Page       int
	TotalPages int
	TotalUsers int64
	Period     LeaderboardPeriod
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	MatchRepository() MatchRepository
	LeagueRepository() LeagueRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a fresh UnitOfWork
	Create() UnitOfWork
}
