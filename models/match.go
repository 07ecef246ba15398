package models

import (
	"time"

	"github.com/google/uuid"
)

// Match represents a posted fixture users can bet on
type Match struct {
	ID       string `db:"id"`
	LeagueID string `db:"league_id"`

	ChannelID int64 `db:"channel_id"`
	MessageID int64 `db:"message_id"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`

	HomeOdds float64  `db:"home_odds"`
	AwayOdds float64  `db:"away_odds"`
	DrawOdds *float64 `db:"draw_odds"`

	// At most one of the two lines is set; the sign encodes the owning side.
	HomeHandicap *Handicap `db:"home_handicap"`
	AwayHandicap *Handicap `db:"away_handicap"`

	HomeScore *int `db:"home_score"`
	AwayScore *int `db:"away_score"`

	TotalBets   int64 `db:"total_bets"`
	BetsLocked  bool  `db:"bets_locked"`
	IsStarted   bool  `db:"is_started"`
	IsCompleted bool  `db:"is_completed"`
	IsAborted   bool  `db:"is_aborted"`
	IsDraw      bool  `db:"is_draw"`

	KickoffTime time.Time `db:"kickoff_time"`
	Venue       string    `db:"venue"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewMatchID returns a time-ordered, lexicographically sortable identifier.
func NewMatchID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Handicap returns whichever line is set, or nil for a plain 1x2 market.
func (m *Match) Handicap() *Handicap {
	if m.HomeHandicap != nil {
		return m.HomeHandicap
	}
	return m.AwayHandicap
}

// IsHandicapMarket reports whether stakes on this match count toward the
// asian-handicap investment bucket.
func (m *Match) IsHandicapMarket() bool {
	return m.Handicap() != nil
}

// IsTerminal reports whether the match reached a final state.
func (m *Match) IsTerminal() bool {
	return m.IsCompleted || m.IsAborted
}

// AcceptingBets reports whether a bet arriving at the given instant may be
// placed. Kickoff acts as the betting cutoff; it is polled here rather than
// enforced by a background timer.
func (m *Match) AcceptingBets(now time.Time) bool {
	if m.IsStarted || m.IsTerminal() || m.BetsLocked {
		return false
	}
	return now.Before(m.KickoffTime)
}

// KickoffPassed reports whether the cutoff has been crossed.
func (m *Match) KickoffPassed(now time.Time) bool {
	return !now.Before(m.KickoffTime)
}

// CanSettle reports whether the match may transition to Completed.
func (m *Match) CanSettle() bool {
	return !m.IsTerminal()
}

// CanCancel reports whether the match may transition to Aborted.
func (m *Match) CanCancel() bool {
	return !m.IsTerminal()
}

// OddsFor returns the decimal odds paid out for a winning selection.
// Unset odds fall back to 1.0 so a settlement never fails on a missing
// price, it just breaks even.
func (m *Match) OddsFor(selection Outcome) float64 {
	var odds float64
	if selection == OutcomeHome {
		odds = m.HomeOdds
	} else {
		odds = m.AwayOdds
	}
	if odds == 0 {
		return 1.0
	}
	return odds
}

// Bet is a single stake placed by a user on a match selection
type Bet struct {
	ID        int64     `db:"id"`
	MatchID   string    `db:"match_id"`
	UserID    int64     `db:"user_id"`
	Selection Outcome   `db:"selection"`
	Stake     int64     `db:"stake"`
	Settled   bool      `db:"settled"`
	CreatedAt time.Time `db:"created_at"`
}

// MatchDetail bundles a match with its bets in insertion order
type MatchDetail struct {
	Match *Match
	Bets  []*Bet
}
