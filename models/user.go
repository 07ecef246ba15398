package models

import (
	"time"
)

// User represents a Discord user with a point balance and betting statistics
type User struct {
	DiscordID     int64  `db:"discord_id"`
	Username      string `db:"username"`
	Points        int64  `db:"points"`
	BetsPlaced    int64  `db:"bets_placed"`
	BetsWithdrawn int64  `db:"bets_withdrawn"`
	BetsCorrect   int64  `db:"bets_correct"`
	BetsIncorrect int64  `db:"bets_incorrect"`

	Profits int64 `db:"profits"`
	Loss    int64 `db:"loss"`

	WinStreakCurrent   int64 `db:"win_streak_current"`
	WinStreakMax       int64 `db:"win_streak_max"`
	LooseStreakCurrent int64 `db:"loose_streak_current"`
	LooseStreakMax     int64 `db:"loose_streak_max"`

	// Stake investment totals, overall and per market type
	StakeInvestment         int64 `db:"stake_investment"`
	Investment1x2           int64 `db:"investment_1x2"`
	InvestmentAsianHandicap int64 `db:"investment_asian_handicap"`

	// ROI percentages, recomputed from running totals at settlement time
	ROI              float64 `db:"roi"`
	ROI1x2           float64 `db:"roi_1x2"`
	ROIAsianHandicap float64 `db:"roi_asian_handicap"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ApplyWin updates the user's statistics for a won bet. Winnings include the
// returned stake; profit is winnings minus stake.
func (u *User) ApplyWin(stake, winnings int64) {
	u.Points += winnings
	u.BetsCorrect++
	u.Profits += winnings - stake
	u.WinStreakCurrent++
	u.LooseStreakCurrent = 0
	if u.WinStreakCurrent > u.WinStreakMax {
		u.WinStreakMax = u.WinStreakCurrent
	}
}

// ApplyLoss updates the user's statistics for a lost bet. The stake was
// already debited at placement time, so the balance is untouched.
func (u *User) ApplyLoss(stake int64) {
	u.BetsIncorrect++
	u.Loss += stake
	u.LooseStreakCurrent++
	u.WinStreakCurrent = 0
	if u.LooseStreakCurrent > u.LooseStreakMax {
		u.LooseStreakMax = u.LooseStreakCurrent
	}
}

// ApplyInvestment adds the stake to the overall investment total and the
// market bucket for the match, then recomputes ROI figures.
//
// ROI is (profit / investment) * 100 - 100 against the post-increment
// investment and the profit figure as stored before this settlement step.
// The per-market ROI intentionally uses the overall profit total: this
// mirrors the running-total approximation the points game has always used,
// so leaderboards stay comparable across seasons.
func (u *User) ApplyInvestment(stake int64, handicapMarket bool, storedProfits int64) {
	u.StakeInvestment += stake
	if handicapMarket {
		u.InvestmentAsianHandicap += stake
		u.ROIAsianHandicap = roi(storedProfits, u.InvestmentAsianHandicap)
	} else {
		u.Investment1x2 += stake
		u.ROI1x2 = roi(storedProfits, u.Investment1x2)
	}
	u.ROI = roi(storedProfits, u.StakeInvestment)
}

func roi(profits, investment int64) float64 {
	if investment == 0 {
		return 0
	}
	return float64(profits)/float64(investment)*100 - 100
}
