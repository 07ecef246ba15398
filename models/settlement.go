package models

// BetSettlement records what happened to a single bet during settlement.
// Err is set when the bettor's update could not be applied; the rest of the
// match still settles.
type BetSettlement struct {
	UserID   int64
	Stake    int64
	Won      bool
	Winnings int64
	Err      error
}

// SettlementResult summarizes a completed settlement run.
type SettlementResult struct {
	MatchID   string
	Outcome   Outcome
	HomeScore int
	AwayScore int
	Updates   []BetSettlement
}

// WinnersCount returns how many bets paid out.
func (r *SettlementResult) WinnersCount() int {
	n := 0
	for _, u := range r.Updates {
		if u.Won && u.Err == nil {
			n++
		}
	}
	return n
}

// RefundResult summarizes a cancelled match.
type RefundResult struct {
	MatchID  string
	Refunded int
	Total    int64
}
