package testutil

import (
	"time"

	"matchbook/models"
)

// CreateTestLeague creates a test league with default values
func CreateTestLeague(channelID int64) *models.League {
	now := time.Now()
	return &models.League{
		ID:        models.NewLeagueID(),
		Name:      "Test League",
		ChannelID: channelID,
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 3, 0),
	}
}

// CreateTestMatch creates a test match in the given league kicking off in
// one hour
func CreateTestMatch(leagueID string) *models.Match {
	return &models.Match{
		ID:          models.NewMatchID(),
		LeagueID:    leagueID,
		HomeTeam:    "Arsenal",
		AwayTeam:    "Chelsea",
		HomeOdds:    1.85,
		AwayOdds:    2.40,
		KickoffTime: time.Now().Add(time.Hour),
	}
}

// CreateTestMatchWithKickoff creates a test match with a specific kickoff time
func CreateTestMatchWithKickoff(leagueID string, kickoff time.Time) *models.Match {
	match := CreateTestMatch(leagueID)
	match.KickoffTime = kickoff
	return match
}

// CreateTestBet creates a test bet on the given match
func CreateTestBet(matchID string, userID int64, selection models.Outcome, stake int64) *models.Bet {
	return &models.Bet{
		MatchID:   matchID,
		UserID:    userID,
		Selection: selection,
		Stake:     stake,
	}
}
