package service

import (
	"os"
	"testing"
	"time"

	"matchbook/models"

	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	os.Setenv("ENVIRONMENT", "test")
	os.Exit(m.Run())
}

// newTestUnitOfWork wires a mock unit of work with permissive transaction
// expectations; tests assert on the repository mocks and collected events.
func newTestUnitOfWork() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockUserRepository, *MockMatchRepository, *MockLeagueRepository) {
	userRepo := new(MockUserRepository)
	matchRepo := new(MockMatchRepository)
	leagueRepo := new(MockLeagueRepository)

	uow := new(MockUnitOfWork)
	uow.SetRepositories(userRepo, matchRepo, leagueRepo)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)

	return factory, uow, userRepo, matchRepo, leagueRepo
}

func testMatch(kickoff time.Time) *models.Match {
	return &models.Match{
		ID:          models.NewMatchID(),
		LeagueID:    models.NewLeagueID(),
		ChannelID:   1000,
		MessageID:   2000,
		HomeTeam:    "Arsenal",
		AwayTeam:    "Chelsea",
		HomeOdds:    1.85,
		AwayOdds:    2.40,
		KickoffTime: kickoff,
	}
}
