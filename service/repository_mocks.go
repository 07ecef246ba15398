package service

import (
	"context"
	"time"

	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*models.User, error) {
	args := m.Called(ctx, discordID, username, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddPoints(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DebitStake(ctx context.Context, discordID int64, stake int64) error {
	args := m.Called(ctx, discordID, stake)
	return args.Error(0)
}

func (m *MockUserRepository) SetPoints(ctx context.Context, discordID int64, points int64) error {
	args := m.Called(ctx, discordID, points)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStats(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Refund(ctx context.Context, discordID int64, amount int64) error {
	args := m.Called(ctx, discordID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) Leaderboard(ctx context.Context, since *time.Time, offset, limit int) ([]*models.User, error) {
	args := m.Called(ctx, since, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, since *time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetDetail(ctx context.Context, id string) (*models.MatchDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MatchDetail), args.Error(1)
}

func (m *MockMatchRepository) ListActive(ctx context.Context) ([]*models.Match, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) CountActiveByLeague(ctx context.Context, leagueID string) (int64, error) {
	args := m.Called(ctx, leagueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) AddBet(ctx context.Context, bet *models.Bet, sameSelectionAllowed bool) error {
	args := m.Called(ctx, bet, sameSelectionAllowed)
	return args.Error(0)
}

func (m *MockMatchRepository) MarkBetSettled(ctx context.Context, betID int64) error {
	args := m.Called(ctx, betID)
	return args.Error(0)
}

func (m *MockMatchRepository) MarkStarted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMatchRepository) MarkCompleted(ctx context.Context, id string, homeScore, awayScore int, isDraw bool) error {
	args := m.Called(ctx, id, homeScore, awayScore, isDraw)
	return args.Error(0)
}

func (m *MockMatchRepository) MarkAborted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLeagueRepository is a mock implementation of LeagueRepository
type MockLeagueRepository struct {
	mock.Mock
}

func (m *MockLeagueRepository) Create(ctx context.Context, league *models.League) error {
	args := m.Called(ctx, league)
	return args.Error(0)
}

func (m *MockLeagueRepository) GetByID(ctx context.Context, id string) (*models.League, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.League), args.Error(1)
}

func (m *MockLeagueRepository) GetByChannel(ctx context.Context, channelID int64) (*models.League, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.League), args.Error(1)
}

func (m *MockLeagueRepository) ListActive(ctx context.Context) ([]*models.League, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.League), args.Error(1)
}

func (m *MockLeagueRepository) Update(ctx context.Context, league *models.League) error {
	args := m.Called(ctx, league)
	return args.Error(0)
}

func (m *MockLeagueRepository) Complete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// EventCollector records published events for assertions
type EventCollector struct {
	Events []events.Event
}

func (c *EventCollector) Publish(event events.Event) {
	c.Events = append(c.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected with SetRepositories; published events land in Events.
type MockUnitOfWork struct {
	mock.Mock
	userRepo   UserRepository
	matchRepo  MatchRepository
	leagueRepo LeagueRepository
	Events     *EventCollector
}

func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, matchRepo MatchRepository, leagueRepo LeagueRepository) {
	m.userRepo = userRepo
	m.matchRepo = matchRepo
	m.leagueRepo = leagueRepo
	m.Events = &EventCollector{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.matchRepo
}

func (m *MockUnitOfWork) LeagueRepository() LeagueRepository {
	return m.leagueRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
