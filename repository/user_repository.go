package repository

import (
	"context"
	"fmt"
	"time"

	"matchbook/database"
	"matchbook/models"
	"matchbook/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `
	discord_id, username, points,
	bets_placed, bets_withdrawn, bets_correct, bets_incorrect,
	profits, loss,
	win_streak_current, win_streak_max, loose_streak_current, loose_streak_max,
	stake_investment, investment_1x2, investment_asian_handicap,
	roi, roi_1x2, roi_asian_handicap,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.DiscordID,
		&user.Username,
		&user.Points,
		&user.BetsPlaced,
		&user.BetsWithdrawn,
		&user.BetsCorrect,
		&user.BetsIncorrect,
		&user.Profits,
		&user.Loss,
		&user.WinStreakCurrent,
		&user.WinStreakMax,
		&user.LooseStreakCurrent,
		&user.LooseStreakMax,
		&user.StakeInvestment,
		&user.Investment1x2,
		&user.InvestmentAsianHandicap,
		&user.ROI,
		&user.ROI1x2,
		&user.ROIAsianHandicap,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByDiscordID retrieves a user by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, discordID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord ID %d: %w", discordID, err)
	}

	return user, nil
}

// Create creates a new user with the starting point balance
func (r *UserRepository) Create(ctx context.Context, discordID int64, username string, startingBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (discord_id, username, points)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, discordID, username, startingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create user with discord ID %d: %w", discordID, err)
	}

	return user, nil
}

// AddPoints adds to a user's point balance atomically
func (r *UserRepository) AddPoints(ctx context.Context, discordID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET points = points + $1, updated_at = NOW()
		WHERE discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to add points for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", discordID)
	}

	return nil
}

// DebitStake deducts a stake and counts the placed bet atomically, failing
// if the balance would go negative
func (r *UserRepository) DebitStake(ctx context.Context, discordID int64, stake int64) error {
	if stake <= 0 {
		return fmt.Errorf("stake must be positive")
	}

	query := `
		UPDATE users
		SET points = points - $1, bets_placed = bets_placed + 1, updated_at = NOW()
		WHERE discord_id = $2 AND points >= $1
	`

	result, err := r.q.Exec(ctx, query, stake, discordID)
	if err != nil {
		return fmt.Errorf("failed to debit stake for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing user from an insufficient balance
		user, err := r.GetByDiscordID(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user with discord ID %d not found", discordID)
		}
		return fmt.Errorf("have %d, need %d: %w", user.Points, stake, service.ErrInsufficientFunds)
	}

	return nil
}

// SetPoints overwrites a user's point balance
func (r *UserRepository) SetPoints(ctx context.Context, discordID int64, points int64) error {
	query := `
		UPDATE users
		SET points = $1, updated_at = NOW()
		WHERE discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, points, discordID)
	if err != nil {
		return fmt.Errorf("failed to set points for user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", discordID)
	}

	return nil
}

// UpdateStats writes back the full statistics block after a settlement step
func (r *UserRepository) UpdateStats(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET points = $1,
			bets_correct = $2,
			bets_incorrect = $3,
			profits = $4,
			loss = $5,
			win_streak_current = $6,
			win_streak_max = $7,
			loose_streak_current = $8,
			loose_streak_max = $9,
			stake_investment = $10,
			investment_1x2 = $11,
			investment_asian_handicap = $12,
			roi = $13,
			roi_1x2 = $14,
			roi_asian_handicap = $15,
			updated_at = NOW()
		WHERE discord_id = $16
	`

	result, err := r.q.Exec(ctx, query,
		user.Points,
		user.BetsCorrect,
		user.BetsIncorrect,
		user.Profits,
		user.Loss,
		user.WinStreakCurrent,
		user.WinStreakMax,
		user.LooseStreakCurrent,
		user.LooseStreakMax,
		user.StakeInvestment,
		user.Investment1x2,
		user.InvestmentAsianHandicap,
		user.ROI,
		user.ROI1x2,
		user.ROIAsianHandicap,
		user.DiscordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats for user %d: %w", user.DiscordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", user.DiscordID)
	}

	return nil
}

// Refund returns a stake to a user and counts the withdrawal
func (r *UserRepository) Refund(ctx context.Context, discordID int64, amount int64) error {
	query := `
		UPDATE users
		SET points = points + $1, bets_withdrawn = bets_withdrawn + 1, updated_at = NOW()
		WHERE discord_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, discordID)
	if err != nil {
		return fmt.Errorf("failed to refund user %d: %w", discordID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with discord ID %d not found", discordID)
	}

	return nil
}

// Leaderboard returns a page of users ranked by points. A non-nil cutoff
// restricts the ranking to users touched since that time.
func (r *UserRepository) Leaderboard(ctx context.Context, since *time.Time, offset, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE $1::timestamptz IS NULL OR updated_at >= $1
		ORDER BY points DESC, updated_at ASC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, since, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Count returns how many users fall inside the leaderboard window
func (r *UserRepository) Count(ctx context.Context, since *time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM users
		WHERE $1::timestamptz IS NULL OR updated_at >= $1
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
