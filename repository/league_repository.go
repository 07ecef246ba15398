package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"

	"github.com/jackc/pgx/v5"
)

// LeagueRepository implements the LeagueRepository interface
type LeagueRepository struct {
	q queryable
}

// NewLeagueRepository creates a new league repository
func NewLeagueRepository(db *database.DB) *LeagueRepository {
	return &LeagueRepository{q: db.Pool}
}

// newLeagueRepositoryWithTx creates a new league repository with a transaction
func newLeagueRepositoryWithTx(tx queryable) *LeagueRepository {
	return &LeagueRepository{q: tx}
}

const leagueColumns = `
	id, name, description, channel_id, start_date, end_date,
	is_completed, created_at, updated_at`

func scanLeague(row pgx.Row) (*models.League, error) {
	var l models.League
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.ChannelID,
		&l.StartDate,
		&l.EndDate,
		&l.IsCompleted,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persists a new league
func (r *LeagueRepository) Create(ctx context.Context, league *models.League) error {
	query := `
		INSERT INTO leagues (id, name, description, channel_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		league.ID,
		league.Name,
		league.Description,
		league.ChannelID,
		league.StartDate,
		league.EndDate,
	).Scan(&league.CreatedAt, &league.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create league %s: %w", league.ID, err)
	}

	return nil
}

// GetByID retrieves a league by its ID
func (r *LeagueRepository) GetByID(ctx context.Context, id string) (*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id = $1`

	league, err := scanLeague(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league %s: %w", id, err)
	}

	return league, nil
}

// GetByChannel retrieves the league bound to a channel
func (r *LeagueRepository) GetByChannel(ctx context.Context, channelID int64) (*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE channel_id = $1 AND NOT is_completed`

	league, err := scanLeague(r.q.QueryRow(ctx, query, channelID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league for channel %d: %w", channelID, err)
	}

	return league, nil
}

// ListActive returns all leagues that have not been ended
func (r *LeagueRepository) ListActive(ctx context.Context) ([]*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE NOT is_completed ORDER BY start_date`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active leagues: %w", err)
	}
	defer rows.Close()

	var leagues []*models.League
	for rows.Next() {
		league, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, league)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leagues: %w", err)
	}

	return leagues, nil
}

// Update writes back mutable league fields
func (r *LeagueRepository) Update(ctx context.Context, league *models.League) error {
	query := `
		UPDATE leagues
		SET name = $1,
			description = $2,
			channel_id = $3,
			start_date = $4,
			end_date = $5,
			updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		league.Name,
		league.Description,
		league.ChannelID,
		league.StartDate,
		league.EndDate,
		league.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update league %s: %w", league.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("league %s not found", league.ID)
	}

	return nil
}

// Complete flags the league as ended
func (r *LeagueRepository) Complete(ctx context.Context, id string) error {
	query := `
		UPDATE leagues
		SET is_completed = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_completed
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to complete league %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("league %s not found or already completed", id)
	}

	return nil
}
