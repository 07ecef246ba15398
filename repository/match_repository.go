package repository

import (
	"context"
	"fmt"

	"matchbook/database"
	"matchbook/models"
	"matchbook/service"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

const matchColumns = `
	id, league_id, channel_id, message_id,
	home_team, away_team,
	home_odds, away_odds, draw_odds,
	home_handicap, away_handicap,
	home_score, away_score,
	total_bets, bets_locked, is_started, is_completed, is_aborted, is_draw,
	kickoff_time, venue, created_at, updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	var homeHandicap, awayHandicap *string
	err := row.Scan(
		&m.ID,
		&m.LeagueID,
		&m.ChannelID,
		&m.MessageID,
		&m.HomeTeam,
		&m.AwayTeam,
		&m.HomeOdds,
		&m.AwayOdds,
		&m.DrawOdds,
		&homeHandicap,
		&awayHandicap,
		&m.HomeScore,
		&m.AwayScore,
		&m.TotalBets,
		&m.BetsLocked,
		&m.IsStarted,
		&m.IsCompleted,
		&m.IsAborted,
		&m.IsDraw,
		&m.KickoffTime,
		&m.Venue,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if homeHandicap != nil {
		h := models.Handicap(*homeHandicap)
		m.HomeHandicap = &h
	}
	if awayHandicap != nil {
		h := models.Handicap(*awayHandicap)
		m.AwayHandicap = &h
	}
	return &m, nil
}

// Create persists a new match
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
		(id, league_id, channel_id, message_id, home_team, away_team,
		 home_odds, away_odds, draw_odds, home_handicap, away_handicap,
		 kickoff_time, venue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.ID,
		match.LeagueID,
		match.ChannelID,
		match.MessageID,
		match.HomeTeam,
		match.AwayTeam,
		match.HomeOdds,
		match.AwayOdds,
		match.DrawOdds,
		match.HomeHandicap,
		match.AwayHandicap,
		match.KickoffTime,
		match.Venue,
	).Scan(&match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.ID, err)
	}

	return nil
}

// GetByID retrieves a match by its ID
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}

	return match, nil
}

// GetByIDForUpdate retrieves a match and takes a row lock on it. Inside a
// transaction this serializes concurrent placements on the same match, so
// the conflict check in AddBet always sees every committed bet.
func (r *MatchRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock match %s: %w", id, err)
	}

	return match, nil
}

// GetDetail retrieves a match together with its bets in placement order
func (r *MatchRepository) GetDetail(ctx context.Context, id string) (*models.MatchDetail, error) {
	match, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}

	query := `
		SELECT id, match_id, user_id, selection, stake, settled, created_at
		FROM bets
		WHERE match_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for match %s: %w", id, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		err := rows.Scan(
			&bet.ID,
			&bet.MatchID,
			&bet.UserID,
			&bet.Selection,
			&bet.Stake,
			&bet.Settled,
			&bet.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return &models.MatchDetail{Match: match, Bets: bets}, nil
}

// ListActive returns all matches that are not completed or aborted
func (r *MatchRepository) ListActive(ctx context.Context) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE NOT is_completed AND NOT is_aborted
		ORDER BY kickoff_time
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	return matches, nil
}

// CountActiveByLeague returns the number of non-terminal matches in a league
func (r *MatchRepository) CountActiveByLeague(ctx context.Context, leagueID string) (int64, error) {
	query := `
		SELECT COUNT(*) FROM matches
		WHERE league_id = $1 AND NOT is_completed AND NOT is_aborted
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, leagueID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active matches for league %s: %w", leagueID, err)
	}

	return count, nil
}

// Update writes back mutable match fields
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET channel_id = $1,
			message_id = $2,
			home_odds = $3,
			away_odds = $4,
			draw_odds = $5,
			bets_locked = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.q.Exec(ctx, query,
		match.ChannelID,
		match.MessageID,
		match.HomeOdds,
		match.AwayOdds,
		match.DrawOdds,
		match.BetsLocked,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %s not found", match.ID)
	}

	return nil
}

// AddBet appends a bet unless the user already holds a conflicting bet on
// the match. The insert and the conflict check run as one statement, so two
// concurrent placements cannot both slip through.
func (r *MatchRepository) AddBet(ctx context.Context, bet *models.Bet, sameSelectionAllowed bool) error {
	query := `
		INSERT INTO bets (match_id, user_id, selection, stake)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM bets
			WHERE match_id = $1 AND user_id = $2
			  AND (NOT $5::boolean OR selection <> $3)
		)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.MatchID,
		bet.UserID,
		bet.Selection,
		bet.Stake,
		sameSelectionAllowed,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err == pgx.ErrNoRows {
		return service.ErrBetConflict
	}
	if err != nil {
		return fmt.Errorf("failed to add bet on match %s for user %d: %w", bet.MatchID, bet.UserID, err)
	}

	counter := `UPDATE matches SET total_bets = total_bets + 1, updated_at = NOW() WHERE id = $1`
	if _, err := r.q.Exec(ctx, counter, bet.MatchID); err != nil {
		return fmt.Errorf("failed to bump bet counter for match %s: %w", bet.MatchID, err)
	}

	return nil
}

// MarkBetSettled flags a single bet as paid out
func (r *MatchRepository) MarkBetSettled(ctx context.Context, betID int64) error {
	query := `UPDATE bets SET settled = TRUE WHERE id = $1`

	if _, err := r.q.Exec(ctx, query, betID); err != nil {
		return fmt.Errorf("failed to mark bet %d settled: %w", betID, err)
	}

	return nil
}

// MarkStarted flags a match as started. Repeat calls are a no-op.
func (r *MatchRepository) MarkStarted(ctx context.Context, id string) error {
	query := `
		UPDATE matches
		SET is_started = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_started
	`

	if _, err := r.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark match %s started: %w", id, err)
	}

	return nil
}

// MarkCompleted records the final score and flags the match completed
func (r *MatchRepository) MarkCompleted(ctx context.Context, id string, homeScore, awayScore int, isDraw bool) error {
	query := `
		UPDATE matches
		SET is_completed = TRUE,
			is_draw = $1,
			home_score = $2,
			away_score = $3,
			updated_at = NOW()
		WHERE id = $4 AND NOT is_completed AND NOT is_aborted
	`

	result, err := r.q.Exec(ctx, query, isDraw, homeScore, awayScore, id)
	if err != nil {
		return fmt.Errorf("failed to mark match %s completed: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %s is already finished", id)
	}

	return nil
}

// MarkAborted flags the match as cancelled
func (r *MatchRepository) MarkAborted(ctx context.Context, id string) error {
	query := `
		UPDATE matches
		SET is_aborted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_completed AND NOT is_aborted
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark match %s aborted: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %s is already finished", id)
	}

	return nil
}
