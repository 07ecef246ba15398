package models

import (
	"time"

	"github.com/google/uuid"
)

// League groups matches and pins them to a single announcement channel
type League struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	ChannelID   int64     `db:"channel_id"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	IsCompleted bool      `db:"is_completed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewLeagueID returns a time-ordered, lexicographically sortable identifier.
func NewLeagueID() string {
	return uuid.Must(uuid.NewV7()).String()
}
