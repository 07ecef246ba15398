package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"matchbook/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// FormatPoints formats a point amount with thousand separators
func FormatPoints(points int64) string {
	str := fmt.Sprintf("%d", points)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// formatID renders a Discord snowflake for the API
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID parses a Discord snowflake string
func parseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// rejectionMessage translates engine rejections into user-facing text.
// Unknown errors come back empty; callers log those and show a generic
// failure instead.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMatchNotFound):
		return "That match doesn't exist."
	case errors.Is(err, service.ErrLeagueNotFound):
		return "That league doesn't exist."
	case errors.Is(err, service.ErrUserNotFound):
		return "That user hasn't placed any bets yet."
	case errors.Is(err, service.ErrBettingClosed):
		return "Betting is closed for this match."
	case errors.Is(err, service.ErrAlreadyBet):
		return "You already placed a bet on this match."
	case errors.Is(err, service.ErrSelectionConflict):
		return "You already bet on a different result for this match."
	case errors.Is(err, service.ErrInsufficientFunds):
		return "You don't have enough points for that stake."
	case errors.Is(err, service.ErrInvalidStake):
		return "The stake must be a positive number."
	case errors.Is(err, service.ErrAlreadyCompleted):
		return "This match has already been settled."
	case errors.Is(err, service.ErrMatchAborted):
		return "This match was cancelled."
	case errors.Is(err, service.ErrChannelInUse):
		return "That channel already hosts a league."
	case errors.Is(err, service.ErrLeagueCompleted):
		return "That league has already ended."
	case errors.Is(err, service.ErrTooManyActiveMatches):
		return "The league already has the maximum number of open matches."
	}
	return ""
}

// respondRejection answers with the mapped rejection text, or a generic
// failure for internal errors
func (b *Bot) respondRejection(s *discordgo.Session, i *discordgo.InteractionCreate, err error, fallback string) {
	if msg := rejectionMessage(err); msg != "" {
		b.respondWithError(s, i, msg)
		return
	}
	log.Printf("Internal error handling interaction: %v", err)
	b.respondWithError(s, i, fallback)
}
