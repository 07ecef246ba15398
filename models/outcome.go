package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Outcome is the result category of a match, and doubles as a bet selection.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeDraw Outcome = "draw"
)

// ParseOutcome validates a raw selection string from an interaction custom ID.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeHome, OutcomeAway, OutcomeDraw:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("invalid selection %q", s)
}

// Handicap is a signed quarter-point line, stored as its display string
// (e.g. "+0.5", "-1.25"). Home lines carry a "+" prefix, away lines a "-".
type Handicap string

// ParseHandicap validates the sign prefix, quarter-point granularity and
// the ±4.0 range.
func ParseHandicap(s string) (Handicap, error) {
	if !strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("handicap %q must carry a sign prefix", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("malformed handicap %q: %w", s, err)
	}
	if math.Abs(v) > 4.0 {
		return "", fmt.Errorf("handicap %q outside ±4.0 range", s)
	}
	if math.Mod(math.Abs(v)*4, 1) != 0 {
		return "", fmt.Errorf("handicap %q is not a quarter-point line", s)
	}
	return Handicap(s), nil
}

// Value returns the signed line value.
func (h Handicap) Value() (float64, error) {
	v, err := strconv.ParseFloat(string(h), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed handicap %q: %w", h, err)
	}
	return v, nil
}

// IsHome reports whether the line belongs to the home side.
func (h Handicap) IsHome() bool {
	return strings.HasPrefix(string(h), "+")
}

// ResolveOutcome maps a final score and an optional handicap line to a
// result category. The line's sign already encodes which side is favored,
// so it is always added to the home score regardless of which side
// nominally owns it. Equal (adjusted) scores resolve to a draw.
func ResolveOutcome(homeScore, awayScore int, handicap *Handicap) (Outcome, error) {
	adjustedHome := float64(homeScore)
	if handicap != nil {
		line, err := handicap.Value()
		if err != nil {
			return "", err
		}
		adjustedHome += line
	}

	away := float64(awayScore)
	switch {
	case adjustedHome > away:
		return OutcomeHome, nil
	case adjustedHome < away:
		return OutcomeAway, nil
	default:
		return OutcomeDraw, nil
	}
}
