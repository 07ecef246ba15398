package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOutcome_NoHandicap(t *testing.T) {
	tests := []struct {
		name      string
		homeScore int
		awayScore int
		expected  Outcome
	}{
		{"home win", 2, 1, OutcomeHome},
		{"away win", 0, 3, OutcomeAway},
		{"draw", 1, 1, OutcomeDraw},
		{"goalless draw", 0, 0, OutcomeDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ResolveOutcome(tt.homeScore, tt.awayScore, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func TestResolveOutcome_Handicap(t *testing.T) {
	tests := []struct {
		name      string
		handicap  Handicap
		homeScore int
		awayScore int
		expected  Outcome
	}{
		// The line is added to the home score whichever side owns it
		{"half goal flips a level game", "+0.5", 1, 1, OutcomeHome},
		{"away line drags home under", "-0.5", 1, 1, OutcomeAway},
		{"quarter line home edge", "+0.25", 2, 2, OutcomeHome},
		{"away favourite holds", "-1.5", 2, 0, OutcomeHome},
		{"away favourite covers", "-1.5", 1, 0, OutcomeAway},
		{"whole line lands on a push", "-1.0", 2, 1, OutcomeDraw},
		{"big home line", "+4.0", 0, 3, OutcomeHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHandicap(string(tt.handicap))
			require.NoError(t, err)

			outcome, err := ResolveOutcome(tt.homeScore, tt.awayScore, &h)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func TestParseHandicap(t *testing.T) {
	t.Run("valid lines", func(t *testing.T) {
		for _, s := range []string{"+0.25", "-0.5", "+0.75", "-1.0", "+1.25", "-2.5", "+4.0", "-4.0"} {
			h, err := ParseHandicap(s)
			require.NoError(t, err, s)
			assert.Equal(t, Handicap(s), h)
		}
	})

	t.Run("missing sign", func(t *testing.T) {
		_, err := ParseHandicap("0.5")
		assert.Error(t, err)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := ParseHandicap("+abc")
		assert.Error(t, err)
	})

	t.Run("outside range", func(t *testing.T) {
		_, err := ParseHandicap("+4.25")
		assert.Error(t, err)
		_, err = ParseHandicap("-5.0")
		assert.Error(t, err)
	})

	t.Run("not a quarter point", func(t *testing.T) {
		_, err := ParseHandicap("+0.3")
		assert.Error(t, err)
	})

	t.Run("sign encodes the owning side", func(t *testing.T) {
		home, err := ParseHandicap("+1.5")
		require.NoError(t, err)
		assert.True(t, home.IsHome())

		away, err := ParseHandicap("-1.5")
		require.NoError(t, err)
		assert.False(t, away.IsHome())
	})
}

func TestParseOutcome(t *testing.T) {
	for _, s := range []string{"home", "away", "draw"} {
		outcome, err := ParseOutcome(s)
		require.NoError(t, err)
		assert.Equal(t, Outcome(s), outcome)
	}

	_, err := ParseOutcome("both")
	assert.Error(t, err)
}
