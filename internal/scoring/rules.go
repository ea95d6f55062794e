// Package scoring encodes the pickleball "first to 11, win by 2" rule as
// pure functions. It is used both for live input-range suggestions while a
// game is being scored and for final validation before a match is completed.
package scoring

import "errors"

// Validation errors. All of them are recoverable: the caller surfaces the
// message and keeps the match in progress.
var (
	ErrTie           = errors.New("game cannot end in a tie")
	ErrIncomplete    = errors.New("game is not complete")
	ErrMustContinue  = errors.New("game must continue until a 2-point lead")
	ErrInvalidMargin = errors.New("extended game must be won by exactly 2 points")
)

// Range is an inclusive valid-score interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Width returns the number of points spanned by the range.
func (r Range) Width() int {
	return r.Max - r.Min
}

// ValidScoreRange returns the inclusive range of scores a team can hold given
// the other team's score. Total over non-negative inputs; never errors.
func ValidScoreRange(otherTeamScore int) Range {
	switch {
	case otherTeamScore < 10:
		// The game may still end exactly at 11 against any score below 10.
		return Range{Min: 0, Max: 11}
	case otherTeamScore == 10:
		// Losing 0-9, tied at 10, or won 12-10 after a deuce.
		return Range{Min: 0, Max: 12}
	case otherTeamScore == 11:
		// Lost at <=9, or the game extended into 11-13.
		return Range{Min: 0, Max: 13}
	default:
		// Past 11 both sides trade the lead in deuce; the gap is exactly 2.
		return Range{Min: otherTeamScore - 2, Max: otherTeamScore + 2}
	}
}

// Validate reports whether a finished score pair is legal. The decision table
// hinges on the 10/11 boundaries:
//
//	11-9  valid   (straight win, loser at most 9)
//	11-10 invalid (the game must continue)
//	12-10 valid   (deuce, exact 2-point lead)
//	13-12 invalid (lead is not exactly 2)
//	12-8  invalid (a deuce game cannot leave the loser below 10)
func Validate(team1Score, team2Score int) error {
	if team1Score == team2Score {
		return ErrTie
	}

	winning, losing := team1Score, team2Score
	if team2Score > team1Score {
		winning, losing = team2Score, team1Score
	}

	if winning < 11 {
		return ErrIncomplete
	}
	if winning == 11 {
		if losing > 9 {
			return ErrMustContinue
		}
		return nil
	}

	// Extended game: the winner must lead by exactly 2, and the loser must
	// have reached at least 10 for the game to have gone past 11 at all.
	if winning-losing != 2 || losing < 10 {
		return ErrInvalidMargin
	}
	return nil
}

// Clamp saturates v into the range.
func Clamp(v int, r Range) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// DefaultScore picks a sensible pre-filled score inside the range. When
// preferWinning is set and 11 is in range, 11 is the natural suggestion.
// Narrow extended-game ranges default to their minimum, anything else to the
// midpoint. Purely a UX convenience; never used for validation.
func DefaultScore(r Range, preferWinning bool) int {
	if preferWinning && 11 >= r.Min && 11 <= r.Max {
		return 11
	}
	if r.Width() <= 2 {
		return r.Min
	}
	return (r.Min + r.Max) / 2
}
