package scoring

import (
	"errors"
	"testing"
)

func TestValidScoreRange(t *testing.T) {
	tests := []struct {
		name       string
		otherScore int
		want       Range
	}{
		{"other at zero", 0, Range{Min: 0, Max: 11}},
		{"other mid game", 5, Range{Min: 0, Max: 11}},
		{"other just below deuce", 9, Range{Min: 0, Max: 11}},
		{"other at ten", 10, Range{Min: 0, Max: 12}},
		{"other at eleven", 11, Range{Min: 0, Max: 13}},
		{"other at twelve", 12, Range{Min: 10, Max: 14}},
		{"other deep in deuce", 15, Range{Min: 13, Max: 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidScoreRange(tt.otherScore)
			if got != tt.want {
				t.Errorf("ValidScoreRange(%d) = %+v, want %+v", tt.otherScore, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		team1   int
		team2   int
		wantErr error
	}{
		{"straight win", 11, 9, nil},
		{"straight win shutout", 11, 0, nil},
		{"deuce win", 12, 10, nil},
		{"extended deuce win", 13, 11, nil},
		{"long deuce win", 15, 13, nil},
		{"loser reported first", 9, 11, nil},
		{"tie at ten", 10, 10, ErrTie},
		{"tie at eleven", 11, 11, ErrTie},
		{"game not over", 10, 8, ErrIncomplete},
		{"one point lead at eleven", 11, 10, ErrMustContinue},
		{"one point lead in deuce", 13, 12, ErrInvalidMargin},
		{"three point lead past eleven", 14, 11, ErrInvalidMargin},
		{"deuce score with low loser", 12, 8, ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.team1, tt.team2)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%d, %d) = %v, want %v", tt.team1, tt.team2, err, tt.wantErr)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	r := Range{Min: 10, Max: 14}

	tests := []struct {
		in   int
		want int
	}{
		{5, 10},
		{10, 10},
		{12, 12},
		{14, 14},
		{20, 14},
	}

	for _, tt := range tests {
		if got := Clamp(tt.in, r); got != tt.want {
			t.Errorf("Clamp(%d, %+v) = %d, want %d", tt.in, r, got, tt.want)
		}
	}
}

func TestDefaultScore(t *testing.T) {
	tests := []struct {
		name          string
		r             Range
		preferWinning bool
		want          int
	}{
		{"winning suggestion picks eleven", Range{Min: 0, Max: 11}, true, 11},
		{"winning suggestion with deuce range", Range{Min: 0, Max: 12}, true, 11},
		{"deuce range with eleven still in it", Range{Min: 10, Max: 12}, true, 11},
		{"narrow deuce range picks minimum", Range{Min: 13, Max: 15}, true, 13},
		{"narrow deuce range without preference", Range{Min: 13, Max: 15}, false, 13},
		{"wide range without preference picks midpoint", Range{Min: 0, Max: 12}, false, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultScore(tt.r, tt.preferWinning)
			if got != tt.want {
				t.Errorf("DefaultScore(%+v, %v) = %d, want %d", tt.r, tt.preferWinning, got, tt.want)
			}
		})
	}
}

// Every legal finished score pair lies inside the range each side's score
// implies for the other. The range may be wider than the set of legal final
// scores (it also covers games still in progress), never narrower.
func TestValidScoresAreInRange(t *testing.T) {
	for a := 0; a <= 20; a++ {
		for b := 0; b <= 20; b++ {
			if Validate(a, b) != nil {
				continue
			}
			if r := ValidScoreRange(b); a < r.Min || a > r.Max {
				t.Errorf("valid score %d-%d outside ValidScoreRange(%d) = %+v", a, b, b, r)
			}
			if r := ValidScoreRange(a); b < r.Min || b > r.Max {
				t.Errorf("valid score %d-%d outside ValidScoreRange(%d) = %+v", a, b, a, r)
			}
		}
	}
}
