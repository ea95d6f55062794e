package domain

import (
	"errors"
	"testing"
)

func TestMatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		match   Match
		wantErr error
	}{
		{
			name:    "valid singles",
			match:   Match{Mode: ModeSingles, Category: CategorySingles, Team1: []string{"p1"}, Team2: []string{"p2"}},
			wantErr: nil,
		},
		{
			name:    "valid doubles",
			match:   Match{Mode: ModeDoubles, Category: CategoryMixedDoubles, Team1: []string{"p1", "p2"}, Team2: []string{"p3", "p4"}},
			wantErr: nil,
		},
		{
			name:    "singles with two players",
			match:   Match{Mode: ModeSingles, Category: CategorySingles, Team1: []string{"p1", "p2"}, Team2: []string{"p3"}},
			wantErr: ErrInvalidRoster,
		},
		{
			name:    "doubles with one player",
			match:   Match{Mode: ModeDoubles, Category: CategorySameGenderDoubles, Team1: []string{"p1"}, Team2: []string{"p3", "p4"}},
			wantErr: ErrInvalidRoster,
		},
		{
			name:    "singles in doubles category",
			match:   Match{Mode: ModeSingles, Category: CategoryMixedDoubles, Team1: []string{"p1"}, Team2: []string{"p2"}},
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "doubles in singles category",
			match:   Match{Mode: ModeDoubles, Category: CategorySingles, Team1: []string{"p1", "p2"}, Team2: []string{"p3", "p4"}},
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "unknown mode",
			match:   Match{Mode: "triples", Category: CategorySingles, Team1: []string{"p1"}, Team2: []string{"p2"}},
			wantErr: ErrInvalidMode,
		},
		{
			name:    "duplicate player",
			match:   Match{Mode: ModeDoubles, Category: CategoryMixedDoubles, Team1: []string{"p1", "p2"}, Team2: []string{"p1", "p4"}},
			wantErr: ErrInvalidRoster,
		},
		{
			name:    "empty player id",
			match:   Match{Mode: ModeSingles, Category: CategorySingles, Team1: []string{""}, Team2: []string{"p2"}},
			wantErr: ErrInvalidRoster,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.match.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMatchResultWinner(t *testing.T) {
	if w := (MatchResult{Team1Score: 11, Team2Score: 9}).Winner(); w != 1 {
		t.Errorf("Winner() = %d, want 1", w)
	}
	if w := (MatchResult{Team1Score: 10, Team2Score: 12}).Winner(); w != 2 {
		t.Errorf("Winner() = %d, want 2", w)
	}
}
