package rating

import (
	"math"
	"testing"
)

func TestKFactor(t *testing.T) {
	tests := []struct {
		gamesPlayed int
		want        int
	}{
		{0, 32},
		{29, 32},
		{30, 24},
		{99, 24},
		{100, 16},
		{500, 16},
	}

	for _, tt := range tests {
		if got := KFactor(tt.gamesPlayed); got != tt.want {
			t.Errorf("KFactor(%d) = %d, want %d", tt.gamesPlayed, got, tt.want)
		}
	}
}

func TestExpectedScore(t *testing.T) {
	if got := ExpectedScore(1000, 1000); got != 0.5 {
		t.Errorf("ExpectedScore(1000, 1000) = %f, want 0.5", got)
	}

	// The two sides' expectations always sum to 1.
	pairs := [][2]int{{1000, 1200}, {900, 1500}, {1016, 984}, {100, 2400}}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("ExpectedScore(%d,%d) + ExpectedScore(%d,%d) = %f, want 1", p[0], p[1], p[1], p[0], sum)
		}
	}

	// Strictly increasing in the rating gap.
	prev := 0.0
	for r := 800; r <= 1200; r += 100 {
		e := ExpectedScore(r, 1000)
		if e <= prev {
			t.Errorf("ExpectedScore(%d, 1000) = %f, not increasing", r, e)
		}
		prev = e
	}
}

func TestPointsChange(t *testing.T) {
	tests := []struct {
		name        string
		winner      int
		loser       int
		winnerGames int
		loserGames  int
		want        int
	}{
		// Equal new players: K avg 32, expected 0.5, delta 16.
		{"equal new players", 1000, 1000, 0, 0, 16},
		// Equal established players: K avg 16, delta 8.
		{"equal established players", 1000, 1000, 200, 200, 8},
		// Mixed experience averages the K-factors: (32+16)/2 = 24, delta 12.
		{"mixed experience", 1000, 1000, 0, 200, 12},
		// Favourite beating an underdog moves little.
		{"favourite wins", 1200, 1000, 0, 0, 8},
		// Underdog beating a favourite moves a lot.
		{"underdog wins", 1000, 1200, 0, 0, 24},
		// Huge favourite still gains the minimum one point.
		{"minimum one point", 2400, 1000, 200, 200, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PointsChange(tt.winner, tt.loser, tt.winnerGames, tt.loserGames)
			if got != tt.want {
				t.Errorf("PointsChange(%d, %d, %d, %d) = %d, want %d",
					tt.winner, tt.loser, tt.winnerGames, tt.loserGames, got, tt.want)
			}
		})
	}
}

func TestTeamRating(t *testing.T) {
	tests := []struct {
		r1, r2 int
		want   int
	}{
		{1000, 1000, 1000},
		{1000, 1200, 1100},
		{1000, 1001, 1001}, // .5 rounds up
		{900, 900, 900},
	}

	for _, tt := range tests {
		if got := TeamRating(tt.r1, tt.r2); got != tt.want {
			t.Errorf("TeamRating(%d, %d) = %d, want %d", tt.r1, tt.r2, got, tt.want)
		}
	}
}

func TestDoublesPointsChange(t *testing.T) {
	// Team ratings 1100 vs 900, everyone new: same delta as a 1100 vs 900
	// singles match between new players.
	winner := Team{Rating1: 1000, Rating2: 1200}
	loser := Team{Rating1: 900, Rating2: 900}

	got := DoublesPointsChange(winner, loser)
	want := PointsChange(1100, 900, 0, 0)
	if got != want {
		t.Errorf("DoublesPointsChange = %d, want %d", got, want)
	}

	// Team games-played averages into the K-factor the same way.
	winner = Team{Rating1: 1000, Rating2: 1000, Games1: 200, Games2: 200}
	loser = Team{Rating1: 1000, Rating2: 1000, Games1: 200, Games2: 200}
	if got := DoublesPointsChange(winner, loser); got != 8 {
		t.Errorf("DoublesPointsChange(established teams) = %d, want 8", got)
	}
}
