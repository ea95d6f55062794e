package domain

import "time"

// Rating constants shared by every component that touches player ratings.
const (
	// DefaultRating is assigned to every category at account creation.
	DefaultRating = 1000

	// RatingFloor is the lowest value a rating may ever reach. Ratings are
	// clamped here so a losing streak never zeroes out the matchmaking signal.
	RatingFloor = 100
)

// Category identifies a rated game category. A player carries one rating
// per category.
type Category string

const (
	CategorySingles           Category = "singles"
	CategorySameGenderDoubles Category = "same_gender_doubles"
	CategoryMixedDoubles      Category = "mixed_doubles"
)

// Categories lists all rated categories in a stable order.
var Categories = []Category{
	CategorySingles,
	CategorySameGenderDoubles,
	CategoryMixedDoubles,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategorySingles, CategorySameGenderDoubles, CategoryMixedDoubles:
		return true
	}
	return false
}

// Rankings holds a player's rating in each category.
type Rankings struct {
	Singles           int `json:"singles"`
	SameGenderDoubles int `json:"same_gender_doubles"`
	MixedDoubles      int `json:"mixed_doubles"`
}

// DefaultRankings returns the rankings assigned at account creation.
func DefaultRankings() Rankings {
	return Rankings{
		Singles:           DefaultRating,
		SameGenderDoubles: DefaultRating,
		MixedDoubles:      DefaultRating,
	}
}

// Rating returns the rating for the given category.
func (r Rankings) Rating(c Category) int {
	switch c {
	case CategorySameGenderDoubles:
		return r.SameGenderDoubles
	case CategoryMixedDoubles:
		return r.MixedDoubles
	default:
		return r.Singles
	}
}

// Apply returns a copy of the rankings with the signed points change added to
// the given category. The result is clamped at RatingFloor; a rating never
// drops below the floor no matter how large the loss.
func (r Rankings) Apply(c Category, pointsChange int) Rankings {
	next := r.Rating(c) + pointsChange
	if next < RatingFloor {
		next = RatingFloor
	}
	switch c {
	case CategorySameGenderDoubles:
		r.SameGenderDoubles = next
	case CategoryMixedDoubles:
		r.MixedDoubles = next
	default:
		r.Singles = next
	}
	return r
}

// PlayerStats is a player's persistent rating and match-count record. It is
// created once at registration and mutated only by match completion.
type PlayerStats struct {
	PlayerID     string    `json:"player_id"`
	Username     string    `json:"username"`
	Rankings     Rankings  `json:"rankings"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	TotalMatches int       `json:"total_matches"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlayerInfo is a lightweight player information struct used for caching
type PlayerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RankingEntry represents a single row of a category ranking.
type RankingEntry struct {
	Rank     int64  `json:"rank"`
	PlayerID string `json:"player_id"`
	Rating   int64  `json:"rating"`
	Username string `json:"username,omitempty"`
}

// RankingStats contains statistics about a category ranking.
type RankingStats struct {
	Category     Category `json:"category"`
	TotalPlayers int64    `json:"total_players"`
	TopRating    int64    `json:"top_rating,omitempty"`
	LowestRating int64    `json:"lowest_rating,omitempty"`
}
