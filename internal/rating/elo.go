// Package rating implements the ELO-style rating model used for match
// scoring: a logistic expected-score curve with an experience-sensitive
// K-factor. Every function is pure and total over its documented domain
// (non-negative ratings and game counts); callers enforce the preconditions.
package rating

import "math"

// K-factor tiers. Newer players swing harder so their rating converges fast;
// established players move slowly.
const (
	kFactorNew          = 32
	kFactorIntermediate = 24
	kFactorEstablished  = 16

	newPlayerGames          = 30
	intermediatePlayerGames = 100
)

// KFactor returns the rating volatility tier for a player's experience.
func KFactor(gamesPlayed int) int {
	switch {
	case gamesPlayed < newPlayerGames:
		return kFactorNew
	case gamesPlayed < intermediatePlayerGames:
		return kFactorIntermediate
	default:
		return kFactorEstablished
	}
}

// ExpectedScore returns the probability in (0,1) that a player rated ratingA
// beats a player rated ratingB. Returns 0.5 for equal ratings and is strictly
// increasing in ratingA-ratingB.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// PointsChange returns the rating delta for one completed match. The K-factor
// is the average of both sides' individual K-factors, so mixed-experience
// matchups move at an intermediate rate. A win always moves the rating by at
// least 1 point, even against a vastly higher-rated opponent.
func PointsChange(winnerRating, loserRating, winnerGamesPlayed, loserGamesPlayed int) int {
	kAvg := float64(KFactor(winnerGamesPlayed)+KFactor(loserGamesPlayed)) / 2.0
	expected := ExpectedScore(winnerRating, loserRating)
	delta := int(math.Round(kAvg * (1.0 - expected)))
	if delta < 1 {
		delta = 1
	}
	return delta
}

// TeamRating reduces a doubles team to a single scalar: the rounded mean of
// its two members' ratings.
func TeamRating(p1Rating, p2Rating int) int {
	return int(math.Round(float64(p1Rating+p2Rating) / 2.0))
}

// Team is a doubles team's rating snapshot for delta computation.
type Team struct {
	Rating1 int
	Rating2 int
	Games1  int
	Games2  int
}

// rating returns the team-level rating.
func (t Team) rating() int {
	return TeamRating(t.Rating1, t.Rating2)
}

// games returns the rounded mean of the members' games-played counts.
func (t Team) games() int {
	return int(math.Round(float64(t.Games1+t.Games2) / 2.0))
}

// DoublesPointsChange computes the single scalar delta a doubles match moves
// each player by. Team ratings and team games-played stand in for individual
// values in the singles formula. The same delta is applied identically to
// both members of the winning team and, negated, to both losers.
func DoublesPointsChange(winner, loser Team) int {
	return PointsChange(winner.rating(), loser.rating(), winner.games(), loser.games())
}
