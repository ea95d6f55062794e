package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/ranking-service/internal/rating"
)

// PlanCompletion turns a finished match plus the participants' current stats
// into the full set of writes match completion must apply: the updated match
// aggregate, one immutable history row per participant, and each player's
// updated stats. It performs no I/O; the persistence layer calls it with rows
// it has read under lock and writes whatever comes back in one transaction.
//
// A missing stats entry for any participant aborts the whole plan with
// ErrPlayerNotFound. Partial rating updates would corrupt the ranking's
// consistency, so there is no silent-default path.
func PlanCompletion(match *Match, result MatchResult, stats map[string]*PlayerStats, now time.Time) (*MatchCompletion, error) {
	if match.Status != MatchStatusInProgress {
		return nil, ErrMatchAlreadyCompleted
	}
	for _, id := range match.Participants() {
		if _, ok := stats[id]; !ok {
			return nil, fmt.Errorf("participant %s: %w", id, ErrPlayerNotFound)
		}
	}

	winner := result.Winner()
	winningTeam, losingTeam := match.Team1, match.Team2
	if winner == 2 {
		winningTeam, losingTeam = match.Team2, match.Team1
	}

	var delta int
	if match.Mode == ModeDoubles {
		delta = rating.DoublesPointsChange(
			teamSnapshot(winningTeam, match.Category, stats),
			teamSnapshot(losingTeam, match.Category, stats),
		)
	} else {
		w, l := stats[winningTeam[0]], stats[losingTeam[0]]
		delta = rating.PointsChange(
			w.Rankings.Rating(match.Category), l.Rankings.Rating(match.Category),
			w.GamesPlayed, l.GamesPlayed,
		)
	}

	completed := *match
	completed.Status = MatchStatusCompleted
	completed.Team1Score = result.Team1Score
	completed.Team2Score = result.Team2Score
	completed.Winner = winner
	completed.Team1PointsChange = delta
	completed.Team2PointsChange = -delta
	if winner == 2 {
		completed.Team1PointsChange = -delta
		completed.Team2PointsChange = delta
	}
	completed.CompletedAt = &now

	history := make([]MatchHistoryRecord, 0, len(match.Team1)+len(match.Team2))
	players := make([]PlayerStats, 0, cap(history))

	appendTeam := func(team, opponents []string, won bool) {
		playerDelta := delta
		outcome := ResultWin
		if !won {
			playerDelta = -delta
			outcome = ResultLoss
		}
		for _, id := range team {
			s := stats[id]

			history = append(history, MatchHistoryRecord{
				ID:              uuid.New().String(),
				MatchID:         match.ID,
				PlayerID:        id,
				PlayerName:      s.Username,
				Category:        match.Category,
				Result:          outcome,
				Team1Score:      result.Team1Score,
				Team2Score:      result.Team2Score,
				PointsChange:    playerDelta,
				Opponents:       append([]string{}, opponents...),
				Teammate:        teammateOf(id, team),
				DurationSeconds: result.DurationSeconds,
				CreatedAt:       now,
			})

			updated := *s
			updated.Rankings = updated.Rankings.Apply(match.Category, playerDelta)
			updated.GamesPlayed++
			updated.TotalMatches++
			if won {
				updated.Wins++
			} else {
				updated.Losses++
			}
			updated.UpdatedAt = now
			players = append(players, updated)
		}
	}

	appendTeam(winningTeam, losingTeam, true)
	appendTeam(losingTeam, winningTeam, false)

	return &MatchCompletion{
		Match:   &completed,
		History: history,
		Players: players,
	}, nil
}

func teamSnapshot(team []string, c Category, stats map[string]*PlayerStats) rating.Team {
	p1, p2 := stats[team[0]], stats[team[1]]
	return rating.Team{
		Rating1: p1.Rankings.Rating(c),
		Rating2: p2.Rankings.Rating(c),
		Games1:  p1.GamesPlayed,
		Games2:  p2.GamesPlayed,
	}
}

func teammateOf(playerID string, team []string) string {
	for _, id := range team {
		if id != playerID {
			return id
		}
	}
	return ""
}
