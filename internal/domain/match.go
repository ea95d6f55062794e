package domain

import "time"

// Mode is the play mode of a match.
type Mode string

const (
	ModeSingles Mode = "singles"
	ModeDoubles Mode = "doubles"
)

// MatchStatus tracks the single completion transition a match goes through.
type MatchStatus string

const (
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// MatchResultWin/Loss are the per-participant outcomes recorded in history rows.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
)

// Match is the lobby/match aggregate. It is created in progress and updated
// exactly once, by match completion.
type Match struct {
	ID                string      `json:"id"`
	Mode              Mode        `json:"mode"`
	Category          Category    `json:"category"`
	Team1             []string    `json:"team1"`
	Team2             []string    `json:"team2"`
	Status            MatchStatus `json:"status"`
	Team1Score        int         `json:"team1_score"`
	Team2Score        int         `json:"team2_score"`
	Winner            int         `json:"winner,omitempty"` // 1 or 2 once completed
	Team1PointsChange int         `json:"team1_points_change"`
	Team2PointsChange int         `json:"team2_points_change"`
	CreatedAt         time.Time   `json:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
}

// Validate checks roster sizes and mode/category consistency for a new match.
func (m *Match) Validate() error {
	switch m.Mode {
	case ModeSingles:
		if len(m.Team1) != 1 || len(m.Team2) != 1 {
			return ErrInvalidRoster
		}
		if m.Category != CategorySingles {
			return ErrInvalidCategory
		}
	case ModeDoubles:
		if len(m.Team1) != 2 || len(m.Team2) != 2 {
			return ErrInvalidRoster
		}
		if m.Category != CategorySameGenderDoubles && m.Category != CategoryMixedDoubles {
			return ErrInvalidCategory
		}
	default:
		return ErrInvalidMode
	}

	seen := make(map[string]bool, len(m.Team1)+len(m.Team2))
	for _, id := range append(append([]string{}, m.Team1...), m.Team2...) {
		if id == "" || seen[id] {
			return ErrInvalidRoster
		}
		seen[id] = true
	}
	return nil
}

// Participants returns all player IDs from both rosters.
func (m *Match) Participants() []string {
	ids := make([]string, 0, len(m.Team1)+len(m.Team2))
	ids = append(ids, m.Team1...)
	ids = append(ids, m.Team2...)
	return ids
}

// MatchResult is the finished score pair reported for a match, plus how long
// the game ran. The winner is derived, never supplied by the caller.
type MatchResult struct {
	Team1Score      int `json:"team1_score"`
	Team2Score      int `json:"team2_score"`
	DurationSeconds int `json:"duration_seconds,omitempty"`
}

// Winner returns 1 or 2. Only meaningful for a score pair that passed
// validation, which excludes ties.
func (r MatchResult) Winner() int {
	if r.Team1Score > r.Team2Score {
		return 1
	}
	return 2
}

// MatchHistoryRecord is one participant's immutable record of a completed
// match. Written once by match completion, never mutated or deleted.
type MatchHistoryRecord struct {
	ID              string    `json:"id"`
	MatchID         string    `json:"match_id"`
	PlayerID        string    `json:"player_id"`
	PlayerName      string    `json:"player_name"`
	Category        Category  `json:"category"`
	Result          string    `json:"result"` // win | loss
	Team1Score      int       `json:"team1_score"`
	Team2Score      int       `json:"team2_score"`
	PointsChange    int       `json:"points_change"` // signed, team-level delta
	Opponents       []string  `json:"opponents"`
	Teammate        string    `json:"teammate,omitempty"` // doubles only
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MatchCompletion is everything a completed match produced: the updated
// aggregate, one history row per participant, and the updated player stats.
type MatchCompletion struct {
	Match   *Match               `json:"match"`
	History []MatchHistoryRecord `json:"history"`
	Players []PlayerStats        `json:"players"`
}
