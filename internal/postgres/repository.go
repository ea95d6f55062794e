package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtside/ranking-service/internal/config"
	"github.com/courtside/ranking-service/internal/domain"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			rating_singles INT NOT NULL DEFAULT 1000,
			rating_same_gender_doubles INT NOT NULL DEFAULT 1000,
			rating_mixed_doubles INT NOT NULL DEFAULT 1000,
			games_played INT NOT NULL DEFAULT 0,
			wins INT NOT NULL DEFAULT 0,
			losses INT NOT NULL DEFAULT 0,
			total_matches INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id VARCHAR(64) PRIMARY KEY,
			mode VARCHAR(10) NOT NULL,
			category VARCHAR(32) NOT NULL,
			team1_players TEXT[] NOT NULL,
			team2_players TEXT[] NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'in_progress',
			team1_score INT NOT NULL DEFAULT 0,
			team2_score INT NOT NULL DEFAULT 0,
			winner INT,
			team1_points_change INT NOT NULL DEFAULT 0,
			team2_points_change INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS match_history (
			id VARCHAR(64) PRIMARY KEY,
			match_id VARCHAR(64) NOT NULL REFERENCES matches(id),
			player_id VARCHAR(64) NOT NULL REFERENCES players(id),
			player_name VARCHAR(255) NOT NULL,
			category VARCHAR(32) NOT NULL,
			result VARCHAR(4) NOT NULL,
			team1_score INT NOT NULL,
			team2_score INT NOT NULL,
			points_change INT NOT NULL,
			opponents TEXT[] NOT NULL,
			teammate VARCHAR(64),
			duration_seconds INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_history_player ON match_history(player_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_match_history_match ON match_history(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// ratingColumn maps a category to its players-table column.
func ratingColumn(c domain.Category) string {
	switch c {
	case domain.CategorySameGenderDoubles:
		return "rating_same_gender_doubles"
	case domain.CategoryMixedDoubles:
		return "rating_mixed_doubles"
	default:
		return "rating_singles"
	}
}

// CreatePlayer inserts a new player with default ratings
func (r *Repository) CreatePlayer(ctx context.Context, playerID, username string) (*domain.PlayerStats, error) {
	query := `
		INSERT INTO players (id, username, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`
	now := time.Now()
	result, err := r.pool.Exec(ctx, query, playerID, username, now)
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrPlayerExists
	}

	return &domain.PlayerStats{
		PlayerID:  playerID,
		Username:  username,
		Rankings:  domain.DefaultRankings(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

const playerColumns = `
	id, username,
	rating_singles, rating_same_gender_doubles, rating_mixed_doubles,
	games_played, wins, losses, total_matches,
	created_at, updated_at
`

func scanPlayer(row pgx.Row) (*domain.PlayerStats, error) {
	var p domain.PlayerStats
	err := row.Scan(
		&p.PlayerID,
		&p.Username,
		&p.Rankings.Singles,
		&p.Rankings.SameGenderDoubles,
		&p.Rankings.MixedDoubles,
		&p.GamesPlayed,
		&p.Wins,
		&p.Losses,
		&p.TotalMatches,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlayerStats retrieves a player's rating and match-count record
func (r *Repository) GetPlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(r.pool.QueryRow(ctx, query, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player stats: %w", err)
	}
	return p, nil
}

// CreateMatch inserts a new match in progress
func (r *Repository) CreateMatch(ctx context.Context, match *domain.Match) error {
	query := `
		INSERT INTO matches (id, mode, category, team1_players, team2_players, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		match.ID,
		string(match.Mode),
		string(match.Category),
		match.Team1,
		match.Team2,
		string(domain.MatchStatusInProgress),
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating match: %w", err)
	}
	return nil
}

const matchColumns = `
	id, mode, category, team1_players, team2_players, status,
	team1_score, team2_score, winner, team1_points_change, team2_points_change,
	created_at, completed_at
`

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	var winner *int
	err := row.Scan(
		&m.ID,
		&m.Mode,
		&m.Category,
		&m.Team1,
		&m.Team2,
		&m.Status,
		&m.Team1Score,
		&m.Team2Score,
		&winner,
		&m.Team1PointsChange,
		&m.Team2PointsChange,
		&m.CreatedAt,
		&m.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if winner != nil {
		m.Winner = *winner
	}
	return &m, nil
}

// GetMatch retrieves a match by ID
func (r *Repository) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.pool.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("getting match: %w", err)
	}
	return m, nil
}

// CompleteMatch applies a match result atomically: it reads the match and all
// participant rows under lock, computes history rows and rating updates, and
// writes everything in a single serializable transaction. Two concurrent
// completions sharing a player therefore serialize instead of clobbering each
// other's rating delta. Any missing player record aborts the whole
// transaction.
func (r *Repository) CompleteMatch(ctx context.Context, matchID string, result domain.MatchResult) (*domain.MatchCompletion, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	match, err := scanMatch(tx.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("reading match: %w", err)
	}
	if match.Status != domain.MatchStatusInProgress {
		return nil, domain.ErrMatchAlreadyCompleted
	}

	participants := match.Participants()

	// Lock player rows in a stable order so two completions sharing players
	// cannot deadlock.
	rows, err := tx.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		participants)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	stats := make(map[string]*domain.PlayerStats, len(participants))
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		stats[p.PlayerID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}

	plan, err := domain.PlanCompletion(match, result, stats, time.Now())
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for i := range plan.Players {
		p := &plan.Players[i]
		batch.Queue(`
			UPDATE players
			SET rating_singles = $2,
				rating_same_gender_doubles = $3,
				rating_mixed_doubles = $4,
				games_played = $5,
				wins = $6,
				losses = $7,
				total_matches = $8,
				updated_at = $9
			WHERE id = $1
		`,
			p.PlayerID,
			p.Rankings.Singles,
			p.Rankings.SameGenderDoubles,
			p.Rankings.MixedDoubles,
			p.GamesPlayed,
			p.Wins,
			p.Losses,
			p.TotalMatches,
			p.UpdatedAt,
		)
	}
	for _, h := range plan.History {
		batch.Queue(`
			INSERT INTO match_history (
				id, match_id, player_id, player_name, category, result,
				team1_score, team2_score, points_change, opponents, teammate,
				duration_seconds, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`,
			h.ID, h.MatchID, h.PlayerID, h.PlayerName, string(h.Category), h.Result,
			h.Team1Score, h.Team2Score, h.PointsChange, h.Opponents, h.Teammate,
			h.DurationSeconds, h.CreatedAt,
		)
	}
	// Conditional on status so a concurrent completion that slipped past the
	// row lock can never apply twice.
	batch.Queue(`
		UPDATE matches
		SET status = 'completed',
			team1_score = $2,
			team2_score = $3,
			winner = $4,
			team1_points_change = $5,
			team2_points_change = $6,
			completed_at = $7
		WHERE id = $1 AND status = 'in_progress'
	`,
		plan.Match.ID,
		plan.Match.Team1Score,
		plan.Match.Team2Score,
		plan.Match.Winner,
		plan.Match.Team1PointsChange,
		plan.Match.Team2PointsChange,
		plan.Match.CompletedAt,
	)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(plan.Players)+len(plan.History); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return nil, fmt.Errorf("writing completion batch: %w", err)
		}
	}
	tag, err := br.Exec()
	if err != nil {
		br.Close()
		return nil, fmt.Errorf("marking match completed: %w", err)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("closing completion batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrMatchAlreadyCompleted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing completion: %w", err)
	}

	return plan, nil
}

// GetMatchHistory retrieves a player's match history, most recent first
func (r *Repository) GetMatchHistory(ctx context.Context, playerID string, limit int) ([]domain.MatchHistoryRecord, error) {
	query := `
		SELECT id, match_id, player_id, player_name, category, result,
			   team1_score, team2_score, points_change, opponents, teammate,
			   duration_seconds, created_at
		FROM match_history
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting match history: %w", err)
	}
	defer rows.Close()

	var records []domain.MatchHistoryRecord
	for rows.Next() {
		var h domain.MatchHistoryRecord
		var teammate *string
		err := rows.Scan(
			&h.ID, &h.MatchID, &h.PlayerID, &h.PlayerName, &h.Category, &h.Result,
			&h.Team1Score, &h.Team2Score, &h.PointsChange, &h.Opponents, &teammate,
			&h.DurationSeconds, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		if teammate != nil {
			h.Teammate = *teammate
		}
		records = append(records, h)
	}
	return records, nil
}

// GetCategoryRatings retrieves every player's rating for a category (for sync)
func (r *Repository) GetCategoryRatings(ctx context.Context, category domain.Category) (map[string]int64, error) {
	query := fmt.Sprintf(`SELECT id, %s FROM players`, ratingColumn(category))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("getting category ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[string]int64)
	for rows.Next() {
		var playerID string
		var rating int64
		if err := rows.Scan(&playerID, &rating); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		ratings[playerID] = rating
	}
	return ratings, nil
}

// GetAllPlayerInfo retrieves id/username pairs for all players (for sync)
func (r *Repository) GetAllPlayerInfo(ctx context.Context) ([]domain.PlayerInfo, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username FROM players`)
	if err != nil {
		return nil, fmt.Errorf("getting player info: %w", err)
	}
	defer rows.Close()

	var infos []domain.PlayerInfo
	for rows.Next() {
		var info domain.PlayerInfo
		if err := rows.Scan(&info.ID, &info.Username); err != nil {
			return nil, fmt.Errorf("scanning player info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
