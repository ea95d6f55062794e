package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/courtside/ranking-service/internal/config"
	"github.com/courtside/ranking-service/internal/domain"
	"github.com/courtside/ranking-service/internal/scoring"
	"github.com/courtside/ranking-service/internal/websocket"
)

// Store is the persistence contract the service needs: point reads plus the
// atomic match-completion transaction. Implemented by postgres.Repository.
type Store interface {
	CreatePlayer(ctx context.Context, playerID, username string) (*domain.PlayerStats, error)
	GetPlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error)
	CreateMatch(ctx context.Context, match *domain.Match) error
	GetMatch(ctx context.Context, matchID string) (*domain.Match, error)
	CompleteMatch(ctx context.Context, matchID string, result domain.MatchResult) (*domain.MatchCompletion, error)
	GetMatchHistory(ctx context.Context, playerID string, limit int) ([]domain.MatchHistoryRecord, error)
}

// RankingCache is the ranking read/refresh contract. Implemented by
// redis.RankingService. All cache writes are best-effort: a cache failure
// never rolls back a committed match.
type RankingCache interface {
	SetRating(ctx context.Context, category domain.Category, playerID string, rating int64) error
	SetPlayerInfo(ctx context.Context, playerID, username string) error
	GetPlayerInfo(ctx context.Context, playerID string) (*domain.PlayerInfo, error)
	GetTopN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error)
	GetBottomN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error)
	GetPlayerRank(ctx context.Context, category domain.Category, playerID string) (*domain.RankingEntry, error)
	GetAroundPlayer(ctx context.Context, category domain.Category, playerID string, count int) ([]domain.RankingEntry, error)
	GetCount(ctx context.Context, category domain.Category) (int64, error)
}

// RankingService provides business logic for players, matches and rankings
type RankingService struct {
	store  Store
	cache  RankingCache
	hub    *websocket.Hub
	config *config.RankingsConfig
	logger *slog.Logger
}

// NewRankingService creates a new ranking service
func NewRankingService(
	store Store,
	cache RankingCache,
	cfg *config.RankingsConfig,
	logger *slog.Logger,
) *RankingService {
	return &RankingService{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// SetHub attaches the WebSocket hub used to broadcast ranking updates
func (s *RankingService) SetHub(hub *websocket.Hub) {
	s.hub = hub
}

// RegisterPlayer creates a player with default ratings in every category
func (s *RankingService) RegisterPlayer(ctx context.Context, playerID, username string) (*domain.PlayerStats, error) {
	if playerID == "" || username == "" {
		return nil, domain.ErrInvalidRequest
	}

	stats, err := s.store.CreatePlayer(ctx, playerID, username)
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetPlayerInfo(ctx, playerID, username); err != nil {
			s.logger.Warn("failed to cache player info", "player_id", playerID, "error", err)
		}
		for _, category := range domain.Categories {
			rating := int64(stats.Rankings.Rating(category))
			if err := s.cache.SetRating(ctx, category, playerID, rating); err != nil {
				s.logger.Warn("failed to cache rating", "player_id", playerID, "category", category, "error", err)
			}
		}
	}

	return stats, nil
}

// GetPlayerStats returns a player's ratings and match counters
func (s *RankingService) GetPlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	return s.store.GetPlayerStats(ctx, playerID)
}

// CreateMatch registers a new match in progress
func (s *RankingService) CreateMatch(ctx context.Context, match *domain.Match) (*domain.Match, error) {
	if match.Category == "" && match.Mode == domain.ModeSingles {
		match.Category = domain.CategorySingles
	}
	if err := match.Validate(); err != nil {
		return nil, err
	}

	// Reject rosters referencing unregistered players up front; completion
	// would abort on them anyway.
	for _, id := range match.Participants() {
		if _, err := s.store.GetPlayerStats(ctx, id); err != nil {
			return nil, fmt.Errorf("checking participant %s: %w", id, err)
		}
	}

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	match.Status = domain.MatchStatusInProgress
	match.CreatedAt = time.Now()

	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("creating match: %w", err)
	}
	return match, nil
}

// GetMatch returns a match by ID
func (s *RankingService) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

// CompleteMatch validates the final score, applies ratings and history
// atomically through the store, and then refreshes the ranking cache and
// broadcasts the result. If the store transaction fails nothing is applied
// and the match stays in progress; the caller may retry with the same input.
func (s *RankingService) CompleteMatch(ctx context.Context, matchID string, result domain.MatchResult) (*domain.MatchCompletion, error) {
	if err := scoring.Validate(result.Team1Score, result.Team2Score); err != nil {
		return nil, err
	}

	completion, err := s.store.CompleteMatch(ctx, matchID, result)
	if err != nil {
		return nil, err
	}

	s.publishCompletion(ctx, completion)
	return completion, nil
}

// publishCompletion pushes a committed completion to the ranking cache and
// the WebSocket hub. Both are best-effort.
func (s *RankingService) publishCompletion(ctx context.Context, completion *domain.MatchCompletion) {
	category := completion.Match.Category

	if s.cache != nil {
		for _, p := range completion.Players {
			rating := int64(p.Rankings.Rating(category))
			if err := s.cache.SetRating(ctx, category, p.PlayerID, rating); err != nil {
				s.logger.Warn("failed to refresh cached rating",
					"player_id", p.PlayerID,
					"category", category,
					"error", err,
				)
			}
		}
	}

	if s.hub == nil {
		return
	}
	for _, h := range completion.History {
		for _, p := range completion.Players {
			if p.PlayerID != h.PlayerID {
				continue
			}
			s.hub.BroadcastRatingChange(category, websocket.RatingChange{
				PlayerID:     h.PlayerID,
				MatchID:      h.MatchID,
				Result:       h.Result,
				PointsChange: h.PointsChange,
				NewRating:    p.Rankings.Rating(category),
			})
		}
	}
	if s.cache != nil {
		entries, err := s.cache.GetTopN(ctx, category, s.config.DefaultLimit)
		if err != nil {
			s.logger.Warn("failed to load top entries for broadcast", "category", category, "error", err)
			return
		}
		count, err := s.cache.GetCount(ctx, category)
		if err != nil {
			count = int64(len(entries))
		}
		s.hub.BroadcastRankingUpdate(category, entries, count)
	}
}

// GetMatchHistory returns a player's match history, most recent first
func (s *RankingService) GetMatchHistory(ctx context.Context, playerID string, limit int) ([]domain.MatchHistoryRecord, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	return s.store.GetMatchHistory(ctx, playerID, limit)
}

// GetTopN returns the top N players in a category
func (s *RankingService) GetTopN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error) {
	if n <= 0 {
		n = s.config.DefaultLimit
	}
	if n > s.config.MaxLimit {
		n = s.config.MaxLimit
	}

	entries, err := s.cache.GetTopN(ctx, category, n)
	if err != nil {
		return nil, fmt.Errorf("getting top n from cache: %w", err)
	}
	return entries, nil
}

// GetPlayerRank returns a player's rank and rating in a category
func (s *RankingService) GetPlayerRank(ctx context.Context, category domain.Category, playerID string) (*domain.RankingEntry, error) {
	entry, err := s.cache.GetPlayerRank(ctx, category, playerID)
	if err != nil {
		return nil, err
	}
	if info, err := s.cache.GetPlayerInfo(ctx, playerID); err == nil {
		entry.Username = info.Username
	}
	return entry, nil
}

// GetAroundPlayer returns players around a specific player's rank
func (s *RankingService) GetAroundPlayer(ctx context.Context, category domain.Category, playerID string, count int) ([]domain.RankingEntry, error) {
	if count <= 0 {
		count = 5
	}
	if count > 50 {
		count = 50
	}
	return s.cache.GetAroundPlayer(ctx, category, playerID, count)
}

// GetCategoryStats returns statistics for a category ranking
func (s *RankingService) GetCategoryStats(ctx context.Context, category domain.Category) (*domain.RankingStats, error) {
	count, err := s.cache.GetCount(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("getting count: %w", err)
	}

	stats := &domain.RankingStats{
		Category:     category,
		TotalPlayers: count,
	}

	top, err := s.cache.GetTopN(ctx, category, 1)
	if err == nil && len(top) > 0 {
		stats.TopRating = top[0].Rating
	}

	bottom, err := s.cache.GetBottomN(ctx, category, 1)
	if err == nil && len(bottom) > 0 {
		stats.LowestRating = bottom[0].Rating
	}

	return stats, nil
}
