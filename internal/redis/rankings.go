package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/courtside/ranking-service/internal/config"
	"github.com/courtside/ranking-service/internal/domain"
)

// RankingService provides Redis-based ranking reads. PostgreSQL is the
// authoritative store; the ZSETs here are a serving cache refreshed after
// every match completion and by the sync worker.
type RankingService struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRankingService creates a new Redis ranking service
func NewRankingService(cfg *config.RedisConfig, logger *slog.Logger) (*RankingService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RankingService{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *RankingService) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *RankingService) Client() *redis.Client {
	return s.client
}

// rankingKey returns the Redis key for a category's sorted set
func (s *RankingService) rankingKey(category domain.Category) string {
	return fmt.Sprintf("rankings:%s", category)
}

// playerInfoKey returns the Redis key for player info cache
func (s *RankingService) playerInfoKey(playerID string) string {
	return fmt.Sprintf("player:%s:info", playerID)
}

// SetRating sets a player's rating in a category ranking
func (s *RankingService) SetRating(ctx context.Context, category domain.Category, playerID string, rating int64) error {
	key := s.rankingKey(category)
	err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(rating),
		Member: playerID,
	}).Err()
	if err != nil {
		return fmt.Errorf("setting rating: %w", err)
	}
	return nil
}

// GetTopN returns the top N players in a category (highest rating first)
func (s *RankingService) GetTopN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error) {
	key := s.rankingKey(category)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.RankingEntry, len(results))
	for i, result := range results {
		entries[i] = domain.RankingEntry{
			Rank:     int64(i + 1),
			PlayerID: result.Member.(string),
			Rating:   int64(result.Score),
		}
	}
	return entries, nil
}

// GetBottomN returns the bottom N players in a category (lowest rating first)
func (s *RankingService) GetBottomN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error) {
	key := s.rankingKey(category)
	totalCount, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting count: %w", err)
	}

	results, err := s.client.ZRangeWithScores(ctx, key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting bottom n: %w", err)
	}

	entries := make([]domain.RankingEntry, len(results))
	for i, result := range results {
		entries[i] = domain.RankingEntry{
			Rank:     totalCount - int64(i),
			PlayerID: result.Member.(string),
			Rating:   int64(result.Score),
		}
	}
	return entries, nil
}

// GetPlayerRank returns a player's rank and rating in a category
func (s *RankingService) GetPlayerRank(ctx context.Context, category domain.Category, playerID string) (*domain.RankingEntry, error) {
	key := s.rankingKey(category)

	// Use pipeline to get both rank and rating
	pipe := s.client.Pipeline()
	rankCmd := pipe.ZRevRank(ctx, key, playerID)
	scoreCmd := pipe.ZScore(ctx, key, playerID)
	_, err := pipe.Exec(ctx)

	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player rank: %w", err)
	}

	rank, err := rankCmd.Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting rank result: %w", err)
	}

	rating, err := scoreCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("getting rating result: %w", err)
	}

	return &domain.RankingEntry{
		Rank:     rank + 1, // Convert 0-indexed to 1-indexed
		PlayerID: playerID,
		Rating:   int64(rating),
	}, nil
}

// GetAroundPlayer returns players around a specific player's rank
func (s *RankingService) GetAroundPlayer(ctx context.Context, category domain.Category, playerID string, count int) ([]domain.RankingEntry, error) {
	playerEntry, err := s.GetPlayerRank(ctx, category, playerID)
	if err != nil {
		return nil, err
	}

	start := playerEntry.Rank - int64(count) - 1 // -1 because rank is 1-indexed
	if start < 0 {
		start = 0
	}
	end := playerEntry.Rank + int64(count) - 1

	return s.GetRange(ctx, category, int(start), int(end))
}

// GetRange returns players within a specific rank range (0-indexed)
func (s *RankingService) GetRange(ctx context.Context, category domain.Category, start, end int) ([]domain.RankingEntry, error) {
	key := s.rankingKey(category)
	results, err := s.client.ZRevRangeWithScores(ctx, key, int64(start), int64(end)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting range: %w", err)
	}

	entries := make([]domain.RankingEntry, len(results))
	for i, result := range results {
		entries[i] = domain.RankingEntry{
			Rank:     int64(start + i + 1), // Convert to 1-indexed rank
			PlayerID: result.Member.(string),
			Rating:   int64(result.Score),
		}
	}
	return entries, nil
}

// GetCount returns the total number of ranked players in a category
func (s *RankingService) GetCount(ctx context.Context, category domain.Category) (int64, error) {
	key := s.rankingKey(category)
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// SetPlayerInfo caches player information
func (s *RankingService) SetPlayerInfo(ctx context.Context, playerID, username string) error {
	key := s.playerInfoKey(playerID)
	err := s.client.HSet(ctx, key, "username", username).Err()
	if err != nil {
		return fmt.Errorf("setting player info: %w", err)
	}
	return nil
}

// GetPlayerInfo retrieves cached player information
func (s *RankingService) GetPlayerInfo(ctx context.Context, playerID string) (*domain.PlayerInfo, error) {
	key := s.playerInfoKey(playerID)
	result, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player info: %w", err)
	}

	if len(result) == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	return &domain.PlayerInfo{
		ID:       playerID,
		Username: result["username"],
	}, nil
}

// BatchSetRatings sets multiple ratings using pipelining
func (s *RankingService) BatchSetRatings(ctx context.Context, category domain.Category, ratings map[string]int64) error {
	key := s.rankingKey(category)
	pipe := s.client.Pipeline()

	for playerID, rating := range ratings {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(rating),
			Member: playerID,
		})
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("batch setting ratings: %w", err)
	}
	return nil
}
