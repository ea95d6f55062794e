package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/courtside/ranking-service/internal/config"
	"github.com/courtside/ranking-service/internal/domain"
	"github.com/courtside/ranking-service/internal/postgres"
	"github.com/courtside/ranking-service/internal/redis"
)

// SyncWorker refreshes the Redis ranking cache from PostgreSQL. PostgreSQL is
// authoritative: match completion commits there first and updates the cache
// best-effort, so a periodic full refresh heals any drift and repopulates the
// cache after a Redis restart.
type SyncWorker struct {
	redis    *redis.RankingService
	postgres *postgres.Repository
	config   *config.SyncConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	redis *redis.RankingService,
	postgres *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		redis:    redis,
		postgres: postgres,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background refresh process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.refreshAll(ctx)
		}
	}
}

// refreshAll refreshes every category ranking from PostgreSQL
func (w *SyncWorker) refreshAll(ctx context.Context) {
	w.logger.Info("starting cache refresh cycle")
	startTime := time.Now()

	refreshedCount := 0
	errorCount := 0

	for _, category := range domain.Categories {
		if err := w.RefreshCategory(ctx, category); err != nil {
			w.logger.Error("failed to refresh category ranking",
				"category", category,
				"error", err,
			)
			errorCount++
		} else {
			refreshedCount++
		}
	}

	if err := w.refreshPlayerInfo(ctx); err != nil {
		w.logger.Error("failed to refresh player info cache", "error", err)
		errorCount++
	}

	duration := time.Since(startTime)
	w.logger.Info("cache refresh cycle completed",
		"duration", duration,
		"refreshed", refreshedCount,
		"errors", errorCount,
	)
}

// RefreshCategory loads a category's ratings from PostgreSQL into Redis
func (w *SyncWorker) RefreshCategory(ctx context.Context, category domain.Category) error {
	w.logger.Debug("refreshing category ranking", "category", category)

	ratings, err := w.postgres.GetCategoryRatings(ctx, category)
	if err != nil {
		return err
	}

	if len(ratings) == 0 {
		w.logger.Debug("no ratings to refresh", "category", category)
		return nil
	}

	// Process in batches to avoid overwhelming Redis
	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	batch := make(map[string]int64, batchSize)
	count := 0

	for playerID, rating := range ratings {
		batch[playerID] = rating
		count++

		if count >= batchSize {
			if err := w.redis.BatchSetRatings(ctx, category, batch); err != nil {
				return err
			}
			batch = make(map[string]int64, batchSize)
			count = 0
		}
	}

	// Process remaining batch
	if len(batch) > 0 {
		if err := w.redis.BatchSetRatings(ctx, category, batch); err != nil {
			return err
		}
	}

	w.logger.Debug("refreshed category ranking",
		"category", category,
		"player_count", len(ratings),
	)

	return nil
}

// refreshPlayerInfo reloads the display-name cache
func (w *SyncWorker) refreshPlayerInfo(ctx context.Context) error {
	infos, err := w.postgres.GetAllPlayerInfo(ctx)
	if err != nil {
		return err
	}

	for _, info := range infos {
		if err := w.redis.SetPlayerInfo(ctx, info.ID, info.Username); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAll refreshes every category (for startup recovery)
func (w *SyncWorker) RefreshAll(ctx context.Context) error {
	w.logger.Info("refreshing all category rankings from database")

	for _, category := range domain.Categories {
		if err := w.RefreshCategory(ctx, category); err != nil {
			w.logger.Error("failed to refresh category ranking",
				"category", category,
				"error", err,
			)
			// Continue with other categories
		}
	}

	if err := w.refreshPlayerInfo(ctx); err != nil {
		w.logger.Warn("failed to refresh player info cache", "error", err)
	}

	w.logger.Info("completed refreshing category rankings", "count", len(domain.Categories))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single refresh cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.refreshAll(ctx)
}
