package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/courtside/ranking-service/internal/config"
	"github.com/courtside/ranking-service/internal/domain"
	"github.com/courtside/ranking-service/internal/scoring"
)

// fakeStore is an in-memory Store for exercising the service layer.
type fakeStore struct {
	players     map[string]*domain.PlayerStats
	matches     map[string]*domain.Match
	history     map[string][]domain.MatchHistoryRecord
	completions int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players: make(map[string]*domain.PlayerStats),
		matches: make(map[string]*domain.Match),
		history: make(map[string][]domain.MatchHistoryRecord),
	}
}

func (f *fakeStore) CreatePlayer(ctx context.Context, playerID, username string) (*domain.PlayerStats, error) {
	if _, ok := f.players[playerID]; ok {
		return nil, domain.ErrPlayerExists
	}
	stats := &domain.PlayerStats{
		PlayerID:  playerID,
		Username:  username,
		Rankings:  domain.DefaultRankings(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.players[playerID] = stats
	return stats, nil
}

func (f *fakeStore) GetPlayerStats(ctx context.Context, playerID string) (*domain.PlayerStats, error) {
	stats, ok := f.players[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return stats, nil
}

func (f *fakeStore) CreateMatch(ctx context.Context, match *domain.Match) error {
	f.matches[match.ID] = match
	return nil
}

func (f *fakeStore) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return match, nil
}

func (f *fakeStore) CompleteMatch(ctx context.Context, matchID string, result domain.MatchResult) (*domain.MatchCompletion, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}

	completion, err := domain.PlanCompletion(match, result, f.players, time.Now())
	if err != nil {
		return nil, err
	}

	f.matches[matchID] = completion.Match
	for i := range completion.Players {
		p := completion.Players[i]
		f.players[p.PlayerID] = &p
	}
	for _, h := range completion.History {
		f.history[h.PlayerID] = append(f.history[h.PlayerID], h)
	}
	f.completions++
	return completion, nil
}

func (f *fakeStore) GetMatchHistory(ctx context.Context, playerID string, limit int) ([]domain.MatchHistoryRecord, error) {
	records := f.history[playerID]
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// fakeCache records rating writes and serves canned ranking reads.
type fakeCache struct {
	ratings map[domain.Category]map[string]int64
	info    map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		ratings: make(map[domain.Category]map[string]int64),
		info:    make(map[string]string),
	}
}

func (f *fakeCache) SetRating(ctx context.Context, category domain.Category, playerID string, rating int64) error {
	if f.ratings[category] == nil {
		f.ratings[category] = make(map[string]int64)
	}
	f.ratings[category][playerID] = rating
	return nil
}

func (f *fakeCache) SetPlayerInfo(ctx context.Context, playerID, username string) error {
	f.info[playerID] = username
	return nil
}

func (f *fakeCache) GetPlayerInfo(ctx context.Context, playerID string) (*domain.PlayerInfo, error) {
	username, ok := f.info[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &domain.PlayerInfo{ID: playerID, Username: username}, nil
}

func (f *fakeCache) GetTopN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error) {
	entries := make([]domain.RankingEntry, 0, len(f.ratings[category]))
	for id, rating := range f.ratings[category] {
		entries = append(entries, domain.RankingEntry{PlayerID: id, Rating: rating})
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (f *fakeCache) GetBottomN(ctx context.Context, category domain.Category, n int) ([]domain.RankingEntry, error) {
	return f.GetTopN(ctx, category, n)
}

func (f *fakeCache) GetPlayerRank(ctx context.Context, category domain.Category, playerID string) (*domain.RankingEntry, error) {
	rating, ok := f.ratings[category][playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &domain.RankingEntry{Rank: 1, PlayerID: playerID, Rating: rating}, nil
}

func (f *fakeCache) GetAroundPlayer(ctx context.Context, category domain.Category, playerID string, count int) ([]domain.RankingEntry, error) {
	return f.GetTopN(ctx, category, count)
}

func (f *fakeCache) GetCount(ctx context.Context, category domain.Category) (int64, error) {
	return int64(len(f.ratings[category])), nil
}

func newTestService(store *fakeStore, cache *fakeCache) *RankingService {
	cfg := &config.RankingsConfig{DefaultLimit: 10, MaxLimit: 100}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRankingService(store, cache, cfg, logger)
}

func registerPlayers(t *testing.T, s *RankingService, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := s.RegisterPlayer(context.Background(), id, "user-"+id); err != nil {
			t.Fatalf("RegisterPlayer(%s) error = %v", id, err)
		}
	}
}

func TestRegisterPlayer(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	s := newTestService(store, cache)

	stats, err := s.RegisterPlayer(context.Background(), "p1", "alice")
	if err != nil {
		t.Fatalf("RegisterPlayer() error = %v", err)
	}
	if stats.Rankings != domain.DefaultRankings() {
		t.Errorf("rankings = %+v, want defaults", stats.Rankings)
	}

	// Every category gets seeded in the cache.
	for _, category := range domain.Categories {
		if got := cache.ratings[category]["p1"]; got != domain.DefaultRating {
			t.Errorf("cached rating for %s = %d, want %d", category, got, domain.DefaultRating)
		}
	}
	if cache.info["p1"] != "alice" {
		t.Errorf("cached username = %q, want alice", cache.info["p1"])
	}

	if _, err := s.RegisterPlayer(context.Background(), "p1", "alice"); !errors.Is(err, domain.ErrPlayerExists) {
		t.Errorf("duplicate register error = %v, want ErrPlayerExists", err)
	}

	if _, err := s.RegisterPlayer(context.Background(), "", "alice"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("empty id error = %v, want ErrInvalidRequest", err)
	}
}

func TestCreateMatch(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, newFakeCache())
	registerPlayers(t, s, "p1", "p2")

	match, err := s.CreateMatch(context.Background(), &domain.Match{
		Mode:  domain.ModeSingles,
		Team1: []string{"p1"},
		Team2: []string{"p2"},
	})
	if err != nil {
		t.Fatalf("CreateMatch() error = %v", err)
	}
	if match.ID == "" {
		t.Error("match has no generated ID")
	}
	if match.Category != domain.CategorySingles {
		t.Errorf("category = %s, want singles default", match.Category)
	}
	if match.Status != domain.MatchStatusInProgress {
		t.Errorf("status = %s, want in_progress", match.Status)
	}
}

func TestCreateMatchUnknownParticipant(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, newFakeCache())
	registerPlayers(t, s, "p1")

	_, err := s.CreateMatch(context.Background(), &domain.Match{
		Mode:     domain.ModeSingles,
		Category: domain.CategorySingles,
		Team1:    []string{"p1"},
		Team2:    []string{"ghost"},
	})
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("CreateMatch() error = %v, want ErrPlayerNotFound", err)
	}
	if len(store.matches) != 0 {
		t.Error("match was stored despite unknown participant")
	}
}

func TestCompleteMatchRejectsInvalidScore(t *testing.T) {
	store := newFakeStore()
	s := newTestService(store, newFakeCache())
	registerPlayers(t, s, "p1", "p2")

	match, err := s.CreateMatch(context.Background(), &domain.Match{
		Mode:  domain.ModeSingles,
		Team1: []string{"p1"},
		Team2: []string{"p2"},
	})
	if err != nil {
		t.Fatalf("CreateMatch() error = %v", err)
	}

	// 11-10 must continue; the store must never see the attempt.
	_, err = s.CompleteMatch(context.Background(), match.ID, domain.MatchResult{Team1Score: 11, Team2Score: 10})
	if !errors.Is(err, scoring.ErrMustContinue) {
		t.Fatalf("CompleteMatch() error = %v, want ErrMustContinue", err)
	}
	if store.completions != 0 {
		t.Error("invalid score reached the store")
	}

	got, err := s.GetMatch(context.Background(), match.ID)
	if err != nil {
		t.Fatalf("GetMatch() error = %v", err)
	}
	if got.Status != domain.MatchStatusInProgress {
		t.Errorf("match status = %s, want still in_progress", got.Status)
	}
}

func TestCompleteMatch(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	s := newTestService(store, cache)
	registerPlayers(t, s, "p1", "p2")

	match, err := s.CreateMatch(context.Background(), &domain.Match{
		Mode:  domain.ModeSingles,
		Team1: []string{"p1"},
		Team2: []string{"p2"},
	})
	if err != nil {
		t.Fatalf("CreateMatch() error = %v", err)
	}

	completion, err := s.CompleteMatch(context.Background(), match.ID, domain.MatchResult{Team1Score: 11, Team2Score: 9})
	if err != nil {
		t.Fatalf("CompleteMatch() error = %v", err)
	}
	if completion.Match.Winner != 1 {
		t.Errorf("winner = %d, want 1", completion.Match.Winner)
	}

	// The cache reflects the committed ratings.
	if got := cache.ratings[domain.CategorySingles]["p1"]; got != 1016 {
		t.Errorf("cached winner rating = %d, want 1016", got)
	}
	if got := cache.ratings[domain.CategorySingles]["p2"]; got != 984 {
		t.Errorf("cached loser rating = %d, want 984", got)
	}

	// A second completion attempt is rejected.
	_, err = s.CompleteMatch(context.Background(), match.ID, domain.MatchResult{Team1Score: 11, Team2Score: 9})
	if !errors.Is(err, domain.ErrMatchAlreadyCompleted) {
		t.Errorf("second CompleteMatch() error = %v, want ErrMatchAlreadyCompleted", err)
	}
	if store.completions != 1 {
		t.Errorf("completions = %d, want 1", store.completions)
	}

	history, err := s.GetMatchHistory(context.Background(), "p1", 0)
	if err != nil {
		t.Fatalf("GetMatchHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Result != domain.ResultWin {
		t.Errorf("history = %+v, want one win", history)
	}
}

func TestGetTopNClampsLimit(t *testing.T) {
	store := newFakeStore()
	cache := newFakeCache()
	s := newTestService(store, cache)
	registerPlayers(t, s, "p1", "p2", "p3")

	entries, err := s.GetTopN(context.Background(), domain.CategorySingles, -1)
	if err != nil {
		t.Fatalf("GetTopN() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3 under the default limit", len(entries))
	}

	entries, err = s.GetTopN(context.Background(), domain.CategorySingles, 2)
	if err != nil {
		t.Fatalf("GetTopN() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}
