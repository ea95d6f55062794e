package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/courtside/ranking-service/internal/domain"
	"github.com/courtside/ranking-service/internal/scoring"
	"github.com/courtside/ranking-service/internal/service"
	"github.com/courtside/ranking-service/internal/websocket"
)

// Handler provides HTTP handlers for the ranking API
type Handler struct {
	service *service.RankingService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.RankingService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Players
		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.RegisterPlayer)
			r.Get("/{playerID}", h.GetPlayerStats)
			r.Get("/{playerID}/history", h.GetMatchHistory)
		})

		// Matches
		r.Route("/matches", func(r chi.Router) {
			r.Post("/", h.CreateMatch)
			r.Route("/{matchID}", func(r chi.Router) {
				r.Get("/", h.GetMatch)
				r.Post("/complete", h.CompleteMatch)
			})
		})

		// Live score helpers
		r.Route("/scores", func(r chi.Router) {
			r.Get("/range", h.GetScoreRange)
			r.Post("/validate", h.ValidateScore)
		})

		// Rankings
		r.Route("/rankings/{category}", func(r chi.Router) {
			r.Get("/top", h.GetTop)
			r.Get("/stats", h.GetCategoryStats)
			r.Get("/around/{playerID}", h.GetAroundPlayer)
			r.Get("/player/{playerID}", h.GetPlayerRank)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// isScoreError reports whether err is a score validation error
func isScoreError(err error) bool {
	return errors.Is(err, scoring.ErrTie) ||
		errors.Is(err, scoring.ErrIncomplete) ||
		errors.Is(err, scoring.ErrMustContinue) ||
		errors.Is(err, scoring.ErrInvalidMargin)
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	subscribers := make(map[string]int, len(domain.Categories))
	for _, category := range domain.Categories {
		subscribers[string(category)] = h.hub.GetSubscriberCount(string(category))
	}

	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
		"subscribers":       subscribers,
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// RegisterPlayerRequest is the payload for player registration
type RegisterPlayerRequest struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// RegisterPlayer handles player registration
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.service.RegisterPlayer(r.Context(), req.PlayerID, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerExists) {
			h.writeError(w, http.StatusConflict, domain.ErrPlayerExists)
			return
		}
		if errors.Is(err, domain.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
		h.logger.Error("failed to register player", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    stats,
	})
}

// GetPlayerStats returns a player's ratings and counters
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.service.GetPlayerStats(r.Context(), playerID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get player stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, stats)
}

// GetMatchHistory returns a player's match history
func (h *Handler) GetMatchHistory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.service.GetMatchHistory(r.Context(), playerID, limit)
	if err != nil {
		h.logger.Error("failed to get match history", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, records)
}

// CreateMatchRequest is the payload for match creation
type CreateMatchRequest struct {
	Mode     domain.Mode     `json:"mode"`
	Category domain.Category `json:"category,omitempty"`
	Team1    []string        `json:"team1"`
	Team2    []string        `json:"team2"`
}

// CreateMatch handles match creation
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	match := &domain.Match{
		Mode:     req.Mode,
		Category: req.Category,
		Team1:    req.Team1,
		Team2:    req.Team2,
	}

	created, err := h.service.CreateMatch(r.Context(), match)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidMode),
			errors.Is(err, domain.ErrInvalidCategory),
			errors.Is(err, domain.ErrInvalidRoster):
			h.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrPlayerNotFound):
			h.writeError(w, http.StatusNotFound, err)
		default:
			h.logger.Error("failed to create match", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    created,
	})
}

// GetMatch returns a match by ID
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	match, err := h.service.GetMatch(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get match", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, match)
}

// CompleteMatch applies a finished match's result
func (h *Handler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var result domain.MatchResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	completion, err := h.service.CompleteMatch(r.Context(), matchID, result)
	if err != nil {
		switch {
		case isScoreError(err):
			h.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrMatchNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, domain.ErrMatchAlreadyCompleted):
			h.writeError(w, http.StatusConflict, err)
		case errors.Is(err, domain.ErrPlayerNotFound):
			// A roster player without a stats row aborts the whole
			// transaction; nothing was applied.
			h.writeError(w, http.StatusConflict, err)
		default:
			h.logger.Error("failed to complete match", "match_id", matchID, "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, completion)
}

// ScoreRangeResponse is the live input-range suggestion payload
type ScoreRangeResponse struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// GetScoreRange returns the valid score range given the other team's score
func (h *Handler) GetScoreRange(w http.ResponseWriter, r *http.Request) {
	otherStr := r.URL.Query().Get("other")
	other, err := strconv.Atoi(otherStr)
	if err != nil || other < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	preferWinning := r.URL.Query().Get("prefer_winning") == "true"

	scoreRange := scoring.ValidScoreRange(other)
	h.writeSuccess(w, ScoreRangeResponse{
		Min:     scoreRange.Min,
		Max:     scoreRange.Max,
		Default: scoring.DefaultScore(scoreRange, preferWinning),
	})
}

// ValidateScoreRequest is the payload for final score validation
type ValidateScoreRequest struct {
	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`
}

// ValidateScoreResponse reports validity and a user-facing reason
type ValidateScoreResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateScore validates a completed score pair
func (h *Handler) ValidateScore(w http.ResponseWriter, r *http.Request) {
	var req ValidateScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.Team1Score < 0 || req.Team2Score < 0 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	resp := ValidateScoreResponse{Valid: true}
	if err := scoring.Validate(req.Team1Score, req.Team2Score); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	h.writeSuccess(w, resp)
}

// categoryParam extracts and validates the category URL parameter
func (h *Handler) categoryParam(w http.ResponseWriter, r *http.Request) (domain.Category, bool) {
	category := domain.Category(chi.URLParam(r, "category"))
	if !category.Valid() {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidCategory)
		return "", false
	}
	return category, true
}

// GetTop returns top N players in a category
func (h *Handler) GetTop(w http.ResponseWriter, r *http.Request) {
	category, ok := h.categoryParam(w, r)
	if !ok {
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.GetTopN(r.Context(), category, limit)
	if err != nil {
		h.logger.Error("failed to get top", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entries)
}

// GetCategoryStats returns statistics for a category ranking
func (h *Handler) GetCategoryStats(w http.ResponseWriter, r *http.Request) {
	category, ok := h.categoryParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetCategoryStats(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to get category stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, stats)
}

// GetAroundPlayer returns players around a specific player's rank
func (h *Handler) GetAroundPlayer(w http.ResponseWriter, r *http.Request) {
	category, ok := h.categoryParam(w, r)
	if !ok {
		return
	}
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	count := 5
	if rangeStr := r.URL.Query().Get("range"); rangeStr != "" {
		if c, err := strconv.Atoi(rangeStr); err == nil && c > 0 {
			count = c
		}
	}

	entries, err := h.service.GetAroundPlayer(r.Context(), category, playerID, count)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get around player", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entries)
}

// GetPlayerRank returns a player's rank and rating
func (h *Handler) GetPlayerRank(w http.ResponseWriter, r *http.Request) {
	category, ok := h.categoryParam(w, r)
	if !ok {
		return
	}
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	entry, err := h.service.GetPlayerRank(r.Context(), category, playerID)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get player rank", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entry)
}
