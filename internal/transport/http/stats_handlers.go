package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/strangerchat-server/internal/store"
)

const topInterestsLimit = 10

// HistoryReader serves the session history summary.
type HistoryReader interface {
	Summary(ctx context.Context, topN int) (store.Summary, error)
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status      string `json:"status"`
	Waiting     int    `json:"waiting"`
	ActivePairs int    `json:"activePairs"`
}

// StatsHandlers serves presence and history over plain HTTP.
type StatsHandlers struct {
	hub     Coordinator
	history HistoryReader
	log     *zerolog.Logger
}

// NewStatsHandlers creates the handlers. history may be nil when disabled.
func NewStatsHandlers(hub Coordinator, history HistoryReader, logger *zerolog.Logger) *StatsHandlers {
	return &StatsHandlers{hub: hub, history: history, log: logger}
}

// Health reports liveness with the waiting and paired counts.
// GET /health
func (h *StatsHandlers) Health(c *gin.Context) {
	stats, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("health: hub unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Waiting:     stats.WaitingUsers,
		ActivePairs: stats.ActiveChats,
	})
}

// Stats returns the same counts that online_stats broadcasts.
// GET /api/stats
func (h *StatsHandlers) Stats(c *gin.Context) {
	stats, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("stats: hub unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, statsPayload(stats))
}

// History returns the aggregated session history.
// GET /api/stats/history
func (h *StatsHandlers) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history disabled"})
		return
	}
	sum, err := h.history.Summary(c.Request.Context(), topInterestsLimit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load history summary")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, sum)
}
