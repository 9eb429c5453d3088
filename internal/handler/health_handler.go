package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/database"
	"github.com/talentgate/assessment-backend/internal/response"
)

// HealthHandler reports dependency health and persistence backlog.
type HealthHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := database.Health(ctx, h.pool, h.rdb); err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return
	}

	// Worker queues (pipelined LLEN)
	pipe := h.rdb.Pipeline()
	integrityCmd := pipe.LLen(ctx, config.WorkerKey.PersistIntegrityQueue)
	resultsCmd := pipe.LLen(ctx, config.WorkerKey.PersistResultsQueue)
	queues := gin.H{}
	if _, err := pipe.Exec(ctx); err == nil {
		queues["integrity"] = integrityCmd.Val()
		queues["results"] = resultsCmd.Val()
	}

	response.Success(c, http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"queues": queues,
	})
}
