package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/response"
	"github.com/talentgate/assessment-backend/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// IntegrityHandler exposes recorded integrity events to reviewers.
type IntegrityHandler struct {
	rdb              *redis.Client
	integrityService *service.IntegrityService
	log              zerolog.Logger
}

// NewIntegrityHandler creates a new IntegrityHandler.
func NewIntegrityHandler(rdb *redis.Client, integrityService *service.IntegrityService, log zerolog.Logger) *IntegrityHandler {
	return &IntegrityHandler{
		rdb:              rdb,
		integrityService: integrityService,
		log:              log.With().Str("component", "integrity_handler").Logger(),
	}
}

// Snapshot godoc
// GET /api/v1/candidates/:id/integrity
func (h *IntegrityHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	snap, err := h.integrityService.Snapshot(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("candidate_id", id.String()).Msg("Integrity snapshot failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Monitor godoc
// GET /api/v1/candidates/:id/integrity/stream
// Streams the candidate's integrity events live over SSE.
func (h *IntegrityHandler) Monitor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, reqCtx, id, "snapshot")

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.CandidateIntegrityChannel(id.String()))
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()
	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Only refresh once something has happened since the last snapshot.
	dirty := false

	h.log.Info().Str("candidate_id", id.String()).Msg("Reviewer attached to integrity stream")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("candidate_id", id.String()).Msg("Reviewer detached from integrity stream")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Forward the raw record; it is already JSON.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
			dirty = true

		case <-refreshTicker.C:
			if !dirty {
				continue
			}
			dirty = false
			h.sendSnapshot(c, reqCtx, id, "refresh")

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *IntegrityHandler) sendSnapshot(c *gin.Context, parent context.Context, id uuid.UUID, kind string) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	snap, err := h.integrityService.Snapshot(ctx, id)
	if err != nil {
		h.log.Warn().Err(err).Str("candidate_id", id.String()).Msg("Failed to build integrity snapshot")
		return
	}
	c.SSEvent("message", map[string]any{
		"type": kind,
		"data": snap,
	})
	c.Writer.Flush()
}
