package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/response"
	"github.com/talentgate/assessment-backend/internal/service"
	"github.com/talentgate/assessment-backend/internal/validator"
)

// FeedbackHandler serves the post-assessment feedback chat.
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	log             zerolog.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedbackService *service.FeedbackService, log zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		log:             log.With().Str("component", "feedback_handler").Logger(),
	}
}

// Chat godoc
// POST /api/v1/feedback/chat
func (h *FeedbackHandler) Chat(c *gin.Context) {
	var req model.FeedbackChatRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	reply, err := h.feedbackService.Chat(c.Request.Context(), req)
	if err != nil {
		switch {
		case service.IsNotFound(err):
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
		case errors.Is(err, context.Canceled):
			// Client went away; nothing to send.
		default:
			h.log.Error().Err(err).Str("candidate_id", req.CandidateID).Msg("Feedback chat failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, reply)
}
