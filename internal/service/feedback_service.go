package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/feedback"
	"github.com/talentgate/assessment-backend/internal/model"
)

type resultReader interface {
	Get(ctx context.Context, candidateID uuid.UUID) (*model.SubmissionResult, error)
}

// FeedbackService answers a candidate's questions about their result.
type FeedbackService struct {
	results  resultReader
	advisor  feedback.Advisor
	minDelay time.Duration
	maxDelay time.Duration
	log      zerolog.Logger
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(results resultReader, advisor feedback.Advisor, cfg *config.Config, log zerolog.Logger) *FeedbackService {
	return &FeedbackService{
		results:  results,
		advisor:  advisor,
		minDelay: cfg.FeedbackMinDelay,
		maxDelay: cfg.FeedbackMaxDelay,
		log:      log.With().Str("component", "feedback_service").Logger(),
	}
}

// Chat returns the advisor's reply to one message. The reply is held back by
// a short random delay so it reads like a typed response.
func (s *FeedbackService) Chat(ctx context.Context, req model.FeedbackChatRequest) (*model.FeedbackChatReply, error) {
	cid, err := uuid.Parse(req.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("parse candidate id: %w", err)
	}

	res, err := s.results.Get(ctx, cid)
	if err != nil {
		return nil, err
	}

	brief := feedback.Brief{
		Status:         res.Status,
		Score:          res.Score,
		ElapsedSeconds: res.ElapsedSeconds,
		Answered:       len(res.Answers),
	}
	reply, err := s.advisor.Advise(ctx, brief, req.Message, req.History)
	if err != nil {
		return nil, fmt.Errorf("advise: %w", err)
	}

	if err := s.pause(ctx); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("candidate_id", req.CandidateID).
		Str("topic", string(feedback.Classify(req.Message))).
		Msg("Feedback reply sent")
	return &model.FeedbackChatReply{Reply: reply}, nil
}

func (s *FeedbackService) pause(ctx context.Context) error {
	d := s.minDelay
	if spread := s.maxDelay - s.minDelay; spread > 0 {
		d += rand.N(spread)
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
