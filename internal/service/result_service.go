package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/repository"
)

// ResultTTL is how long a handed-off result stays in Redis.
const ResultTTL = 24 * time.Hour

// ResultService stores handed-off results and serves them back.
type ResultService struct {
	rdb  *redis.Client
	repo latestResultSource
	log  zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(rdb *redis.Client, repo latestResultSource, log zerolog.Logger) *ResultService {
	return &ResultService{
		rdb:  rdb,
		repo: repo,
		log:  log.With().Str("component", "result_service").Logger(),
	}
}

// Store caches the result, queues it for persistence and for the candidate's
// result email, and clears the candidate's live-session state.
func (s *ResultService) Store(ctx context.Context, r *model.SubmissionResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cid := r.CandidateID
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.CandidateResultKey(cid), data, ResultTTL)
	pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, data)
	pipe.RPush(ctx, config.WorkerKey.NotifyResultsQueue, data)
	pipe.Del(ctx,
		config.CacheKey.CandidatePaperKey(cid),
		config.CacheKey.CandidateAnswersKey(cid),
		config.CacheKey.CandidateSessionStartKey(cid),
		config.CacheKey.CandidateSessionIDKey(cid),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// Get returns the candidate's latest result: Redis first, then PostgreSQL.
func (s *ResultService) Get(ctx context.Context, candidateID uuid.UUID) (*model.SubmissionResult, error) {
	key := config.CacheKey.CandidateResultKey(candidateID.String())

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var res model.SubmissionResult
		if err := json.Unmarshal(raw, &res); err == nil {
			return &res, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding unreadable cached result")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("key", key).Msg("Result cache read failed")
	}

	stored, err := s.repo.LatestByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	res := &model.SubmissionResult{
		CandidateID:    stored.CandidateID.String(),
		SessionID:      stored.SessionID.String(),
		Status:         stored.Status,
		Score:          stored.Score,
		Answers:        stored.Answers,
		ElapsedSeconds: stored.ElapsedSeconds,
		SubmittedAt:    stored.CreatedAt,
	}

	// Self-heal the cache
	if data, err := json.Marshal(res); err == nil {
		_ = s.rdb.Set(ctx, key, data, ResultTTL).Err()
	}
	return res, nil
}

// IsNotFound reports whether err means the candidate has no result yet.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrResultNotFound)
}
