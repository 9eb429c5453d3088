package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/questionbank"
	"github.com/talentgate/assessment-backend/internal/repository"
)

// ErrReapplyLocked is matched by *ReapplyLockedError.
var ErrReapplyLocked = errors.New("reapply cooldown in effect")

// ReapplyLockedError reports when a rejected candidate may try again.
type ReapplyLockedError struct {
	Until time.Time
}

func (e *ReapplyLockedError) Error() string {
	return fmt.Sprintf("reapply allowed after %s", e.Until.Format(time.DateOnly))
}

func (e *ReapplyLockedError) Is(target error) bool { return target == ErrReapplyLocked }

type bankSource interface {
	ListActive(ctx context.Context) ([]model.BankQuestion, error)
}

type latestResultSource interface {
	LatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.StoredResult, error)
}

// QuestionService deals each candidate a paper from the question bank.
type QuestionService struct {
	bank     bankSource
	results  latestResultSource
	rdb      *redis.Client
	cooldown time.Duration
	paperTTL time.Duration
	mix      questionbank.Mix
	now      func() time.Time
	log      zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(bank bankSource, results latestResultSource, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		bank:     bank,
		results:  results,
		rdb:      rdb,
		cooldown: cfg.ReapplyCooldown,
		paperTTL: cfg.AssessmentDuration + time.Hour,
		mix:      questionbank.DefaultMix,
		now:      time.Now,
		log:      log.With().Str("component", "question_service").Logger(),
	}
}

// FetchQuestions returns the candidate's paper. A reconnecting candidate gets
// the paper they were first dealt.
func (s *QuestionService) FetchQuestions(ctx context.Context, candidateID string) ([]model.Question, error) {
	cid, err := uuid.Parse(candidateID)
	if err != nil {
		return nil, fmt.Errorf("parse candidate id: %w", err)
	}

	if err := s.checkCooldown(ctx, cid); err != nil {
		return nil, err
	}

	key := config.CacheKey.CandidatePaperKey(candidateID)
	if paper, ok := s.cachedPaper(ctx, key); ok {
		return paper, nil
	}

	paper := questionbank.Deal(s.loadBank(ctx), s.mix, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if len(paper) == 0 {
		return nil, errors.New("question bank is empty")
	}

	data, err := json.Marshal(paper)
	if err != nil {
		return nil, fmt.Errorf("marshal paper: %w", err)
	}
	stored, err := s.rdb.SetNX(ctx, key, data, s.paperTTL).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("Failed to cache paper")
		return paper, nil
	}
	if !stored {
		// Another connection dealt first; use its paper.
		if cached, ok := s.cachedPaper(ctx, key); ok {
			return cached, nil
		}
	}

	s.log.Info().Str("candidate_id", candidateID).Int("questions", len(paper)).Msg("Paper dealt")
	return paper, nil
}

func (s *QuestionService) checkCooldown(ctx context.Context, candidateID uuid.UUID) error {
	latest, err := s.results.LatestByCandidate(ctx, candidateID)
	if errors.Is(err, repository.ErrResultNotFound) {
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Cooldown check failed, allowing attempt")
		return nil
	}
	if latest.Status != model.ResultReject {
		return nil
	}
	until := latest.CreatedAt.Add(s.cooldown)
	if s.now().Before(until) {
		return &ReapplyLockedError{Until: until}
	}
	return nil
}

func (s *QuestionService) cachedPaper(ctx context.Context, key string) ([]model.Question, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("key", key).Msg("Paper cache read failed")
		}
		return nil, false
	}
	var paper []model.Question
	if err := json.Unmarshal(raw, &paper); err != nil || len(paper) == 0 {
		s.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cached paper")
		return nil, false
	}
	return paper, true
}

// loadBank reads the database bank and falls back to the built-in one.
func (s *QuestionService) loadBank(ctx context.Context) []model.BankQuestion {
	bank, err := s.bank.ListActive(ctx)
	if err == nil && len(bank) > 0 {
		return bank
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Question bank query failed, using built-in bank")
	} else {
		s.log.Warn().Msg("Question bank is empty, using built-in bank")
	}
	builtin, lerr := questionbank.Load()
	if lerr != nil {
		s.log.Error().Err(lerr).Msg("Built-in question bank is unreadable")
		return nil
	}
	return builtin
}
