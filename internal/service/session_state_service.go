package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
)

var (
	// ErrSessionActive is returned when the candidate already has a live session.
	ErrSessionActive = errors.New("assessment session already active")
	// ErrSubmissionFailed is returned when the candidate's only submission
	// attempt already failed.
	ErrSubmissionFailed = errors.New("assessment submission already failed")
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStateService keeps the Redis state that lets a session survive a
// reconnect: the single-session lock, the start time, the session ID and the
// answer journal.
type SessionStateService struct {
	rdb       *redis.Client
	duration  time.Duration
	failedTTL time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewSessionStateService creates a new SessionStateService.
func NewSessionStateService(rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *SessionStateService {
	return &SessionStateService{
		rdb:       rdb,
		duration:  cfg.AssessmentDuration,
		failedTTL: cfg.ReapplyCooldown,
		now:       time.Now,
		log:       log.With().Str("component", "session_state").Logger(),
	}
}

// SessionLease is a held single-session lock plus the state to resume from.
type SessionLease struct {
	CandidateID    string
	SessionID      string
	ElapsedSeconds int
	Answers        map[string]string

	rdb   *redis.Client
	key   string
	token string
}

// Release frees the lock. It is safe to call more than once.
func (l *SessionLease) Release(ctx context.Context) error {
	if err := releaseLock.Run(ctx, l.rdb, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release session lock: %w", err)
	}
	return nil
}

func (s *SessionStateService) ttl() time.Duration {
	return s.duration + 10*time.Minute
}

// Acquire takes the candidate's session lock and loads the resume state.
// A candidate whose submission already failed gets ErrSubmissionFailed.
func (s *SessionStateService) Acquire(ctx context.Context, candidateID string) (*SessionLease, error) {
	failed, err := s.SubmissionFailed(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if failed {
		return nil, ErrSubmissionFailed
	}

	lease := &SessionLease{
		CandidateID: candidateID,
		rdb:         s.rdb,
		key:         config.CacheKey.CandidateSessionLockKey(candidateID),
		token:       uuid.NewString(),
	}

	ok, err := s.rdb.SetNX(ctx, lease.key, lease.token, s.ttl()).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, ErrSessionActive
	}

	if err := s.loadState(ctx, lease); err != nil {
		_ = lease.Release(context.WithoutCancel(ctx))
		return nil, err
	}
	return lease, nil
}

// loadState reads the resume state. The start key is only written by
// MarkStarted, so a connection that never reached the question set does not
// consume any of the candidate's time.
func (s *SessionStateService) loadState(ctx context.Context, lease *SessionLease) error {
	cid := lease.CandidateID
	startKey := config.CacheKey.CandidateSessionStartKey(cid)
	idKey := config.CacheKey.CandidateSessionIDKey(cid)

	pipe := s.rdb.Pipeline()
	pipe.SetNX(ctx, idKey, uuid.NewString(), s.ttl())
	startCmd := pipe.Get(ctx, startKey)
	idCmd := pipe.Get(ctx, idKey)
	answersCmd := pipe.HGetAll(ctx, config.CacheKey.CandidateAnswersKey(cid))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load session state: %w", err)
	}
	if err := idCmd.Err(); err != nil {
		return fmt.Errorf("load session id: %w", err)
	}

	elapsed := 0
	if raw, err := startCmd.Result(); err == nil {
		startUnix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse session start: %w", err)
		}
		elapsed = int(s.now().Sub(time.Unix(startUnix, 0)) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
	} else if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load session start: %w", err)
	}

	lease.SessionID = idCmd.Val()
	lease.ElapsedSeconds = elapsed
	lease.Answers = answersCmd.Val()

	if elapsed > 0 || len(lease.Answers) > 0 {
		s.log.Info().
			Str("candidate_id", cid).
			Str("session_id", lease.SessionID).
			Int("elapsed", elapsed).
			Int("answers", len(lease.Answers)).
			Msg("Resuming session")
	}
	return nil
}

// SaveAnswer journals one answer so a reconnect can restore it.
func (s *SessionStateService) SaveAnswer(ctx context.Context, candidateID, questionID, optionKey string) error {
	key := config.CacheKey.CandidateAnswersKey(candidateID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, questionID, optionKey)
	pipe.Expire(ctx, key, s.ttl())
	_, err := pipe.Exec(ctx)
	return err
}

// MarkStarted records when the candidate's clock started. Only the first call
// for a candidate takes effect; later calls keep the original start.
func (s *SessionStateService) MarkStarted(ctx context.Context, candidateID string) error {
	key := config.CacheKey.CandidateSessionStartKey(candidateID)
	if err := s.rdb.SetNX(ctx, key, s.now().Unix(), s.ttl()).Err(); err != nil {
		return fmt.Errorf("mark session started: %w", err)
	}
	return nil
}

// MarkFailed records that the candidate's submission failed. The session can
// not be resumed or submitted again until the marker expires.
func (s *SessionStateService) MarkFailed(ctx context.Context, candidateID, sessionID string) error {
	key := config.CacheKey.CandidateSubmissionFailedKey(candidateID)
	if err := s.rdb.Set(ctx, key, sessionID, s.failedTTL).Err(); err != nil {
		return fmt.Errorf("mark submission failed: %w", err)
	}
	s.log.Warn().
		Str("candidate_id", candidateID).
		Str("session_id", sessionID).
		Msg("Submission marked as failed")
	return nil
}

// SubmissionFailed reports whether the candidate's submission already failed.
func (s *SessionStateService) SubmissionFailed(ctx context.Context, candidateID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.CandidateSubmissionFailedKey(candidateID)).Result()
	if err != nil {
		return false, fmt.Errorf("check submission failure: %w", err)
	}
	return n > 0, nil
}
