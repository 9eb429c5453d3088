package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/notify"
	"github.com/talentgate/assessment-backend/internal/repository"
)

type candidateDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
}

// NotifyWorker emails each candidate their result once it is handed off.
// Delivery failures the mail server may recover from are retried.
type NotifyWorker struct {
	candidates candidateDirectory
	sender     notify.Sender
	cooldown   time.Duration
	log        zerolog.Logger
	drain      *drain[model.SubmissionResult]
}

func NewNotifyWorker(candidates candidateDirectory, sender notify.Sender, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *NotifyWorker {
	w := &NotifyWorker{
		candidates: candidates,
		sender:     sender,
		cooldown:   cfg.ReapplyCooldown,
		log:        log.With().Str("component", "notify_worker").Logger(),
	}
	w.drain = &drain[model.SubmissionResult]{
		rdb:          rdb,
		queue:        config.WorkerKey.NotifyResultsQueue,
		log:          w.log,
		single:       w.notify,
		requeuePause: 10 * time.Second,
	}
	return w
}

func (w *NotifyWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotifyWorker started")
	w.drain.run(ctx)
}

func (w *NotifyWorker) notify(ctx context.Context, r model.SubmissionResult) error {
	cid, err := uuid.Parse(r.CandidateID)
	if err != nil {
		return fmt.Errorf("%w: candidate id %q", errSkip, r.CandidateID)
	}
	status, ok := model.ParseResultStatus(string(r.Status))
	if !ok {
		return fmt.Errorf("%w: status %q", errSkip, r.Status)
	}

	c, err := w.candidates.GetByID(ctx, cid)
	if errors.Is(err, repository.ErrCandidateNotFound) {
		return fmt.Errorf("%w: %w", errSkip, err)
	}
	if err != nil {
		return fmt.Errorf("look up candidate: %w", err)
	}
	if c.Email == "" {
		return fmt.Errorf("%w: candidate %s has no email", errSkip, cid)
	}

	if err := w.sender.Send(ctx, notify.ResultMessage(c, status, r.Score, w.cooldown)); err != nil {
		if errors.Is(err, notify.ErrPermanent) {
			return fmt.Errorf("%w: %w", errSkip, err)
		}
		return err
	}
	w.log.Info().
		Str("candidate_id", r.CandidateID).
		Str("session_id", r.SessionID).
		Str("status", string(status)).
		Msg("Result email sent")
	return nil
}
