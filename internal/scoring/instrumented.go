package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/talentgate/assessment-backend/internal/assessment"
	"github.com/talentgate/assessment-backend/internal/metrics"
	"github.com/talentgate/assessment-backend/internal/model"
)

// Instrumented records outcome counts and latency for any scorer.
type Instrumented struct {
	next assessment.Scorer
}

// Instrument wraps next.
func Instrument(next assessment.Scorer) *Instrumented {
	return &Instrumented{next: next}
}

func (s *Instrumented) Submit(ctx context.Context, candidateID string, answers map[string]string, elapsedSeconds int) (*model.SubmissionResult, error) {
	start := time.Now()
	res, err := s.next.Submit(ctx, candidateID, answers, elapsedSeconds)
	metrics.ScoringLatency.Observe(time.Since(start).Seconds())
	metrics.Submissions.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var se *Error
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return "error"
}
