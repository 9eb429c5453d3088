package assessment

import (
	"context"
	"sync"

	"github.com/talentgate/assessment-backend/internal/model"
)

// Payload is the single outbound submission of a session.
type Payload struct {
	CandidateID    string
	SessionID      string
	Answers        map[string]string
	ElapsedSeconds int
	Expired        bool
}

// Outcome is what the one submission produced.
type Outcome struct {
	Result *model.SubmissionResult
	Err    error
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// SubmitFunc performs the network submission.
type SubmitFunc func(ctx context.Context, p Payload) (*model.SubmissionResult, error)

type latch int

const (
	latchIdle latch = iota
	latchInFlight
	latchDone
)

// Guard is a one-shot latch around the session's submission:
// idle → in-flight → done. Only the first Attempt issues a request; every
// other call, concurrent or later, waits for and returns that same outcome.
// A failed submission is terminal: the latch never returns to idle.
type Guard struct {
	submit SubmitFunc

	mu      sync.Mutex
	state   latch
	done    chan struct{}
	outcome Outcome
}

// NewGuard creates an idle guard.
func NewGuard(submit SubmitFunc) *Guard {
	return &Guard{submit: submit, done: make(chan struct{})}
}

// Attempt submits p if no submission has happened yet. issued reports
// whether this call was the one that performed the request. If ctx ends
// while waiting on another caller's request, ctx's error is returned as the
// outcome without affecting the latch.
func (g *Guard) Attempt(ctx context.Context, p Payload) (out Outcome, issued bool) {
	g.mu.Lock()
	switch g.state {
	case latchDone:
		out = g.outcome
		g.mu.Unlock()
		return out, false
	case latchInFlight:
		g.mu.Unlock()
		select {
		case <-g.done:
			return g.Outcome(), false
		case <-ctx.Done():
			return Outcome{Err: ctx.Err()}, false
		}
	}
	g.state = latchInFlight
	g.mu.Unlock()

	res, err := g.submit(ctx, p)
	out = Outcome{Result: res, Err: err}
	if err == nil && res == nil {
		out.Err = ErrSubmissionFailure
	}

	g.mu.Lock()
	g.outcome = out
	g.state = latchDone
	close(g.done)
	g.mu.Unlock()
	return out, true
}

// Done is closed once the submission has completed.
func (g *Guard) Done() <-chan struct{} { return g.done }

// Outcome returns the cached outcome; it is zero until Done is closed.
func (g *Guard) Outcome() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// Settled reports whether the latch has reached done.
func (g *Guard) Settled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == latchDone
}
