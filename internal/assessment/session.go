package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
)

// State is the session's position in its lifecycle.
type State string

const (
	StateLoading           State = "loading"
	StateActive            State = "active"
	StateSubmitting        State = "submitting"
	StateExpiredSubmitting State = "expired-submitting"
	StateSubmitted         State = "submitted"
	StateTerminalError     State = "terminal-error"
)

// SubmissionFailedMessage is shown to the candidate when scoring fails.
const SubmissionFailedMessage = "We could not submit your assessment. Your answers were not graded; please contact the recruiting team to schedule a new attempt."

// QuestionSource loads the candidate's question set.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, candidateID string) ([]model.Question, error)
}

// AuditSink records integrity events. It is best effort.
type AuditSink interface {
	LogEvent(ctx context.Context, rec model.IntegrityRecord) error
}

// Scorer grades a submission. Only Status and Score of the returned result
// are used; the session fills in the rest.
type Scorer interface {
	Submit(ctx context.Context, candidateID string, answers map[string]string, elapsedSeconds int) (*model.SubmissionResult, error)
}

// Navigator moves the candidate on once the session is over.
type Navigator interface {
	Redirect(ctx context.Context, reason error)
	HandOff(ctx context.Context, result *model.SubmissionResult)
}

// Display renders session state to the candidate. Calls come from the
// session loop and must return promptly.
type Display interface {
	Ready(questions []model.Question, remaining int, policy Policy)
	Countdown(remaining int)
	Warning(count int, ev IntegrityEvent, visible bool)
	StateChanged(s State)
	SubmissionFailed(message string)
}

// Journal mirrors ledger writes so a reconnecting candidate keeps answers.
type Journal interface {
	SaveAnswer(ctx context.Context, candidateID, questionID, optionKey string) error
}

// Config fixes a session's identity and budgets.
type Config struct {
	CandidateID string
	SessionID   string
	// TotalSeconds is the full time budget of the assessment.
	TotalSeconds int
	// ElapsedSeconds is time already spent in an earlier connection.
	ElapsedSeconds int
	// Restore seeds the ledger with answers saved by an earlier connection.
	Restore map[string]string

	WarningWindow time.Duration
	SubmitTimeout time.Duration
	SideTimeout   time.Duration
	OutboxSize    int
}

func (c *Config) defaults() {
	if c.TotalSeconds < 0 {
		c.TotalSeconds = 0
	}
	if c.ElapsedSeconds < 0 {
		c.ElapsedSeconds = 0
	}
	if c.WarningWindow <= 0 {
		c.WarningWindow = 3 * time.Second
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 30 * time.Second
	}
	if c.SideTimeout <= 0 {
		c.SideTimeout = 5 * time.Second
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = 256
	}
}

// Deps are the session's collaborators. Journal and Time are optional.
type Deps struct {
	Questions QuestionSource
	Audit     AuditSink
	Scorer    Scorer
	Navigator Navigator
	Display   Display
	Journal   Journal
	Time      TimeSource
}

type (
	answerCmd struct {
		questionID string
		optionKey  string
	}
	submitCmd    struct{}
	integrityCmd struct{ ev IntegrityEvent }
	settledCmd   struct {
		out    Outcome
		issued bool
	}
)

// Session is the timed assessment controller. A single goroutine (Run) owns
// the state, the ledger and the warning counter; Answer, Submit and Record
// only post messages to it, so they are safe to call from any goroutine.
type Session struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	clock *Clock
	guard *Guard

	inbox  chan any
	outbox chan func(context.Context)
	done   chan struct{}

	mu   sync.Mutex
	view struct {
		state     State
		remaining int
		warnings  int
	}

	// loop-owned
	state     State
	ledger    *Ledger
	remaining int
	warnings  int
	lastEvent IntegrityEvent
	warnHide  <-chan time.Time
}

// NewSession wires a session. Run must be called exactly once.
func NewSession(cfg Config, deps Deps, log zerolog.Logger) *Session {
	cfg.defaults()
	if deps.Time == nil {
		deps.Time = SystemTime{}
	}
	s := &Session{
		cfg:    cfg,
		deps:   deps,
		clock:  NewClock(deps.Time),
		inbox:  make(chan any, 64),
		outbox: make(chan func(context.Context), cfg.OutboxSize),
		done:   make(chan struct{}),
		log: log.With().
			Str("candidate_id", cfg.CandidateID).
			Str("session_id", cfg.SessionID).
			Logger(),
	}
	s.guard = NewGuard(s.submit)
	s.state = StateLoading
	s.view.state = StateLoading
	return s
}

// Answer records a selection. Ignored outside the active state.
func (s *Session) Answer(questionID, optionKey string) {
	s.post(answerCmd{questionID: questionID, optionKey: optionKey})
}

// Submit requests the explicit submission.
func (s *Session) Submit() { s.post(submitCmd{}) }

// Record accepts an integrity event; it is meant to be registered with
// Monitor.OnEvent. Events are processed in the order Record is called.
func (s *Session) Record(ev IntegrityEvent) { s.post(integrityCmd{ev: ev}) }

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.state
}

// Remaining returns the last countdown value shown to the candidate.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.remaining
}

// Warnings returns the number of warnings shown so far.
func (s *Session) Warnings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.warnings
}

// Outcome returns the submission outcome; zero until the guard settles.
func (s *Session) Outcome() Outcome { return s.guard.Outcome() }

func (s *Session) post(cmd any) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- cmd:
		return true
	case <-s.done:
		return false
	}
}

// Run loads the question set and drives the session until it is submitted,
// fails to load, or ctx is cancelled while the candidate is still answering.
// A submission already in flight is always completed and handed off.
func (s *Session) Run(ctx context.Context) error {
	outboxDone := make(chan struct{})
	go s.drainOutbox(outboxDone)

	err := s.run(ctx)

	s.clock.Stop()
	close(s.done)
	close(s.outbox)
	<-outboxDone
	return err
}

func (s *Session) run(ctx context.Context) error {
	questions, err := s.deps.Questions.FetchQuestions(ctx, s.cfg.CandidateID)
	if err == nil && len(questions) == 0 {
		err = errors.New("question set is empty")
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoadFailure, err)
		s.log.Warn().Err(err).Msg("Session could not start")
		s.setState(StateTerminalError)
		s.deps.Navigator.Redirect(ctx, err)
		return err
	}

	s.ledger = NewLedger(questions)
	for qid, key := range s.cfg.Restore {
		if err := s.ledger.Set(qid, key); err != nil {
			s.log.Warn().Err(err).Msg("Dropping restored answer")
		}
	}

	budget := s.cfg.TotalSeconds - s.cfg.ElapsedSeconds
	if budget < 0 {
		budget = 0
	}
	s.remaining = budget
	s.publish()

	s.deps.Display.Ready(questions, budget, BlockPolicy())
	s.setState(StateActive)
	s.clock.Start(budget)
	s.log.Info().
		Int("questions", len(questions)).
		Int("remaining", budget).
		Int("restored_answers", s.ledger.Len()).
		Msg("Session active")

	ticks := s.clock.Ticks()
	expired := s.clock.Expired()

	for {
		select {
		case <-ctx.Done():
			if s.state == StateSubmitting || s.state == StateExpiredSubmitting {
				<-s.guard.Done()
				return s.settle(ctx, s.guard.Outcome())
			}
			s.log.Info().Str("state", string(s.state)).Msg("Session abandoned")
			return ctx.Err()

		case r := <-ticks:
			s.onTick(r)

		case <-expired:
			expired = nil
			s.log.Info().Msg("Time budget exhausted")
			s.beginSubmit(ctx, true)

		case <-s.warnHide:
			s.warnHide = nil
			s.deps.Display.Warning(s.warnings, s.lastEvent, false)

		case cmd := <-s.inbox:
			switch c := cmd.(type) {
			case answerCmd:
				s.onAnswer(c)
			case submitCmd:
				s.onSubmit(ctx)
			case integrityCmd:
				s.onIntegrity(c.ev)
			case settledCmd:
				return s.settle(ctx, c.out)
			}
		}
	}
}

func (s *Session) onTick(r int) {
	if r < 0 {
		s.log.Warn().Err(ErrClockAnomaly).Int("remaining", r).Msg("Clamping countdown")
		r = 0
	}
	if r > s.remaining {
		s.log.Warn().Err(ErrClockAnomaly).Int("remaining", r).Int("shown", s.remaining).Msg("Ignoring non-monotonic tick")
		return
	}
	if s.state != StateActive {
		return
	}
	s.remaining = r
	s.publish()
	s.deps.Display.Countdown(r)
}

func (s *Session) onAnswer(c answerCmd) {
	if s.state != StateActive {
		s.log.Debug().Str("state", string(s.state)).Str("q_id", c.questionID).Msg("Answer ignored outside active state")
		return
	}
	if err := s.ledger.Set(c.questionID, c.optionKey); err != nil {
		s.log.Warn().Err(err).Msg("Answer ignored")
		return
	}
	if s.deps.Journal == nil {
		return
	}
	cand := s.cfg.CandidateID
	s.enqueue("journal", func(ctx context.Context) error {
		return s.deps.Journal.SaveAnswer(ctx, cand, c.questionID, c.optionKey)
	})
}

func (s *Session) onSubmit(ctx context.Context) {
	switch s.state {
	case StateActive:
		s.log.Info().Int("remaining", s.remaining).Msg("Candidate submitted")
		s.beginSubmit(ctx, false)
	default:
		s.log.Debug().Str("state", string(s.state)).Msg("Submit ignored")
	}
}

func (s *Session) onIntegrity(ev IntegrityEvent) {
	rec := model.IntegrityRecord{
		CandidateID: s.cfg.CandidateID,
		SessionID:   s.cfg.SessionID,
		Category:    ev.Category,
		Gesture:     string(ev.Gesture),
		Timestamp:   ev.At.UnixMilli(),
	}
	s.enqueue("audit", func(ctx context.Context) error {
		if err := s.deps.Audit.LogEvent(ctx, rec); err != nil {
			return fmt.Errorf("%w: %w", ErrAuditLogFailure, err)
		}
		return nil
	})

	if ev.Category == model.IntegrityFocusRegained {
		return
	}
	s.warnings++
	s.lastEvent = ev
	s.publish()
	s.deps.Display.Warning(s.warnings, ev, true)
	s.warnHide = s.deps.Time.At(s.deps.Time.Now().Add(s.cfg.WarningWindow))
}

func (s *Session) beginSubmit(ctx context.Context, expired bool) {
	if s.state != StateActive {
		return
	}
	s.clock.Stop()

	remaining := s.remaining
	if expired {
		remaining = 0
		s.setState(StateExpiredSubmitting)
	} else {
		if r := s.clock.Remaining(); r < remaining {
			remaining = r
		}
		s.setState(StateSubmitting)
	}
	s.remaining = remaining
	s.publish()

	p := Payload{
		CandidateID:    s.cfg.CandidateID,
		SessionID:      s.cfg.SessionID,
		Answers:        s.ledger.Snapshot(),
		ElapsedSeconds: s.cfg.TotalSeconds - remaining,
		Expired:        expired,
	}

	go func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
		defer cancel()
		out, issued := s.guard.Attempt(sctx, p)
		s.post(settledCmd{out: out, issued: issued})
	}()
}

func (s *Session) submit(ctx context.Context, p Payload) (*model.SubmissionResult, error) {
	scored, err := s.deps.Scorer.Submit(ctx, p.CandidateID, p.Answers, p.ElapsedSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailure, err)
	}
	if scored == nil {
		return nil, fmt.Errorf("%w: empty scoring response", ErrSubmissionFailure)
	}
	return &model.SubmissionResult{
		CandidateID:    p.CandidateID,
		SessionID:      p.SessionID,
		Status:         scored.Status,
		Score:          scored.Score,
		Answers:        p.Answers,
		ElapsedSeconds: p.ElapsedSeconds,
		SubmittedAt:    s.deps.Time.Now().UTC(),
	}, nil
}

func (s *Session) settle(ctx context.Context, out Outcome) error {
	s.clock.Stop()
	s.setState(StateSubmitted)

	if !out.OK() {
		s.log.Error().Err(out.Err).Msg("Submission failed")
		s.deps.Display.SubmissionFailed(SubmissionFailedMessage)
		if errors.Is(out.Err, ErrSubmissionFailure) {
			return out.Err
		}
		return fmt.Errorf("%w: %w", ErrSubmissionFailure, out.Err)
	}

	s.log.Info().
		Str("status", string(out.Result.Status)).
		Float64("score", out.Result.Score).
		Int("answered", len(out.Result.Answers)).
		Int("elapsed", out.Result.ElapsedSeconds).
		Msg("Submission scored")
	s.deps.Navigator.HandOff(context.WithoutCancel(ctx), out.Result)
	return nil
}

func (s *Session) setState(st State) {
	s.state = st
	s.publish()
	s.deps.Display.StateChanged(st)
}

func (s *Session) publish() {
	s.mu.Lock()
	s.view.state = s.state
	s.view.remaining = s.remaining
	s.view.warnings = s.warnings
	s.mu.Unlock()
}

// enqueue hands a side effect to the outbox. Side effects run one at a time
// in enqueue order, off the session loop.
func (s *Session) enqueue(kind string, fn func(ctx context.Context) error) {
	job := func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			s.log.Debug().Err(err).Str("kind", kind).Msg("Side effect failed")
		}
	}
	select {
	case s.outbox <- job:
	default:
		s.log.Warn().Str("kind", kind).Msg("Outbox full, side effect dropped")
	}
}

func (s *Session) drainOutbox(done chan<- struct{}) {
	defer close(done)
	for job := range s.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SideTimeout)
		job(ctx)
		cancel()
	}
}
