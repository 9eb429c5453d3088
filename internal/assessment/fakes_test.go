package assessment

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/talentgate/assessment-backend/internal/model"
)

// manualTime is a TimeSource that only moves when Advance is called.
type manualTime struct {
	mu      sync.Mutex
	now     time.Time
	waiters []timeWaiter
}

type timeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newManualTime() *manualTime {
	return &manualTime{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) At(deadline time.Time) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time, 1)
	if !m.now.Before(deadline) {
		ch <- m.now
		return ch
	}
	m.waiters = append(m.waiters, timeWaiter{at: deadline, ch: ch})
	return ch
}

func (m *manualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	kept := m.waiters[:0]
	for _, w := range m.waiters {
		if !m.now.Before(w.at) {
			w.ch <- m.now
			continue
		}
		kept = append(kept, w)
	}
	m.waiters = kept
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func sampleQuestions(n int) []model.Question {
	qs := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, model.Question{
			ID:         "q" + strconv.Itoa(i),
			Category:   "python",
			Difficulty: model.DifficultyEasy,
			Prompt:     "prompt",
			Options:    map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		})
	}
	return qs
}

type staticSource struct {
	questions []model.Question
	err       error
}

func (s staticSource) FetchQuestions(context.Context, string) ([]model.Question, error) {
	return s.questions, s.err
}

type recordingSink struct {
	mu      sync.Mutex
	records []model.IntegrityRecord
	err     error
}

func (r *recordingSink) LogEvent(_ context.Context, rec model.IntegrityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *recordingSink) snapshot() []model.IntegrityRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.IntegrityRecord(nil), r.records...)
}

type scoreCall struct {
	candidateID string
	answers     map[string]string
	elapsed     int
}

type fakeScorer struct {
	mu    sync.Mutex
	calls []scoreCall
	err   error
	delay time.Duration
}

func (f *fakeScorer) Submit(_ context.Context, candidateID string, answers map[string]string, elapsed int) (*model.SubmissionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scoreCall{candidateID: candidateID, answers: answers, elapsed: elapsed})
	err := f.err
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err != nil {
		return nil, err
	}
	return &model.SubmissionResult{Status: model.ResultReview, Score: 55}, nil
}

func (f *fakeScorer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNavigator struct {
	mu        sync.Mutex
	redirects []error
	results   []*model.SubmissionResult
}

func (n *fakeNavigator) Redirect(_ context.Context, reason error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, reason)
}

func (n *fakeNavigator) HandOff(_ context.Context, r *model.SubmissionResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
}

type fakeDisplay struct {
	mu        sync.Mutex
	ready     int
	countdown []int
	warnings  []int
	hidden    int
	states    []State
	failures  []string
}

func (d *fakeDisplay) Ready(_ []model.Question, remaining int, _ Policy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = remaining
}

func (d *fakeDisplay) Countdown(r int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.countdown = append(d.countdown, r)
}

func (d *fakeDisplay) Warning(count int, _ IntegrityEvent, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if visible {
		d.warnings = append(d.warnings, count)
	} else {
		d.hidden++
	}
}

func (d *fakeDisplay) StateChanged(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states = append(d.states, s)
}

func (d *fakeDisplay) SubmissionFailed(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, msg)
}

var errNetworkDown = errors.New("dial tcp: connection refused")
