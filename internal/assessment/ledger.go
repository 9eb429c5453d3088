package assessment

import (
	"fmt"

	"github.com/talentgate/assessment-backend/internal/model"
)

// Ledger holds the candidate's current selection per question.
// The last write for a question wins and entries are never removed.
// It is owned by the session loop and is not safe for concurrent use.
type Ledger struct {
	known   map[string]struct{}
	answers map[string]string
}

// NewLedger creates an empty ledger scoped to the loaded question set.
func NewLedger(questions []model.Question) *Ledger {
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	return &Ledger{
		known:   known,
		answers: make(map[string]string, len(questions)),
	}
}

// Set records a selection. The option key is trusted; the question ID is not.
func (l *Ledger) Set(questionID, optionKey string) error {
	if _, ok := l.known[questionID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	l.answers[questionID] = optionKey
	return nil
}

// Get returns the current selection, or false when unanswered.
func (l *Ledger) Get(questionID string) (string, bool) {
	v, ok := l.answers[questionID]
	return v, ok
}

// Len reports the number of answered questions.
func (l *Ledger) Len() int { return len(l.answers) }

// Snapshot returns a copy that later writes cannot affect.
func (l *Ledger) Snapshot() map[string]string {
	out := make(map[string]string, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}
