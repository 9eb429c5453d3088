// Package notify emails candidates their assessment result.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/model"
)

// ErrPermanent marks a message that will never be delivered, such as one
// with an invalid or rejected recipient.
var ErrPermanent = errors.New("permanent delivery failure")

// Message is one plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ResultMessage builds the result email for a candidate. Rejected candidates
// are told when they may reapply.
func ResultMessage(c *model.Candidate, status model.ResultStatus, score float64, cooldown time.Duration) Message {
	var subject string
	switch status {
	case model.ResultPass:
		subject = "Round 1 Passed"
	case model.ResultReject:
		subject = "Round 1 Result: Reapply in " + weeks(cooldown)
	case model.ResultReview:
		subject = "Round 1 Under Review"
	default:
		subject = "Round 1 Result"
	}

	var b strings.Builder
	if name := strings.TrimSpace(c.FullName); name != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", name)
	}
	fmt.Fprintf(&b, "Your score was %s%%. Status: %s.\n",
		strconv.FormatFloat(score, 'f', -1, 64), strings.ToUpper(string(status)))

	return Message{To: c.Email, Subject: subject, Body: b.String()}
}

func weeks(d time.Duration) string {
	w := int(d / (7 * 24 * time.Hour))
	if w <= 1 {
		return "1 week"
	}
	return strconv.Itoa(w) + " weeks"
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP server is configured.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.log.Info().
		Str("to", m.To).
		Str("subject", m.Subject).
		Str("body", m.Body).
		Msg("SMTP not configured, result email logged")
	return nil
}
