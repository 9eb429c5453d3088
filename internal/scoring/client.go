// Package scoring talks to the remote scoring service.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/assessment"
	"github.com/talentgate/assessment-backend/internal/model"
)

// FailureKind classifies why a scoring request failed.
type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureRejected  FailureKind = "rejected"
	FailureMalformed FailureKind = "malformed"
)

// Error is a classified scoring failure. It matches
// assessment.ErrSubmissionFailure under errors.Is.
type Error struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scoring %s (HTTP %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scoring %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{assessment.ErrSubmissionFailure, e.Err}
}

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

type submitRequest struct {
	CandidateID string            `json:"candidate_id"`
	Answers     map[string]string `json:"answers"`
	Duration    int               `json:"duration"`
}

type submitResponse struct {
	Status string   `json:"status"`
	Score  *float64 `json:"score"`
}

// Client submits answer sets to the scoring service.
type Client struct {
	url  string
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a Client posting to url.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "scoring_client").Logger(),
	}
}

// Submit sends one submission. Only Status and Score are set on the result.
func (c *Client) Submit(ctx context.Context, candidateID string, answers map[string]string, elapsedSeconds int) (*model.SubmissionResult, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	body, err := json.Marshal(submitRequest{
		CandidateID: candidateID,
		Answers:     answers,
		Duration:    elapsedSeconds,
	})
	if err != nil {
		return nil, &Error{Kind: FailureMalformed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: FailureNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       FailureRejected,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", bytes.TrimSpace(truncate(raw, 200))),
		}
	}

	var out submitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Kind: FailureMalformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	status, ok := model.ParseResultStatus(out.Status)
	if !ok {
		return nil, &Error{Kind: FailureMalformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("unknown status %q", out.Status)}
	}
	if out.Score == nil || *out.Score < 0 || *out.Score > 100 {
		return nil, &Error{Kind: FailureMalformed, StatusCode: resp.StatusCode, Err: fmt.Errorf("score missing or out of range")}
	}

	c.log.Debug().
		Str("candidate_id", candidateID).
		Str("status", string(status)).
		Float64("score", *out.Score).
		Msg("Submission scored")

	return &model.SubmissionResult{Status: status, Score: *out.Score}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
