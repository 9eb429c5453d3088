package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the scoring service's classification of an attempt.
type ResultStatus string

const (
	ResultPass   ResultStatus = "pass"
	ResultReview ResultStatus = "review"
	ResultReject ResultStatus = "reject"
)

// ParseResultStatus maps a wire status to a ResultStatus.
// "fail" is accepted as an alias of "reject".
func ParseResultStatus(s string) (ResultStatus, bool) {
	switch s {
	case "pass":
		return ResultPass, true
	case "review":
		return ResultReview, true
	case "reject", "fail":
		return ResultReject, true
	}
	return "", false
}

// SubmissionResult is produced once per session by the scoring service.
// It is immutable after creation.
type SubmissionResult struct {
	CandidateID    string            `json:"candidate_id"`
	SessionID      string            `json:"session_id"`
	Status         ResultStatus      `json:"status"`
	Score          float64           `json:"score"`
	Answers        map[string]string `json:"answers"`
	ElapsedSeconds int               `json:"duration"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}

// StoredResult is a persisted result row.
type StoredResult struct {
	ID             uuid.UUID         `json:"id"`
	CandidateID    uuid.UUID         `json:"candidate_id"`
	SessionID      uuid.UUID         `json:"session_id"`
	Status         ResultStatus      `json:"status"`
	Score          float64           `json:"score"`
	Answers        map[string]string `json:"answers"`
	AnswerCount    int               `json:"answer_count"`
	ElapsedSeconds int               `json:"duration"`
	CreatedAt      time.Time         `json:"created_at"`
}
