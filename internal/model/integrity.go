package model

import "time"

// IntegrityCategory classifies a detected candidate action.
type IntegrityCategory string

const (
	IntegrityFocusLost      IntegrityCategory = "focus-lost"
	IntegrityFocusRegained  IntegrityCategory = "focus-regained"
	IntegrityBlockedGesture IntegrityCategory = "blocked-gesture"
)

// IntegrityRecord is the audit form of an integrity event.
type IntegrityRecord struct {
	CandidateID string            `json:"candidate_id"`
	SessionID   string            `json:"session_id,omitempty"`
	Category    IntegrityCategory `json:"category"`
	Gesture     string            `json:"gesture,omitempty"`
	Timestamp   int64             `json:"timestamp"`
}

// OccurredAt converts the record timestamp back to a time value.
func (r IntegrityRecord) OccurredAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}
