package assessment

import "errors"

// Error taxonomy of a session. Only ErrLoadFailure leaves the session; the
// rest are absorbed at the component boundary.
var (
	ErrLoadFailure       = errors.New("question set could not be loaded")
	ErrUnknownQuestion   = errors.New("answer references an unknown question")
	ErrAuditLogFailure   = errors.New("integrity event could not be logged")
	ErrSubmissionFailure = errors.New("submission failed")
	ErrClockAnomaly      = errors.New("clock reported an invalid remaining time")
)
