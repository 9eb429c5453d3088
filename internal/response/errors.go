package response

// ErrCode is a typed error code enum for consistent API error identification.
// The same codes are carried by WebSocket error and redirect events.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrUnknownAction  ErrCode = "UNKNOWN_ACTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrCandidateNotFound ErrCode = "CANDIDATE_NOT_FOUND"
	ErrResultNotFound    ErrCode = "RESULT_NOT_FOUND"
	ErrEmailTaken        ErrCode = "EMAIL_ALREADY_REGISTERED"

	// ─── Assessment ────────────────────────────────────────────────────
	ErrSessionActive     ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrAlreadySubmitted  ErrCode = "ASSESSMENT_ALREADY_SUBMITTED"
	ErrReapplyLocked     ErrCode = "REAPPLY_LOCKED"
	ErrQuestionsLoad     ErrCode = "QUESTIONS_UNAVAILABLE"
	ErrSubmissionFailed  ErrCode = "SUBMISSION_FAILED"
	ErrSessionTerminated ErrCode = "SESSION_TERMINATED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrUnknownAction:
		return "Unknown action."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrCandidateNotFound:
		return "Candidate not found."
	case ErrResultNotFound:
		return "No assessment result is available yet."
	case ErrEmailTaken:
		return "This email address is already registered."

	// ─── Assessment ────────────────────────────────────────────────────
	case ErrSessionActive:
		return "An assessment session is already open for this candidate in another tab or device."
	case ErrAlreadySubmitted:
		return "This assessment has already been submitted."
	case ErrReapplyLocked:
		return "You recently completed this assessment. Please wait before reapplying."
	case ErrQuestionsLoad:
		return "Assessment questions could not be loaded."
	case ErrSubmissionFailed:
		return "Your assessment could not be submitted."
	case ErrSessionTerminated:
		return "The assessment session has ended."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A resume file is required."
	case ErrUnsupportedFile:
		return "Unsupported file type. Upload a PDF, DOC or DOCX file."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrServiceUnavailable:
		return "The service is temporarily unavailable."
	default:
		return "An unexpected error occurred."
	}
}
