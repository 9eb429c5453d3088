package websocket

import (
	"github.com/talentgate/assessment-backend/internal/assessment"
	"github.com/talentgate/assessment-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionSignal Action = "signal"
	ActionPing   Action = "ping"
)

// RequestEnvelope carries every client action. Fields unused by an action
// are left empty.
type RequestEnvelope struct {
	Action Action `json:"action"`

	// answer
	QID    string `json:"q_id,omitempty"`
	Answer string `json:"ans,omitempty"`

	// signal
	Signal *assessment.Signal `json:"signal,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady            Event = "ready"
	EventTick             Event = "tick"
	EventWarning          Event = "warning"
	EventState            Event = "state"
	EventSubmissionFailed Event = "submission_failed"
	EventResult           Event = "result"
	EventRedirect         Event = "redirect"
	EventError            Event = "error"
	EventPong             Event = "pong"
)

// ReadyResponse opens the session: the paper, the time left, answers
// restored from an earlier connection and the gestures to suppress.
type ReadyResponse struct {
	Event     Event             `json:"event"`
	SessionID string            `json:"session_id"`
	Questions []model.Question  `json:"questions"`
	Duration  int               `json:"duration"`
	Answers   map[string]string `json:"answers"`
	Blocked   assessment.Policy `json:"blocked"`
}

type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int   `json:"remaining"`
}

type WarningResponse struct {
	Event    Event                   `json:"event"`
	Count    int                     `json:"count"`
	Category model.IntegrityCategory `json:"category"`
	Gesture  assessment.Gesture      `json:"gesture,omitempty"`
	Visible  bool                    `json:"visible"`
}

type StateResponse struct {
	Event Event            `json:"event"`
	State assessment.State `json:"state"`
}

type SubmissionFailedResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

type ResultResponse struct {
	Event    Event              `json:"event"`
	Status   model.ResultStatus `json:"status"`
	Score    float64            `json:"score"`
	Duration int                `json:"duration"`
	Next     string             `json:"next"`
}

type RedirectResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Until   string `json:"until,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
