package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/assessment"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/metrics"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/repository"
	"github.com/talentgate/assessment-backend/internal/response"
	"github.com/talentgate/assessment-backend/internal/service"
	ws "github.com/talentgate/assessment-backend/internal/websocket"
)

// feedbackPath is where the candidate goes after a scored submission.
const feedbackPath = "/feedback"

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

type candidateLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
}

// AssessmentHandler streams a timed assessment session over WebSocket.
type AssessmentHandler struct {
	candidates candidateLookup
	questions  assessment.QuestionSource
	audit      assessment.AuditSink
	scorer     assessment.Scorer
	sessions   *service.SessionStateService
	results    *service.ResultService
	cfg        *config.Config
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(
	candidates candidateLookup,
	questions assessment.QuestionSource,
	audit assessment.AuditSink,
	scorer assessment.Scorer,
	sessions *service.SessionStateService,
	results *service.ResultService,
	cfg *config.Config,
	log zerolog.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		candidates: candidates,
		questions:  questions,
		audit:      audit,
		scorer:     scorer,
		sessions:   sessions,
		results:    results,
		cfg:        cfg,
		log:        log.With().Str("component", "assessment_handler").Logger(),
		upgrader:   buildUpgrader(cfg.AllowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/candidates/:candidate_id/assessment
// Runs one assessment session for the candidate.
func (h *AssessmentHandler) Stream(c *gin.Context) {
	candidateID, err := uuid.Parse(c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.candidates.Get(ctx, candidateID); err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrCandidateNotFound)
			return
		}
		h.log.Error().Err(err).Str("candidate_id", candidateID.String()).Msg("Candidate lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if h.alreadyScored(ctx, candidateID) {
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
		return
	}

	lease, err := h.sessions.Acquire(ctx, candidateID.String())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionActive):
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		case errors.Is(err, service.ErrSubmissionFailed):
			response.Fail(c, http.StatusConflict, response.ErrSubmissionFailed)
			return
		}
		h.log.Error().Err(err).Str("candidate_id", candidateID.String()).Msg("Session state unavailable")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := lease.Release(rctx); err != nil {
			h.log.Warn().Err(err).Str("candidate_id", lease.CandidateID).Msg("Session lock release failed")
		}
	}()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.run(conn, lease)
}

// alreadyScored reports whether the candidate holds a non-reject result.
// Rejected candidates go through the reapply cooldown instead.
func (h *AssessmentHandler) alreadyScored(ctx context.Context, candidateID uuid.UUID) bool {
	res, err := h.results.Get(ctx, candidateID)
	if err != nil {
		if !service.IsNotFound(err) {
			h.log.Warn().Err(err).Str("candidate_id", candidateID.String()).Msg("Result lookup failed, allowing session")
		}
		return false
	}
	return res.Status != model.ResultReject
}

func (h *AssessmentHandler) run(conn *websocket.Conn, lease *service.SessionLease) {
	sessLog := h.log.With().
		Str("candidate_id", lease.CandidateID).
		Str("session_id", lease.SessionID).
		Logger()

	stream := ws.NewStream(conn, sessLog)
	defer stream.Close()

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	session := assessment.NewSession(assessment.Config{
		CandidateID:    lease.CandidateID,
		SessionID:      lease.SessionID,
		TotalSeconds:   int(h.cfg.AssessmentDuration / time.Second),
		ElapsedSeconds: lease.ElapsedSeconds,
		Restore:        lease.Answers,
		WarningWindow:  h.cfg.WarningDisplay,
		SubmitTimeout:  h.cfg.ScoringTimeout + 5*time.Second,
	}, assessment.Deps{
		Questions: h.questions,
		Audit:     h.audit,
		Scorer:    h.scorer,
		Navigator: &streamNavigator{stream: stream, results: h.results, log: sessLog},
		Display: &streamDisplay{
			stream:    stream,
			sessionID: lease.SessionID,
			restored:  lease.Answers,
			started:   func() { h.markStarted(lease, sessLog) },
		},
		Journal: h.sessions,
	}, sessLog)

	monitor := assessment.NewMonitor(nil)
	monitor.OnEvent(session.Record)
	if err := monitor.Attach(stream); err != nil {
		sessLog.Error().Err(err).Msg("Integrity monitor attach failed")
		return
	}
	defer monitor.Detach()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		h.readLoop(stream, session, sessLog)
	}()

	sessLog.Info().Msg("Candidate connected")
	err := session.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		sessLog.Info().Err(err).Str("state", string(session.State())).Msg("Session ended")
	}
	if errors.Is(err, assessment.ErrSubmissionFailure) {
		mctx, mcancel := context.WithTimeout(context.Background(), 3*time.Second)
		if merr := h.sessions.MarkFailed(mctx, lease.CandidateID, lease.SessionID); merr != nil {
			sessLog.Error().Err(merr).Msg("Failed to record submission failure")
		}
		mcancel()
	}

	monitor.Detach()
	stream.Close()
	<-readDone
}

// markStarted starts the candidate's clock once the question set is on screen.
func (h *AssessmentHandler) markStarted(lease *service.SessionLease, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.sessions.MarkStarted(ctx, lease.CandidateID); err != nil {
		log.Error().Err(err).Msg("Failed to record session start")
	}
}

func (h *AssessmentHandler) readLoop(stream *ws.Stream, session *assessment.Session, log zerolog.Logger) {
	for {
		var msg ws.RequestEnvelope
		if err := stream.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			if msg.QID == "" || msg.Answer == "" {
				stream.SendError("q_id and ans are required")
				continue
			}
			session.Answer(msg.QID, msg.Answer)
		case ws.ActionSubmit:
			session.Submit()
		case ws.ActionSignal:
			if msg.Signal == nil {
				stream.SendError("signal is required")
				continue
			}
			stream.Emit(*msg.Signal)
		case ws.ActionPing:
			stream.Send(ws.PongResponse{Event: ws.EventPong})
		default:
			log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			stream.SendError("unknown action: " + string(msg.Action))
		}
	}
}

// ─── Session collaborators ──────────────────────────────────────────

// streamDisplay renders session state as stream events.
type streamDisplay struct {
	stream    *ws.Stream
	sessionID string
	restored  map[string]string
	started   func()
}

func (d *streamDisplay) Ready(questions []model.Question, remaining int, policy assessment.Policy) {
	if d.started != nil {
		d.started()
	}
	answers := make(map[string]string, len(d.restored))
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for qid, key := range d.restored {
		if known[qid] {
			answers[qid] = key
		}
	}
	d.stream.Send(ws.ReadyResponse{
		Event:     ws.EventReady,
		SessionID: d.sessionID,
		Questions: questions,
		Duration:  remaining,
		Answers:   answers,
		Blocked:   policy,
	})
}

func (d *streamDisplay) Countdown(remaining int) {
	d.stream.Send(ws.TickResponse{Event: ws.EventTick, Remaining: remaining})
}

func (d *streamDisplay) Warning(count int, ev assessment.IntegrityEvent, visible bool) {
	d.stream.Send(ws.WarningResponse{
		Event:    ws.EventWarning,
		Count:    count,
		Category: ev.Category,
		Gesture:  ev.Gesture,
		Visible:  visible,
	})
}

func (d *streamDisplay) StateChanged(s assessment.State) {
	d.stream.Send(ws.StateResponse{Event: ws.EventState, State: s})
}

func (d *streamDisplay) SubmissionFailed(message string) {
	d.stream.Send(ws.SubmissionFailedResponse{Event: ws.EventSubmissionFailed, Message: message})
}

// streamNavigator stores the handed-off result and tells the client where
// to go next.
type streamNavigator struct {
	stream  *ws.Stream
	results *service.ResultService
	log     zerolog.Logger
}

func (n *streamNavigator) Redirect(_ context.Context, reason error) {
	ev := ws.RedirectResponse{Event: ws.EventRedirect, Code: string(response.ErrQuestionsLoad)}
	var locked *service.ReapplyLockedError
	if errors.As(reason, &locked) {
		ev.Code = string(response.ErrReapplyLocked)
		ev.Until = locked.Until.Format(time.DateOnly)
	}
	ev.Message = response.GetMessage(response.ErrCode(ev.Code))
	n.stream.Send(ev)
}

func (n *streamNavigator) HandOff(ctx context.Context, r *model.SubmissionResult) {
	if err := n.results.Store(ctx, r); err != nil {
		n.log.Error().Err(err).Msg("Failed to store handed-off result")
	}
	n.stream.Send(ws.ResultResponse{
		Event:    ws.EventResult,
		Status:   r.Status,
		Score:    r.Score,
		Duration: r.ElapsedSeconds,
		Next:     feedbackPath,
	})
}
