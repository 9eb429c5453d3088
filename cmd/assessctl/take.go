package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/talentgate/assessment-backend/internal/model"
	ws "github.com/talentgate/assessment-backend/internal/websocket"
)

const submitItem = "» Submit assessment"

var takeCmd = &cobra.Command{
	Use:   "take <candidate-id>",
	Short: "Take the timed assessment for a registered candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return take(ctx, args[0])
	},
}

// attempt is the client's view of a running session. The reader goroutine
// updates it while the prompt loop blocks on input.
type attempt struct {
	mu        sync.Mutex
	conn      *gws.Conn
	writeMu   sync.Mutex
	questions []model.Question
	answers   map[string]string
	remaining int
	warnings  int
	finished  chan struct{}
	once      sync.Once
	outcome   error
}

type incoming struct {
	Event ws.Event `json:"event"`
}

func take(ctx context.Context, candidateID string) error {
	target, err := streamURL(candidateID)
	if err != nil {
		return err
	}
	log.Debug().Str("url", target).Msg("dialing")

	conn, resp, err := gws.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			if derr := decodeEnvelope(resp, nil); derr != nil {
				return derr
			}
		}
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	a := &attempt{conn: conn, answers: map[string]string{}, finished: make(chan struct{})}

	ready, err := a.awaitReady()
	if err != nil {
		return err
	}
	fmt.Printf("\nSession %s: %d questions, %s on the clock.\n", ready.SessionID, len(ready.Questions), formatSeconds(ready.Duration))
	if len(ready.Answers) > 0 {
		fmt.Printf("Resumed with %d saved answers.\n", len(ready.Answers))
	}

	go a.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			a.finish(ctx.Err())
		case <-a.finished:
		}
	}()

	inputErr := make(chan error, 1)
	go func() { inputErr <- a.promptLoop() }()

	select {
	case <-a.finished:
	case err := <-inputErr:
		if err != nil && !errors.Is(err, promptui.ErrInterrupt) {
			a.finish(err)
		}
		<-a.finished
	}
	_ = conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return a.outcome
}

func (a *attempt) awaitReady() (*ws.ReadyResponse, error) {
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("waiting for paper: %w", err)
		}
		var in incoming
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}
		switch in.Event {
		case ws.EventReady:
			var r ws.ReadyResponse
			if err := json.Unmarshal(raw, &r); err != nil {
				return nil, err
			}
			a.mu.Lock()
			a.questions = r.Questions
			a.remaining = r.Duration
			for qid, key := range r.Answers {
				a.answers[qid] = key
			}
			a.mu.Unlock()
			return &r, nil
		case ws.EventRedirect:
			var r ws.RedirectResponse
			_ = json.Unmarshal(raw, &r)
			return nil, redirectError(r)
		case ws.EventError:
			var r ws.ErrorResponse
			_ = json.Unmarshal(raw, &r)
			return nil, errors.New(r.Error)
		}
	}
}

func (a *attempt) readLoop() {
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			a.finish(fmt.Errorf("connection closed: %w", err))
			return
		}
		var in incoming
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Debug().Err(err).Msg("unreadable event")
			continue
		}
		switch in.Event {
		case ws.EventTick:
			var t ws.TickResponse
			_ = json.Unmarshal(raw, &t)
			a.mu.Lock()
			a.remaining = t.Remaining
			a.mu.Unlock()
			if t.Remaining > 0 && t.Remaining%60 == 0 {
				log.Info().Msgf("%s remaining", formatSeconds(t.Remaining))
			}
		case ws.EventWarning:
			var w ws.WarningResponse
			_ = json.Unmarshal(raw, &w)
			a.mu.Lock()
			a.warnings = w.Count
			a.mu.Unlock()
			if w.Visible {
				log.Warn().Int("count", w.Count).Str("category", string(w.Category)).Msg("integrity warning")
			}
		case ws.EventState:
			var s ws.StateResponse
			_ = json.Unmarshal(raw, &s)
			log.Debug().Str("state", string(s.State)).Msg("session state")
		case ws.EventSubmissionFailed:
			var f ws.SubmissionFailedResponse
			_ = json.Unmarshal(raw, &f)
			a.finish(fmt.Errorf("submission failed: %s", f.Message))
			return
		case ws.EventResult:
			var r ws.ResultResponse
			_ = json.Unmarshal(raw, &r)
			printResult(string(r.Status), r.Score, r.Duration)
			a.finish(nil)
			return
		case ws.EventRedirect:
			var r ws.RedirectResponse
			_ = json.Unmarshal(raw, &r)
			a.finish(redirectError(r))
			return
		case ws.EventError:
			var e ws.ErrorResponse
			_ = json.Unmarshal(raw, &e)
			log.Error().Str("error", e.Error).Msg("server rejected action")
		}
	}
}

func (a *attempt) promptLoop() error {
	for {
		select {
		case <-a.finished:
			return nil
		default:
		}

		items, ids := a.menu()
		sel := promptui.Select{
			Label: a.label(),
			Items: items,
			Size:  12,
		}
		idx, _, err := sel.Run()
		if err != nil {
			return err
		}
		if ids[idx] == "" {
			if a.confirmSubmit() {
				return a.send(ws.RequestEnvelope{Action: ws.ActionSubmit})
			}
			continue
		}
		if err := a.answer(ids[idx]); err != nil {
			return err
		}
	}
}

func (a *attempt) menu() ([]string, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]string, 0, len(a.questions)+1)
	ids := make([]string, 0, len(a.questions)+1)
	for i, q := range a.questions {
		mark := " "
		if key, ok := a.answers[q.ID]; ok {
			mark = key
		}
		items = append(items, fmt.Sprintf("[%s] %2d. %s", mark, i+1, truncate(q.Prompt, 70)))
		ids = append(ids, q.ID)
	}
	return append(items, submitItem), append(ids, "")
}

func (a *attempt) label() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%s left · %d/%d answered · %d warnings",
		formatSeconds(a.remaining), len(a.answers), len(a.questions), a.warnings)
}

func (a *attempt) answer(qid string) error {
	a.mu.Lock()
	var q model.Question
	for _, candidate := range a.questions {
		if candidate.ID == qid {
			q = candidate
			break
		}
	}
	a.mu.Unlock()

	keys := q.OptionOrder
	if len(keys) == 0 {
		for k := range q.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = fmt.Sprintf("%s) %s", k, q.Options[k])
	}

	sel := promptui.Select{Label: q.Prompt, Items: items, Size: len(items)}
	idx, _, err := sel.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		return err
	}
	if err := a.send(ws.RequestEnvelope{Action: ws.ActionAnswer, QID: qid, Answer: keys[idx]}); err != nil {
		return err
	}
	a.mu.Lock()
	a.answers[qid] = keys[idx]
	a.mu.Unlock()
	return nil
}

func (a *attempt) confirmSubmit() bool {
	a.mu.Lock()
	unanswered := len(a.questions) - len(a.answers)
	a.mu.Unlock()

	label := "Submit now"
	if unanswered > 0 {
		label = fmt.Sprintf("%d questions unanswered. Submit anyway", unanswered)
	}
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}

func (a *attempt) send(req ws.RequestEnvelope) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = a.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return a.conn.WriteJSON(req)
}

func (a *attempt) finish(err error) {
	a.once.Do(func() {
		a.outcome = err
		close(a.finished)
	})
}

func redirectError(r ws.RedirectResponse) error {
	if r.Until != "" {
		return fmt.Errorf("%s: %s (until %s)", r.Code, r.Message, r.Until)
	}
	return fmt.Errorf("%s: %s", r.Code, r.Message)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
