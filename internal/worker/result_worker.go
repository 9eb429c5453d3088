package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
)

// ResultWorker persists handed-off results into assessment_results. A
// session's result is written once; replays of the same session are ignored.
type ResultWorker struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	drain *drain[model.SubmissionResult]
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	w := &ResultWorker{
		pool: pool,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
	w.drain = &drain[model.SubmissionResult]{
		rdb:          rdb,
		queue:        config.WorkerKey.PersistResultsQueue,
		log:          w.log,
		bulk:         w.bulkInsert,
		single:       w.insert,
		requeuePause: 2 * time.Second,
	}
	return w
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")
	w.drain.run(ctx)
}

type resultRow struct {
	candidateID uuid.UUID
	sessionID   uuid.UUID
	status      model.ResultStatus
	answers     string
	createdAt   time.Time
}

func toResultRow(r model.SubmissionResult) (resultRow, error) {
	cid, err := uuid.Parse(r.CandidateID)
	if err != nil {
		return resultRow{}, fmt.Errorf("%w: candidate id %q", errSkip, r.CandidateID)
	}
	sid, err := uuid.Parse(r.SessionID)
	if err != nil {
		return resultRow{}, fmt.Errorf("%w: session id %q", errSkip, r.SessionID)
	}
	status, ok := model.ParseResultStatus(string(r.Status))
	if !ok {
		return resultRow{}, fmt.Errorf("%w: status %q", errSkip, r.Status)
	}
	answers := r.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return resultRow{}, fmt.Errorf("%w: %v", errSkip, err)
	}
	created := r.SubmittedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return resultRow{candidateID: cid, sessionID: sid, status: status, answers: string(raw), createdAt: created}, nil
}

func (w *ResultWorker) bulkInsert(ctx context.Context, batch []model.SubmissionResult) error {
	n := len(batch)
	candidates := make([]uuid.UUID, 0, n)
	sessions := make([]uuid.UUID, 0, n)
	statuses := make([]string, 0, n)
	scores := make([]float64, 0, n)
	answers := make([]string, 0, n)
	counts := make([]int32, 0, n)
	elapsed := make([]int32, 0, n)
	createdAts := make([]time.Time, 0, n)

	for _, r := range batch {
		row, err := toResultRow(r)
		if err != nil {
			return err
		}
		candidates = append(candidates, row.candidateID)
		sessions = append(sessions, row.sessionID)
		statuses = append(statuses, string(row.status))
		scores = append(scores, r.Score)
		answers = append(answers, row.answers)
		counts = append(counts, int32(len(r.Answers)))
		elapsed = append(elapsed, int32(r.ElapsedSeconds))
		createdAts = append(createdAts, row.createdAt)
	}

	query := `
		INSERT INTO assessment_results
			(candidate_id, session_id, status, score, answers, answer_count, elapsed_seconds, created_at)
		SELECT u.candidate_id, u.session_id, u.status, u.score, u.answers::jsonb, u.answer_count, u.elapsed_seconds, u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::text[],
			$4::float8[],
			$5::text[],
			$6::int[],
			$7::int[],
			$8::timestamptz[]
		) AS u (candidate_id, session_id, status, score, answers, answer_count, elapsed_seconds, created_at)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := w.pool.Exec(ctx, query, candidates, sessions, statuses, scores, answers, counts, elapsed, createdAts)
	return err
}

func (w *ResultWorker) insert(ctx context.Context, r model.SubmissionResult) error {
	row, err := toResultRow(r)
	if err != nil {
		return err
	}
	_, err = w.pool.Exec(ctx,
		`INSERT INTO assessment_results
			(candidate_id, session_id, status, score, answers, answer_count, elapsed_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING`,
		row.candidateID, row.sessionID, string(row.status), r.Score, row.answers, len(r.Answers), r.ElapsedSeconds, row.createdAt,
	)
	return err
}
