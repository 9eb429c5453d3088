package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
)

// IntegrityWorker persists queued integrity records into integrity_events.
type IntegrityWorker struct {
	pool  *pgxpool.Pool
	log   zerolog.Logger
	drain *drain[model.IntegrityRecord]
}

func NewIntegrityWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *IntegrityWorker {
	w := &IntegrityWorker{
		pool: pool,
		log:  log.With().Str("component", "integrity_worker").Logger(),
	}
	w.drain = &drain[model.IntegrityRecord]{
		rdb:          rdb,
		queue:        config.WorkerKey.PersistIntegrityQueue,
		log:          w.log,
		bulk:         w.bulkInsert,
		single:       w.insert,
		requeuePause: 2 * time.Second,
	}
	return w
}

func (w *IntegrityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("IntegrityWorker started")
	w.drain.run(ctx)
}

type integrityRow struct {
	candidateID uuid.UUID
	sessionID   *uuid.UUID
}

func parseIntegrityIDs(rec model.IntegrityRecord) (integrityRow, error) {
	cid, err := uuid.Parse(rec.CandidateID)
	if err != nil {
		return integrityRow{}, fmt.Errorf("%w: candidate id %q", errSkip, rec.CandidateID)
	}
	row := integrityRow{candidateID: cid}
	if rec.SessionID != "" {
		sid, err := uuid.Parse(rec.SessionID)
		if err != nil {
			return integrityRow{}, fmt.Errorf("%w: session id %q", errSkip, rec.SessionID)
		}
		row.sessionID = &sid
	}
	return row, nil
}

func (w *IntegrityWorker) bulkInsert(ctx context.Context, batch []model.IntegrityRecord) error {
	rows := make([][]any, 0, len(batch))
	for _, rec := range batch {
		ids, err := parseIntegrityIDs(rec)
		if err != nil {
			// Let the row-by-row path drop the bad record.
			return err
		}
		rows = append(rows, []any{ids.candidateID, ids.sessionID, string(rec.Category), rec.Gesture, rec.OccurredAt()})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"integrity_events"},
		[]string{"candidate_id", "session_id", "category", "gesture", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *IntegrityWorker) insert(ctx context.Context, rec model.IntegrityRecord) error {
	ids, err := parseIntegrityIDs(rec)
	if err != nil {
		return err
	}
	_, err = w.pool.Exec(ctx,
		`INSERT INTO integrity_events (candidate_id, session_id, category, gesture, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ids.candidateID, ids.sessionID, string(rec.Category), rec.Gesture, rec.OccurredAt(),
	)
	return err
}
