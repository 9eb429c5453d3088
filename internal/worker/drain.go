package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentgate/assessment-backend/internal/metrics"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// errSkip marks a queue item that can never be stored and must be dropped.
var errSkip = errors.New("queue item skipped")

// drain moves JSON items from a Redis list into PostgreSQL in batches. A
// failed bulk write falls back to item-by-item writes; items that fail for
// reasons other than bad data go back on the queue. A nil bulk sends every
// item through single.
type drain[T any] struct {
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
	bulk   func(ctx context.Context, batch []T) error
	single func(ctx context.Context, item T) error

	// requeuePause slows the loop down after a requeue so a dead database
	// is not hammered.
	requeuePause time.Duration
}

func (d *drain[T]) run(ctx context.Context) {
	buffer := make([]T, 0, BatchSize)
	lastFlush := time.Now()

	for {
		// Checked before flushing so a cancelled ctx never reaches the writes.
		select {
		case <-ctx.Done():
			d.shutdown(buffer)
			return
		default:
		}

		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlush) >= BatchTimeout) {
			d.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		result, err := d.rdb.BLPop(ctx, PollTimeout, d.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var item T
		if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
			d.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			metrics.WorkerRows.WithLabelValues(d.queue, "dropped").Inc()
			continue
		}
		buffer = append(buffer, item)
	}
}

// flush writes a batch and reports how many items went back on the queue.
func (d *drain[T]) flush(ctx context.Context, batch []T) int {
	if len(batch) == 0 {
		return 0
	}
	if d.bulk != nil {
		err := d.bulk(ctx, batch)
		if err == nil {
			metrics.WorkerRows.WithLabelValues(d.queue, "bulk").Add(float64(len(batch)))
			return 0
		}
		d.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
	}

	var requeue []T
	for _, item := range batch {
		err := d.single(ctx, item)
		switch {
		case err == nil:
			metrics.WorkerRows.WithLabelValues(d.queue, "single").Inc()
		case isDataError(err):
			d.log.Error().Err(err).Msg("Dropping item that cannot be stored")
			metrics.WorkerRows.WithLabelValues(d.queue, "dropped").Inc()
		default:
			d.log.Error().Err(err).Msg("Write failed, requeueing")
			requeue = append(requeue, item)
		}
	}
	if len(requeue) > 0 {
		d.requeue(ctx, requeue)
	}
	return len(requeue)
}

func (d *drain[T]) requeue(ctx context.Context, items []T) {
	pipe := d.rdb.Pipeline()
	for _, item := range items {
		data, _ := json.Marshal(item)
		pipe.RPush(ctx, d.queue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		d.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	metrics.WorkerRows.WithLabelValues(d.queue, "requeued").Add(float64(len(items)))
	d.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	sleepCtx(ctx, d.requeuePause)
}

func (d *drain[T]) shutdown(buffer []T) {
	d.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	// Give it 5 seconds to flush to DB
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.flush(ctx, buffer)
}

// isDataError reports errors that retrying cannot fix: bad payloads and
// integrity constraint violations (SQLSTATE class 23) or invalid text
// representations (22P02).
func isDataError(err error) bool {
	if errors.Is(err, errSkip) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "23" || pgErr.Code == "22P02")
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
