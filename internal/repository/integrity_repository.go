package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/model"
)

// IntegrityRepository provides data access for integrity review. It combines
// PostgreSQL (persisted events) and Redis (live answer journal).
type IntegrityRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewIntegrityRepository creates a new IntegrityRepository.
func NewIntegrityRepository(pool *pgxpool.Pool, rdb *redis.Client) *IntegrityRepository {
	return &IntegrityRepository{pool: pool, rdb: rdb}
}

// CountsByCategory returns how many persisted events of each category a candidate has.
func (r *IntegrityRepository) CountsByCategory(ctx context.Context, candidateID uuid.UUID) (map[model.IntegrityCategory]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*)
		 FROM integrity_events
		 WHERE candidate_id = $1
		 GROUP BY category`,
		candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.IntegrityCategory]int64)
	for rows.Next() {
		var cat model.IntegrityCategory
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// Recent returns the candidate's latest persisted events, newest first.
func (r *IntegrityRepository) Recent(ctx context.Context, candidateID uuid.UUID, limit int) ([]model.IntegrityRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id::text, COALESCE(session_id::text, ''), category, gesture, occurred_at
		 FROM integrity_events
		 WHERE candidate_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.IntegrityRecord
	for rows.Next() {
		var rec model.IntegrityRecord
		var at time.Time
		if err := rows.Scan(&rec.CandidateID, &rec.SessionID, &rec.Category, &rec.Gesture, &at); err != nil {
			return nil, err
		}
		rec.Timestamp = at.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AnsweredCount returns how many answers the candidate's live session has journaled.
func (r *IntegrityRepository) AnsweredCount(ctx context.Context, candidateID uuid.UUID) (int64, error) {
	return r.rdb.HLen(ctx, config.CacheKey.CandidateAnswersKey(candidateID.String())).Result()
}
