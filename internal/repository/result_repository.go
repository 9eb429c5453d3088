package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgate/assessment-backend/internal/model"
)

// ErrResultNotFound is returned when a candidate has no stored result.
var ErrResultNotFound = errors.New("assessment result not found")

// ResultRepository handles assessment result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// LatestByCandidate returns the candidate's most recent result.
func (r *ResultRepository) LatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.StoredResult, error) {
	res := &model.StoredResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, session_id, status, score::float8, answers, answer_count, elapsed_seconds, created_at
		 FROM assessment_results
		 WHERE candidate_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, candidateID,
	).Scan(&res.ID, &res.CandidateID, &res.SessionID, &res.Status, &res.Score, &res.Answers, &res.AnswerCount, &res.ElapsedSeconds, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
