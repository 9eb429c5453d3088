package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgate/assessment-backend/internal/model"
)

var (
	ErrDuplicateEmail    = errors.New("candidate with this email already exists")
	ErrCandidateNotFound = errors.New("candidate not found")
)

// CandidateRepository handles candidate data access.
type CandidateRepository struct {
	pool *pgxpool.Pool
}

// NewCandidateRepository creates a new CandidateRepository.
func NewCandidateRepository(pool *pgxpool.Pool) *CandidateRepository {
	return &CandidateRepository{pool: pool}
}

// Create inserts a new candidate and fills in its ID and creation time.
func (r *CandidateRepository) Create(ctx context.Context, c *model.Candidate) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO candidates (full_name, email, technology_track, resume_url)
		 VALUES ($1, LOWER($2), $3, $4)
		 RETURNING id, email, created_at`,
		c.FullName, c.Email, c.TechnologyTrack, c.ResumeURL,
	).Scan(&c.ID, &c.Email, &c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID retrieves a candidate by ID.
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	c := &model.Candidate{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email, technology_track, resume_url, created_at
		 FROM candidates WHERE id = $1`, id,
	).Scan(&c.ID, &c.FullName, &c.Email, &c.TechnologyTrack, &c.ResumeURL, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
