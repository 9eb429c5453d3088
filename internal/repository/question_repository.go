package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentgate/assessment-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListActive retrieves every active bank question, answer keys included.
func (r *QuestionRepository) ListActive(ctx context.Context) ([]model.BankQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, difficulty, question_text, options, correct_option
		 FROM questions WHERE active
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.BankQuestion
	for rows.Next() {
		var q model.BankQuestion
		if err := rows.Scan(&q.ID, &q.Category, &q.Difficulty, &q.Prompt, &q.Options, &q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpsertBatch inserts or refreshes bank questions in one round trip.
func (r *QuestionRepository) UpsertBatch(ctx context.Context, questions []model.BankQuestion) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (id, category, difficulty, question_text, options, correct_option)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET category = EXCLUDED.category,
			     difficulty = EXCLUDED.difficulty,
			     question_text = EXCLUDED.question_text,
			     options = EXCLUDED.options,
			     correct_option = EXCLUDED.correct_option,
			     active = TRUE`,
			q.ID, q.Category, q.Difficulty, q.Prompt, q.Options, q.CorrectOption,
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}
