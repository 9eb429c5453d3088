package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/talentgate/assessment-backend/internal/config"
	"github.com/talentgate/assessment-backend/internal/database"
	"github.com/talentgate/assessment-backend/internal/logger"
	"github.com/talentgate/assessment-backend/internal/model"
	"github.com/talentgate/assessment-backend/internal/questionbank"
	"github.com/talentgate/assessment-backend/internal/repository"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "", "JSON question bank to load (default: built-in bank)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With().Str("component", "seed_questions").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	bank, err := loadBank(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read question bank")
	}

	counts := map[model.Difficulty]int{}
	for _, q := range bank {
		if q.ID == "" || q.CorrectOption == "" || len(q.Options) < 2 {
			log.Fatal().Str("id", q.ID).Msg("Question is missing an id, options or answer key")
		}
		if _, ok := q.Options[q.CorrectOption]; !ok {
			log.Fatal().Str("id", q.ID).Str("correct_option", q.CorrectOption).Msg("Answer key is not one of the options")
		}
		counts[q.Difficulty]++
	}
	for d, want := range questionbank.DefaultMix {
		if counts[d] < want {
			log.Warn().Str("difficulty", string(d)).Int("have", counts[d]).Int("want", want).
				Msg("Bank cannot fill a full paper at this difficulty")
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if err := repository.NewQuestionRepository(pool).UpsertBatch(ctx, bank); err != nil {
		log.Fatal().Err(err).Msg("Failed to upsert questions")
	}

	log.Info().
		Int("questions", len(bank)).
		Int("easy", counts[model.DifficultyEasy]).
		Int("medium", counts[model.DifficultyMedium]).
		Int("hard", counts[model.DifficultyHard]).
		Msg("Question bank seeded")
}

func loadBank(file string) ([]model.BankQuestion, error) {
	if file == "" {
		return questionbank.Load()
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var bank []model.BankQuestion
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, err
	}
	return bank, nil
}
