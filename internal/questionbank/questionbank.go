// Package questionbank holds the built-in question bank and the paper
// dealing rules shared by the database-backed and embedded sources.
package questionbank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/talentgate/assessment-backend/internal/model"
)

//go:embed bank.json
var bankJSON []byte

// Load parses the embedded bank.
func Load() ([]model.BankQuestion, error) {
	var bank []model.BankQuestion
	if err := json.Unmarshal(bankJSON, &bank); err != nil {
		return nil, fmt.Errorf("parse embedded question bank: %w", err)
	}
	return bank, nil
}

// Mix is the number of questions dealt per difficulty.
type Mix map[model.Difficulty]int

// DefaultMix deals 4 easy, 3 medium and 3 hard questions.
var DefaultMix = Mix{
	model.DifficultyEasy:   4,
	model.DifficultyMedium: 3,
	model.DifficultyHard:   3,
}

// Deal picks up to mix[d] questions of each difficulty, shuffles the paper
// and the display order of each question's options. A difficulty with fewer
// questions than requested contributes all it has. Answer keys are dropped.
func Deal(bank []model.BankQuestion, mix Mix, rng *rand.Rand) []model.Question {
	byDifficulty := make(map[model.Difficulty][]model.BankQuestion)
	for _, q := range bank {
		byDifficulty[q.Difficulty] = append(byDifficulty[q.Difficulty], q)
	}

	var paper []model.Question
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		pool := byDifficulty[d]
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		n := mix[d]
		if n > len(pool) {
			n = len(pool)
		}
		for _, q := range pool[:n] {
			paper = append(paper, present(q.Question, rng))
		}
	}

	rng.Shuffle(len(paper), func(i, j int) { paper[i], paper[j] = paper[j], paper[i] })
	return paper
}

func present(q model.Question, rng *rand.Rand) model.Question {
	opts := make(map[string]string, len(q.Options))
	order := make([]string, 0, len(q.Options))
	for k, v := range q.Options {
		opts[k] = v
		order = append(order, k)
	}
	sort.Strings(order)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	q.Options = opts
	q.OptionOrder = order
	return q
}
