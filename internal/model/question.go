package model

// Difficulty buckets used for paper selection.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single multiple-choice item as shown to the candidate.
// Options maps option key to option text; key order carries no meaning.
// OptionOrder, when set, is the order in which options are displayed.
type Question struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Difficulty  Difficulty        `json:"difficulty"`
	Prompt      string            `json:"question_text"`
	Options     map[string]string `json:"options"`
	OptionOrder []string          `json:"option_order,omitempty"`
}

// BankQuestion is a stored question including its answer key.
// It never leaves the backend.
type BankQuestion struct {
	Question
	CorrectOption string `json:"correct_option"`
}
