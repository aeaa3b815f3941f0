package model

import "strings"

// Label identifies one of the four answer options of a question.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels lists every option label in display order.
var Labels = []Label{LabelA, LabelB, LabelC, LabelD}

// ParseLabel normalizes user input ("b", " B ") into a Label.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Valid reports whether l is one of A, B, C or D.
func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Difficulty is the difficulty tier of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every tier from easiest to hardest.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty returns the tier named by s. Unknown values yield false
// and must be treated as "no filter".
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Option is a single labeled answer choice.
type Option struct {
	Label Label  `json:"label" binding:"required,oneof=A B C D"`
	Text  string `json:"text" binding:"required"`
}

// Question is a multiple choice question as served by the question API.
// Questions are read-only copies; the API owns them.
type Question struct {
	ID            string     `json:"id" binding:"required"`
	Question      string     `json:"question" binding:"required"`
	Options       []Option   `json:"options" binding:"len=4,option_labels,dive"`
	CorrectAnswer Label      `json:"correct_answer" binding:"required,oneof=A B C D"`
	Explanation   *string    `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty" binding:"required,oneof=easy medium hard"`
}

// Option returns the option carrying label l.
func (q Question) Option(l Label) (Option, bool) {
	for _, o := range q.Options {
		if o.Label == l {
			return o, true
		}
	}
	return Option{}, false
}

// IsCorrect reports whether l is the correct answer.
func (q Question) IsCorrect(l Label) bool {
	return l == q.CorrectAnswer
}

// HasExplanation reports whether the question carries a non-empty explanation.
func (q Question) HasExplanation() bool {
	return q.Explanation != nil && strings.TrimSpace(*q.Explanation) != ""
}
