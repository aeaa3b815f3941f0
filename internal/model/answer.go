package model

// AnswerRecord captures the option a user picked for one question.
// Correctness is fixed at selection time.
type AnswerRecord struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer Label  `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// NewAnswerRecord grades label against q.
func NewAnswerRecord(q Question, label Label) AnswerRecord {
	return AnswerRecord{
		QuestionID:     q.ID,
		SelectedAnswer: label,
		IsCorrect:      q.IsCorrect(label),
	}
}
