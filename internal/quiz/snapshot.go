package quiz

import (
	"math"

	"github.com/stemsi/quizling/internal/model"
)

// Snapshot is an immutable view of a Session.
type Snapshot struct {
	Phase          Phase                         `json:"phase"`
	Questions      []model.Question              `json:"questions"`
	Position       int                           `json:"position"`
	Answers        map[string]model.AnswerRecord `json:"answers"`
	Error          string                        `json:"error,omitempty"`
	QuestionCount  int                           `json:"question_count"`
	Current        *model.Question               `json:"current_question"`
	SelectedAnswer *model.Label                  `json:"selected_answer"`
	TotalQuestions int                           `json:"total_questions"`
	Score          int                           `json:"score"`
	IsFirst        bool                          `json:"is_first"`
	IsLast         bool                          `json:"is_last"`
	CanNext        bool                          `json:"can_next"`
	CanPrevious    bool                          `json:"can_previous"`
	Review         *Review                       `json:"review,omitempty"`
}

// Public strips what a player must not see while answering: correct
// answers, explanations and per-answer correctness. A completed quiz is
// returned whole, with its Review attached.
func (s Snapshot) Public() Snapshot {
	if s.Phase == PhaseComplete {
		r := s.BuildReview()
		s.Review = &r
		return s
	}

	qs := make([]model.Question, len(s.Questions))
	for i, q := range s.Questions {
		qs[i] = redact(q)
	}
	s.Questions = qs

	if s.Current != nil {
		q := redact(*s.Current)
		s.Current = &q
	}

	answers := make(map[string]model.AnswerRecord, len(s.Answers))
	for id, a := range s.Answers {
		a.IsCorrect = false
		answers[id] = a
	}
	s.Answers = answers
	s.Score = 0
	return s
}

func redact(q model.Question) model.Question {
	q.CorrectAnswer = ""
	q.Explanation = nil
	q.Options = append([]model.Option(nil), q.Options...)
	return q
}

// Tier is the performance band of a finished quiz.
type Tier struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

var (
	TierOutstanding  = Tier{Label: "Outstanding!", Message: "You have excellent knowledge!"}
	TierGreatJob     = Tier{Label: "Great Job!", Message: "You did very well!"}
	TierGoodEffort   = Tier{Label: "Good Effort", Message: "Keep practicing to improve!"}
	TierKeepLearning = Tier{Label: "Keep Learning", Message: "Review the material and try again!"}
)

// TierFor maps a percentage to its performance band.
func TierFor(percentage int) Tier {
	switch {
	case percentage >= 90:
		return TierOutstanding
	case percentage >= 70:
		return TierGreatJob
	case percentage >= 50:
		return TierGoodEffort
	default:
		return TierKeepLearning
	}
}

// ReviewItem is one question of a finished quiz with the player's answer.
type ReviewItem struct {
	Number   int            `json:"number"`
	Question model.Question `json:"question"`
	Selected *model.Label   `json:"selected_answer"`
	Correct  bool           `json:"correct"`
}

// Answered reports whether the player picked an option.
func (i ReviewItem) Answered() bool { return i.Selected != nil }

// Review summarizes a finished quiz in question order.
type Review struct {
	Items      []ReviewItem `json:"items"`
	Score      int          `json:"score"`
	Total      int          `json:"total"`
	Percentage int          `json:"percentage"`
	Tier       Tier         `json:"tier"`
}

// BuildReview grades the snapshot. Unanswered questions count as wrong.
func (s Snapshot) BuildReview() Review {
	r := Review{
		Items: make([]ReviewItem, len(s.Questions)),
		Score: s.Score,
		Total: len(s.Questions),
	}
	for i, q := range s.Questions {
		item := ReviewItem{Number: i + 1, Question: q}
		if a, ok := s.Answers[q.ID]; ok {
			label := a.SelectedAnswer
			item.Selected = &label
			item.Correct = a.IsCorrect
		}
		r.Items[i] = item
	}
	r.Percentage = Percentage(r.Score, r.Total)
	r.Tier = TierFor(r.Percentage)
	return r
}

// Percentage is score/total rounded to the nearest whole percent.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
