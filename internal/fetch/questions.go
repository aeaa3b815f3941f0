package fetch

import (
	"context"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

// Pagination is the continuation metadata of a question page, copied
// verbatim from the API response.
type Pagination struct {
	HasMore    bool    `json:"has_more"`
	Total      *int    `json:"total"`
	NextCursor *string `json:"next_cursor"`
}

// QuestionsPage is one page of the question collection.
type QuestionsPage struct {
	Query      model.QuestionQuery `json:"query"`
	Questions  []model.Question    `json:"questions"`
	Pagination Pagination          `json:"pagination"`
}

// QuestionsLoader tracks a filtered, paginated question collection.
type QuestionsLoader struct {
	src api.QuestionAPI
	res *Resource[QuestionsPage]
}

// NewQuestionsLoader creates an idle loader backed by src.
func NewQuestionsLoader(src api.QuestionAPI, onChange func(State[QuestionsPage])) *QuestionsLoader {
	return &QuestionsLoader{src: src, res: NewResource(onChange)}
}

// Load requests the page described by q, superseding any earlier request.
func (l *QuestionsLoader) Load(q model.QuestionQuery) <-chan struct{} {
	return l.res.Load(func(ctx context.Context) (QuestionsPage, error) {
		resp, err := l.src.ListQuestions(ctx, q)
		if err != nil {
			return QuestionsPage{Query: q, Questions: []model.Question{}}, err
		}
		return QuestionsPage{
			Query:     q,
			Questions: resp.Data,
			Pagination: Pagination{
				HasMore:    resp.HasMore,
				Total:      resp.Total,
				NextCursor: resp.NextCursor,
			},
		}, nil
	})
}

// Refetch repeats the last load.
func (l *QuestionsLoader) Refetch() <-chan struct{} { return l.res.Refetch() }

// State returns the current snapshot. On error the page is empty and the
// pagination reset.
func (l *QuestionsLoader) State() State[QuestionsPage] {
	s := l.res.State()
	if s.Data.Questions == nil {
		s.Data.Questions = []model.Question{}
	}
	return s
}

// Close tears the loader down.
func (l *QuestionsLoader) Close() { l.res.Close() }
