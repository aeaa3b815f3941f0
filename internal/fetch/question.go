package fetch

import (
	"context"
	"strings"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

// QuestionLoader tracks a single question by id.
type QuestionLoader struct {
	src api.QuestionAPI
	res *Resource[*model.Question]
}

// NewQuestionLoader creates an idle loader backed by src.
func NewQuestionLoader(src api.QuestionAPI, onChange func(State[*model.Question])) *QuestionLoader {
	return &QuestionLoader{src: src, res: NewResource(onChange)}
}

// Load switches the loader to id. An empty id clears the loader without
// issuing a request.
func (l *QuestionLoader) Load(id string) <-chan struct{} {
	id = strings.TrimSpace(id)
	if id == "" {
		l.res.Reset()
		return closedChan()
	}
	return l.res.Load(func(ctx context.Context) (*model.Question, error) {
		resp, err := l.src.GetQuestion(ctx, id)
		if err != nil {
			return nil, err
		}
		q := resp.Data
		return &q, nil
	})
}

// Refetch repeats the last load.
func (l *QuestionLoader) Refetch() <-chan struct{} { return l.res.Refetch() }

// State returns the current snapshot.
func (l *QuestionLoader) State() State[*model.Question] { return l.res.State() }

// Close tears the loader down.
func (l *QuestionLoader) Close() { l.res.Close() }

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
