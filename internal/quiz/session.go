// Package quiz implements the in-memory quiz session: question sequencing,
// answer capture, scoring and the phase transitions between them.
package quiz

import (
	"context"
	"errors"
	"sync"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

// Phase is the lifecycle stage of a Session.
type Phase string

const (
	PhaseNotStarted Phase = "not-started"
	PhaseLoading    Phase = "loading"
	PhaseError      Phase = "error"
	PhaseInProgress Phase = "in-progress"
	PhaseComplete   Phase = "complete"
)

const (
	// DefaultQuestionCount is used when a Session is created with count <= 0.
	DefaultQuestionCount = 15
	// MaxQuestionCount is the largest quiz the session will request.
	MaxQuestionCount = 50

	// MsgNoQuestions is the error shown when the API returns an empty quiz.
	MsgNoQuestions = "No questions available. Please try again later."
)

var (
	ErrNotInProgress  = errors.New("quiz: not in progress")
	ErrAlreadyStarted = errors.New("quiz: already started")
	ErrInvalidLabel   = errors.New("quiz: invalid answer label")
)

// QuestionSource supplies quiz questions. api.Client satisfies it.
type QuestionSource interface {
	ListQuestions(ctx context.Context, q model.QuestionQuery) (*model.PaginatedResponse, error)
}

// Session is one quiz attempt. It is safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	src QuestionSource
	n   int

	gen       uint64
	phase     Phase
	questions []model.Question
	position  int
	answers   map[string]model.AnswerRecord
	err       *api.Error

	onChange func(Snapshot)
}

// NewSession creates a not-started session that will request count
// questions from src. count is clamped to [1, MaxQuestionCount].
func NewSession(src QuestionSource, count int) *Session {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	if count > MaxQuestionCount {
		count = MaxQuestionCount
	}
	s := &Session{src: src, n: count}
	s.clear()
	return s
}

// QuestionCount is the number of questions Start requests.
func (s *Session) QuestionCount() int {
	return s.n
}

// OnChange registers fn to receive a snapshot after every transition,
// including no-op navigation. fn runs under the session lock and must not
// call back into the session.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}

func (s *Session) clear() {
	s.phase = PhaseNotStarted
	s.questions = []model.Question{}
	s.position = 0
	s.answers = make(map[string]model.AnswerRecord)
	s.err = nil
}

// Start fetches the quiz questions and blocks until they arrive. It is only
// valid from not-started. A Reset while the fetch is in flight wins: the
// result is dropped and Start returns nil.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.phase = PhaseLoading
	s.gen++
	gen := s.gen
	s.notify()
	s.mu.Unlock()

	resp, err := s.src.ListQuestions(ctx, model.QuestionQuery{Limit: s.n})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}

	switch {
	case err != nil:
		s.phase = PhaseError
		s.questions = []model.Question{}
		s.err = api.AsError(err)
	case resp == nil || len(resp.Data) == 0:
		s.phase = PhaseError
		s.err = &api.Error{Message: MsgNoQuestions}
	default:
		s.phase = PhaseInProgress
		s.questions = append([]model.Question(nil), resp.Data...)
		s.position = 0
		s.answers = make(map[string]model.AnswerRecord)
		s.err = nil
	}
	s.notify()
	return nil
}

// SelectAnswer records label for the current question, replacing any
// earlier choice. The position does not move.
func (s *Session) SelectAnswer(label model.Label) error {
	if !label.Valid() {
		return ErrInvalidLabel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	q := s.questions[s.position]
	s.answers[q.ID] = model.NewAnswerRecord(q, label)
	s.notify()
	return nil
}

// Next moves forward one question. At the last question it does nothing.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if s.position < len(s.questions)-1 {
		s.position++
	}
	s.notify()
	return nil
}

// Previous moves back one question. At the first question it does nothing.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInProgress {
		return ErrNotInProgress
	}
	if s.position > 0 {
		s.position--
	}
	s.notify()
	return nil
}

// Submit finishes the quiz. Unanswered questions are allowed. Submitting a
// completed quiz again is a no-op.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseComplete:
		return nil
	case PhaseInProgress:
		s.phase = PhaseComplete
		s.notify()
		return nil
	}
	return ErrNotInProgress
}

// Reset discards the attempt from any phase, including one still loading.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.clear()
	s.notify()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Score counts the correct answers recorded so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return score(s.answers)
}

func score(answers map[string]model.AnswerRecord) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the whole session state with derived values.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Phase:          s.phase,
		Questions:      append([]model.Question{}, s.questions...),
		Position:       s.position,
		Answers:        make(map[string]model.AnswerRecord, len(s.answers)),
		TotalQuestions: len(s.questions),
		Score:          score(s.answers),
		QuestionCount:  s.n,
	}
	for id, a := range s.answers {
		snap.Answers[id] = a
	}
	if s.err != nil {
		snap.Error = s.err.Message
	}

	if s.position < len(s.questions) {
		q := s.questions[s.position]
		snap.Current = &q
		if a, ok := s.answers[q.ID]; ok {
			label := a.SelectedAnswer
			snap.SelectedAnswer = &label
		}
	}
	snap.IsFirst = s.position == 0
	snap.IsLast = s.position == len(s.questions)-1
	snap.CanPrevious = s.phase == PhaseInProgress && s.position > 0
	snap.CanNext = s.phase == PhaseInProgress && s.position < len(s.questions)-1
	return snap
}
