package websocket

import (
	"github.com/stemsi/quizling/internal/fetch"
	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/quiz"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	// quiz stream
	ActionStart    Action = "start"
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionSubmit   Action = "submit"
	ActionReset    Action = "reset"

	// browse stream
	ActionFilter Action = "filter"
	ActionRetry  Action = "retry"

	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SelectRequest picks an option for the current question.
type SelectRequest struct {
	Action Action      `json:"action"`
	Answer model.Label `json:"answer" binding:"required,oneof=A B C D"`
}

// FilterRequest replaces the browse filters. Search changes are debounced;
// difficulty and page changes load immediately.
type FilterRequest struct {
	Action     Action            `json:"action"`
	Search     *string           `json:"search"`
	Difficulty *model.Difficulty `json:"difficulty"`
	Page       *int              `json:"page" binding:"omitempty,min=1"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventQuestions Event = "questions"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse pushes the whole quiz state after every transition.
type StateResponse struct {
	Event Event         `json:"event"`
	State quiz.Snapshot `json:"state"`
}

// QuestionsResponse pushes the browse list for the current filters.
type QuestionsResponse struct {
	Event      Event            `json:"event"`
	Status     fetch.Status     `json:"status"`
	Query      string           `json:"query"`
	Page       int              `json:"page"`
	Questions  []model.Question `json:"questions"`
	Pagination fetch.Pagination `json:"pagination"`
	Error      string           `json:"error,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
