package model

import "encoding/json"

// QuestionQuery is the filter and pagination request for GET /questions.
// Zero values are omitted from the outgoing URL.
type QuestionQuery struct {
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Search     string     `json:"search,omitempty"`
	Cursor     *int       `json:"cursor,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

// PaginatedResponse is the body of GET /questions.
type PaginatedResponse struct {
	Data       []Question `json:"data" binding:"dive"`
	NextCursor *string    `json:"next_cursor"`
	HasMore    bool       `json:"has_more"`
	Total      *int       `json:"total"`
}

// QuestionResponse is the body of GET /questions/{id}.
type QuestionResponse struct {
	Data Question `json:"data"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status" binding:"required"`
	Service string `json:"service,omitempty"`
}

// ErrorResponse is the body the question API sends on non-2xx responses.
// Detail is a string, or a list of ValidationIssue for rejected requests.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// ValidationIssue is one entry of a request validation failure.
type ValidationIssue struct {
	Msg string `json:"msg"`
}
