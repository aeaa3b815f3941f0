package model

// ListQuestionsRequest binds the query string of the JSON question proxy.
type ListQuestionsRequest struct {
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Search     string `form:"search" binding:"max=200"`
	Cursor     *int   `form:"cursor" binding:"omitempty,min=0"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Query converts the request into the outgoing collection request.
func (r ListQuestionsRequest) Query() QuestionQuery {
	return QuestionQuery{
		Difficulty: Difficulty(r.Difficulty),
		Search:     r.Search,
		Cursor:     r.Cursor,
		Limit:      r.Limit,
	}
}

// QuestionURI binds the :id route parameter.
type QuestionURI struct {
	ID string `uri:"id" binding:"required,max=200"`
}
