package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/middleware"
	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/response"
	"github.com/stemsi/quizling/internal/validator"
)

// QuestionHandler proxies the question API as JSON.
type QuestionHandler struct {
	api api.QuestionAPI
	log zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(src api.QuestionAPI, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		api: src,
		log: log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/questions?difficulty=&search=&cursor=&limit=
// Lists one page of questions with cursor pagination.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var req model.ListQuestionsRequest
	if fields := validator.BindQuery(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, fields)
		return
	}

	resp, err := h.api.ListQuestions(c.Request.Context(), req.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, resp.Data, &response.Pagination{
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
		Total:      resp.Total,
	})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
// Returns a single question, answer and explanation included.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	var uri model.QuestionURI
	if fields := validator.BindURI(c, &uri); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, fields)
		return
	}
	if !api.ValidQuestionID(uri.ID) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	resp, err := h.api.GetQuestion(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	middleware.SetCacheControl(c, middleware.QuestionMaxAge)
	response.Success(c, http.StatusOK, resp.Data)
}

func (h *QuestionHandler) fail(c *gin.Context, err error) {
	if api.IsCanceled(err) {
		// client went away
		c.Abort()
		return
	}
	h.log.Warn().
		Err(err).
		Str("request_id", response.RequestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("Question API request failed")
	response.FailAPI(c, err)
}
