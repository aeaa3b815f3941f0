package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/browse"
	"github.com/stemsi/quizling/internal/fetch"
	"github.com/stemsi/quizling/internal/middleware"
	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/response"
	"github.com/stemsi/quizling/internal/worker"
)

const (
	PathQuizStream   = "/ws/v1/quiz"
	PathBrowseStream = "/ws/v1/browse"
)

// ─── View models ────────────────────────────────────────────────────

type basePage struct {
	Title  string
	Active string
}

type errorView struct {
	Message  string
	RetryURL string
}

type homePage struct {
	basePage
	QuestionCount int
	Health        worker.Observation
}

type browsePage struct {
	basePage
	Filters      browse.Filters
	Difficulties []model.Difficulty
	Questions    []model.Question
	Pagination   fetch.Pagination
	Error        *errorView
	PrevURL      string
	NextURL      string
	StreamPath   string
}

type questionPage struct {
	basePage
	Question *model.Question
	Error    *errorView
	BackURL  string
}

type quizPage struct {
	basePage
	QuestionCount int
	StreamPath    string
}

// PageHandler renders the browser UI.
type PageHandler struct {
	api           api.QuestionAPI
	health        HealthSource
	questionCount int
	log           zerolog.Logger
}

func NewPageHandler(src api.QuestionAPI, health HealthSource, questionCount int, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		api:           src,
		health:        health,
		questionCount: questionCount,
		log:           log.With().Str("component", "page_handler").Logger(),
	}
}

// Home godoc
// GET /
func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", homePage{
		basePage:      basePage{Title: "Home", Active: "home"},
		QuestionCount: h.questionCount,
		Health:        h.health.Last(),
	})
}

// Browse godoc
// GET /questions?search=&difficulty=&page=
// Renders one page of the question bank. The page then attaches to the
// browse stream for live filtering.
func (h *PageHandler) Browse(c *gin.Context) {
	filters := browse.ParseFilters(c.Request.URL.Query())

	loader := fetch.NewQuestionsLoader(h.api, nil)
	defer loader.Close()
	if !wait(c, loader.Load(filters.Query())) {
		return
	}
	st := loader.State()

	page := browsePage{
		basePage:     basePage{Title: "Questions", Active: "questions"},
		Filters:      filters,
		Difficulties: model.Difficulties,
		Questions:    st.Data.Questions,
		Pagination:   st.Data.Pagination,
		StreamPath:   PathBrowseStream,
	}
	if filters.HasPrevious() {
		page.PrevURL = browseURL(filters.WithPage(filters.Page - 1))
	}

	status := http.StatusOK
	if st.Err != nil {
		h.log.Warn().Err(st.Err).Str("query", filters.Encode()).Msg("Browse load failed")
		status = errorStatus(st.Err)
		page.Error = &errorView{Message: st.Err.Message, RetryURL: c.Request.URL.RequestURI()}
	} else if st.Data.Pagination.HasMore {
		page.NextURL = browseURL(filters.WithPage(filters.Page + 1))
	}
	c.HTML(status, "browse.html", page)
}

// Question godoc
// GET /questions/:id
func (h *PageHandler) Question(c *gin.Context) {
	if !api.ValidQuestionID(c.Param("id")) {
		h.NotFound(c)
		return
	}

	loader := fetch.NewQuestionLoader(h.api, nil)
	defer loader.Close()
	if !wait(c, loader.Load(c.Param("id"))) {
		return
	}
	st := loader.State()

	page := questionPage{
		basePage: basePage{Title: "Question", Active: "questions"},
		BackURL:  "/questions",
	}
	switch st.Status {
	case fetch.StatusSuccess:
		page.Question = st.Data
		middleware.SetCacheControl(c, middleware.QuestionMaxAge)
		c.HTML(http.StatusOK, "question.html", page)
	case fetch.StatusError:
		h.log.Warn().Err(st.Err).Str("id", c.Param("id")).Msg("Question load failed")
		page.Error = &errorView{Message: st.Err.Message}
		if st.Err.Status != http.StatusNotFound {
			page.Error.RetryURL = c.Request.URL.RequestURI()
		}
		c.HTML(errorStatus(st.Err), "question.html", page)
	default:
		h.NotFound(c)
	}
}

// Quiz godoc
// GET /quiz
// The quiz itself runs over the quiz stream.
func (h *PageHandler) Quiz(c *gin.Context) {
	c.HTML(http.StatusOK, "quiz.html", quizPage{
		basePage:      basePage{Title: "Quiz", Active: "quiz"},
		QuestionCount: h.questionCount,
		StreamPath:    PathQuizStream,
	})
}

// NotFound answers unknown routes: JSON under /api, a page elsewhere.
func (h *PageHandler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	c.HTML(http.StatusNotFound, "notfound.html", basePage{Title: "Not found"})
}

// ─── Helpers ────────────────────────────────────────────────────────

// wait blocks until done closes or the client disconnects.
func wait(c *gin.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-c.Request.Context().Done():
		return false
	}
}

func browseURL(f browse.Filters) string {
	if q := f.Encode(); q != "" {
		return "/questions?" + q
	}
	return "/questions"
}

// errorStatus mirrors the upstream status when it is an error status,
// otherwise 502.
func errorStatus(e *api.Error) int {
	if e.Status >= 400 && e.Status <= 599 {
		return e.Status
	}
	return http.StatusBadGateway
}
