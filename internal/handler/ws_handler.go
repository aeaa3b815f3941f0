package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/browse"
	"github.com/stemsi/quizling/internal/fetch"
	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/quiz"
	"github.com/stemsi/quizling/internal/validator"
	ws "github.com/stemsi/quizling/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler hosts the quiz and browse streams. Every connection owns its
// own session or loader and tears it down when the connection closes.
type WSHandler struct {
	api           api.QuestionAPI
	questionCount int
	debounce      time.Duration
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(src api.QuestionAPI, questionCount int, debounce time.Duration, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		api:           src,
		questionCount: questionCount,
		debounce:      debounce,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz
// Runs one quiz session over the connection. Every transition is pushed as
// a state event; correct answers stay hidden until the quiz is submitted.
func (h *WSHandler) QuizStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	out := ws.NewConn(conn)
	wsLog := h.log.With().
		Str("stream", "quiz").
		Str("session_id", uuid.NewString()).
		Logger()

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := quiz.NewSession(h.api, h.questionCount)
	defer session.Reset()
	session.OnChange(func(s quiz.Snapshot) {
		out.WriteTyped(ws.StateResponse{Event: ws.EventState, State: s.Public()})
	})
	defer session.OnChange(nil)

	out.WriteTyped(ws.StateResponse{Event: ws.EventState, State: session.Snapshot().Public()})
	wsLog.Info().Msg("Quiz connected")

	for {
		data, env, ok := h.read(conn, out, wsLog)
		if !ok {
			break
		}

		switch env.Action {
		case ws.ActionStart:
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := session.Start(ctx); err != nil {
					out.WriteError(quizMessage(err))
					return
				}
				if snap := session.Snapshot(); snap.Phase == quiz.PhaseError {
					wsLog.Warn().Str("error", snap.Error).Msg("Quiz failed to load")
				}
			}()
		case ws.ActionSelect:
			var req ws.SelectRequest
			if err := ws.Decode(data, &req); err != nil {
				out.WriteError(payloadMessage(err))
				continue
			}
			h.apply(out, session.SelectAnswer(req.Answer))
		case ws.ActionNext:
			h.apply(out, session.Next())
		case ws.ActionPrevious:
			h.apply(out, session.Previous())
		case ws.ActionSubmit:
			if err := session.Submit(); err != nil {
				out.WriteError(quizMessage(err))
				continue
			}
			wsLog.Info().
				Int("score", session.Score()).
				Int("total", session.Snapshot().TotalQuestions).
				Msg("Quiz submitted")
		case ws.ActionReset:
			session.Reset()
		case ws.ActionPing:
			out.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			out.WriteError("unknown action: " + string(env.Action))
		}
	}
}

// BrowseStream godoc
// WS /ws/v1/browse?search=&difficulty=&page=
// Streams the question list for the connection's filters. Search edits are
// debounced; only the latest query's results are pushed.
func (h *WSHandler) BrowseStream(c *gin.Context) {
	filters := browse.ParseFilters(c.Request.URL.Query())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("stream", "browse").
		Str("session_id", uuid.NewString()).
		Logger()

	s := newBrowseStream(h.api, ws.NewConn(conn), filters, h.debounce)
	defer s.close()

	s.load(filters)
	wsLog.Info().Str("query", filters.Encode()).Msg("Browse connected")

	for {
		data, env, ok := h.read(conn, s.out, wsLog)
		if !ok {
			return
		}

		switch env.Action {
		case ws.ActionFilter:
			var req ws.FilterRequest
			if err := ws.Decode(data, &req); err != nil {
				s.out.WriteError(payloadMessage(err))
				continue
			}
			s.filter(req)
		case ws.ActionRetry:
			s.retry()
		case ws.ActionPing:
			s.out.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			s.out.WriteError("unknown action: " + string(env.Action))
		}
	}
}

// read returns the next frame and its action. ok is false once the
// connection is gone.
func (h *WSHandler) read(conn *websocket.Conn, out *ws.Conn, log zerolog.Logger) ([]byte, ws.RequestEnvelope, bool) {
	for {
		data, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return nil, ws.RequestEnvelope{}, false
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			out.WriteError("invalid message")
			continue
		}
		return data, env, true
	}
}

func (h *WSHandler) apply(out *ws.Conn, err error) {
	if err != nil {
		out.WriteError(quizMessage(err))
	}
}

// ─── Browse stream state ────────────────────────────────────────────

type browseStream struct {
	out       *ws.Conn
	loader    *fetch.QuestionsLoader
	debouncer *fetch.Debouncer[browse.Filters]

	// loadMu keeps next and the loader's generation in step.
	loadMu sync.Mutex

	mu      sync.Mutex
	desired browse.Filters // latest the client asked for
	next    browse.Filters // filters of the load being started
	shown   browse.Filters // filters of the state last pushed
}

func newBrowseStream(src api.QuestionAPI, out *ws.Conn, filters browse.Filters, debounce time.Duration) *browseStream {
	s := &browseStream{out: out, desired: filters, next: filters, shown: filters}
	s.loader = fetch.NewQuestionsLoader(src, s.push)
	s.debouncer = fetch.NewDebouncer(debounce, func(f browse.Filters) {
		s.mu.Lock()
		current := s.desired == f
		s.mu.Unlock()
		if current {
			s.load(f)
		}
	})
	return s
}

func (s *browseStream) load(f browse.Filters) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.mu.Lock()
	s.next = f
	s.mu.Unlock()
	s.loader.Load(f.Query())
}

func (s *browseStream) retry() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.loader.Refetch()
}

// filter applies a client edit. Difficulty and page changes load at once,
// carrying any pending search with them; search-only edits are debounced.
func (s *browseStream) filter(req ws.FilterRequest) {
	s.mu.Lock()
	f := s.desired
	searchChanged, immediate := false, false
	if req.Search != nil && strings.TrimSpace(*req.Search) != f.Search {
		f = f.WithSearch(*req.Search)
		searchChanged = true
	}
	if req.Difficulty != nil {
		d, ok := model.ParseDifficulty(string(*req.Difficulty))
		if !ok {
			d = ""
		}
		if d != f.Difficulty {
			f = f.WithDifficulty(d)
			immediate = true
		}
	}
	if req.Page != nil && *req.Page != f.Page {
		f = f.WithPage(*req.Page)
		immediate = true
	}
	s.desired = f
	s.mu.Unlock()

	switch {
	case immediate:
		s.load(f)
	case searchChanged:
		s.debouncer.Set(f)
	}
}

// push runs under the loader's lock for every applied state.
func (s *browseStream) push(st fetch.State[fetch.QuestionsPage]) {
	s.mu.Lock()
	if st.Loading() {
		s.shown = s.next
	}
	f := s.shown
	s.mu.Unlock()

	ev := ws.QuestionsResponse{
		Event:      ws.EventQuestions,
		Status:     st.Status,
		Query:      f.Encode(),
		Page:       f.Page,
		Questions:  st.Data.Questions,
		Pagination: st.Data.Pagination,
	}
	if ev.Questions == nil {
		ev.Questions = []model.Question{}
	}
	if st.Err != nil {
		ev.Error = st.Err.Message
	}
	s.out.WriteTyped(ev)
}

func (s *browseStream) close() {
	s.debouncer.Stop()
	s.loader.Close()
}

// ─── Error text ─────────────────────────────────────────────────────

func quizMessage(err error) string {
	switch {
	case errors.Is(err, quiz.ErrNotInProgress):
		return "The quiz is not in progress."
	case errors.Is(err, quiz.ErrAlreadyStarted):
		return "The quiz has already started. Reset it to start again."
	case errors.Is(err, quiz.ErrInvalidLabel):
		return "Answers must be one of A, B, C or D."
	default:
		return api.Message(err)
	}
}

// payloadMessage flattens validation errors into one line, sorted by field.
func payloadMessage(err error) string {
	fields := validator.TranslateErrors(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fields[k]
	}
	return "invalid payload: " + strings.Join(msgs, "; ")
}
