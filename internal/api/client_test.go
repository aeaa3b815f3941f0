package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizling/internal/model"
)

const questionJSON = `{
	"id": "q1",
	"question": "What is 2 + 2?",
	"options": [
		{"label": "A", "text": "3"},
		{"label": "B", "text": "4"},
		{"label": "C", "text": "5"},
		{"label": "D", "text": "22"}
	],
	"correct_answer": "B",
	"explanation": null,
	"difficulty": "easy"
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
}

func requireAPIError(t *testing.T, err error) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T: %v", err, err)
	}
	return apiErr
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","service":"quizling-api"}`))
	})

	got, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if got.Status != "healthy" || got.Service != "quizling-api" {
		t.Fatalf("unexpected health %+v", got)
	}
}

func TestListQuestionsSendsQuery(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/questions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"data":[` + questionJSON + `],"next_cursor":"40","has_more":true,"total":57}`))
	})

	cursor := 20
	resp, err := c.ListQuestions(context.Background(), model.QuestionQuery{
		Difficulty: model.DifficultyHard,
		Search:     "JavaScript",
		Cursor:     &cursor,
		Limit:      20,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := map[string]string{"difficulty": "hard", "search": "JavaScript", "cursor": "20", "limit": "20"}
	for k, v := range want {
		if gotQuery.Get(k) != v {
			t.Fatalf("param %s: expected %q, got %q", k, v, gotQuery.Get(k))
		}
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "q1" {
		t.Fatalf("unexpected data %+v", resp.Data)
	}
	if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor != "40" || resp.Total == nil || *resp.Total != 57 {
		t.Fatalf("pagination not copied verbatim: %+v", resp)
	}
}

func TestEncodeQueryOmitsUnset(t *testing.T) {
	v := EncodeQuery(model.QuestionQuery{Difficulty: "invalid", Search: "   "})
	if len(v) != 0 {
		t.Fatalf("expected no params, got %v", v)
	}

	zero := 0
	v = EncodeQuery(model.QuestionQuery{Cursor: &zero})
	if v.Get("cursor") != "0" {
		t.Fatalf("expected explicit zero cursor, got %v", v)
	}
}

func TestValidQuestionID(t *testing.T) {
	tests := map[string]bool{
		"q1": true, "a/b": true, "...": true, ".hidden": true,
		"": false, "  ": false, ".": false, "..": false,
	}
	for id, want := range tests {
		if got := ValidQuestionID(id); got != want {
			t.Errorf("ValidQuestionID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestGetQuestion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/questions/a%2Fb" {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"data":` + questionJSON + `}`))
	})

	resp, err := c.GetQuestion(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.Data.CorrectAnswer != model.LabelB {
		t.Fatalf("unexpected question %+v", resp.Data)
	}
}

func TestServerErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", http.StatusNotFound, `{"detail":"Question not found"}`, "Question not found"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"bad cursor"},{"msg":"bad limit"}]}`, "bad cursor; bad limit"},
		{"no body", http.StatusInternalServerError, ``, "Internal Server Error"},
		{"unknown status", 599, `{}`, "Request failed with status code 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.GetQuestion(context.Background(), "q1")
			apiErr := requireAPIError(t, err)
			if apiErr.Status != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Message != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, apiErr.Message)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base, Logger: zerolog.Nop()})
	_, err := c.Health(context.Background())
	apiErr := requireAPIError(t, err)
	if apiErr.Message != MsgNetwork {
		t.Fatalf("expected network message, got %q", apiErr.Message)
	}
	if apiErr.HasStatus() {
		t.Fatalf("expected no status, got %d", apiErr.Status)
	}
}

func TestMisconfigurationSendsNothing(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := c.GetQuestion(context.Background(), "  ")
	apiErr := requireAPIError(t, err)
	if apiErr.Message == "" || apiErr.HasStatus() {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if calls != 0 {
		t.Fatalf("expected no request, got %d", calls)
	}

	for _, id := range []string{".", "..", " .. "} {
		_, err := c.GetQuestion(context.Background(), id)
		apiErr := requireAPIError(t, err)
		if apiErr.Message == "" || apiErr.HasStatus() {
			t.Fatalf("id %q: unexpected error %+v", id, apiErr)
		}
	}
	if calls != 0 {
		t.Fatalf("dot ids must not reach the server, got %d requests", calls)
	}

	for _, base := range []string{"", "ftp://example.com", "http://"} {
		bad := New(Options{BaseURL: base, Logger: zerolog.Nop()})
		_, err := bad.Health(context.Background())
		apiErr := requireAPIError(t, err)
		if apiErr.Message == "" || apiErr.HasStatus() {
			t.Fatalf("base %q: unexpected error %+v", base, apiErr)
		}
	}
}

func TestInvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"q1","question":"?","options":[],"correct_answer":"Z","difficulty":"easy"}],"has_more":false}`))
	})

	_, err := c.ListQuestions(context.Background(), model.QuestionQuery{})
	apiErr := requireAPIError(t, err)
	if apiErr.Message != MsgInvalidResponse {
		t.Fatalf("expected invalid response message, got %q", apiErr.Message)
	}
}

func TestCancellation(t *testing.T) {
	started := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Health(ctx)
	if !IsCanceled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if requireAPIError(t, err).Message != MsgCancelled {
		t.Fatalf("unexpected message %q", Message(err))
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Fatal("expected nil")
	}
	e := AsError(errors.New("boom"))
	if e.Message != MsgUnexpected {
		t.Fatalf("expected generic message, got %q", e.Message)
	}
	wrapped := AsError(errors.Join(errors.New("ctx"), &Error{Message: "inner", Status: 404}))
	if wrapped.Message != "inner" || wrapped.Status != 404 {
		t.Fatalf("expected inner error, got %+v", wrapped)
	}
}
