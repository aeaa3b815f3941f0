package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load to settle")
	}
}

func TestResourceSuccess(t *testing.T) {
	r := NewResource[string](nil)
	if r.State().Status != StatusIdle {
		t.Fatalf("expected idle, got %s", r.State().Status)
	}

	wait(t, r.Load(func(ctx context.Context) (string, error) { return "ok", nil }))

	s := r.State()
	if s.Status != StatusSuccess || s.Data != "ok" || s.Err != nil {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestResourceLoadingFlag(t *testing.T) {
	r := NewResource[string](nil)
	release := make(chan struct{})
	done := r.Load(func(ctx context.Context) (string, error) {
		<-release
		return "ok", nil
	})
	if !r.State().Loading() {
		t.Fatalf("expected loading, got %s", r.State().Status)
	}
	close(release)
	wait(t, done)
	if r.State().Loading() {
		t.Fatal("expected load to have settled")
	}
}

func TestResourceErrorIsNormalized(t *testing.T) {
	r := NewResource[string](nil)
	wait(t, r.Load(func(ctx context.Context) (string, error) {
		return "partial", &api.Error{Message: "Question not found", Status: 404}
	}))

	s := r.State()
	if s.Status != StatusError || s.Err == nil || s.Err.Message != "Question not found" || s.Err.Status != 404 {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.Data != "" {
		t.Fatalf("expected data cleared on error, got %q", s.Data)
	}

	wait(t, r.Load(func(ctx context.Context) (string, error) { return "", errors.New("boom") }))
	if got := r.State().Err.Message; got != api.MsgUnexpected {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestResourceStaleResponseDiscarded(t *testing.T) {
	r := NewResource[string](nil)
	release := make(chan struct{})

	slow := r.Load(func(ctx context.Context) (string, error) {
		<-release
		return "slow", nil
	})
	fast := r.Load(func(ctx context.Context) (string, error) { return "fast", nil })

	wait(t, fast)
	close(release)
	wait(t, slow)

	if got := r.State().Data; got != "fast" {
		t.Fatalf("expected latest result, got %q", got)
	}
}

func TestResourceCancelsSupersededAttempt(t *testing.T) {
	r := NewResource[string](nil)
	cancelled := make(chan struct{})

	first := r.Load(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "", ctx.Err()
	})
	r.Load(func(ctx context.Context) (string, error) { return "second", nil })

	wait(t, cancelled)
	wait(t, first)
}

func TestResourceCloseDiscards(t *testing.T) {
	r := NewResource[string](nil)
	release := make(chan struct{})

	done := r.Load(func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	})
	r.Close()
	close(release)
	wait(t, done)

	if s := r.State(); s.Data == "late" {
		t.Fatalf("result applied after close: %+v", s)
	}

	var calls atomic.Int32
	wait(t, r.Load(func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "x", nil
	}))
	if calls.Load() != 0 {
		t.Fatal("closed resource ran a fetcher")
	}
}

func TestResourceRefetch(t *testing.T) {
	r := NewResource[int](nil)
	wait(t, r.Refetch())
	if r.State().Status != StatusIdle {
		t.Fatal("refetch without a fetcher must be a no-op")
	}

	var calls atomic.Int32
	f := func(ctx context.Context) (int, error) { return int(calls.Add(1)), nil }

	wait(t, r.Load(f))
	wait(t, r.Refetch())

	if calls.Load() != 2 || r.State().Data != 2 {
		t.Fatalf("expected two calls, got %d (data %d)", calls.Load(), r.State().Data)
	}
}

func TestResourceNotifiesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	r := NewResource(func(s State[string]) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	wait(t, r.Load(func(ctx context.Context) (string, error) { return "ok", nil }))
	r.Reset()

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusLoading, StatusSuccess, StatusIdle}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

type fakeAPI struct {
	mu        sync.Mutex
	calls     int
	lastQuery model.QuestionQuery
	list      *model.PaginatedResponse
	question  *model.QuestionResponse
	err       error
}

func (f *fakeAPI) Health(ctx context.Context) (*model.HealthResponse, error) {
	return &model.HealthResponse{Status: "healthy"}, nil
}

func (f *fakeAPI) ListQuestions(ctx context.Context, q model.QuestionQuery) (*model.PaginatedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeAPI) GetQuestion(ctx context.Context, id string) (*model.QuestionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.question, nil
}

func TestQuestionLoader(t *testing.T) {
	src := &fakeAPI{question: &model.QuestionResponse{Data: model.Question{ID: "q1"}}}
	l := NewQuestionLoader(src, nil)
	defer l.Close()

	wait(t, l.Load(""))
	if s := l.State(); s.Status != StatusIdle || s.Data != nil || s.Err != nil {
		t.Fatalf("empty id must stay idle, got %+v", s)
	}
	if src.calls != 0 {
		t.Fatalf("empty id issued %d requests", src.calls)
	}

	wait(t, l.Load("q1"))
	if s := l.State(); s.Status != StatusSuccess || s.Data == nil || s.Data.ID != "q1" {
		t.Fatalf("unexpected state %+v", s)
	}

	src.err = &api.Error{Message: api.MsgNetwork}
	wait(t, l.Refetch())
	if s := l.State(); s.Status != StatusError || s.Data != nil || s.Err.Message != api.MsgNetwork {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestQuestionsLoaderPagination(t *testing.T) {
	total := 42
	next := "20"
	src := &fakeAPI{list: &model.PaginatedResponse{
		Data:       []model.Question{{ID: "a"}, {ID: "b"}},
		NextCursor: &next,
		HasMore:    true,
		Total:      &total,
	}}
	l := NewQuestionsLoader(src, nil)
	defer l.Close()

	wait(t, l.Load(model.QuestionQuery{Search: "go", Limit: 20}))
	s := l.State()
	if len(s.Data.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(s.Data.Questions))
	}
	p := s.Data.Pagination
	if !p.HasMore || p.Total == nil || *p.Total != 42 || p.NextCursor == nil || *p.NextCursor != "20" {
		t.Fatalf("pagination not copied: %+v", p)
	}
	if src.lastQuery.Search != "go" {
		t.Fatalf("query not forwarded: %+v", src.lastQuery)
	}

	src.err = &api.Error{Message: "Database error", Status: 500}
	wait(t, l.Refetch())
	s = l.State()
	if s.Status != StatusError || len(s.Data.Questions) != 0 || s.Data.Questions == nil {
		t.Fatalf("expected empty page on error, got %+v", s)
	}
	if s.Data.Pagination.HasMore || s.Data.Pagination.Total != nil || s.Data.Pagination.NextCursor != nil {
		t.Fatalf("expected pagination reset, got %+v", s.Data.Pagination)
	}
}

func TestDebouncerDeliversLastValue(t *testing.T) {
	got := make(chan string, 10)
	d := NewDebouncer(20*time.Millisecond, func(v string) { got <- v })
	defer d.Stop()

	d.Set("j")
	d.Set("ja")
	d.Set("jav")

	select {
	case v := <-got:
		if v != "jav" {
			t.Fatalf("expected last value, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no value delivered")
	}

	select {
	case v := <-got:
		t.Fatalf("unexpected extra delivery %q", v)
	case <-time.After(80 * time.Millisecond):
	}
}

func TestDebouncerStop(t *testing.T) {
	got := make(chan int, 1)
	d := NewDebouncer(20*time.Millisecond, func(v int) { got <- v })

	d.Set(1)
	d.Stop()
	d.Set(2)

	select {
	case v := <-got:
		t.Fatalf("delivered %d after stop", v)
	case <-time.After(80 * time.Millisecond):
	}
}
