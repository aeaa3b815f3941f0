// Package fetch holds the read-side state of remote resources: a loading
// status, the last result, and last-request-wins ordering across reloads.
package fetch

import (
	"context"
	"sync"

	"github.com/stemsi/quizling/internal/api"
)

// Status is the lifecycle of a Resource.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of a Resource. Err is always a normalized API error.
type State[T any] struct {
	Status Status     `json:"status"`
	Data   T          `json:"data"`
	Err    *api.Error `json:"error,omitempty"`
}

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool { return s.Status == StatusLoading }

// Fetcher performs one attempt. It must honor ctx cancellation.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Resource runs fetchers and keeps only the outcome of the latest one.
// Each Load tags its attempt with a generation; a completion whose
// generation is no longer current, or that arrives after Close, is dropped.
type Resource[T any] struct {
	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
	last     Fetcher[T]
	state    State[T]
	onChange func(State[T])
}

// NewResource creates an idle Resource. onChange, if non-nil, is called with
// every state the Resource applies, in order. It runs under the Resource's
// lock and must not call back into it.
func NewResource[T any](onChange func(State[T])) *Resource[T] {
	return &Resource[T]{
		state:    State[T]{Status: StatusIdle},
		onChange: onChange,
	}
}

// State returns the current snapshot.
func (r *Resource[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load supersedes any in-flight attempt and starts f. The returned channel
// is closed once this attempt has settled, whether applied or discarded.
func (r *Resource[T]) Load(f Fetcher[T]) <-chan struct{} {
	done := make(chan struct{})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(done)
		return done
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.last = f
	// Previous data stays visible while loading.
	r.state = State[T]{Status: StatusLoading, Data: r.state.Data}
	r.notify(r.state)
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		data, err := f(ctx)
		r.settle(gen, data, err)
	}()

	return done
}

// Refetch re-runs the most recent fetcher. Without one it is a no-op.
func (r *Resource[T]) Refetch() <-chan struct{} {
	r.mu.Lock()
	f := r.last
	r.mu.Unlock()

	if f == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return r.Load(f)
}

// Reset cancels any in-flight attempt and returns to idle with no data.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.last = nil
	r.state = State[T]{Status: StatusIdle}
	r.notify(r.state)
	r.mu.Unlock()
}

// Close cancels any in-flight attempt. Later completions are ignored and
// further loads are refused.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Resource[T]) settle(gen uint64, data T, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.gen {
		return
	}

	if err != nil {
		var zero T
		r.state = State[T]{Status: StatusError, Data: zero, Err: api.AsError(err)}
	} else {
		r.state = State[T]{Status: StatusSuccess, Data: data}
	}
	r.cancel = nil
	r.notify(r.state)
}

func (r *Resource[T]) notify(s State[T]) {
	if r.onChange != nil {
		r.onChange(s)
	}
}
