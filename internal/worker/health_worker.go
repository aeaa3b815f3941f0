package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

const (
	DefaultHealthInterval = 30 * time.Second
	HealthCheckTimeout    = 5 * time.Second
)

// HealthChecker is the part of the question API the worker polls.
type HealthChecker interface {
	Health(ctx context.Context) (*model.HealthResponse, error)
}

// Observation is the outcome of the latest upstream health check.
type Observation struct {
	Healthy   bool      `json:"healthy"`
	Status    string    `json:"status,omitempty"`
	Service   string    `json:"service,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checked reports whether at least one check has completed.
func (o Observation) Checked() bool { return !o.CheckedAt.IsZero() }

// HealthWorker polls the question API health endpoint and keeps the last
// observation for the web front's /health route.
type HealthWorker struct {
	api      HealthChecker
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last Observation
}

func NewHealthWorker(checker HealthChecker, interval time.Duration, log zerolog.Logger) *HealthWorker {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthWorker{
		api:      checker,
		interval: interval,
		log:      log.With().Str("component", "health_worker").Logger(),
		now:      time.Now,
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

// Start checks once immediately, then every interval until ctx is done.
// Call in a goroutine.
func (w *HealthWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one health request and records the result.
func (w *HealthWorker) Check(ctx context.Context) Observation {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	resp, err := w.api.Health(ctx)
	if err != nil && api.IsCanceled(err) {
		return w.Last()
	}

	obs := Observation{CheckedAt: w.now().UTC()}
	if err != nil {
		obs.Error = api.Message(err)
	} else {
		obs.Healthy = resp.Status == "healthy"
		obs.Status = resp.Status
		obs.Service = resp.Service
	}

	w.mu.Lock()
	prev := w.last
	w.last = obs
	w.mu.Unlock()

	if prev.Checked() && prev.Healthy == obs.Healthy {
		return obs
	}
	if obs.Healthy {
		w.log.Info().Str("service", obs.Service).Msg("Question API healthy")
	} else {
		w.log.Warn().Str("status", obs.Status).Str("error", obs.Error).Msg("Question API unhealthy")
	}
	return obs
}

// Last returns the most recent observation; the zero value before the
// first check.
func (w *HealthWorker) Last() Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}
