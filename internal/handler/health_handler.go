package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/quizling/internal/response"
	"github.com/stemsi/quizling/internal/worker"
)

// HealthSource reports upstream health. worker.HealthWorker satisfies it.
type HealthSource interface {
	Last() worker.Observation
	Check(ctx context.Context) worker.Observation
}

// HealthHandler reports the web front and question API health.
type HealthHandler struct {
	health HealthSource
}

func NewHealthHandler(health HealthSource) *HealthHandler {
	return &HealthHandler{health: health}
}

type healthBody struct {
	Status   string             `json:"status"`
	Upstream worker.Observation `json:"upstream"`
}

// Health godoc
// GET /health
// Returns 200 while the question API is healthy, 503 otherwise. Before the
// worker's first poll a check is made inline.
func (h *HealthHandler) Health(c *gin.Context) {
	obs := h.health.Last()
	if !obs.Checked() {
		obs = h.health.Check(c.Request.Context())
	}

	if !obs.Healthy {
		response.Success(c, http.StatusServiceUnavailable, healthBody{Status: "degraded", Upstream: obs})
		return
	}
	response.Success(c, http.StatusOK, healthBody{Status: "ok", Upstream: obs})
}
