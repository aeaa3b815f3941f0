package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/quizling/internal/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestFailAPIStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrCode
		wantMsg    string
	}{
		{"upstream not found", &api.Error{Message: "Question not found", Status: 404}, 404, ErrNotFound, "Question not found"},
		{"upstream validation", &api.Error{Message: "bad cursor", Status: 422}, 422, ErrUpstream, "bad cursor"},
		{"upstream server error", &api.Error{Message: "Internal Server Error", Status: 500}, 500, ErrUpstream, "Internal Server Error"},
		{"invalid payload", &api.Error{Message: api.MsgInvalidResponse, Status: 200}, http.StatusBadGateway, ErrUpstreamInvalid, api.MsgInvalidResponse},
		{"network", &api.Error{Message: api.MsgNetwork}, http.StatusBadGateway, ErrUpstreamUnreachable, api.MsgNetwork},
		{"misconfigured", &api.Error{Message: "API base URL is not configured"}, http.StatusBadGateway, ErrUpstreamMisconfig, "API base URL is not configured"},
		{"foreign error", errors.New("boom"), http.StatusBadGateway, ErrUpstreamMisconfig, api.MsgUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set(ContextKeyRequestID, "req-1")

			FailAPI(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			body := decode(t, w)
			if body.Error == nil || body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Fatalf("unexpected error body %+v", body.Error)
			}
			if body.Metadata.RequestID != "req-1" || body.Metadata.Timestamp == "" {
				t.Fatalf("unexpected metadata %+v", body.Metadata)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "given" || decode(t, w).Metadata.RequestID != "given" {
		t.Fatalf("request id not propagated: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("x", 65)} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		r.ServeHTTP(w, req)
		got := w.Header().Get("X-Request-ID")
		if got == bad || !validRequestID(got) {
			t.Fatalf("request id %q must be replaced, got %q", bad, got)
		}
	}
}
