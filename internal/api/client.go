package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizling/internal/model"
	"github.com/stemsi/quizling/internal/validator"
)

const (
	// DefaultTimeout bounds every request when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// QuestionAPI is the set of remote operations the application consumes.
type QuestionAPI interface {
	Health(ctx context.Context) (*model.HealthResponse, error)
	ListQuestions(ctx context.Context, q model.QuestionQuery) (*model.PaginatedResponse, error)
	GetQuestion(ctx context.Context, id string) (*model.QuestionResponse, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport. Its Timeout is replaced by Timeout.
	HTTPClient *http.Client
	// Logger receives request diagnostics. Pass logger.Diagnostic output to
	// silence it outside development.
	Logger zerolog.Logger
}

// Client talks to the question API over HTTP.
type Client struct {
	base    *url.URL
	baseErr *Error
	http    *http.Client
	log     zerolog.Logger
}

var _ QuestionAPI = (*Client)(nil)

// New creates a Client. An unusable base URL does not fail here; every call
// returns the misconfiguration error instead, without sending a request.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		hc = &clone
	}
	hc.Timeout = timeout

	c := &Client{
		http: hc,
		log:  opts.Logger.With().Str("component", "api_client").Logger(),
	}
	c.base, c.baseErr = parseBaseURL(opts.BaseURL)
	return c
}

func parseBaseURL(raw string) (*url.URL, *Error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, configError("API base URL is not configured")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, configError("Invalid API base URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, configError("Invalid API base URL: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, configError("Invalid API base URL: missing host")
	}
	return u, nil
}

// Health checks the API health endpoint.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var out model.HealthResponse
	if err := c.get(ctx, PathHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListQuestions fetches one page of questions matching q.
func (c *Client) ListQuestions(ctx context.Context, q model.QuestionQuery) (*model.PaginatedResponse, error) {
	var out model.PaginatedResponse
	if err := c.get(ctx, PathQuestions, EncodeQuery(q), &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []model.Question{}
	}
	return &out, nil
}

// GetQuestion fetches a single question by id.
func (c *Client) GetQuestion(ctx context.Context, id string) (*model.QuestionResponse, error) {
	if strings.TrimSpace(id) == "" {
		return nil, configError("Question ID is required")
	}
	if !ValidQuestionID(id) {
		return nil, configError("Invalid question ID %q", id)
	}
	var out model.QuestionResponse
	if err := c.get(ctx, QuestionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EncodeQuery turns q into URL parameters, omitting unset filters.
// Unknown difficulties are dropped rather than sent verbatim.
func EncodeQuery(q model.QuestionQuery) url.Values {
	v := url.Values{}
	if q.Difficulty.Valid() {
		v.Set("difficulty", string(q.Difficulty))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Cursor != nil && *q.Cursor >= 0 {
		v.Set("cursor", strconv.Itoa(*q.Cursor))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.baseErr != nil {
		c.log.Error().Str("detail", c.baseErr.Message).Msg("API configuration error")
		return c.baseErr
	}

	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.log.Error().Err(err).Msg("API configuration error")
		return &Error{Message: fmt.Sprintf("Invalid request: %v", err), Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().
		Str("method", req.Method).
		Str("url", u.String()).
		Msg("API request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Debug().Str("url", u.String()).Msg("API request cancelled")
			return &Error{Message: MsgCancelled, Cause: err}
		}
		c.log.Error().Str("url", u.String()).Err(err).Msg("API network error")
		return networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.Error().Str("url", u.String()).Err(err).Msg("API read error")
		return networkError(err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Str("url", u.String()).
		Dur("elapsed", time.Since(start)).
		Msg("API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(body, resp.StatusCode)
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("url", u.String()).
			Str("detail", detail).
			Msg("API error")
		return serverError(resp.StatusCode, detail, fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.log.Error().Str("url", u.String()).Err(err).Msg("API decode error")
		return &Error{Message: MsgInvalidResponse, Status: resp.StatusCode, Cause: fmt.Errorf("decode %s: %w", path, err)}
	}
	if err := validator.Struct(out); err != nil {
		c.log.Error().
			Str("url", u.String()).
			Interface("fields", validator.TranslateErrors(err)).
			Msg("API payload rejected")
		return &Error{Message: MsgInvalidResponse, Status: resp.StatusCode, Cause: fmt.Errorf("validate %s: %w", path, err)}
	}
	return nil
}

// errorDetail extracts the message of a non-2xx body. The API sends
// {"detail": "..."}; request validation failures carry a list of
// {"msg": "..."} objects instead.
func errorDetail(body []byte, status int) string {
	var raw model.ErrorResponse
	if err := json.Unmarshal(body, &raw); err == nil && len(raw.Detail) > 0 {
		var s string
		if err := json.Unmarshal(raw.Detail, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var items []model.ValidationIssue
		if err := json.Unmarshal(raw.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}
