// Package cache puts an optional Redis read-through cache in front of the
// question API. Questions are immutable, so entries only expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/quizling/internal/api"
	"github.com/stemsi/quizling/internal/model"
)

// DefaultTTL applies when QuestionCache is created with ttl <= 0.
const DefaultTTL = 5 * time.Minute

// QuestionCache serves reads from Redis and falls through to the wrapped
// API on a miss. Redis failures are logged and treated as misses. Upstream
// errors are never cached.
type QuestionCache struct {
	next api.QuestionAPI
	rdb  redis.Cmdable
	ttl  time.Duration
	log  zerolog.Logger
}

var _ api.QuestionAPI = (*QuestionCache)(nil)

// NewQuestionCache wraps next.
func NewQuestionCache(next api.QuestionAPI, rdb redis.Cmdable, ttl time.Duration, log zerolog.Logger) *QuestionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QuestionCache{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "question_cache").Logger(),
	}
}

// Health is never cached.
func (c *QuestionCache) Health(ctx context.Context) (*model.HealthResponse, error) {
	return c.next.Health(ctx)
}

func (c *QuestionCache) ListQuestions(ctx context.Context, q model.QuestionQuery) (*model.PaginatedResponse, error) {
	return readThrough(ctx, c, QuestionsKey(q), func(ctx context.Context) (*model.PaginatedResponse, error) {
		return c.next.ListQuestions(ctx, q)
	})
}

func (c *QuestionCache) GetQuestion(ctx context.Context, id string) (*model.QuestionResponse, error) {
	return readThrough(ctx, c, QuestionKey(id), func(ctx context.Context) (*model.QuestionResponse, error) {
		return c.next.GetQuestion(ctx, id)
	})
}

func readThrough[T any](ctx context.Context, c *QuestionCache, key string, load func(context.Context) (*T, error)) (*T, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			c.log.Debug().Str("key", key).Msg("Cache hit")
			return &out, nil
		}
		c.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return nil, &api.Error{Message: api.MsgCancelled, Cause: ctx.Err()}
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Cache encode failed")
		return out, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return out, nil
}
