package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// QuestionMaxAge is the browser cache lifetime of a question; questions are
// immutable once published.
const QuestionMaxAge = 300

// CacheControl marks every response of a route as publicly cacheable for
// maxAgeSeconds, usually static assets.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetCacheControl(c, maxAgeSeconds)
		c.Next()
	}
}

// SetCacheControl marks the current response cacheable. Handlers call it on
// success only, so upstream failures are never cached.
func SetCacheControl(c *gin.Context, maxAgeSeconds int) {
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAgeSeconds))
}

// NoStore disables caching for live views such as the health endpoint.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
