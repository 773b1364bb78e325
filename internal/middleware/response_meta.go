package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-analytics/pkg/middleware/requestid"
)

const (
	responseMetaKey  = "response_meta"
	cacheHitKey      = "cache_hit"
	requestIDKey     = "request_id"
	processingKey    = "processing_time_ms"
	requestStartedAt = "request_started_at"
)

// WithResponseMeta starts the per-request metadata that handlers attach to the
// response envelope. It records the request id and the start time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartedAt, time.Now())
		meta := ensureMeta(c)
		if id := requestid.Value(c); id != "" {
			meta[requestIDKey] = id
		}
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata map stored on the context with the elapsed
// processing time filled in when WithResponseMeta ran.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	if started, ok := c.Get(requestStartedAt); ok {
		if _, set := meta[processingKey]; !set {
			meta[processingKey] = time.Since(started.(time.Time)).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if value, exists := c.Get(responseMetaKey); exists {
		if meta, ok := value.(map[string]interface{}); ok {
			return meta
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
