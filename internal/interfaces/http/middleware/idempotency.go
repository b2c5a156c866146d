package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/cache"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"
	MaxIdempotencyKeyLen   = 255
)

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  cache.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// capturingWriter tees the response body so it can be stored
type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a mutation retried with the same
// Idempotency-Key. Keys are scoped to tenant, method and path. A request that
// arrives while the first one is still running gets 409. Server errors release
// the key so the client can retry. Store failures are logged and the request
// runs unprotected.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return passThrough
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || !isMutation(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		scoped := scopeKey(c, key)

		reserved, err := cfg.Store.Reserve(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			replay(c, cfg.Store, scoped, log)
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			if err := cfg.Store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		resp := cache.Response{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		}
		if err := cfg.Store.Complete(ctx, scoped, resp, cfg.TTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func replay(c *gin.Context, store cache.IdempotencyStore, key string, log *zap.Logger) {
	resp, found, err := store.Lookup(c.Request.Context(), key)
	if err != nil {
		log.Warn("Idempotency lookup failed", zap.Error(err))
	}
	if err != nil || !found || resp == nil {
		c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is still in progress", GetRequestID(c)))
		return
	}
	c.Header(IdempotentReplayHeader, "true")
	c.Data(resp.Status, resp.ContentType, resp.Body)
	c.Abort()
}

func scopeKey(c *gin.Context, key string) string {
	tenant := "anonymous"
	if id, ok := GetTenantID(c); ok {
		tenant = id.String()
	}
	return tenant + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
