package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.DebugLevel)
	tenantID := uuid.New()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.Use(func(c *gin.Context) {
		ctx, _ := WithTenant(c.Request.Context(), GetGinLogger(c), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	router.GET("/loads", func(c *gin.Context) {
		GetGinLogger(c).Debug("listing loads")
		c.Status(http.StatusOK)
	})
	router.GET("/loads/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
	})

	tests := []struct {
		path  string
		level zapcore.Level
		code  int
	}{
		{"/loads?status=delivered", zapcore.InfoLevel, http.StatusOK},
		{"/loads/missing", zapcore.WarnLevel, http.StatusNotFound},
		{"/boom", zapcore.ErrorLevel, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)

			entries := recorded.FilterMessage("HTTP request").TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, tenantID.String(), fields["tenant_id"])
			assert.Equal(t, int64(tt.code), fields["status"])
		})
	}

	handlerEntries := recorded.FilterMessage("listing loads").All()
	require.Len(t, handlerEntries, 1)
	assert.Equal(t, tenantID.String(), handlerEntries[0].ContextMap()["tenant_id"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("settlement without driver")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "settlement without driver", entries[0].ContextMap()["error"])
}

func TestGetGinLogger_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotNil(t, GetGinLogger(c))

	c.Set(ginLoggerKey, "not a logger")
	assert.NotNil(t, GetGinLogger(c))
}
