package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequireRole(t *testing.T) {
	svc := newTestTokenService(t)
	tenantID := uuid.New()

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.POST("/api/v1/admin/sweeps/overdue", RequireRole(shared.RoleAdmin, shared.RoleAccounting), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		role shared.Role
		want int
	}{
		{shared.RoleAdmin, http.StatusOK},
		{shared.RoleAccounting, http.StatusOK},
		{shared.RoleDispatcher, http.StatusForbidden},
		{shared.RoleDriver, http.StatusForbidden},
		{shared.Role("auditor"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			token, _ := issueToken(t, svc, tenantID, tt.role)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sweeps/overdue", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodePermissionDenied, decodeError(t, w).Code)
			}
		})
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	router := gin.New()
	router.GET("/ops", RequireRole(shared.RoleAdmin), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
}

func TestRequireRoleWithConfig_LogsDenial(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	actor := shared.Actor{UserID: uuid.New(), Role: shared.RoleDriver}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTActorKey, actor)
		c.Next()
	})
	router.GET("/ops", RequireRoleWithConfig(PermissionConfig{Logger: zap.New(core)}, shared.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	entries := logs.FilterMessage("Permission denied").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "driver", entries[0].ContextMap()["role"])
		assert.Equal(t, actor.UserID.String(), entries[0].ContextMap()["user_id"])
	}
}
