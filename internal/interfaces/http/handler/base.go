package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/logger"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionProvider resolves the tenant session a request runs against
type SessionProvider interface {
	Session(ctx context.Context, tenantID uuid.UUID) (*tms.Session, error)
}

// PersistPolicy controls whether mutations answer before or after the
// change is durable
type PersistPolicy struct {
	Wait    bool
	Timeout time.Duration
}

// BaseHandler provides common handler utilities
type BaseHandler struct {
	sessions SessionProvider
	persist  PersistPolicy
}

// NewBaseHandler creates the shared handler core
func NewBaseHandler(sessions SessionProvider, persist PersistPolicy) BaseHandler {
	return BaseHandler{sessions: sessions, persist: persist}
}

// session returns the caller's tenant session and actor. It writes the error
// response and returns false when either is unavailable.
func (h *BaseHandler) session(c *gin.Context) (*tms.Session, shared.Actor, bool) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthorized(c, "Tenant not resolved")
		return nil, shared.Actor{}, false
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.Unauthorized(c, "User not resolved")
		return nil, shared.Actor{}, false
	}
	s, err := h.sessions.Session(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return nil, shared.Actor{}, false
	}
	return s, actor, true
}

// pathID parses a uuid path parameter
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses a query value that may be empty
func (h *BaseHandler) optionalUUID(c *gin.Context, field, value string) (uuid.UUID, bool) {
	if value == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(value)
	if err != nil {
		h.BadRequest(c, "Invalid "+field+" format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// force reads the ?force= flag of a delete
func force(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("force"))
	return v
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessList sends a list response with its count
func (h *BaseHandler) SuccessList(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts domain errors to HTTP responses. Anything else is an
// internal error and is logged.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, message, details := dto.FromError(err)
	if code == dto.ErrCodeInternal {
		logger.FromContext(c.Request.Context()).Error("Unhandled request error",
			zap.Error(err),
			zap.String("path", c.FullPath()),
		)
	}
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))
	resp.Error.Details = details
	c.JSON(dto.GetHTTPStatus(code), resp)
}

// Mutated answers a create or update. Under the wait policy it blocks until
// the change is persisted; a persistence failure becomes the response and a
// timeout answers 202 with meta.pending set.
func (h *BaseHandler) Mutated(c *gin.Context, status int, data any, pending *tms.Pending) {
	settled, err := h.await(c, pending)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := dto.NewSuccessResponse(data)
	if !settled {
		resp.Meta = &dto.Meta{Pending: true}
		if h.persist.Wait {
			status = http.StatusAccepted
		}
	}
	c.JSON(status, resp)
}

// Deleted answers a delete: 204 once persisted, 202 while still pending
func (h *BaseHandler) Deleted(c *gin.Context, pending *tms.Pending) {
	settled, err := h.await(c, pending)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if !settled {
		c.JSON(http.StatusAccepted, dto.Response{Success: true, Meta: &dto.Meta{Pending: true}})
		return
	}
	c.Status(http.StatusNoContent)
}

// await reports whether pending has settled and its persistence error
func (h *BaseHandler) await(c *gin.Context, pending *tms.Pending) (bool, error) {
	if pending == nil {
		return true, nil
	}
	if !h.persist.Wait {
		select {
		case <-pending.Done():
			return true, pending.Err()
		default:
			return false, nil
		}
	}

	ctx := c.Request.Context()
	if h.persist.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.persist.Timeout)
		defer cancel()
	}
	err := pending.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if ctx.Err() != nil {
			logger.FromContext(c.Request.Context()).Warn("Responding before persistence finished",
				zap.Duration("timeout", h.persist.Timeout))
			return false, nil
		}
	}
	return true, err
}
