package handler

import (
	"net/http"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/dto"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// WorkflowHandler handles follow-up tasks, the audit trail and the
// operational sweeps
type WorkflowHandler struct {
	BaseHandler
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(base BaseHandler) *WorkflowHandler {
	return &WorkflowHandler{BaseHandler: base}
}

// RegisterRoutes mounts the workflow routes on rg
func (h *WorkflowHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.GET("", h.ListTasks)
	tasks.POST("/:id/complete", h.CompleteTask)

	back := middleware.RequireRole(shared.RoleAdmin, shared.RoleAccounting)
	rg.GET("/audit", back, h.AuditTrail)
	rg.POST("/admin/sweeps/overdue", back, h.SweepOverdue)
}

// ListTasks lists tasks, open first; ?status= narrows to open or done
func (h *WorkflowHandler) ListTasks(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	status := workflow.TaskStatus(c.Query("status"))
	if status != "" && status != workflow.TaskStatusOpen && status != workflow.TaskStatusDone {
		h.BadRequest(c, "Unknown task status: "+string(status))
		return
	}
	tasks, err := s.ListTasks(c.Request.Context(), status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, dto.NewTaskResponses(tasks), len(tasks))
}

// CompleteTask marks a task done
func (h *WorkflowHandler) CompleteTask(c *gin.Context) {
	s, actor, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	task, err := s.CompleteTask(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewTaskResponse(task))
}

// AuditTrail returns audit entries, newest first
func (h *WorkflowHandler) AuditTrail(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	var q dto.AuditQuery
	if !h.bindQuery(c, &q) {
		return
	}
	entityID, ok := h.optionalUUID(c, "entity_id", q.EntityID)
	if !ok {
		return
	}
	actorID, ok := h.optionalUUID(c, "actor_id", q.ActorID)
	if !ok {
		return
	}
	action := audit.Action(q.Action)
	if action != "" && !action.IsValid() {
		h.BadRequest(c, "Unknown audit action: "+q.Action)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = 100
	}

	entries, err := s.AuditTrail(c.Request.Context(), audit.Filter{
		EntityType: q.EntityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Action:     action,
		Since:      q.Since,
		Limit:      limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, entries, len(entries))
}

// SweepOverdue flags the tenant's past-due pending invoices as overdue now
// instead of waiting for the scheduled sweep
func (h *WorkflowHandler) SweepOverdue(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	flagged, pending := s.SweepOverdueInvoices(c.Request.Context())
	h.Mutated(c, http.StatusOK, dto.SweepResultResponse{Flagged: flagged}, pending)
}
