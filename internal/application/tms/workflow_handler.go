package tms

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"go.uber.org/zap"
)

// WorkflowHandler turns load and invoice events into follow-up tasks
type WorkflowHandler struct {
	tasks   shared.EntityStore[workflow.Task]
	trigger workflow.Trigger
	logger  *zap.Logger
}

// NewWorkflowHandler creates a new handler for workflow triggers
func NewWorkflowHandler(tasks shared.EntityStore[workflow.Task], trigger workflow.Trigger, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{
		tasks:   tasks,
		trigger: trigger,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *WorkflowHandler) EventTypes() []string {
	return []string{
		freight.EventTypeLoadCreated,
		freight.EventTypeLoadStatusChanged,
		freight.EventTypeLoadDelivered,
		finance.EventTypeInvoiceCreated,
	}
}

// Handle creates the tasks the trigger rules raise for the event
func (h *WorkflowHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var tasks []*workflow.Task
	switch e := event.(type) {
	case *freight.LoadCreatedEvent:
		tasks = h.trigger.OnLoadCreated(e)
	case *freight.LoadStatusChangedEvent:
		tasks = h.trigger.OnLoadStatusChanged(e)
	case *freight.LoadDeliveredEvent:
		tasks = h.trigger.OnLoadDelivered(e)
	case *finance.InvoiceCreatedEvent:
		tasks = h.trigger.OnInvoiceCreated(e)
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	var errs []error
	for _, t := range tasks {
		if err := h.tasks.Save(ctx, t); err != nil {
			h.logger.Error("failed to save workflow task",
				zap.String("event_type", event.EventType()),
				zap.String("task_type", string(t.Type)),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		h.logger.Info("workflow task created",
			zap.String("task_id", t.ID.String()),
			zap.String("task_type", string(t.Type)),
			zap.String("entity_id", t.EntityID.String()),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to save workflow tasks: %w", errors.Join(errs...))
	}
	return nil
}

// Ensure WorkflowHandler implements EventHandler
var _ shared.EventHandler = (*WorkflowHandler)(nil)
