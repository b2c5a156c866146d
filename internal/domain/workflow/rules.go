package workflow

import (
	"fmt"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
)

// Trigger turns lifecycle events into follow-up tasks. Implementations
// return the tasks they created; callers must not let a Trigger error fail
// the operation that raised the event.
type Trigger interface {
	OnLoadCreated(e *freight.LoadCreatedEvent) []*Task
	OnLoadStatusChanged(e *freight.LoadStatusChangedEvent) []*Task
	OnLoadDelivered(e *freight.LoadDeliveredEvent) []*Task
	OnInvoiceCreated(e *finance.InvoiceCreatedEvent) []*Task
}

// Rules is the default Trigger
type Rules struct {
	now func() time.Time
}

// NewRules creates the default rule set
func NewRules() *Rules {
	return &Rules{now: time.Now}
}

// OnLoadCreated asks dispatch to assign a driver to unassigned loads
func (r *Rules) OnLoadCreated(e *freight.LoadCreatedEvent) []*Task {
	if e.DriverID != nil || e.Status.IsTerminal() {
		return nil
	}
	task, err := NewTask(e.TenantID(), TaskTypeAssignDriver,
		fmt.Sprintf("Assign driver to load %s", e.LoadNumber), freight.AggregateTypeLoad, e.AggregateID())
	if err != nil {
		return nil
	}
	if e.PickupDate != nil {
		due := *e.PickupDate
		task.DueDate = &due
		task.Priority = TaskPriorityHigh
	}
	return []*Task{task}
}

// OnLoadStatusChanged raises paperwork tasks for dispatch and cancellations
func (r *Rules) OnLoadStatusChanged(e *freight.LoadStatusChangedEvent) []*Task {
	var (
		taskType TaskType
		title    string
	)
	switch e.ToStatus {
	case freight.LoadStatusDispatched:
		taskType, title = TaskTypeRateConfirmation, fmt.Sprintf("Send rate confirmation for load %s", e.LoadNumber)
	case freight.LoadStatusCancelled, freight.LoadStatusTONU:
		taskType, title = TaskTypeCancellationCheck, fmt.Sprintf("Review cancellation charges for load %s", e.LoadNumber)
	default:
		return nil
	}
	task, err := NewTask(e.TenantID(), taskType, title, freight.AggregateTypeLoad, e.AggregateID())
	if err != nil {
		return nil
	}
	due := r.now().AddDate(0, 0, 1)
	task.DueDate = &due
	return []*Task{task}
}

// OnLoadDelivered asks for proof of delivery within a day
func (r *Rules) OnLoadDelivered(e *freight.LoadDeliveredEvent) []*Task {
	if e.FromStatus.Locks() {
		return nil
	}
	task, err := NewTask(e.TenantID(), TaskTypeProofOfDelivery,
		fmt.Sprintf("Collect proof of delivery for load %s", e.LoadNumber), freight.AggregateTypeLoad, e.AggregateID())
	if err != nil {
		return nil
	}
	due := r.now().AddDate(0, 0, 1)
	task.DueDate = &due
	task.Priority = TaskPriorityHigh
	return []*Task{task}
}

// OnInvoiceCreated schedules a payment follow-up on unpaid invoices
func (r *Rules) OnInvoiceCreated(e *finance.InvoiceCreatedEvent) []*Task {
	if e.Status != finance.InvoiceStatusPending || e.DueDate == nil {
		return nil
	}
	task, err := NewTask(e.TenantID(), TaskTypePaymentFollowUp,
		fmt.Sprintf("Follow up on payment for %s", e.InvoiceNumber), finance.AggregateTypeInvoice, e.AggregateID())
	if err != nil {
		return nil
	}
	due := *e.DueDate
	task.DueDate = &due
	task.Description = fmt.Sprintf("%s owes %s", e.CustomerName, e.Amount.StringFixed(2))
	return []*Task{task}
}

var _ Trigger = (*Rules)(nil)
