package tms

import (
	"context"
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockTrigger is a mock implementation of workflow.Trigger
type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) OnLoadCreated(e *freight.LoadCreatedEvent) []*workflow.Task {
	args := m.Called(e)
	return args.Get(0).([]*workflow.Task)
}

func (m *MockTrigger) OnLoadStatusChanged(e *freight.LoadStatusChangedEvent) []*workflow.Task {
	args := m.Called(e)
	return args.Get(0).([]*workflow.Task)
}

func (m *MockTrigger) OnLoadDelivered(e *freight.LoadDeliveredEvent) []*workflow.Task {
	args := m.Called(e)
	return args.Get(0).([]*workflow.Task)
}

func (m *MockTrigger) OnInvoiceCreated(e *finance.InvoiceCreatedEvent) []*workflow.Task {
	args := m.Called(e)
	return args.Get(0).([]*workflow.Task)
}

// unknownEvent is an event type the handler does not subscribe to
type unknownEvent struct {
	shared.BaseDomainEvent
}

func TestWorkflowHandler_EventTypes(t *testing.T) {
	h := NewWorkflowHandler(nil, nil, nil)

	assert.ElementsMatch(t, []string{
		freight.EventTypeLoadCreated,
		freight.EventTypeLoadStatusChanged,
		freight.EventTypeLoadDelivered,
		finance.EventTypeInvoiceCreated,
	}, h.EventTypes())
}

func TestWorkflowHandler_Handle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("saves the tasks the trigger raises", func(t *testing.T) {
		store := persistence.NewMemoryStore[workflow.Task](EntityTask)
		trigger := new(MockTrigger)
		l, err := freight.NewLoad(tenantID, "LD-1", freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)
		task, err := workflow.NewTask(tenantID, workflow.TaskTypeAssignDriver, "Assign a driver to LD-1", EntityLoad, l.ID)
		require.NoError(t, err)
		event := freight.NewLoadCreatedEvent(l)
		trigger.On("OnLoadCreated", event).Return([]*workflow.Task{task})

		h := NewWorkflowHandler(store, trigger, zap.NewNop())
		require.NoError(t, h.Handle(ctx, event))

		trigger.AssertExpectations(t)
		saved, err := store.Get(ctx, tenantID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.TaskTypeAssignDriver, saved.Type)
	})

	t.Run("no tasks is a no-op", func(t *testing.T) {
		store := persistence.NewMemoryStore[workflow.Task](EntityTask)
		trigger := new(MockTrigger)
		inv, err := finance.NewInvoice(tenantID, "INV-2026-0001", []uuid.UUID{uuid.New()}, "Acme Foods",
			finance.InvoiceTerms{Status: finance.InvoiceStatusPaid})
		require.NoError(t, err)
		event := finance.NewInvoiceCreatedEvent(inv)
		trigger.On("OnInvoiceCreated", event).Return([]*workflow.Task(nil))

		h := NewWorkflowHandler(store, trigger, zap.NewNop())
		require.NoError(t, h.Handle(ctx, event))

		trigger.AssertExpectations(t)
		assert.Zero(t, store.Len(tenantID))
	})

	t.Run("save failures are reported", func(t *testing.T) {
		store := &flakyStore[workflow.Task]{EntityStore: persistence.NewMemoryStore[workflow.Task](EntityTask), failing: true}
		trigger := new(MockTrigger)
		l, err := freight.NewLoad(tenantID, "LD-2", freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)
		task, err := workflow.NewTask(tenantID, workflow.TaskTypeProofOfDelivery, "Collect POD for LD-2", EntityLoad, l.ID)
		require.NoError(t, err)
		event := freight.NewLoadDeliveredEvent(l, freight.LoadStatusInTransit)
		trigger.On("OnLoadDelivered", event).Return([]*workflow.Task{task})

		h := NewWorkflowHandler(store, trigger, zap.NewNop())
		err = h.Handle(ctx, event)

		assert.ErrorIs(t, err, errDiskFull)
	})

	t.Run("unexpected event type", func(t *testing.T) {
		h := NewWorkflowHandler(persistence.NewMemoryStore[workflow.Task](EntityTask), new(MockTrigger), zap.NewNop())

		err := h.Handle(ctx, &unknownEvent{BaseDomainEvent: shared.NewBaseDomainEvent("Unknown", "Load", uuid.New(), tenantID)})
		assert.Error(t, err)
	})
}

func TestWorkflowHandler_WithRules(t *testing.T) {
	h := newHarness(t)
	handler := NewWorkflowHandler(h.tasks, workflow.NewRules(), zap.NewNop())
	l, err := freight.NewLoad(h.tenantID, "LD-9", freight.LoadUpdate{}, fixedNow)
	require.NoError(t, err)

	for _, e := range l.PullDomainEvents() {
		require.NoError(t, handler.Handle(h.ctx, e))
	}

	tasks, err := h.session.ListTasks(h.ctx, workflow.TaskStatusOpen)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, workflow.TaskTypeAssignDriver, tasks[0].Type)

	done, err := h.session.CompleteTask(h.ctx, driverUser, tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.TaskStatusDone, done.Status)
	open, err := h.session.ListTasks(h.ctx, workflow.TaskStatusOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = h.session.CompleteTask(h.ctx, driverUser, tasks[0].ID)
	assert.Error(t, err, "a completed task cannot be completed again")
}
