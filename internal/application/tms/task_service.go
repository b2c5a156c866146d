package tms

import (
	"context"
	"fmt"
	"sort"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/google/uuid"
)

// ListTasks returns the tenant's tasks, open ones first then by due date.
// An empty status returns all tasks.
func (s *Session) ListTasks(ctx context.Context, status workflow.TaskStatus) ([]*workflow.Task, error) {
	store := s.deps.Stores.Tasks
	if store == nil {
		return nil, nil
	}
	all, err := store.List(ctx, s.tenantID)
	if err != nil {
		return nil, shared.NewIOFailure("list tasks", err)
	}
	out := make([]*workflow.Task, 0, len(all))
	for _, t := range all {
		if status == "" || t.Status == status {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Status != b.Status {
			return a.Status == workflow.TaskStatusOpen
		}
		switch {
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
	return out, nil
}

// CompleteTask marks a task done
func (s *Session) CompleteTask(ctx context.Context, actor shared.Actor, id uuid.UUID) (*workflow.Task, error) {
	if err := authorize(actor, EntityTask, ActionUpdate); err != nil {
		return nil, err
	}
	store := s.deps.Stores.Tasks
	if store == nil {
		return nil, shared.NewNotFoundError(EntityTask, id)
	}
	t, err := store.Get(ctx, s.tenantID, id)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, err
		}
		return nil, shared.NewIOFailure("load task", err)
	}
	if err := t.Complete(actor.UserID, s.now()); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, t); err != nil {
		return nil, shared.NewIOFailure("complete task", err)
	}
	s.recorder.StatusChanged(ctx, s.tenantID, actor, EntityTask, t.ID,
		string(workflow.TaskStatusOpen), string(workflow.TaskStatusDone),
		fmt.Sprintf("Completed task %s", t.Title))
	return t, nil
}
