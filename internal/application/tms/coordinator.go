package tms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pending is the completion handle of an optimistic mutation. The local state
// already reflects the mutation when the handle is returned; Wait reports
// whether persistence succeeded.
type Pending struct {
	ID   uuid.UUID
	done chan struct{}
	err  error
}

func newPending(id uuid.UUID) *Pending {
	return &Pending{ID: id, done: make(chan struct{})}
}

func resolvedPending(id uuid.UUID, err error) *Pending {
	p := newPending(id)
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

// Done is closed once persistence and follow-up work have finished
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err returns the persistence error after Done is closed, nil before
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the mutation settles or ctx ends
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step is one store write with its compensation
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// mutation collects the local changes of one operation and the store writes
// that make them durable.
type mutation struct {
	restores []func()
	steps    []step
}

func (m *mutation) empty() bool {
	return len(m.steps) == 0
}

// rollback restores the local state in reverse order
func (m *mutation) rollback() {
	for i := len(m.restores) - 1; i >= 0; i-- {
		m.restores[i]()
	}
}

// persist runs the steps in order. When one fails, the completed steps are
// compensated in reverse order and the original error is returned.
func (m *mutation) persist(ctx context.Context, logger *zap.Logger) error {
	for i, s := range m.steps {
		if err := s.do(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if m.steps[j].undo == nil {
					continue
				}
				if uerr := m.steps[j].undo(ctx); uerr != nil {
					logger.Error("Failed to compensate persisted step",
						zap.String("step", m.steps[j].name),
						zap.Error(uerr),
					)
				}
			}
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// putRecord writes next into the collection and schedules its save
func putRecord[T any, P shared.Record[T]](m *mutation, c *Collection[T, P], store shared.EntityStore[T], next P) {
	id := next.GetID()
	prior, existed := c.Get(id)
	c.Put(next)
	m.restores = append(m.restores, func() { c.Restore(id, prior, existed) })

	snapshot := P(next.Clone())
	m.steps = append(m.steps, step{
		name: "save " + c.EntityType(),
		do: func(ctx context.Context) error {
			return store.Save(ctx, snapshot)
		},
		undo: func(ctx context.Context) error {
			if existed {
				return store.Save(ctx, prior)
			}
			return store.Delete(ctx, snapshot.GetTenantID(), id)
		},
	})
}

// removeRecord deletes the record from the collection and schedules its delete
func removeRecord[T any, P shared.Record[T]](m *mutation, c *Collection[T, P], store shared.EntityStore[T], id uuid.UUID) {
	prior, existed := c.Get(id)
	if !existed {
		return
	}
	c.Remove(id)
	m.restores = append(m.restores, func() { c.Restore(id, prior, true) })
	m.steps = append(m.steps, step{
		name: "delete " + c.EntityType(),
		do: func(ctx context.Context) error {
			return store.Delete(ctx, prior.GetTenantID(), id)
		},
		undo: func(ctx context.Context) error {
			return store.Save(ctx, prior)
		},
	})
}

// Coordinator persists optimistic mutations in the background, restoring the
// local state when persistence fails.
type Coordinator struct {
	logger  *zap.Logger
	metrics *CoordinatorMetrics
	wg      sync.WaitGroup
}

// NewCoordinator creates a coordinator; metrics may be nil
func NewCoordinator(logger *zap.Logger, metrics *CoordinatorMetrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{logger: logger, metrics: metrics}
}

// Submit persists m asynchronously. lock guards the local state while a
// failed mutation is rolled back. after runs once persistence succeeded;
// its failures are its own to log. The handle resolves after both.
func (c *Coordinator) Submit(ctx context.Context, op string, id uuid.UUID, m *mutation, lock sync.Locker, after func(ctx context.Context)) *Pending {
	p := newPending(id)
	bg := context.WithoutCancel(ctx)

	c.metrics.started()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := c.run(bg, op, id, m)
		if err != nil {
			lock.Lock()
			m.rollback()
			lock.Unlock()
			c.logger.Error("Optimistic mutation rolled back",
				zap.String("op", op),
				zap.String("id", id.String()),
				zap.Error(err),
			)
			p.resolve(shared.NewIOFailure(op, err))
			return
		}

		if after != nil {
			c.runAfter(bg, op, id, after)
		}
		p.resolve(nil)
	}()
	return p
}

// Persist runs m synchronously. Follow-up mutations use it so their own
// failures are rolled back without surfacing to the original caller.
func (c *Coordinator) Persist(ctx context.Context, op string, m *mutation, lock sync.Locker) error {
	c.metrics.started()
	if err := c.run(ctx, op, uuid.Nil, m); err != nil {
		lock.Lock()
		m.rollback()
		lock.Unlock()
		return shared.NewIOFailure(op, err)
	}
	return nil
}

// run persists m inside a span and records the outcome
func (c *Coordinator) run(ctx context.Context, op string, id uuid.UUID, m *mutation) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "tms", "persist",
		telemetry.WithAttribute(telemetry.SpanAttrOperation, op),
		telemetry.WithAttribute(telemetry.SpanAttrSteps, len(m.steps)),
	)
	defer span.End()
	if id != uuid.Nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrEntityID, id)
	}

	start := time.Now()
	err := m.persist(ctx, c.logger)
	c.metrics.finished(op, time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.AddEvent(span, "rolled_back")
	}
	return err
}

func (c *Coordinator) runAfter(ctx context.Context, op string, id uuid.UUID, after func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Follow-up work panicked",
				zap.String("op", op),
				zap.String("id", id.String()),
				zap.Any("panic", r),
			)
		}
	}()
	after(ctx)
}

// Wait blocks until every submitted mutation has settled
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
