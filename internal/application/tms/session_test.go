package tms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/sequence"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSession_Open(t *testing.T) {
	t.Run("loads existing records and indexes their references", func(t *testing.T) {
		ctx := context.Background()
		tenantID := uuid.New()
		loads := persistence.NewMemoryStore[freight.Load](EntityLoad)
		driverID := uuid.New()
		l, err := freight.NewLoad(tenantID, "LD-7", freight.LoadUpdate{DriverID: &driverID}, fixedNow)
		require.NoError(t, err)
		require.NoError(t, loads.Save(ctx, l))

		s := NewSession(tenantID, Dependencies{Stores: Stores{Loads: loads}, Logger: zap.NewNop()})
		require.NoError(t, s.Open(ctx))
		defer s.Close()

		got, err := s.GetLoad(l.ID)
		require.NoError(t, err)
		assert.Equal(t, "LD-7", got.LoadNumber)
		assert.Equal(t, []uuid.UUID{l.ID}, s.index.ReferrersOfType(driverID, EntityLoad))
	})

	t.Run("external store writes are pushed into the session", func(t *testing.T) {
		h := newHarness(t)
		l, err := freight.NewLoad(h.tenantID, "EXT-1", freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)

		require.NoError(t, h.loads.EntityStore.Save(h.ctx, l))

		got, err := h.session.GetLoad(l.ID)
		require.NoError(t, err)
		assert.Equal(t, "EXT-1", got.LoadNumber)

		require.NoError(t, h.loads.EntityStore.Delete(h.ctx, h.tenantID, l.ID))
		_, err = h.session.GetLoad(l.ID)
		requireCode(t, err, shared.CodeNotFound)
	})

	t.Run("other tenants' writes are not pushed", func(t *testing.T) {
		h := newHarness(t)
		l, err := freight.NewLoad(uuid.New(), "OTHER-1", freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)

		require.NoError(t, h.loads.EntityStore.Save(h.ctx, l))

		assert.Empty(t, h.session.ListLoads(LoadFilter{}))
	})

	t.Run("closed session stops receiving pushes", func(t *testing.T) {
		h := newHarness(t)
		h.session.Close()
		l, err := freight.NewLoad(h.tenantID, "LATE-1", freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)

		require.NoError(t, h.loads.EntityStore.Save(h.ctx, l))

		assert.Empty(t, h.session.ListLoads(LoadFilter{}))
	})
}

func TestSession_Audit(t *testing.T) {
	t.Run("mutations are recorded", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDispatched)

		entries, err := h.session.AuditTrail(h.ctx, audit.Filter{EntityID: l.ID})
		require.NoError(t, err)
		actions := make([]audit.Action, 0, len(entries))
		for _, e := range entries {
			actions = append(actions, e.Action)
			assert.Equal(t, h.tenantID, e.TenantID)
			assert.Equal(t, EntityLoad, e.EntityType)
		}
		assert.ElementsMatch(t, []audit.Action{audit.ActionCreate, audit.ActionStatusChange}, actions)
	})

	t.Run("a failing sink never fails the mutation", func(t *testing.T) {
		h := newHarness(t)
		h.audit.mu.Lock()
		h.audit.err = errors.New("audit store offline")
		h.audit.mu.Unlock()

		l := h.addLoad(1000)

		_, err := h.session.GetLoad(l.ID)
		assert.NoError(t, err)
		assert.Zero(t, h.audit.count(audit.ActionCreate, EntityLoad))
	})
}

func TestCoordinator(t *testing.T) {
	newLoad := func(t *testing.T, tenantID uuid.UUID, number string) *freight.Load {
		l, err := freight.NewLoad(tenantID, number, freight.LoadUpdate{}, fixedNow)
		require.NoError(t, err)
		return l
	}

	t.Run("failed step compensates the earlier ones and rolls back", func(t *testing.T) {
		ctx := context.Background()
		tenantID := uuid.New()
		index := NewReferenceIndex()
		c := NewCollection[freight.Load](EntityLoad, index, loadRefs, nil)
		good := persistence.NewMemoryStore[freight.Load](EntityLoad)
		bad := &flakyStore[freight.Load]{EntityStore: persistence.NewMemoryStore[freight.Load](EntityLoad), failing: true}

		first, second := newLoad(t, tenantID, "A"), newLoad(t, tenantID, "B")
		m := &mutation{}
		putRecord(m, c, good, first)
		putRecord(m, c, bad, second)
		require.Equal(t, 2, c.Len())

		metrics := NewCoordinatorMetrics(prometheus.NewRegistry())
		coord := NewCoordinator(zap.NewNop(), metrics)
		var mu sync.Mutex
		var ran atomic.Bool
		p := coord.Submit(ctx, "add loads", first.ID, m, &mu, func(context.Context) { ran.Store(true) })

		err := p.Wait(ctx)
		requireCode(t, err, shared.CodeIOFailure)
		assert.True(t, errors.Is(err, errDiskFull))
		assert.False(t, ran.Load(), "follow-up work must not run after a failure")
		assert.Zero(t, c.Len())
		assert.Zero(t, good.Len(tenantID), "first save is compensated")

		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RollbacksTotal.WithLabelValues("add loads")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("add loads", OutcomeRolledBack)))
		assert.Zero(t, testutil.ToFloat64(metrics.InFlight))
	})

	t.Run("update failure restores the prior version", func(t *testing.T) {
		ctx := context.Background()
		tenantID := uuid.New()
		c := NewCollection[freight.Load](EntityLoad, NewReferenceIndex(), loadRefs, nil)
		store := &flakyStore[freight.Load]{EntityStore: persistence.NewMemoryStore[freight.Load](EntityLoad)}
		orig := newLoad(t, tenantID, "A")
		c.Put(orig)
		require.NoError(t, store.Save(ctx, orig))

		next := orig.Clone()
		next.Notes = "changed"
		m := &mutation{}
		putRecord(m, c, store, next)
		store.setFailing(true)

		var mu sync.Mutex
		err := NewCoordinator(nil, nil).Persist(ctx, "update load", m, &mu)

		requireCode(t, err, shared.CodeIOFailure)
		got, ok := c.Get(orig.ID)
		require.True(t, ok)
		assert.Empty(t, got.Notes)
	})

	t.Run("success commits and runs follow-up work", func(t *testing.T) {
		ctx := context.Background()
		c := NewCollection[freight.Load](EntityLoad, NewReferenceIndex(), loadRefs, nil)
		store := persistence.NewMemoryStore[freight.Load](EntityLoad)
		l := newLoad(t, uuid.New(), "A")
		m := &mutation{}
		putRecord(m, c, store, l)

		metrics := NewCoordinatorMetrics(nil)
		coord := NewCoordinator(nil, metrics)
		var mu sync.Mutex
		var ran atomic.Bool
		p := coord.Submit(ctx, "add load", l.ID, m, &mu, func(context.Context) { ran.Store(true) })

		require.NoError(t, p.Wait(ctx))
		assert.True(t, ran.Load())
		assert.Equal(t, 1, store.Len(l.TenantID))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("add load", OutcomeCommitted)))
	})

	t.Run("panicking follow-up still resolves the handle", func(t *testing.T) {
		ctx := context.Background()
		var mu sync.Mutex
		coord := NewCoordinator(nil, nil)

		p := coord.Submit(ctx, "noop", uuid.New(), &mutation{}, &mu, func(context.Context) { panic("boom") })

		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		assert.NoError(t, p.Wait(waitCtx))
	})
}

func TestReferenceIndex(t *testing.T) {
	x := NewReferenceIndex()
	driver, truck := uuid.New(), uuid.New()
	loadA := Source{Type: EntityLoad, ID: uuid.New()}
	loadB := Source{Type: EntityLoad, ID: uuid.New()}
	stl := Source{Type: EntitySettlement, ID: uuid.New()}

	x.Set(loadA, []uuid.UUID{driver, truck, uuid.Nil})
	x.Set(loadB, []uuid.UUID{driver, driver})
	x.Set(stl, []uuid.UUID{driver})

	assert.Len(t, x.Referrers(driver), 3)
	assert.ElementsMatch(t, []uuid.UUID{loadA.ID, loadB.ID}, x.ReferrersOfType(driver, EntityLoad))
	assert.Equal(t, []uuid.UUID{stl.ID}, x.ReferrersOfType(driver, EntitySettlement))
	assert.Equal(t, []Source{loadA}, x.Referrers(truck))

	x.Set(loadA, []uuid.UUID{driver})
	assert.Empty(t, x.Referrers(truck), "replaced targets are dropped")

	x.Remove(loadB)
	assert.ElementsMatch(t, []uuid.UUID{loadA.ID}, x.ReferrersOfType(driver, EntityLoad))

	x.RemoveType(EntityLoad)
	assert.Equal(t, []Source{stl}, x.Referrers(driver))
	assert.Empty(t, x.Referrers(uuid.New()))
}

func TestRegistry(t *testing.T) {
	newDeps := func() (Dependencies, *countingStore) {
		loads := &countingStore{EntityStore: persistence.NewMemoryStore[freight.Load](EntityLoad)}
		return Dependencies{
			Stores:   Stores{Loads: loads},
			Sequence: sequence.NewMemory(),
			Logger:   zap.NewNop(),
			Now:      func() time.Time { return fixedNow },
		}, loads
	}

	t.Run("one session per tenant", func(t *testing.T) {
		deps, loads := newDeps()
		r := NewRegistry(deps)
		defer r.Close()
		ctx := context.Background()
		tenantID := uuid.New()

		var wg sync.WaitGroup
		sessions := make([]*Session, 8)
		for i := range sessions {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s, err := r.Session(ctx, tenantID)
				assert.NoError(t, err)
				sessions[i] = s
			}(i)
		}
		wg.Wait()

		for _, s := range sessions {
			assert.Same(t, sessions[0], s)
		}
		assert.Equal(t, int32(1), loads.lists.Load(), "concurrent callers share one open")

		other, err := r.Session(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotSame(t, sessions[0], other)
		assert.Len(t, r.Sessions(), 2)
	})

	t.Run("sessions are isolated per tenant", func(t *testing.T) {
		deps, _ := newDeps()
		r := NewRegistry(deps)
		defer r.Close()
		ctx := context.Background()

		a, err := r.Session(ctx, uuid.New())
		require.NoError(t, err)
		b, err := r.Session(ctx, uuid.New())
		require.NoError(t, err)

		rate := decimal.NewFromInt(1000)
		_, p, err := a.AddLoad(ctx, dispatcher, CreateLoadInput{Fields: freight.LoadUpdate{Rate: &rate}})
		require.NoError(t, err)
		require.NoError(t, p.Wait(ctx))

		assert.Len(t, a.ListLoads(LoadFilter{}), 1)
		assert.Empty(t, b.ListLoads(LoadFilter{}))
	})

	t.Run("evicted tenant is reopened", func(t *testing.T) {
		deps, loads := newDeps()
		r := NewRegistry(deps)
		defer r.Close()
		ctx := context.Background()
		tenantID := uuid.New()

		first, err := r.Session(ctx, tenantID)
		require.NoError(t, err)
		r.Evict(tenantID)
		second, err := r.Session(ctx, tenantID)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Equal(t, int32(2), loads.lists.Load())
	})

	t.Run("failed open is not cached", func(t *testing.T) {
		deps, loads := newDeps()
		loads.listErr = errDiskFull
		r := NewRegistry(deps)
		defer r.Close()
		ctx := context.Background()
		tenantID := uuid.New()

		_, err := r.Session(ctx, tenantID)
		requireCode(t, err, shared.CodeIOFailure)
		assert.Empty(t, r.Sessions())

		loads.listErr = nil
		_, err = r.Session(ctx, tenantID)
		assert.NoError(t, err)
	})
}

// countingStore counts List calls and can fail them
type countingStore struct {
	shared.EntityStore[freight.Load]
	lists   atomic.Int32
	listErr error
}

func (c *countingStore) List(ctx context.Context, tenantID uuid.UUID) ([]*freight.Load, error) {
	c.lists.Add(1)
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.EntityStore.List(ctx, tenantID)
}
