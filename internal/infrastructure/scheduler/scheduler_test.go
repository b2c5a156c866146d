package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/sequence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var sweepNow = time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	registry *tms.Registry
	invoices *persistence.MemoryStore[finance.Invoice, *finance.Invoice]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		invoices: persistence.NewMemoryStore[finance.Invoice](tms.EntityInvoice),
	}
	f.registry = tms.NewRegistry(tms.Dependencies{
		Stores:   tms.Stores{Invoices: f.invoices},
		Sequence: sequence.NewMemory(),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return sweepNow },
	})
	t.Cleanup(f.registry.Close)
	return f
}

// seedInvoice stores a pending invoice due offset from now and opens the
// tenant's session
func (f *fixture) seedInvoice(t *testing.T, tenantID uuid.UUID, number string, offset time.Duration) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(tenantID, number, []uuid.UUID{uuid.New()}, "Acme Freight",
		finance.InvoiceTerms{Amount: decimal.NewFromInt(1200), Status: finance.InvoiceStatusPending})
	require.NoError(t, err)
	due := sweepNow.Add(offset)
	inv.DueDate = &due
	require.NoError(t, f.invoices.Save(f.ctx, inv))

	_, err = f.registry.Session(f.ctx, tenantID)
	require.NoError(t, err)
	return inv
}

func (f *fixture) status(t *testing.T, tenantID, id uuid.UUID) finance.InvoiceStatus {
	t.Helper()
	inv, err := f.invoices.Get(f.ctx, tenantID, id)
	require.NoError(t, err)
	return inv.Status
}

type staticSource []*tms.Session

func (s staticSource) Sessions() []*tms.Session { return s }

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:              true,
		OverdueSweepInterval: 10 * time.Millisecond,
		JobTimeout:           time.Second,
	}
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testConfig()
	cfg.OverdueSweepInterval = 0
	_, err = NewScheduler(cfg, staticSource{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig()
	cfg.JobTimeout = 0
	s, err := NewScheduler(cfg, staticSource{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().JobTimeout, s.config.JobTimeout)
}

func TestScheduler_RunOnce(t *testing.T) {
	f := newFixture(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	late := f.seedInvoice(t, tenantA, "INV-2026-0001", -72*time.Hour)
	current := f.seedInvoice(t, tenantA, "INV-2026-0002", 72*time.Hour)
	otherLate := f.seedInvoice(t, tenantB, "INV-2026-0001", -time.Hour)

	core, logs := observer.New(zapcore.InfoLevel)
	s, err := NewScheduler(testConfig(), f.registry, zap.New(core))
	require.NoError(t, err)

	results := s.RunOnce(f.ctx)
	require.Len(t, results, 2)
	flagged := map[uuid.UUID]int{}
	for _, r := range results {
		assert.Equal(t, RunStatusSuccess, r.Status)
		assert.Empty(t, r.Error)
		flagged[r.TenantID] = r.Flagged
	}
	assert.Equal(t, map[uuid.UUID]int{tenantA: 1, tenantB: 1}, flagged)

	assert.Equal(t, finance.InvoiceStatusOverdue, f.status(t, tenantA, late.ID))
	assert.Equal(t, finance.InvoiceStatusPending, f.status(t, tenantA, current.ID))
	assert.Equal(t, finance.InvoiceStatusOverdue, f.status(t, tenantB, otherLate.ID))
	assert.Equal(t, results, s.LastRun())

	finished := logs.FilterMessage("Overdue sweep finished").All()
	require.Len(t, finished, 1)
	assert.EqualValues(t, 2, finished[0].ContextMap()["flagged"])

	again := s.RunOnce(f.ctx)
	for _, r := range again {
		assert.Zero(t, r.Flagged)
	}
}

func TestScheduler_RunOnceWithCanceledContext(t *testing.T) {
	f := newFixture(t)
	late := f.seedInvoice(t, uuid.New(), "INV-2026-0001", -time.Hour)

	s, err := NewScheduler(testConfig(), f.registry, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, s.RunOnce(ctx))
	assert.Equal(t, finance.InvoiceStatusPending, f.status(t, late.TenantID, late.ID))
}

func TestScheduler_StartStop(t *testing.T) {
	f := newFixture(t)
	late := f.seedInvoice(t, uuid.New(), "INV-2026-0001", -time.Hour)

	s, err := NewScheduler(testConfig(), f.registry, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(f.ctx))
	require.NoError(t, s.Start(f.ctx))
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool {
		inv, err := f.invoices.Get(f.ctx, late.TenantID, late.ID)
		return err == nil && inv.Status == finance.InvoiceStatusOverdue
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(stopCtx))
}

func TestScheduler_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	s, err := NewScheduler(cfg, staticSource{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestScheduler_PersistFailureIsReported(t *testing.T) {
	f := newFixture(t)
	tenantID := uuid.New()
	failing := &failingInvoices{MemoryStore: persistence.NewMemoryStore[finance.Invoice](tms.EntityInvoice)}
	inv, err := finance.NewInvoice(tenantID, "INV-2026-0009", []uuid.UUID{uuid.New()}, "Acme Freight",
		finance.InvoiceTerms{Amount: decimal.NewFromInt(800), Status: finance.InvoiceStatusPending})
	require.NoError(t, err)
	due := sweepNow.Add(-time.Hour)
	inv.DueDate = &due
	require.NoError(t, failing.MemoryStore.Save(f.ctx, inv))

	registry := tms.NewRegistry(tms.Dependencies{
		Stores:   tms.Stores{Invoices: failing},
		Sequence: sequence.NewMemory(),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return sweepNow },
	})
	t.Cleanup(registry.Close)
	_, err = registry.Session(f.ctx, tenantID)
	require.NoError(t, err)

	s, err := NewScheduler(testConfig(), registry, nil)
	require.NoError(t, err)

	results := s.RunOnce(f.ctx)
	require.Len(t, results, 1)
	assert.Equal(t, RunStatusFailed, results[0].Status)
	assert.Equal(t, 1, results[0].Flagged)
	assert.Contains(t, results[0].Error, "disk full")
}

type failingInvoices struct {
	*persistence.MemoryStore[finance.Invoice, *finance.Invoice]
}

func (failingInvoices) Save(context.Context, *finance.Invoice) error {
	return errors.New("disk full")
}
