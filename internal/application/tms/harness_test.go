package tms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/sequence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	errDiskFull = errors.New("disk full")
	fixedNow    = time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)

	admin      = shared.Actor{UserID: uuid.New(), Role: shared.RoleAdmin}
	dispatcher = shared.Actor{UserID: uuid.New(), Role: shared.RoleDispatcher}
	accountant = shared.Actor{UserID: uuid.New(), Role: shared.RoleAccounting}
	driverUser = shared.Actor{UserID: uuid.New(), Role: shared.RoleDriver}
)

// recordingSink is an in-memory audit sink
type recordingSink struct {
	mu      sync.Mutex
	entries []*audit.Entry
	err     error
}

func (r *recordingSink) Append(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *recordingSink) List(_ context.Context, tenantID uuid.UUID, f audit.Filter) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID && f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recordingSink) count(action audit.Action, entityType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Action == action && e.EntityType == entityType {
			n++
		}
	}
	return n
}

// flakyStore fails writes while failing is set. A non-nil gate blocks every
// Save until it is closed.
type flakyStore[T any] struct {
	shared.EntityStore[T]
	mu      sync.Mutex
	failing bool
	gate    chan struct{}
	saves   int
}

func (f *flakyStore[T]) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *flakyStore[T]) Save(ctx context.Context, entity *T) error {
	f.mu.Lock()
	gate, failing := f.gate, f.failing
	f.saves++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if failing {
		return errDiskFull
	}
	return f.EntityStore.Save(ctx, entity)
}

func (f *flakyStore[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return errDiskFull
	}
	return f.EntityStore.Delete(ctx, tenantID, id)
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	tenantID uuid.UUID
	session  *Session
	audit    *recordingSink

	loads       *flakyStore[freight.Load]
	employees   *persistence.MemoryStore[fleet.Employee, *fleet.Employee]
	invoices    *flakyStore[finance.Invoice]
	settlements *persistence.MemoryStore[finance.Settlement, *finance.Settlement]
	tasks       *persistence.MemoryStore[workflow.Task, *workflow.Task]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		tenantID:    uuid.New(),
		audit:       &recordingSink{},
		loads:       &flakyStore[freight.Load]{EntityStore: persistence.NewMemoryStore[freight.Load](EntityLoad)},
		employees:   persistence.NewMemoryStore[fleet.Employee](EntityEmployee),
		invoices:    &flakyStore[finance.Invoice]{EntityStore: persistence.NewMemoryStore[finance.Invoice](EntityInvoice)},
		settlements: persistence.NewMemoryStore[finance.Settlement](EntitySettlement),
		tasks:       persistence.NewMemoryStore[workflow.Task](EntityTask),
	}
	h.session = NewSession(h.tenantID, Dependencies{
		Stores: Stores{
			Loads:              h.loads,
			Employees:          h.employees,
			Trucks:             persistence.NewMemoryStore[fleet.Truck](EntityTruck),
			Trailers:           persistence.NewMemoryStore[fleet.Trailer](EntityTrailer),
			Brokers:            persistence.NewMemoryStore[partner.Broker](EntityBroker),
			FactoringCompanies: persistence.NewMemoryStore[partner.FactoringCompany](EntityFactoringCompany),
			Invoices:           h.invoices,
			Settlements:        h.settlements,
			Expenses:           persistence.NewMemoryStore[finance.Expense](EntityExpense),
			Tasks:              h.tasks,
		},
		Sequence: sequence.NewMemory(),
		Audit:    h.audit,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return fixedNow },
	})
	require.NoError(t, h.session.Open(h.ctx))
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) wait(p *Pending) {
	h.t.Helper()
	require.NotNil(h.t, p)
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()
	require.NoError(h.t, p.Wait(ctx))
}

func (h *harness) ownerOperator(split int64) *fleet.Employee {
	h.t.Helper()
	e, p, err := h.session.CreateEmployee(h.ctx, admin, CreateEmployeeInput{
		FirstName:  "Omar",
		LastName:   "Hassan",
		Type:       fleet.EmployeeTypeDriver,
		DriverType: fleet.DriverTypeOwnerOperator,
		Split:      decimal.NewFromInt(split),
	})
	require.NoError(h.t, err)
	h.wait(p)
	return e
}

func (h *harness) companyDriver(perMile string) *fleet.Employee {
	h.t.Helper()
	e, p, err := h.session.CreateEmployee(h.ctx, admin, CreateEmployeeInput{
		FirstName:   "Dana",
		LastName:    "Reyes",
		Type:        fleet.EmployeeTypeDriver,
		DriverType:  fleet.DriverTypeCompany,
		PerMileRate: decimal.RequireFromString(perMile),
	})
	require.NoError(h.t, err)
	h.wait(p)
	return e
}

type loadOption func(*freight.LoadUpdate)

func withDriver(id uuid.UUID) loadOption {
	return func(u *freight.LoadUpdate) { u.DriverID = &id }
}

func withMiles(miles int64) loadOption {
	return func(u *freight.LoadUpdate) {
		m := decimal.NewFromInt(miles)
		u.Miles = &m
	}
}

func withStatus(s freight.LoadStatus) loadOption {
	return func(u *freight.LoadUpdate) { u.Status = &s }
}

func (h *harness) addLoad(rate int64, opts ...loadOption) *freight.Load {
	h.t.Helper()
	r := decimal.NewFromInt(rate)
	customer := "Acme Foods"
	fields := freight.LoadUpdate{Rate: &r, CustomerName: &customer}
	for _, opt := range opts {
		opt(&fields)
	}
	l, p, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{Fields: fields})
	require.NoError(h.t, err)
	h.wait(p)
	return l
}

func (h *harness) setStatus(actor shared.Actor, id uuid.UUID, status freight.LoadStatus) *freight.Load {
	h.t.Helper()
	l, p, err := h.session.UpdateLoad(h.ctx, actor, id, UpdateLoadInput{
		Fields: freight.LoadUpdate{Status: &status},
	})
	require.NoError(h.t, err)
	h.wait(p)
	return l
}

func (h *harness) load(id uuid.UUID) *freight.Load {
	h.t.Helper()
	l, err := h.session.GetLoad(id)
	require.NoError(h.t, err)
	return l
}

func invoicesFor(s *Session, loadID uuid.UUID) []*finance.Invoice {
	return s.ListInvoices(InvoiceFilter{LoadID: loadID})
}

func settlementsFor(s *Session, loadID uuid.UUID) []*finance.Settlement {
	var out []*finance.Settlement
	for _, stl := range s.ListSettlements(uuid.Nil) {
		if stl.Covers(loadID) {
			out = append(out, stl)
		}
	}
	return out
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %T: %v", err, err)
	require.Equal(t, code, de.Code, de.Message)
	return de
}
