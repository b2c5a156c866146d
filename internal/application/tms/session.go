package tms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stores bundles the persistence ports of every entity type
type Stores struct {
	Loads              shared.EntityStore[freight.Load]
	Employees          shared.EntityStore[fleet.Employee]
	Trucks             shared.EntityStore[fleet.Truck]
	Trailers           shared.EntityStore[fleet.Trailer]
	Brokers            shared.EntityStore[partner.Broker]
	FactoringCompanies shared.EntityStore[partner.FactoringCompany]
	Invoices           shared.EntityStore[finance.Invoice]
	Settlements        shared.EntityStore[finance.Settlement]
	Expenses           shared.EntityStore[finance.Expense]
	Tasks              shared.EntityStore[workflow.Task]
}

// InvoiceArchive keeps a durable copy of generated invoices outside the
// primary store
type InvoiceArchive interface {
	ArchiveInvoice(ctx context.Context, inv *finance.Invoice) error
}

// Dependencies are shared by every tenant session
type Dependencies struct {
	Stores     Stores
	Sequence   shared.SequenceGenerator
	Audit      audit.Sink
	Events     shared.EventPublisher
	Archive    InvoiceArchive
	Metrics    *CoordinatorMetrics
	Calculator *finance.Calculator
	Logger     *zap.Logger
	Now        func() time.Time
}

// Session is the in-memory working set of one tenant. Reads are served from
// memory; writes are applied locally first and persisted in the background.
type Session struct {
	tenantID uuid.UUID
	deps     Dependencies
	logger   *zap.Logger
	calc     *finance.Calculator
	coord    *Coordinator
	recorder *AuditRecorder
	now      func() time.Time

	// mu serializes the local phase of every mutation
	mu sync.Mutex

	index              *ReferenceIndex
	loads              *Collection[freight.Load, *freight.Load]
	employees          *Collection[fleet.Employee, *fleet.Employee]
	trucks             *Collection[fleet.Truck, *fleet.Truck]
	trailers           *Collection[fleet.Trailer, *fleet.Trailer]
	brokers            *Collection[partner.Broker, *partner.Broker]
	factoringCompanies *Collection[partner.FactoringCompany, *partner.FactoringCompany]
	invoices           *Collection[finance.Invoice, *finance.Invoice]
	settlements        *Collection[finance.Settlement, *finance.Settlement]
	expenses           *Collection[finance.Expense, *finance.Expense]

	subMu         sync.Mutex
	unsubscribers []func()
	closed        bool
}

// NewSession builds an empty session for tenantID. Call Open to load data.
func NewSession(tenantID uuid.UUID, deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	calc := deps.Calculator
	if calc == nil {
		calc = finance.NewCalculator(finance.WithLogger(logger))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	index := NewReferenceIndex()
	s := &Session{
		tenantID: tenantID,
		deps:     deps,
		logger:   logger.With(zap.String("tenant_id", tenantID.String())),
		calc:     calc,
		now:      now,
		index:    index,
	}
	s.coord = NewCoordinator(s.logger, deps.Metrics)
	s.recorder = NewAuditRecorder(deps.Audit, s.logger)

	s.loads = NewCollection[freight.Load](EntityLoad, index, loadRefs,
		func(a, b *freight.Load) bool { return a.CreatedAt.After(b.CreatedAt) })
	s.employees = NewCollection[fleet.Employee](EntityEmployee, index, nil,
		func(a, b *fleet.Employee) bool { return a.FullName() < b.FullName() })
	s.trucks = NewCollection[fleet.Truck](EntityTruck, index, nil,
		func(a, b *fleet.Truck) bool { return a.UnitNumber < b.UnitNumber })
	s.trailers = NewCollection[fleet.Trailer](EntityTrailer, index, nil,
		func(a, b *fleet.Trailer) bool { return a.UnitNumber < b.UnitNumber })
	s.brokers = NewCollection[partner.Broker](EntityBroker, index, nil,
		func(a, b *partner.Broker) bool { return a.Name < b.Name })
	s.factoringCompanies = NewCollection[partner.FactoringCompany](EntityFactoringCompany, index, nil,
		func(a, b *partner.FactoringCompany) bool { return a.Name < b.Name })
	s.invoices = NewCollection[finance.Invoice](EntityInvoice, index, invoiceRefs,
		func(a, b *finance.Invoice) bool { return a.InvoiceNumber > b.InvoiceNumber })
	s.settlements = NewCollection[finance.Settlement](EntitySettlement, index, settlementRefs,
		func(a, b *finance.Settlement) bool { return a.SettlementNumber > b.SettlementNumber })
	s.expenses = NewCollection[finance.Expense](EntityExpense, index, expenseRefs,
		func(a, b *finance.Expense) bool { return a.Date.After(b.Date) })
	return s
}

func loadRefs(l *freight.Load) []uuid.UUID {
	return derefIDs(l.DriverID, l.DispatcherID, l.TruckID, l.TrailerID, l.BrokerID,
		l.FactoringCompanyID, l.InvoiceID, l.SettlementID)
}

func invoiceRefs(i *finance.Invoice) []uuid.UUID {
	return append(derefIDs(i.BrokerID, i.FactoringCompanyID), i.LoadIDs...)
}

func settlementRefs(s *finance.Settlement) []uuid.UUID {
	return append(derefIDs(s.DriverID), s.LoadIDs...)
}

func expenseRefs(e *finance.Expense) []uuid.UUID {
	return derefIDs(e.LoadID, e.DriverID, e.TruckID)
}

func derefIDs(ids ...*uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != nil && *id != uuid.Nil {
			out = append(out, *id)
		}
	}
	return out
}

// TenantID returns the tenant the session is scoped to
func (s *Session) TenantID() uuid.UUID {
	return s.tenantID
}

// Open loads every collection and subscribes to store changes. Each push
// replaces the collection wholesale; the last delivery wins.
func (s *Session) Open(ctx context.Context) error {
	st := s.deps.Stores
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return attach(ctx, s, s.loads, st.Loads) },
		func(ctx context.Context) error { return attach(ctx, s, s.employees, st.Employees) },
		func(ctx context.Context) error { return attach(ctx, s, s.trucks, st.Trucks) },
		func(ctx context.Context) error { return attach(ctx, s, s.trailers, st.Trailers) },
		func(ctx context.Context) error { return attach(ctx, s, s.brokers, st.Brokers) },
		func(ctx context.Context) error {
			return attach(ctx, s, s.factoringCompanies, st.FactoringCompanies)
		},
		func(ctx context.Context) error { return attach(ctx, s, s.invoices, st.Invoices) },
		func(ctx context.Context) error { return attach(ctx, s, s.settlements, st.Settlements) },
		func(ctx context.Context) error { return attach(ctx, s, s.expenses, st.Expenses) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			s.Close()
			return err
		}
	}
	s.logger.Info("Tenant session opened",
		zap.Int("loads", s.loads.Len()),
		zap.Int("invoices", s.invoices.Len()),
	)
	return nil
}

func attach[T any, P shared.Record[T]](ctx context.Context, s *Session, c *Collection[T, P], store shared.EntityStore[T]) error {
	if store == nil {
		return nil
	}
	items, err := store.List(ctx, s.tenantID)
	if err != nil {
		return shared.NewIOFailure("load "+c.EntityType()+" records", err)
	}
	c.Replace(items)

	unsubscribe, err := store.Subscribe(ctx, s.tenantID,
		func(items []*T) { c.Replace(items) },
		func(err error) {
			s.logger.Warn("Change feed error",
				zap.String("entity_type", c.EntityType()),
				zap.Error(err),
			)
		},
	)
	if err != nil {
		return shared.NewIOFailure("subscribe to "+c.EntityType()+" changes", err)
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.closed {
		unsubscribe()
		return fmt.Errorf("session closed")
	}
	s.unsubscribers = append(s.unsubscribers, unsubscribe)
	return nil
}

// Close cancels the subscriptions and waits for in-flight mutations
func (s *Session) Close() {
	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		return
	}
	s.closed = true
	unsubscribers := s.unsubscribers
	s.unsubscribers = nil
	s.subMu.Unlock()

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	s.coord.Wait()
}

// Wait blocks until every mutation submitted so far has settled
func (s *Session) Wait() {
	s.coord.Wait()
}

func (s *Session) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.deps.Events == nil || len(events) == 0 {
		return
	}
	if err := s.deps.Events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *Session) nextNumber(ctx context.Context, name string) (int64, error) {
	if s.deps.Sequence == nil {
		return 0, fmt.Errorf("no sequence generator configured")
	}
	return s.deps.Sequence.Next(ctx, s.tenantID, name)
}
