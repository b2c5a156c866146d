package tms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SystemActor attributes scheduled work in audit entries
var SystemActor = shared.Actor{UserID: uuid.Nil, Role: shared.RoleAdmin}

// InvoiceFilter narrows ListInvoices
type InvoiceFilter struct {
	Status finance.InvoiceStatus
	LoadID uuid.UUID
}

// GetInvoice returns an invoice by id
func (s *Session) GetInvoice(id uuid.UUID) (*finance.Invoice, error) {
	return getRecord(s.invoices, id)
}

// ListInvoices returns invoices, newest number first
func (s *Session) ListInvoices(f InvoiceFilter) []*finance.Invoice {
	return s.invoices.Filter(func(i *finance.Invoice) bool {
		if f.Status != "" && i.Status != f.Status {
			return false
		}
		if f.LoadID != uuid.Nil && !i.Covers(f.LoadID) {
			return false
		}
		return true
	})
}

// CreateInvoice bills several loads on one invoice. A load that is already
// invoiced is rejected, so a load is never billed twice.
func (s *Session) CreateInvoice(ctx context.Context, actor shared.Actor, in CreateInvoiceInput) (*finance.Invoice, *Pending, error) {
	if err := authorize(actor, EntityInvoice, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	_, err := s.collectUninvoiced(in.LoadIDs)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	year := s.now().Year()
	seq, err := s.nextNumber(ctx, fmt.Sprintf("invoice-%d", year))
	if err != nil {
		return nil, nil, shared.NewIOFailure("allocate invoice number", err)
	}

	s.mu.Lock()
	loads, err := s.collectUninvoiced(in.LoadIDs)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}

	first := loads[0]
	ids := make([]uuid.UUID, 0, len(loads))
	for _, l := range loads {
		ids = append(ids, l.ID)
	}
	terms := s.calc.InvoiceTerms(first, s.now())
	terms.Amount = s.sumLoads(ids, uuid.Nil)
	if in.DueDate != nil && terms.Status == finance.InvoiceStatusPending {
		due := *in.DueDate
		terms.DueDate = &due
	}
	inv, err := finance.NewInvoice(s.tenantID, finance.FormatInvoiceNumber(year, seq), ids, first.BillTo(), terms)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	createdBy := actor.UserID
	inv.CreatedBy = &createdBy
	inv.BrokerID = shared.CloneID(first.BrokerID)
	inv.Notes = strings.TrimSpace(in.Notes)
	if sync := s.invoiceSync(ids, uuid.Nil, ""); sync.IsFactored {
		inv.SetFactoring(sync.FactoringCompanyID, sync.FactoringFee, terms.Amount.Sub(sync.FactoringFee))
	}

	m := &mutation{}
	putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
	for _, l := range loads {
		l.LinkInvoice(inv.ID)
		putRecord(m, s.loads, s.deps.Stores.Loads, l)
	}
	events := inv.PullDomainEvents()
	s.mu.Unlock()

	snapshot := inv.Clone()
	pending := s.coord.Submit(ctx, "create invoice", inv.ID, m, &s.mu, func(ctx context.Context) {
		s.recorder.Created(ctx, s.tenantID, actor, EntityInvoice, snapshot.ID, snapshot,
			fmt.Sprintf("Created invoice %s for %d load(s)", snapshot.InvoiceNumber, len(ids)))
		s.publish(ctx, events)
		s.archive(ctx, snapshot)
	})
	return inv.Clone(), pending, nil
}

func (s *Session) collectUninvoiced(ids []uuid.UUID) ([]*freight.Load, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	loads := make([]*freight.Load, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		l, ok := s.loads.Get(id)
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("Load %s not found", id))
		}
		if inv := s.invoiceFor(l); inv != nil {
			return nil, shared.NewPreconditionFailedError(
				fmt.Sprintf("Load %s is already invoiced on %s", l.LoadNumber, inv.InvoiceNumber))
		}
		loads = append(loads, l)
	}
	return loads, nil
}

// UpdateInvoice changes status, dates, bill-to name or notes
func (s *Session) UpdateInvoice(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateInvoiceInput) (*finance.Invoice, *Pending, error) {
	now := s.now()
	return updateRecord(ctx, s, actor, s.invoices, s.deps.Stores.Invoices, id,
		func(i *finance.Invoice) ([]string, error) { return i.Apply(in, now) }, nil)
}

// GetSettlement returns a settlement by id
func (s *Session) GetSettlement(id uuid.UUID) (*finance.Settlement, error) {
	return getRecord(s.settlements, id)
}

// ListSettlements returns settlements, optionally for one driver
func (s *Session) ListSettlements(driverID uuid.UUID) []*finance.Settlement {
	return s.settlements.Filter(func(st *finance.Settlement) bool {
		return driverID == uuid.Nil || shared.RefersTo(st.DriverID, driverID)
	})
}

// CreateSettlement pays a driver for loads they hauled. Loads already
// settled are rejected.
func (s *Session) CreateSettlement(ctx context.Context, actor shared.Actor, in CreateSettlementInput) (*finance.Settlement, *Pending, error) {
	if err := authorize(actor, EntitySettlement, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	_, err := s.collectUnsettled(in.DriverID, in.LoadIDs)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	year := s.now().Year()
	seq, err := s.nextNumber(ctx, fmt.Sprintf("settlement-%d", year))
	if err != nil {
		return nil, nil, shared.NewIOFailure("allocate settlement number", err)
	}

	s.mu.Lock()
	loads, err := s.collectUnsettled(in.DriverID, in.LoadIDs)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	driver, _ := s.employees.Get(in.DriverID)
	ids := make([]uuid.UUID, 0, len(loads))
	for _, l := range loads {
		ids = append(ids, l.ID)
	}
	gross, _ := s.sumGrossPay(&driver.ID, ids, uuid.Nil)

	stl, err := finance.NewSettlement(s.tenantID, finance.FormatSettlementNumber(year, seq), driver.ID, driver.FullName(), ids, gross)
	if err == nil && len(in.Deductions) > 0 {
		err = stl.SetDeductions(in.Deductions)
	}
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	createdBy := actor.UserID
	stl.CreatedBy = &createdBy

	m := &mutation{}
	putRecord(m, s.settlements, s.deps.Stores.Settlements, stl)
	for _, l := range loads {
		l.LinkSettlement(stl.ID)
		putRecord(m, s.loads, s.deps.Stores.Loads, l)
	}
	events := stl.PullDomainEvents()
	s.mu.Unlock()

	snapshot := stl.Clone()
	pending := s.coord.Submit(ctx, "create settlement", stl.ID, m, &s.mu, func(ctx context.Context) {
		s.recorder.Created(ctx, s.tenantID, actor, EntitySettlement, snapshot.ID, snapshot,
			fmt.Sprintf("Created settlement %s for %s", snapshot.SettlementNumber, snapshot.DriverName))
		s.publish(ctx, events)
	})
	return stl.Clone(), pending, nil
}

func (s *Session) collectUnsettled(driverID uuid.UUID, ids []uuid.UUID) ([]*freight.Load, error) {
	driver, ok := s.employees.Get(driverID)
	if !ok {
		return nil, shared.NewValidationError(fmt.Sprintf("Driver %s not found", driverID))
	}
	if !driver.IsDriver() {
		return nil, shared.NewValidationError(fmt.Sprintf("%s is not a driver", driver.FullName()))
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	loads := make([]*freight.Load, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		l, ok := s.loads.Get(id)
		if !ok {
			return nil, shared.NewValidationError(fmt.Sprintf("Load %s not found", id))
		}
		if !shared.RefersTo(l.DriverID, driverID) {
			return nil, shared.NewValidationError(
				fmt.Sprintf("Load %s is not assigned to %s", l.LoadNumber, driver.FullName()))
		}
		if stl := s.settlementFor(l); stl != nil {
			return nil, shared.NewPreconditionFailedError(
				fmt.Sprintf("Load %s is already settled on %s", l.LoadNumber, stl.SettlementNumber))
		}
		loads = append(loads, l)
	}
	return loads, nil
}

// UpdateSettlement changes status or deductions
func (s *Session) UpdateSettlement(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateSettlementInput) (*finance.Settlement, *Pending, error) {
	now := s.now()
	return updateRecord(ctx, s, actor, s.settlements, s.deps.Stores.Settlements, id,
		func(st *finance.Settlement) ([]string, error) { return st.Apply(in, now) }, nil)
}

// GetExpense returns an expense by id
func (s *Session) GetExpense(id uuid.UUID) (*finance.Expense, error) {
	return getRecord(s.expenses, id)
}

// ListExpenses returns expenses, optionally for one load
func (s *Session) ListExpenses(loadID uuid.UUID) []*finance.Expense {
	return s.expenses.Filter(func(e *finance.Expense) bool {
		return loadID == uuid.Nil || shared.RefersTo(e.LoadID, loadID)
	})
}

// CreateExpense records a cost
func (s *Session) CreateExpense(ctx context.Context, actor shared.Actor, in CreateExpenseInput) (*finance.Expense, *Pending, error) {
	if err := authorize(actor, EntityExpense, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	e, err := finance.NewExpense(s.tenantID, in.Category, in.Amount, in.Date, in.Description)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkExpenseReferences(in.LoadID, in.DriverID, in.TruckID); err != nil {
		return nil, nil, err
	}
	e.LoadID, e.DriverID, e.TruckID = shared.CloneID(in.LoadID), shared.CloneID(in.DriverID), shared.CloneID(in.TruckID)
	createdBy := actor.UserID
	e.CreatedBy = &createdBy

	out, pending := createRecord(ctx, s, actor, s.expenses, s.deps.Stores.Expenses, e,
		fmt.Sprintf("%s %s", e.Category, e.Amount.StringFixed(2)))
	return out, pending, nil
}

// UpdateExpense changes an expense
func (s *Session) UpdateExpense(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateExpenseInput) (*finance.Expense, *Pending, error) {
	if err := s.checkExpenseReferences(in.LoadID, in.DriverID, in.TruckID); err != nil {
		return nil, nil, err
	}
	return updateRecord(ctx, s, actor, s.expenses, s.deps.Stores.Expenses, id,
		func(e *finance.Expense) ([]string, error) { return e.Apply(in) }, nil)
}

func (s *Session) checkExpenseReferences(loadID, driverID, truckID *uuid.UUID) error {
	if loadID != nil && *loadID != uuid.Nil && !s.loads.Has(*loadID) {
		return shared.NewValidationError(fmt.Sprintf("Load %s not found", loadID))
	}
	if driverID != nil && *driverID != uuid.Nil && !s.employees.Has(*driverID) {
		return shared.NewValidationError(fmt.Sprintf("Employee %s not found", driverID))
	}
	if truckID != nil && *truckID != uuid.Nil && !s.trucks.Has(*truckID) {
		return shared.NewValidationError(fmt.Sprintf("Truck %s not found", truckID))
	}
	return nil
}

// SweepOverdueInvoices flags pending invoices past their due date. It returns
// the number of invoices flagged.
func (s *Session) SweepOverdueInvoices(ctx context.Context) (int, *Pending) {
	now := s.now()

	s.mu.Lock()
	m := &mutation{}
	var flagged []*finance.Invoice
	for _, inv := range s.invoices.List() {
		if !inv.MarkOverdue(now) {
			continue
		}
		putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
		flagged = append(flagged, inv)
	}
	s.mu.Unlock()
	if m.empty() {
		return 0, resolvedPending(uuid.Nil, nil)
	}

	pending := s.coord.Submit(ctx, "sweep overdue invoices", uuid.Nil, m, &s.mu, func(ctx context.Context) {
		for _, inv := range flagged {
			s.recorder.StatusChanged(ctx, s.tenantID, SystemActor, EntityInvoice, inv.ID,
				string(finance.InvoiceStatusPending), string(finance.InvoiceStatusOverdue),
				fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber))
		}
		s.logger.Info("Flagged overdue invoices", zap.Int("count", len(flagged)))
	})
	return len(flagged), pending
}

// DueWithin returns open invoices due in the next window
func (s *Session) DueWithin(window time.Duration) []*finance.Invoice {
	limit := s.now().Add(window)
	return s.invoices.Filter(func(i *finance.Invoice) bool {
		return i.Status == finance.InvoiceStatusPending && i.DueDate != nil && !i.DueDate.After(limit)
	})
}
