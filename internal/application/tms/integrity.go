package tms

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// DeleteEmployee removes a driver or dispatcher
func (s *Session) DeleteEmployee(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.employees, s.deps.Stores.Employees, id, force,
		func(e *fleet.Employee) string { return e.FullName() })
}

// DeleteTruck removes a truck
func (s *Session) DeleteTruck(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.trucks, s.deps.Stores.Trucks, id, force,
		func(t *fleet.Truck) string { return t.DisplayName() })
}

// DeleteTrailer removes a trailer
func (s *Session) DeleteTrailer(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.trailers, s.deps.Stores.Trailers, id, force,
		func(t *fleet.Trailer) string { return t.DisplayName() })
}

// DeleteBroker removes a broker
func (s *Session) DeleteBroker(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.brokers, s.deps.Stores.Brokers, id, force,
		func(b *partner.Broker) string { return b.Name })
}

// DeleteFactoringCompany removes a factoring company
func (s *Session) DeleteFactoringCompany(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.factoringCompanies, s.deps.Stores.FactoringCompanies, id, force,
		func(f *partner.FactoringCompany) string { return f.Name })
}

// DeleteInvoice removes an invoice
func (s *Session) DeleteInvoice(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.invoices, s.deps.Stores.Invoices, id, force,
		func(i *finance.Invoice) string { return i.InvoiceNumber })
}

// DeleteSettlement removes a settlement
func (s *Session) DeleteSettlement(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.settlements, s.deps.Stores.Settlements, id, force,
		func(st *finance.Settlement) string { return st.SettlementNumber })
}

// DeleteExpense removes an expense; nothing references expenses
func (s *Session) DeleteExpense(ctx context.Context, actor shared.Actor, id uuid.UUID) (*Pending, error) {
	return deleteReferenced(ctx, s, actor, s.expenses, s.deps.Stores.Expenses, id, false,
		func(e *finance.Expense) string { return e.Description })
}

// deleteReferenced removes a record other records may point at. Loads
// holding a reference block the delete unless force is set; with force every
// reference, from loads and from other records, is cleared in the same
// mutation as the delete.
func deleteReferenced[T any, P shared.Record[T]](
	ctx context.Context,
	s *Session,
	actor shared.Actor,
	c *Collection[T, P],
	store shared.EntityStore[T],
	id uuid.UUID,
	force bool,
	label func(P) string,
) (*Pending, error) {
	entityType := c.EntityType()
	if err := authorize(actor, entityType, ActionDelete); err != nil {
		return nil, err
	}

	s.mu.Lock()
	target, ok := c.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil, shared.NewNotFoundError(entityType, id)
	}
	name := label(target)

	referrers := s.index.Referrers(id)
	var blockers []uuid.UUID
	for _, ref := range referrers {
		if ref.Type == EntityLoad {
			blockers = append(blockers, ref.ID)
		}
	}
	if len(blockers) > 0 && !force {
		s.mu.Unlock()
		return nil, s.blockedError(entityType, name, blockers)
	}

	m := &mutation{}
	unlinked := make(map[string]int)
	for _, ref := range referrers {
		if s.unlink(m, ref, id) {
			unlinked[ref.Type]++
		}
	}
	removeRecord(m, c, store, id)
	s.mu.Unlock()

	metadata := audit.Payload{"force": force}
	for typ, n := range unlinked {
		metadata["unlinked_"+strings.ToLower(typ)] = n
	}
	op := "delete " + strings.ToLower(entityType)
	return s.coord.Submit(ctx, op, id, m, &s.mu, func(ctx context.Context) {
		s.recorder.Deleted(ctx, s.tenantID, actor, entityType, id, target, metadata,
			fmt.Sprintf("Deleted %s %s", entityType, name))
	}), nil
}

// unlink clears the references src holds to target
func (s *Session) unlink(m *mutation, src Source, target uuid.UUID) bool {
	switch src.Type {
	case EntityLoad:
		l, ok := s.loads.Get(src.ID)
		if !ok || len(l.ClearReferencesTo(target)) == 0 {
			return false
		}
		putRecord(m, s.loads, s.deps.Stores.Loads, l)
	case EntityInvoice:
		inv, ok := s.invoices.Get(src.ID)
		if !ok || len(inv.ClearReferencesTo(target)) == 0 {
			return false
		}
		putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
	case EntitySettlement:
		stl, ok := s.settlements.Get(src.ID)
		if !ok || len(stl.ClearReferencesTo(target)) == 0 {
			return false
		}
		putRecord(m, s.settlements, s.deps.Stores.Settlements, stl)
	case EntityExpense:
		exp, ok := s.expenses.Get(src.ID)
		if !ok || len(exp.ClearReferencesTo(target)) == 0 {
			return false
		}
		putRecord(m, s.expenses, s.deps.Stores.Expenses, exp)
	default:
		return false
	}
	return true
}

func (s *Session) blockedError(entityType, name string, loadIDs []uuid.UUID) error {
	numbers := make([]string, 0, len(loadIDs))
	blockers := make([]map[string]any, 0, len(loadIDs))
	for _, id := range loadIDs {
		number := id.String()
		if l, ok := s.loads.Get(id); ok {
			number = l.LoadNumber
		}
		numbers = append(numbers, number)
		blockers = append(blockers, map[string]any{"type": EntityLoad, "id": id, "label": number})
	}
	return shared.NewPreconditionFailedError(
		fmt.Sprintf("%s %s is referenced by %d load(s): %s", entityType, name, len(loadIDs), strings.Join(numbers, ", ")),
	).WithDetails(map[string]any{"count": len(loadIDs), "blockers": blockers})
}
