package tms

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetLoad returns a load by id
func (s *Session) GetLoad(id uuid.UUID) (*freight.Load, error) {
	l, ok := s.loads.Get(id)
	if !ok {
		return nil, shared.NewNotFoundError(EntityLoad, id)
	}
	return l, nil
}

// ListLoads returns the loads matching the filter, newest first
func (s *Session) ListLoads(f LoadFilter) []*freight.Load {
	customer := strings.ToLower(strings.TrimSpace(f.Customer))
	return s.loads.Filter(func(l *freight.Load) bool {
		if f.Status != "" && l.Status != f.Status {
			return false
		}
		if f.DriverID != uuid.Nil && !shared.RefersTo(l.DriverID, f.DriverID) {
			return false
		}
		if customer != "" && !strings.Contains(strings.ToLower(l.BillTo()), customer) {
			return false
		}
		if f.Locked != nil && l.IsLocked != *f.Locked {
			return false
		}
		return true
	})
}

// AddLoad creates a load. The returned load is already visible to readers;
// the handle reports whether it was persisted. A load created in a locking
// status is invoiced and settled once persisted.
func (s *Session) AddLoad(ctx context.Context, actor shared.Actor, in CreateLoadInput) (*freight.Load, *Pending, error) {
	if err := authorize(actor, EntityLoad, ActionCreate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}
	fields, dropped := in.Fields.Restrict(actor.Role)
	s.logDropped(actor, uuid.Nil, dropped)

	number := strings.TrimSpace(in.LoadNumber)
	if number == "" {
		year := s.now().Year()
		seq, err := s.nextNumber(ctx, fmt.Sprintf("load-%d", year))
		if err != nil {
			return nil, nil, shared.NewIOFailure("allocate load number", err)
		}
		number = fmt.Sprintf("LD-%d-%05d", year, seq)
	}

	s.mu.Lock()
	if s.loadNumberTaken(number, uuid.Nil) {
		s.mu.Unlock()
		return nil, nil, shared.NewValidationError(fmt.Sprintf("Load number %s already exists", number))
	}
	if err := s.checkLoadReferences(&fields); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	load, err := freight.NewLoad(s.tenantID, number, fields, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	createdBy := actor.UserID
	load.CreatedBy = &createdBy

	m := &mutation{}
	putRecord(m, s.loads, s.deps.Stores.Loads, load)
	events := load.PullDomainEvents()
	s.mu.Unlock()

	snapshot := load.Clone()
	pending := s.coord.Submit(ctx, "add load", load.ID, m, &s.mu, func(ctx context.Context) {
		s.recorder.Created(ctx, s.tenantID, actor, EntityLoad, snapshot.ID, snapshot,
			fmt.Sprintf("Created load %s", snapshot.LoadNumber))
		s.publish(ctx, events)
		if snapshot.Status.Locks() {
			s.generateFinancials(ctx, actor, snapshot.ID)
		}
	})
	return load.Clone(), pending, nil
}

// UpdateLoad applies a partial update. Fields the actor's role may not edit
// are dropped. Edits to a locked load need a reason unless they only touch
// exempt fields, and each changed field is recorded as an adjustment.
func (s *Session) UpdateLoad(ctx context.Context, actor shared.Actor, id uuid.UUID, in UpdateLoadInput) (*freight.Load, *Pending, error) {
	if err := authorize(actor, EntityLoad, ActionUpdate); err != nil {
		return nil, nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	current, ok := s.loads.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil, nil, shared.NewNotFoundError(EntityLoad, id)
	}

	fields, dropped := in.Fields.Restrict(actor.Role)
	s.logDropped(actor, id, dropped)
	if fields.IsEmpty() {
		s.mu.Unlock()
		if len(dropped) > 0 {
			return nil, nil, shared.NewValidationError(
				fmt.Sprintf("No updatable field remains for role %s", actor.Role)).
				WithDetails(map[string]any{"dropped": fieldNames(dropped)})
		}
		return current, resolvedPending(id, nil), nil
	}
	if err := s.checkLoadReferences(&fields); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}

	next := current.Clone()
	changes, err := next.Apply(fields, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	if len(changes) == 0 {
		s.mu.Unlock()
		return current, resolvedPending(id, nil), nil
	}

	reason := strings.TrimSpace(in.Reason)
	if current.NeedsReason(changes) && reason == "" {
		s.mu.Unlock()
		return nil, nil, shared.NewPreconditionFailedError("Reason required for adjustments to locked loads").
			WithDetails(map[string]any{"fields": changedFieldNames(changes)})
	}
	if err := s.checkDriverReassignment(current, changes); err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	var adjustments []freight.AdjustmentEntry
	if current.IsLocked && reason != "" {
		adjustments = next.RecordAdjustments(changes, reason, actor, s.now())
	}

	m := &mutation{}
	putRecord(m, s.loads, s.deps.Stores.Loads, next)
	events := next.PullDomainEvents()
	entry := loadUpdateEntry(s.tenantID, actor, next, current.Status, changes, adjustments, reason)
	s.mu.Unlock()

	statusFrom, statusTo := current.Status, next.Status
	affectsInvoice, affectsPay := false, false
	for _, c := range changes {
		affectsInvoice = affectsInvoice || c.Field.AffectsInvoice()
		affectsPay = affectsPay || c.Field.AffectsDriverPay()
	}

	pending := s.coord.Submit(ctx, "update load", id, m, &s.mu, func(ctx context.Context) {
		s.recorder.Record(ctx, entry)
		s.publish(ctx, events)

		if statusFrom != statusTo && statusTo.Locks() {
			s.generateFinancials(ctx, actor, id)
		}
		if affectsInvoice {
			s.resyncInvoices(ctx, actor, id)
		}
		if affectsPay {
			s.resyncSettlements(ctx, actor, id)
		}
	})
	return next.Clone(), pending, nil
}

// DeleteLoad removes a load. Invoices and settlements covering it block the
// delete unless force is set, in which case the load is dropped from them
// and their amounts are recomputed over the remaining loads.
func (s *Session) DeleteLoad(ctx context.Context, actor shared.Actor, id uuid.UUID, force bool) (*Pending, error) {
	if err := authorize(actor, EntityLoad, ActionDelete); err != nil {
		return nil, err
	}

	s.mu.Lock()
	load, ok := s.loads.Get(id)
	if !ok {
		s.mu.Unlock()
		return nil, shared.NewNotFoundError(EntityLoad, id)
	}

	invoiceIDs := s.index.ReferrersOfType(id, EntityInvoice)
	settlementIDs := s.index.ReferrersOfType(id, EntitySettlement)
	expenseIDs := s.index.ReferrersOfType(id, EntityExpense)
	if !force && len(invoiceIDs)+len(settlementIDs) > 0 {
		s.mu.Unlock()
		return nil, s.loadBlockedError(load, invoiceIDs, settlementIDs)
	}

	m := &mutation{}
	for _, invID := range invoiceIDs {
		inv, ok := s.invoices.Get(invID)
		if !ok {
			continue
		}
		inv.ClearReferencesTo(id)
		inv.Resync(s.invoiceSync(inv.LoadIDs, id, ""))
		putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
	}
	for _, stlID := range settlementIDs {
		stl, ok := s.settlements.Get(stlID)
		if !ok {
			continue
		}
		stl.ClearReferencesTo(id)
		if stl.Status == finance.SettlementStatusDraft {
			if gross, ok := s.sumGrossPay(stl.DriverID, stl.LoadIDs, id); ok {
				stl.SetGrossPay(gross)
			}
		}
		putRecord(m, s.settlements, s.deps.Stores.Settlements, stl)
	}
	for _, expID := range expenseIDs {
		exp, ok := s.expenses.Get(expID)
		if !ok {
			continue
		}
		exp.ClearReferencesTo(id)
		putRecord(m, s.expenses, s.deps.Stores.Expenses, exp)
	}
	removeRecord(m, s.loads, s.deps.Stores.Loads, id)
	s.mu.Unlock()

	metadata := audit.Payload{
		"force":            force,
		"unlinked_invoice": len(invoiceIDs),
		"unlinked_settle":  len(settlementIDs),
		"unlinked_expense": len(expenseIDs),
	}
	return s.coord.Submit(ctx, "delete load", id, m, &s.mu, func(ctx context.Context) {
		s.recorder.Deleted(ctx, s.tenantID, actor, EntityLoad, id, load, metadata,
			fmt.Sprintf("Deleted load %s", load.LoadNumber))
	}), nil
}

func (s *Session) loadBlockedError(load *freight.Load, invoiceIDs, settlementIDs []uuid.UUID) error {
	var refs []string
	blockers := make([]map[string]any, 0, len(invoiceIDs)+len(settlementIDs))
	for _, invID := range invoiceIDs {
		label := invID.String()
		if inv, ok := s.invoices.Get(invID); ok {
			label = inv.InvoiceNumber
		}
		refs = append(refs, label)
		blockers = append(blockers, map[string]any{"type": EntityInvoice, "id": invID, "label": label})
	}
	for _, stlID := range settlementIDs {
		label := stlID.String()
		if stl, ok := s.settlements.Get(stlID); ok {
			label = stl.SettlementNumber
		}
		refs = append(refs, label)
		blockers = append(blockers, map[string]any{"type": EntitySettlement, "id": stlID, "label": label})
	}
	return shared.NewPreconditionFailedError(
		fmt.Sprintf("Load %s is referenced by %d record(s): %s", load.LoadNumber, len(refs), strings.Join(refs, ", ")),
	).WithDetails(map[string]any{"count": len(refs), "blockers": blockers})
}

// checkLoadReferences rejects references to missing records and fills the
// broker name from the broker when only the id is given.
func (s *Session) checkLoadReferences(u *freight.LoadUpdate) error {
	check := func(id *uuid.UUID, entity string, exists func(uuid.UUID) bool) error {
		if id == nil || *id == uuid.Nil || exists(*id) {
			return nil
		}
		return shared.NewValidationError(fmt.Sprintf("%s %s not found", entity, id))
	}
	if err := check(u.DriverID, EntityEmployee, s.employees.Has); err != nil {
		return err
	}
	if err := check(u.DispatcherID, EntityEmployee, s.employees.Has); err != nil {
		return err
	}
	if err := check(u.TruckID, EntityTruck, s.trucks.Has); err != nil {
		return err
	}
	if err := check(u.TrailerID, EntityTrailer, s.trailers.Has); err != nil {
		return err
	}
	if err := check(u.BrokerID, EntityBroker, s.brokers.Has); err != nil {
		return err
	}
	if err := check(u.FactoringCompanyID, EntityFactoringCompany, s.factoringCompanies.Has); err != nil {
		return err
	}
	if u.DriverID != nil && *u.DriverID != uuid.Nil {
		if d, ok := s.employees.Get(*u.DriverID); ok && d.Type != fleet.EmployeeTypeDriver {
			return shared.NewValidationError(fmt.Sprintf("%s is not a driver", d.FullName()))
		}
	}
	if u.BrokerID != nil && *u.BrokerID != uuid.Nil && u.BrokerName == nil {
		if b, ok := s.brokers.Get(*u.BrokerID); ok {
			name := b.Name
			u.BrokerName = &name
		}
	}
	return nil
}

func (s *Session) loadNumberTaken(number string, except uuid.UUID) bool {
	return len(s.loads.Filter(func(l *freight.Load) bool {
		return l.ID != except && strings.EqualFold(l.LoadNumber, number)
	})) > 0
}

func (s *Session) logDropped(actor shared.Actor, loadID uuid.UUID, dropped []freight.LoadField) {
	if len(dropped) == 0 {
		return
	}
	names := make([]string, 0, len(dropped))
	for _, f := range dropped {
		names = append(names, string(f))
	}
	s.logger.Warn("Dropped fields the role may not edit",
		zap.String("load_id", loadID.String()),
		zap.String("role", string(actor.Role)),
		zap.Strings("fields", names),
	)
}

func changedFieldNames(changes []freight.FieldChange) []string {
	names := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.Field.RequiresReason() {
			names = append(names, string(c.Field))
		}
	}
	return names
}

func fieldNames(fields []freight.LoadField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}
	return names
}

// checkDriverReassignment rejects a driver change on a load already paid
// through a settlement; the settlement is priced for the original driver.
func (s *Session) checkDriverReassignment(current *freight.Load, changes []freight.FieldChange) error {
	reassigned := false
	for _, c := range changes {
		reassigned = reassigned || c.Field == freight.FieldDriverID
	}
	if !reassigned {
		return nil
	}
	stlIDs := s.index.ReferrersOfType(current.ID, EntitySettlement)
	if len(stlIDs) == 0 {
		return nil
	}
	labels := make([]string, 0, len(stlIDs))
	for _, id := range stlIDs {
		label := id.String()
		if stl, ok := s.settlements.Get(id); ok {
			label = stl.SettlementNumber
		}
		labels = append(labels, label)
	}
	return shared.NewPreconditionFailedError(
		fmt.Sprintf("Load %s is settled in %s; remove it from the settlement before reassigning the driver",
			current.LoadNumber, strings.Join(labels, ", ")),
	).WithDetails(map[string]any{"settlements": stlIDs})
}

// loadUpdateEntry builds the one audit entry of a load update. A status
// change outranks recorded adjustments, which outrank a plain update.
func loadUpdateEntry(tenantID uuid.UUID, actor shared.Actor, next *freight.Load, from freight.LoadStatus, changes []freight.FieldChange, adjustments []freight.AdjustmentEntry, reason string) *audit.Entry {
	before, after := changePayloads(changes)
	e := &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     audit.ActionUpdate,
		EntityType: EntityLoad,
		EntityID:   next.ID,
		Before:     before,
		After:      after,
		Message:    fmt.Sprintf("Updated load %s", next.LoadNumber),
	}
	if len(adjustments) > 0 {
		recorded := make([]map[string]any, 0, len(adjustments))
		adjusted := make([]string, 0, len(adjustments))
		for _, adj := range adjustments {
			recorded = append(recorded, map[string]any{
				"field":     string(adj.Field),
				"old_value": adj.OldValue,
				"new_value": adj.NewValue,
			})
			adjusted = append(adjusted, string(adj.Field))
		}
		e.Metadata = audit.Payload{"reason": reason, "adjustments": recorded}
		e.Action = audit.ActionAdjustment
		e.Message = fmt.Sprintf("Adjusted %s on locked load %s", strings.Join(adjusted, ", "), next.LoadNumber)
	}
	if from != next.Status {
		e.Action = audit.ActionStatusChange
		e.Message = fmt.Sprintf("Load %s moved from %s to %s", next.LoadNumber, from, next.Status)
	}
	return e
}

func changePayloads(changes []freight.FieldChange) (before, after audit.Payload) {
	before = make(audit.Payload, len(changes))
	after = make(audit.Payload, len(changes))
	for _, c := range changes {
		before[string(c.Field)] = c.OldValue
		after[string(c.Field)] = c.NewValue
	}
	return before, after
}
