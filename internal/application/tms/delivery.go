package tms

import (
	"context"
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// generateFinancials creates the invoice and the driver settlement for a load
// that entered delivered or completed. Documents that already exist for the
// load are left alone, so repeated transitions never duplicate them. Failures
// are logged and rolled back; they never undo the status change itself.
func (s *Session) generateFinancials(ctx context.Context, actor shared.Actor, loadID uuid.UUID) {
	s.mu.Lock()
	load, ok := s.loads.Get(loadID)
	if !ok || !load.Status.Locks() {
		s.mu.Unlock()
		return
	}
	needInvoice := s.invoiceFor(load) == nil
	needSettlement := s.settlementFor(load) == nil && load.DriverID != nil
	s.mu.Unlock()
	if !needInvoice && !needSettlement {
		s.logger.Debug("Load already invoiced and settled",
			zap.String("load_id", loadID.String()),
		)
		return
	}

	year := s.now().Year()
	var invoiceNumber, settlementNumber string
	if needInvoice {
		seq, err := s.nextNumber(ctx, fmt.Sprintf("invoice-%d", year))
		if err != nil {
			s.logger.Error("Failed to allocate invoice number",
				zap.String("load_id", loadID.String()),
				zap.Error(err),
			)
			return
		}
		invoiceNumber = finance.FormatInvoiceNumber(year, seq)
	}
	if needSettlement {
		seq, err := s.nextNumber(ctx, fmt.Sprintf("settlement-%d", year))
		if err != nil {
			s.logger.Error("Failed to allocate settlement number",
				zap.String("load_id", loadID.String()),
				zap.Error(err),
			)
			needSettlement = false
		} else {
			settlementNumber = finance.FormatSettlementNumber(year, seq)
		}
	}

	s.mu.Lock()
	load, ok = s.loads.Get(loadID)
	if !ok {
		s.mu.Unlock()
		return
	}

	m := &mutation{}
	var events []shared.DomainEvent
	var invoice *finance.Invoice
	var settlement *finance.Settlement

	if needInvoice && s.invoiceFor(load) == nil {
		inv, err := s.buildInvoice(load, invoiceNumber, actor)
		if err != nil {
			s.logger.Error("Failed to build invoice",
				zap.String("load_id", loadID.String()),
				zap.Error(err),
			)
		} else {
			load.LinkInvoice(inv.ID)
			putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
			events = append(events, inv.PullDomainEvents()...)
			invoice = inv
		}
	}

	if needSettlement && s.settlementFor(load) == nil && load.DriverID != nil {
		driver, found := s.employees.Get(*load.DriverID)
		if !found {
			s.logger.Warn("Assigned driver not found, settlement skipped",
				zap.String("load_id", loadID.String()),
				zap.String("driver_id", load.DriverID.String()),
			)
		} else {
			stl, err := finance.NewSettlement(s.tenantID, settlementNumber, driver.ID, driver.FullName(),
				[]uuid.UUID{load.ID}, s.calc.DriverGrossPay(load, driver))
			if err != nil {
				s.logger.Error("Failed to build settlement",
					zap.String("load_id", loadID.String()),
					zap.Error(err),
				)
			} else {
				createdBy := actor.UserID
				stl.CreatedBy = &createdBy
				load.LinkSettlement(stl.ID)
				putRecord(m, s.settlements, s.deps.Stores.Settlements, stl)
				events = append(events, stl.PullDomainEvents()...)
				settlement = stl
			}
		}
	}

	if m.empty() {
		s.mu.Unlock()
		return
	}
	putRecord(m, s.loads, s.deps.Stores.Loads, load)
	s.mu.Unlock()

	if err := s.coord.Persist(ctx, "generate financials", m, &s.mu); err != nil {
		s.logger.Error("Failed to persist generated invoice and settlement",
			zap.String("load_id", loadID.String()),
			zap.Error(err),
		)
		return
	}

	if invoice != nil {
		s.recorder.Created(ctx, s.tenantID, actor, EntityInvoice, invoice.ID, invoice,
			fmt.Sprintf("Generated invoice %s for load %s", invoice.InvoiceNumber, load.LoadNumber))
		s.archive(ctx, invoice)
		s.logger.Info("Invoice generated",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("load_number", load.LoadNumber),
			zap.String("amount", invoice.Amount.StringFixed(2)),
		)
	}
	if settlement != nil {
		s.recorder.Created(ctx, s.tenantID, actor, EntitySettlement, settlement.ID, settlement,
			fmt.Sprintf("Generated settlement %s for load %s", settlement.SettlementNumber, load.LoadNumber))
		s.logger.Info("Settlement generated",
			zap.String("settlement_number", settlement.SettlementNumber),
			zap.String("load_number", load.LoadNumber),
			zap.String("gross_pay", settlement.GrossPay.StringFixed(2)),
		)
	}
	s.publish(ctx, events)
}

func (s *Session) buildInvoice(load *freight.Load, number string, actor shared.Actor) (*finance.Invoice, error) {
	terms := s.calc.InvoiceTerms(load, s.now())
	inv, err := finance.NewInvoice(s.tenantID, number, []uuid.UUID{load.ID}, load.BillTo(), terms)
	if err != nil {
		return nil, err
	}
	createdBy := actor.UserID
	inv.CreatedBy = &createdBy
	inv.BrokerID = shared.CloneID(load.BrokerID)
	if load.IsFactored {
		fee, advanced := s.calc.FactoringFee(load, s.factoringCompanyOf(load))
		inv.SetFactoring(load.FactoringCompanyID, fee, advanced)
	}
	return inv, nil
}

// resyncInvoices recomputes the amount and bill-to name of every invoice
// covering the load. Only invoices whose values changed are written.
func (s *Session) resyncInvoices(ctx context.Context, actor shared.Actor, loadID uuid.UUID) {
	s.mu.Lock()
	load, ok := s.loads.Get(loadID)
	if !ok {
		s.mu.Unlock()
		return
	}

	m := &mutation{}
	type change struct {
		id      uuid.UUID
		number  string
		before, after audit.Payload
	}
	var changed []change
	for _, inv := range s.invoicesCovering(load) {
		before := invoicePayload(inv)
		if !inv.Resync(s.invoiceSync(inv.LoadIDs, uuid.Nil, load.BillTo())) {
			continue
		}
		putRecord(m, s.invoices, s.deps.Stores.Invoices, inv)
		changed = append(changed, change{
			id:     inv.ID,
			number: inv.InvoiceNumber,
			before: before,
			after:  invoicePayload(inv),
		})
	}
	s.mu.Unlock()
	if m.empty() {
		return
	}

	if err := s.coord.Persist(ctx, "resync invoice", m, &s.mu); err != nil {
		s.logger.Error("Failed to resync invoices",
			zap.String("load_id", loadID.String()),
			zap.Error(err),
		)
		return
	}
	for _, c := range changed {
		s.recorder.Updated(ctx, s.tenantID, actor, EntityInvoice, c.id, c.before, c.after,
			fmt.Sprintf("Resynced invoice %s from load %s", c.number, load.LoadNumber))
	}
}

func invoicePayload(inv *finance.Invoice) audit.Payload {
	return audit.Payload{
		"amount":          inv.Amount.StringFixed(2),
		"customer_name":   inv.CustomerName,
		"factoring_fee":   inv.FactoringFee.StringFixed(2),
		"factored_amount": inv.FactoredAmount.StringFixed(2),
	}
}

// resyncSettlements recomputes gross pay of draft settlements covering the load
func (s *Session) resyncSettlements(ctx context.Context, actor shared.Actor, loadID uuid.UUID) {
	s.mu.Lock()
	load, ok := s.loads.Get(loadID)
	if !ok {
		s.mu.Unlock()
		return
	}

	m := &mutation{}
	var touched []*finance.Settlement
	for _, stlID := range s.index.ReferrersOfType(loadID, EntitySettlement) {
		stl, ok := s.settlements.Get(stlID)
		if !ok || stl.Status != finance.SettlementStatusDraft {
			continue
		}
		gross, ok := s.sumGrossPay(stl.DriverID, stl.LoadIDs, uuid.Nil)
		if !ok || !stl.SetGrossPay(gross) {
			continue
		}
		putRecord(m, s.settlements, s.deps.Stores.Settlements, stl)
		touched = append(touched, stl)
	}
	s.mu.Unlock()
	if m.empty() {
		return
	}

	if err := s.coord.Persist(ctx, "resync settlement", m, &s.mu); err != nil {
		s.logger.Error("Failed to resync settlements",
			zap.String("load_id", loadID.String()),
			zap.Error(err),
		)
		return
	}
	for _, stl := range touched {
		s.recorder.Updated(ctx, s.tenantID, actor, EntitySettlement, stl.ID, nil,
			audit.Payload{"gross_pay": stl.GrossPay.StringFixed(2), "net_pay": stl.NetPay.StringFixed(2)},
			fmt.Sprintf("Resynced settlement %s from load %s", stl.SettlementNumber, load.LoadNumber))
	}
}

// invoiceFor returns the invoice linked to the load, or any invoice covering it
func (s *Session) invoiceFor(load *freight.Load) *finance.Invoice {
	if load.InvoiceID != nil {
		if inv, ok := s.invoices.Get(*load.InvoiceID); ok {
			return inv
		}
	}
	for _, id := range s.index.ReferrersOfType(load.ID, EntityInvoice) {
		if inv, ok := s.invoices.Get(id); ok {
			return inv
		}
	}
	return nil
}

func (s *Session) invoicesCovering(load *freight.Load) []*finance.Invoice {
	var out []*finance.Invoice
	for _, id := range s.index.ReferrersOfType(load.ID, EntityInvoice) {
		if inv, ok := s.invoices.Get(id); ok {
			out = append(out, inv)
		}
	}
	return out
}

// settlementFor returns the settlement linked to the load, or any settlement covering it
func (s *Session) settlementFor(load *freight.Load) *finance.Settlement {
	if load.SettlementID != nil {
		if stl, ok := s.settlements.Get(*load.SettlementID); ok {
			return stl
		}
	}
	for _, id := range s.index.ReferrersOfType(load.ID, EntitySettlement) {
		if stl, ok := s.settlements.Get(id); ok {
			return stl
		}
	}
	return nil
}

func (s *Session) factoringCompanyOf(load *freight.Load) *partner.FactoringCompany {
	if load.FactoringCompanyID == nil {
		return nil
	}
	fc, ok := s.factoringCompanies.Get(*load.FactoringCompanyID)
	if !ok {
		return nil
	}
	return fc
}

// sumLoads totals the billable amount of the listed loads, skipping except
func (s *Session) sumLoads(ids []uuid.UUID, except uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, id := range ids {
		if id == except {
			continue
		}
		if l, ok := s.loads.Get(id); ok {
			total = total.Add(s.calc.LoadAmount(l))
		}
	}
	return total
}

// invoiceSync recomputes the terms of an invoice over the listed loads,
// skipping except. The factoring fee is summed over the factored loads and
// the factor is the first factored load's company.
func (s *Session) invoiceSync(ids []uuid.UUID, except uuid.UUID, customerName string) finance.InvoiceSync {
	sync := finance.InvoiceSync{
		Amount:       s.sumLoads(ids, except),
		CustomerName: customerName,
		FactoringFee: decimal.Zero,
	}
	for _, id := range ids {
		if id == except {
			continue
		}
		l, ok := s.loads.Get(id)
		if !ok || !l.IsFactored {
			continue
		}
		if !sync.IsFactored {
			sync.IsFactored = true
			sync.FactoringCompanyID = shared.CloneID(l.FactoringCompanyID)
		}
		fee, _ := s.calc.FactoringFee(l, s.factoringCompanyOf(l))
		sync.FactoringFee = sync.FactoringFee.Add(fee)
	}
	return sync
}

// sumGrossPay totals the driver's pay over the listed loads, skipping except.
// It reports false when the driver is unknown.
func (s *Session) sumGrossPay(driverID *uuid.UUID, ids []uuid.UUID, except uuid.UUID) (decimal.Decimal, bool) {
	if driverID == nil {
		return decimal.Zero, false
	}
	driver, ok := s.employees.Get(*driverID)
	if !ok {
		return decimal.Zero, false
	}
	total := decimal.Zero
	for _, id := range ids {
		if id == except {
			continue
		}
		if l, ok := s.loads.Get(id); ok {
			total = total.Add(s.calc.DriverGrossPay(l, driver))
		}
	}
	return total, true
}

func (s *Session) archive(ctx context.Context, inv *finance.Invoice) {
	if s.deps.Archive == nil {
		return
	}
	if err := s.deps.Archive.ArchiveInvoice(ctx, inv); err != nil {
		s.logger.Warn("Failed to archive invoice",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err),
		)
	}
}
