package telemetry

import (
	"context"
	"strconv"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records load and billing activity from domain events
type BusinessMetrics struct {
	logger *zap.Logger

	loadsCreated      *Counter
	loadStatusChanges *Counter
	loadsDelivered    *Counter
	invoicesCreated   *Counter
	invoiceAmount     *Histogram
	settlementsIssued *Counter
	settlementGross   *Histogram
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.loadsCreated, err = NewCounter(meter, "tms_loads_created_total", "Loads created", "{load}"); err != nil {
		return nil, err
	}
	if bm.loadStatusChanges, err = NewCounter(meter, "tms_load_status_changes_total", "Load status transitions by target status", "{transition}"); err != nil {
		return nil, err
	}
	if bm.loadsDelivered, err = NewCounter(meter, "tms_loads_delivered_total", "Loads entering delivered or completed", "{load}"); err != nil {
		return nil, err
	}
	if bm.invoicesCreated, err = NewCounter(meter, "tms_invoices_created_total", "Invoices created by status", "{invoice}"); err != nil {
		return nil, err
	}
	if bm.invoiceAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "tms_invoice_amount",
		Description: "Invoice amount at creation",
		Unit:        "USD",
		Boundaries:  MoneyBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.settlementsIssued, err = NewCounter(meter, "tms_settlements_created_total", "Driver settlements created", "{settlement}"); err != nil {
		return nil, err
	}
	if bm.settlementGross, err = NewHistogram(meter, HistogramOpts{
		Name:        "tms_settlement_gross_pay",
		Description: "Settlement gross pay at creation",
		Unit:        "USD",
		Boundaries:  MoneyBuckets,
	}); err != nil {
		return nil, err
	}
	return bm, nil
}

// EventTypes returns the event types this handler is interested in
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		freight.EventTypeLoadCreated,
		freight.EventTypeLoadStatusChanged,
		freight.EventTypeLoadDelivered,
		finance.EventTypeInvoiceCreated,
		finance.EventTypeSettlementCreated,
	}
}

// Handle records the event. Unknown events are ignored.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())
	switch e := event.(type) {
	case *freight.LoadCreatedEvent:
		bm.loadsCreated.Inc(ctx, tenant, AttrLoadStatus.String(string(e.Status)))
	case *freight.LoadStatusChangedEvent:
		bm.loadStatusChanges.Inc(ctx, tenant, AttrLoadStatus.String(string(e.ToStatus)))
	case *freight.LoadDeliveredEvent:
		bm.loadsDelivered.Inc(ctx, tenant, AttrLoadStatus.String(string(e.Status)))
	case *finance.InvoiceCreatedEvent:
		status := AttrStatus.String(string(e.Status))
		factored := AttrFactored.String(strconv.FormatBool(e.Status == finance.InvoiceStatusPaid))
		bm.invoicesCreated.Inc(ctx, tenant, status, factored)
		bm.invoiceAmount.Record(ctx, e.Amount.InexactFloat64(), tenant, status)
	case *finance.SettlementCreatedEvent:
		bm.settlementsIssued.Inc(ctx, tenant)
		bm.settlementGross.Record(ctx, e.GrossPay.InexactFloat64(), tenant)
	default:
		bm.logger.Debug("ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
