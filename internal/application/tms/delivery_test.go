package tms

import (
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelivery_GeneratesInvoiceAndSettlement(t *testing.T) {
	t.Run("owner-operator is paid their split of the rate", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		invoices := invoicesFor(h.session, l.ID)
		require.Len(t, invoices, 1)
		inv := invoices[0]
		assert.True(t, decimal.NewFromInt(1000).Equal(inv.Amount), "invoice amount %s", inv.Amount)
		assert.Equal(t, "INV-2026-0001", inv.InvoiceNumber)
		assert.Equal(t, finance.InvoiceStatusPending, inv.Status)
		require.NotNil(t, inv.DueDate)
		assert.Equal(t, fixedNow.AddDate(0, 0, 30), *inv.DueDate)
		assert.Equal(t, "Acme Foods", inv.CustomerName)

		settlements := settlementsFor(h.session, l.ID)
		require.Len(t, settlements, 1)
		stl := settlements[0]
		assert.True(t, decimal.NewFromInt(880).Equal(stl.GrossPay), "gross pay %s", stl.GrossPay)
		assert.True(t, stl.TotalDeductions.IsZero())
		assert.True(t, stl.NetPay.Equal(stl.GrossPay))
		assert.Equal(t, "Omar Hassan", stl.DriverName)

		got := h.load(l.ID)
		require.NotNil(t, got.InvoiceID)
		assert.Equal(t, inv.ID, *got.InvoiceID)
		require.NotNil(t, got.SettlementID)
		assert.Equal(t, stl.ID, *got.SettlementID)
		assert.True(t, got.IsLocked)
	})

	t.Run("company driver is paid per mile", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.60")
		l := h.addLoad(1500, withDriver(driver.ID), withMiles(500))

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		settlements := settlementsFor(h.session, l.ID)
		require.Len(t, settlements, 1)
		assert.True(t, decimal.NewFromInt(300).Equal(settlements[0].GrossPay), "gross pay %s", settlements[0].GrossPay)
		require.Len(t, invoicesFor(h.session, l.ID), 1)
		assert.True(t, decimal.NewFromInt(1500).Equal(invoicesFor(h.session, l.ID)[0].Amount))
	})

	t.Run("load without a driver is invoiced but not settled", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(900)

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		assert.Len(t, invoicesFor(h.session, l.ID), 1)
		assert.Empty(t, settlementsFor(h.session, l.ID))
		assert.Nil(t, h.load(l.ID).SettlementID)
	})

	t.Run("load created delivered is invoiced on creation", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(700, withStatus(freight.LoadStatusDelivered))

		assert.True(t, l.IsLocked)
		assert.Len(t, invoicesFor(h.session, l.ID), 1)
	})

	t.Run("factored load is invoiced as paid", func(t *testing.T) {
		h := newHarness(t)
		factored := true
		r := decimal.NewFromInt(2000)
		l, p, err := h.session.AddLoad(h.ctx, admin, CreateLoadInput{Fields: freight.LoadUpdate{
			Rate:       &r,
			IsFactored: &factored,
		}})
		require.NoError(t, err)
		h.wait(p)

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		invoices := invoicesFor(h.session, l.ID)
		require.Len(t, invoices, 1)
		assert.Equal(t, finance.InvoiceStatusPaid, invoices[0].Status)
		assert.Nil(t, invoices[0].DueDate)
		assert.True(t, invoices[0].IsFactored)
	})

	t.Run("generated documents are audited", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		assert.Equal(t, 1, h.audit.count(audit.ActionCreate, EntityInvoice))
		assert.Equal(t, 1, h.audit.count(audit.ActionCreate, EntitySettlement))
		assert.Equal(t, 1, h.audit.count(audit.ActionStatusChange, EntityLoad))
	})
}

func TestDelivery_IsIdempotent(t *testing.T) {
	t.Run("completing a delivered load does not duplicate documents", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusCompleted)

		assert.Len(t, invoicesFor(h.session, l.ID), 1)
		assert.Len(t, settlementsFor(h.session, l.ID), 1)
	})

	t.Run("re-delivering after a status rollback does not duplicate documents", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusInTransit)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		assert.Len(t, h.session.ListInvoices(InvoiceFilter{}), 1)
	})

	t.Run("repeated generation for the same load is a no-op", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		h.session.generateFinancials(h.ctx, dispatcher, l.ID)
		h.session.generateFinancials(h.ctx, dispatcher, l.ID)

		assert.Len(t, h.session.ListInvoices(InvoiceFilter{}), 1)
	})

	t.Run("failed generation leaves the delivery in place", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.invoices.setFailing(true)

		got := h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		assert.Equal(t, freight.LoadStatusDelivered, got.Status)
		assert.Empty(t, h.session.ListInvoices(InvoiceFilter{}))
		assert.Nil(t, h.load(l.ID).InvoiceID)
		assert.Equal(t, freight.LoadStatusDelivered, h.load(l.ID).Status)

		// the next transition into a locking status retries
		h.invoices.setFailing(false)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusCompleted)
		assert.Len(t, h.session.ListInvoices(InvoiceFilter{}), 1)
	})
}

func TestDelivery_ResyncsOnLoadChanges(t *testing.T) {
	t.Run("rate change updates the existing invoice and draft settlement", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		rate := decimal.NewFromInt(1200)
		_, p, err := h.session.UpdateLoad(h.ctx, accountant, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate},
			Reason: "Broker approved detention",
		})
		require.NoError(t, err)
		h.wait(p)

		invoices := h.session.ListInvoices(InvoiceFilter{})
		require.Len(t, invoices, 1, "no duplicate invoice")
		assert.True(t, decimal.NewFromInt(1200).Equal(invoices[0].Amount), "invoice amount %s", invoices[0].Amount)

		settlements := settlementsFor(h.session, l.ID)
		require.Len(t, settlements, 1)
		assert.True(t, decimal.NewFromInt(1056).Equal(settlements[0].GrossPay), "gross pay %s", settlements[0].GrossPay)
	})

	t.Run("customer change updates the bill-to name", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		customer := "Globex Logistics"
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{CustomerName: &customer},
			Reason: "Wrong customer on the rate confirmation",
		})
		require.NoError(t, err)
		h.wait(p)

		invoices := h.session.ListInvoices(InvoiceFilter{})
		require.Len(t, invoices, 1)
		assert.Equal(t, "Globex Logistics", invoices[0].CustomerName)
	})

	t.Run("grand total takes precedence over rate", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		total := decimal.NewFromInt(1150)
		_, p, err := h.session.UpdateLoad(h.ctx, accountant, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{GrandTotal: &total},
			Reason: "Lumper reimbursement",
		})
		require.NoError(t, err)
		h.wait(p)

		assert.True(t, decimal.NewFromInt(1150).Equal(h.session.ListInvoices(InvoiceFilter{})[0].Amount))
	})
}

func TestDelivery_RecomputesFactoringFee(t *testing.T) {
	factor := func(t *testing.T, h *harness, name string, fee int64) *partner.FactoringCompany {
		t.Helper()
		fc, p, err := h.session.CreateFactoringCompany(h.ctx, accountant, CreateFactoringCompanyInput{
			Name:          name,
			FeePercentage: decimal.NewFromInt(fee),
		})
		require.NoError(t, err)
		h.wait(p)
		return fc
	}
	factoredLoad := func(t *testing.T, h *harness, companyID uuid.UUID) *freight.Load {
		t.Helper()
		factored := true
		rate := decimal.NewFromInt(1000)
		l, p, err := h.session.AddLoad(h.ctx, admin, CreateLoadInput{Fields: freight.LoadUpdate{
			Rate:               &rate,
			IsFactored:         &factored,
			FactoringCompanyID: &companyID,
		}})
		require.NoError(t, err)
		h.wait(p)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		return l
	}
	adjust := func(t *testing.T, h *harness, id uuid.UUID, u freight.LoadUpdate) {
		t.Helper()
		_, p, err := h.session.UpdateLoad(h.ctx, accountant, id, UpdateLoadInput{Fields: u, Reason: "Factor statement"})
		require.NoError(t, err)
		h.wait(p)
	}
	requireFee := func(t *testing.T, h *harness, loadID uuid.UUID, fee, advanced int64) {
		t.Helper()
		invoices := invoicesFor(h.session, loadID)
		require.Len(t, invoices, 1)
		assert.True(t, decimal.NewFromInt(fee).Equal(invoices[0].FactoringFee), "fee %s", invoices[0].FactoringFee)
		assert.True(t, decimal.NewFromInt(advanced).Equal(invoices[0].FactoredAmount), "factored %s", invoices[0].FactoredAmount)
	}

	t.Run("rate change", func(t *testing.T) {
		h := newHarness(t)
		fc := factor(t, h, "Apex Capital", 3)
		l := factoredLoad(t, h, fc.ID)
		requireFee(t, h, l.ID, 30, 970)

		rate := decimal.NewFromInt(2000)
		adjust(t, h, l.ID, freight.LoadUpdate{Rate: &rate})

		requireFee(t, h, l.ID, 60, 1940)
	})

	t.Run("per-load fee override", func(t *testing.T) {
		h := newHarness(t)
		fc := factor(t, h, "Apex Capital", 3)
		l := factoredLoad(t, h, fc.ID)

		pct := decimal.NewFromInt(5)
		adjust(t, h, l.ID, freight.LoadUpdate{FactoringFeePercent: &pct})

		requireFee(t, h, l.ID, 50, 950)
	})

	t.Run("switching factoring company", func(t *testing.T) {
		h := newHarness(t)
		first := factor(t, h, "Apex Capital", 3)
		second := factor(t, h, "Triumph Business Capital", 2)
		l := factoredLoad(t, h, first.ID)

		adjust(t, h, l.ID, freight.LoadUpdate{FactoringCompanyID: &second.ID})

		requireFee(t, h, l.ID, 20, 980)
		assert.Equal(t, second.ID, *invoicesFor(h.session, l.ID)[0].FactoringCompanyID)
	})

	t.Run("company default fee change", func(t *testing.T) {
		h := newHarness(t)
		fc := factor(t, h, "Apex Capital", 3)
		l := factoredLoad(t, h, fc.ID)

		pct := decimal.NewFromInt(4)
		_, p, err := h.session.UpdateFactoringCompany(h.ctx, accountant, fc.ID, UpdateFactoringCompanyInput{FeePercentage: &pct})
		require.NoError(t, err)
		h.wait(p)

		requireFee(t, h, l.ID, 40, 960)
	})

	t.Run("unfactoring clears the fee", func(t *testing.T) {
		h := newHarness(t)
		fc := factor(t, h, "Apex Capital", 3)
		l := factoredLoad(t, h, fc.ID)

		factored := false
		adjust(t, h, l.ID, freight.LoadUpdate{IsFactored: &factored})

		requireFee(t, h, l.ID, 0, 1000)
		assert.False(t, invoicesFor(h.session, l.ID)[0].IsFactored)
	})
}
