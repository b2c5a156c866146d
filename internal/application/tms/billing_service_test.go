package tms

import (
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_CreateInvoice(t *testing.T) {
	t.Run("bills several loads on one invoice", func(t *testing.T) {
		h := newHarness(t)
		first := h.addLoad(1000)
		second := h.addLoad(450)

		inv, p, err := h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{
			LoadIDs: []uuid.UUID{first.ID, second.ID, first.ID},
			Notes:   " Weekly batch ",
		})
		require.NoError(t, err)
		h.wait(p)

		assert.Equal(t, "INV-2026-0001", inv.InvoiceNumber)
		assert.True(t, decimal.NewFromInt(1450).Equal(inv.Amount))
		assert.Equal(t, "Weekly batch", inv.Notes)
		assert.Len(t, inv.LoadIDs, 2)
		for _, id := range []uuid.UUID{first.ID, second.ID} {
			got := h.load(id)
			require.NotNil(t, got.InvoiceID)
			assert.Equal(t, inv.ID, *got.InvoiceID)
		}
	})

	t.Run("a load is never billed twice", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		_, _, err := h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{LoadIDs: []uuid.UUID{l.ID}})

		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Contains(t, de.Message, "INV-2026-0001")
	})

	t.Run("requires at least one load", func(t *testing.T) {
		h := newHarness(t)

		_, _, err := h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{})
		de := requireCode(t, err, shared.CodeValidationFailed)
		assert.Contains(t, de.Details["fields"], "LoadIDs")
	})

	t.Run("dispatchers may not invoice", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		_, _, err := h.session.CreateInvoice(h.ctx, dispatcher, CreateInvoiceInput{LoadIDs: []uuid.UUID{l.ID}})
		requireCode(t, err, shared.CodePermissionDenied)
	})
}

func TestSession_DeleteInvoice(t *testing.T) {
	t.Run("linked loads block the delete", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		inv := invoicesFor(h.session, l.ID)[0]

		_, err := h.session.DeleteInvoice(h.ctx, accountant, inv.ID, false)
		requireCode(t, err, shared.CodePreconditionFailed)
	})

	t.Run("forced delete clears the load link", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		inv := invoicesFor(h.session, l.ID)[0]

		p, err := h.session.DeleteInvoice(h.ctx, accountant, inv.ID, true)
		require.NoError(t, err)
		h.wait(p)

		assert.Nil(t, h.load(l.ID).InvoiceID)
		assert.Empty(t, h.session.ListInvoices(InvoiceFilter{}))
	})
}

func TestSession_CreateSettlement(t *testing.T) {
	t.Run("pays the driver for their loads less deductions", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.50")
		first := h.addLoad(1000, withDriver(driver.ID), withMiles(400))
		second := h.addLoad(800, withDriver(driver.ID), withMiles(200))

		stl, p, err := h.session.CreateSettlement(h.ctx, accountant, CreateSettlementInput{
			DriverID: driver.ID,
			LoadIDs:  []uuid.UUID{first.ID, second.ID},
			Deductions: finance.Deductions{
				{Description: "Fuel advance", Amount: decimal.NewFromInt(50)},
			},
		})
		require.NoError(t, err)
		h.wait(p)

		assert.Equal(t, "STL-2026-0001", stl.SettlementNumber)
		assert.True(t, decimal.NewFromInt(300).Equal(stl.GrossPay), "gross %s", stl.GrossPay)
		assert.True(t, decimal.NewFromInt(50).Equal(stl.TotalDeductions))
		assert.True(t, decimal.NewFromInt(250).Equal(stl.NetPay))
		assert.Equal(t, finance.SettlementStatusDraft, stl.Status)
		assert.Len(t, h.session.ListSettlements(driver.ID), 1)
	})

	t.Run("rejects loads hauled by someone else", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.50")
		other := h.ownerOperator(85)
		l := h.addLoad(1000, withDriver(other.ID))

		_, _, err := h.session.CreateSettlement(h.ctx, accountant, CreateSettlementInput{
			DriverID: driver.ID,
			LoadIDs:  []uuid.UUID{l.ID},
		})
		requireCode(t, err, shared.CodeValidationFailed)
	})

	t.Run("rejects negative deductions", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.50")
		l := h.addLoad(1000, withDriver(driver.ID), withMiles(100))

		_, _, err := h.session.CreateSettlement(h.ctx, accountant, CreateSettlementInput{
			DriverID:   driver.ID,
			LoadIDs:    []uuid.UUID{l.ID},
			Deductions: finance.Deductions{{Description: "Refund", Amount: decimal.NewFromInt(-10)}},
		})
		requireCode(t, err, shared.CodeValidationFailed)
		assert.Empty(t, h.session.ListSettlements(uuid.Nil))
	})
}

func TestSession_SweepOverdueInvoices(t *testing.T) {
	h := newHarness(t)
	late := h.addLoad(1000)
	current := h.addLoad(1000)
	pastDue := fixedNow.AddDate(0, 0, -3)

	overdue, p, err := h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{
		LoadIDs: []uuid.UUID{late.ID},
		DueDate: &pastDue,
	})
	require.NoError(t, err)
	h.wait(p)
	_, p, err = h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{LoadIDs: []uuid.UUID{current.ID}})
	require.NoError(t, err)
	h.wait(p)

	n, p := h.session.SweepOverdueInvoices(h.ctx)
	h.wait(p)
	assert.Equal(t, 1, n)

	got, err := h.session.GetInvoice(overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.InvoiceStatusOverdue, got.Status)
	assert.Len(t, h.session.ListInvoices(InvoiceFilter{Status: finance.InvoiceStatusPending}), 1)

	n, p = h.session.SweepOverdueInvoices(h.ctx)
	h.wait(p)
	assert.Zero(t, n, "already flagged invoices are left alone")

	assert.Len(t, h.session.DueWithin(31*24*time.Hour), 1)
}

func TestSession_Expenses(t *testing.T) {
	t.Run("expense on a load is unlinked when the load is deleted", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		exp, p, err := h.session.CreateExpense(h.ctx, dispatcher, CreateExpenseInput{
			Category:    finance.ExpenseCategoryLumper,
			Amount:      decimal.NewFromInt(120),
			Date:        fixedNow,
			Description: "Lumper at receiver",
			LoadID:      &l.ID,
		})
		require.NoError(t, err)
		h.wait(p)
		assert.Len(t, h.session.ListExpenses(l.ID), 1)

		p, err = h.session.DeleteLoad(h.ctx, dispatcher, l.ID, false)
		require.NoError(t, err)
		h.wait(p)

		got, err := h.session.GetExpense(exp.ID)
		require.NoError(t, err)
		assert.Nil(t, got.LoadID)
	})

	t.Run("rejects an unknown load", func(t *testing.T) {
		h := newHarness(t)
		missing := uuid.New()

		_, _, err := h.session.CreateExpense(h.ctx, dispatcher, CreateExpenseInput{
			Category: finance.ExpenseCategoryFuel,
			Amount:   decimal.NewFromInt(300),
			Date:     fixedNow,
			LoadID:   &missing,
		})
		requireCode(t, err, shared.CodeValidationFailed)
	})

	t.Run("only accounting deletes expenses", func(t *testing.T) {
		h := newHarness(t)
		exp, p, err := h.session.CreateExpense(h.ctx, dispatcher, CreateExpenseInput{
			Category: finance.ExpenseCategoryTolls,
			Amount:   decimal.NewFromInt(18),
			Date:     fixedNow,
		})
		require.NoError(t, err)
		h.wait(p)

		_, err = h.session.DeleteExpense(h.ctx, dispatcher, exp.ID)
		requireCode(t, err, shared.CodePermissionDenied)

		p, err = h.session.DeleteExpense(h.ctx, accountant, exp.ID)
		require.NoError(t, err)
		h.wait(p)
		assert.Empty(t, h.session.ListExpenses(uuid.Nil))
	})
}
