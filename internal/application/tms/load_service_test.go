package tms

import (
	"errors"
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AddLoad(t *testing.T) {
	t.Run("generates sequential load numbers", func(t *testing.T) {
		h := newHarness(t)

		first := h.addLoad(1000)
		second := h.addLoad(1000)

		assert.Equal(t, "LD-2026-00001", first.LoadNumber)
		assert.Equal(t, "LD-2026-00002", second.LoadNumber)
		assert.Equal(t, freight.LoadStatusAvailable, first.Status)
		assert.False(t, first.IsLocked)
		assert.Len(t, h.session.ListLoads(LoadFilter{}), 2)
	})

	t.Run("rejects a duplicate load number", func(t *testing.T) {
		h := newHarness(t)
		_, p, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{LoadNumber: "A-100"})
		require.NoError(t, err)
		h.wait(p)

		_, _, err = h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{LoadNumber: " A-100 "})
		requireCode(t, err, shared.CodeValidationFailed)
	})

	t.Run("rejects a reference to an unknown driver", func(t *testing.T) {
		h := newHarness(t)
		missing := uuid.New()

		_, _, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{
			Fields: freight.LoadUpdate{DriverID: &missing},
		})
		requireCode(t, err, shared.CodeValidationFailed)
	})

	t.Run("rejects negative miles", func(t *testing.T) {
		h := newHarness(t)
		miles := decimal.NewFromInt(-5)

		_, _, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{
			Fields: freight.LoadUpdate{Miles: &miles},
		})
		requireCode(t, err, shared.CodeValidationFailed)
		assert.Empty(t, h.session.ListLoads(LoadFilter{}))
	})

	t.Run("drivers may not create loads", func(t *testing.T) {
		h := newHarness(t)

		_, _, err := h.session.AddLoad(h.ctx, driverUser, CreateLoadInput{})
		requireCode(t, err, shared.CodePermissionDenied)
	})

	t.Run("persist failure rolls back and reports an IO failure", func(t *testing.T) {
		h := newHarness(t)
		h.loads.setFailing(true)

		l, p, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{})
		require.NoError(t, err)
		require.NotNil(t, l)

		err = p.Wait(h.ctx)
		requireCode(t, err, shared.CodeIOFailure)
		assert.True(t, errors.Is(err, errDiskFull))

		_, err = h.session.GetLoad(l.ID)
		requireCode(t, err, shared.CodeNotFound)
		assert.Empty(t, h.session.ListLoads(LoadFilter{}))
		assert.Zero(t, h.audit.count(audit.ActionCreate, EntityLoad))
	})

	t.Run("new load is visible before it is persisted", func(t *testing.T) {
		h := newHarness(t)
		gate := make(chan struct{})
		h.loads.mu.Lock()
		h.loads.gate = gate
		h.loads.mu.Unlock()

		l, p, err := h.session.AddLoad(h.ctx, dispatcher, CreateLoadInput{})
		require.NoError(t, err)

		got, err := h.session.GetLoad(l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.LoadNumber, got.LoadNumber)
		select {
		case <-p.Done():
			t.Fatal("mutation settled before the store write completed")
		default:
		}
		assert.NoError(t, p.Err())

		close(gate)
		h.wait(p)
		assert.Len(t, h.session.ListLoads(LoadFilter{}), 1)
	})
}

func TestSession_UpdateLoad_Lock(t *testing.T) {
	t.Run("delivery locks the load", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		got := h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		assert.True(t, got.IsLocked)
		require.NotNil(t, got.LockedAt)
		assert.Equal(t, fixedNow, *got.LockedAt)
	})

	t.Run("moving back out of delivered keeps the lock", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		got := h.setStatus(dispatcher, l.ID, freight.LoadStatusInTransit)

		assert.Equal(t, freight.LoadStatusInTransit, got.Status)
		assert.True(t, got.IsLocked)
		locked := true
		assert.Len(t, h.session.ListLoads(LoadFilter{Locked: &locked}), 1)
	})

	t.Run("editing a locked load requires a reason", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		rate := decimal.NewFromInt(1100)
		_, _, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate},
			Reason: "   ",
		})

		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Equal(t, []string{"rate"}, de.Details["fields"])
		assert.True(t, decimal.NewFromInt(1000).Equal(h.load(l.ID).Rate))
		assert.Empty(t, h.load(l.ID).Adjustments)
		assert.Zero(t, h.audit.count(audit.ActionAdjustment, EntityLoad))
	})

	t.Run("reasoned edit records an adjustment", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		rate := decimal.NewFromInt(1100)
		got, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate},
			Reason: "Rate confirmation amended",
		})
		require.NoError(t, err)
		h.wait(p)

		assert.True(t, rate.Equal(got.Rate))
		adjustments, err := h.session.LoadAdjustments(l.ID)
		require.NoError(t, err)
		require.Len(t, adjustments, 1)
		adj := adjustments[0]
		assert.Equal(t, freight.FieldRate, adj.Field)
		assert.Equal(t, "1000", adj.OldValue)
		assert.Equal(t, "1100", adj.NewValue)
		assert.Equal(t, "Rate confirmation amended", adj.Reason)
		assert.Equal(t, dispatcher.UserID, adj.ActorID)
		assert.Equal(t, 1, h.audit.count(audit.ActionAdjustment, EntityLoad))
		assert.Zero(t, h.audit.count(audit.ActionUpdate, EntityLoad))
	})

	t.Run("notes and status stay editable without a reason", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		notes := "POD received by email"
		_, p, err := h.session.UpdateLoad(h.ctx, driverUser, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Notes: &notes},
		})
		require.NoError(t, err)
		h.wait(p)

		got := h.load(l.ID)
		assert.Equal(t, notes, got.Notes)
		assert.Empty(t, got.Adjustments)
	})

	t.Run("unlocked loads are edited freely", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		rate := decimal.NewFromInt(1250)
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate},
		})
		require.NoError(t, err)
		h.wait(p)

		assert.True(t, rate.Equal(h.load(l.ID).Rate))
		assert.Empty(t, h.load(l.ID).Adjustments)
	})
}

func TestSession_UpdateLoad_AuditEntry(t *testing.T) {
	entriesFor := func(t *testing.T, h *harness, id uuid.UUID) []*audit.Entry {
		t.Helper()
		entries, err := h.session.AuditTrail(h.ctx, audit.Filter{EntityID: id})
		require.NoError(t, err)
		var updates []*audit.Entry
		for _, e := range entries {
			if e.Action != audit.ActionCreate {
				updates = append(updates, e)
			}
		}
		return updates
	}

	t.Run("status change is one status_change entry", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		h.setStatus(dispatcher, l.ID, freight.LoadStatusDispatched)

		entries := entriesFor(t, h, l.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionStatusChange, entries[0].Action)
		assert.Equal(t, "dispatched", entries[0].After["status"])
	})

	t.Run("plain edit is one update entry", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		rate := decimal.NewFromInt(1100)
		notes := "Appointment at 08:00"
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate, Notes: &notes},
		})
		require.NoError(t, err)
		h.wait(p)

		entries := entriesFor(t, h, l.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionUpdate, entries[0].Action)
		assert.Equal(t, "1100", entries[0].After["rate"])
	})

	t.Run("adjustments share one entry", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000, withMiles(400))
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		rate := decimal.NewFromInt(1100)
		miles := decimal.NewFromInt(420)
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate, Miles: &miles},
			Reason: "Reroute around closure",
		})
		require.NoError(t, err)
		h.wait(p)

		entries := entriesFor(t, h, l.ID)
		require.Len(t, entries, 2)
		adj := entries[1]
		assert.Equal(t, audit.ActionAdjustment, adj.Action)
		assert.Equal(t, "Reroute around closure", adj.Metadata["reason"])
		assert.Len(t, adj.Metadata["adjustments"], 2)
	})

	t.Run("status change with adjustments is recorded as a status change", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		status := freight.LoadStatusCompleted
		rate := decimal.NewFromInt(1050)
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Status: &status, Rate: &rate},
			Reason: "Fuel surcharge",
		})
		require.NoError(t, err)
		h.wait(p)

		entries := entriesFor(t, h, l.ID)
		require.Len(t, entries, 2)
		assert.Equal(t, audit.ActionStatusChange, entries[1].Action)
		assert.Equal(t, "Fuel surcharge", entries[1].Metadata["reason"])
		assert.Zero(t, h.audit.count(audit.ActionAdjustment, EntityLoad))
	})
}

func TestSession_UpdateLoad_DriverReassignment(t *testing.T) {
	t.Run("settled load keeps its driver", func(t *testing.T) {
		h := newHarness(t)
		first := h.ownerOperator(88)
		second := h.companyDriver("0.60")
		l := h.addLoad(1000, withDriver(first.ID))
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)
		require.Len(t, settlementsFor(h.session, l.ID), 1)

		_, _, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{DriverID: &second.ID},
			Reason: "Team swap",
		})

		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Contains(t, de.Message, "STL-2026-0001")
		assert.Equal(t, first.ID, *h.load(l.ID).DriverID)
		assert.True(t, decimal.NewFromInt(880).Equal(settlementsFor(h.session, l.ID)[0].GrossPay))
	})

	t.Run("unsettled load may be reassigned", func(t *testing.T) {
		h := newHarness(t)
		first := h.ownerOperator(88)
		second := h.companyDriver("0.60")
		l := h.addLoad(1000, withDriver(first.ID))

		got, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{DriverID: &second.ID},
		})
		require.NoError(t, err)
		h.wait(p)

		assert.Equal(t, second.ID, *got.DriverID)
	})
}

func TestSession_UpdateLoad_Roles(t *testing.T) {
	t.Run("driver may not edit the rate", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		rate := decimal.NewFromInt(5000)
		_, _, err := h.session.UpdateLoad(h.ctx, driverUser, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Rate: &rate},
		})

		de := requireCode(t, err, shared.CodeValidationFailed)
		assert.Equal(t, []string{"rate"}, de.Details["dropped"])
		assert.True(t, decimal.NewFromInt(1000).Equal(h.load(l.ID).Rate))
	})

	t.Run("disallowed fields are dropped from a mixed update", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		status := freight.LoadStatusInTransit
		rate := decimal.NewFromInt(5000)
		got, p, err := h.session.UpdateLoad(h.ctx, driverUser, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Status: &status, Rate: &rate},
		})
		require.NoError(t, err)
		h.wait(p)

		assert.Equal(t, freight.LoadStatusInTransit, got.Status)
		assert.True(t, decimal.NewFromInt(1000).Equal(got.Rate))
	})

	t.Run("accounting may not reassign the driver", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000)

		_, _, err := h.session.UpdateLoad(h.ctx, accountant, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{DriverID: &driver.ID},
		})

		requireCode(t, err, shared.CodeValidationFailed)
		assert.Nil(t, h.load(l.ID).DriverID)
	})

	t.Run("unknown load", func(t *testing.T) {
		h := newHarness(t)
		status := freight.LoadStatusDelivered

		_, _, err := h.session.UpdateLoad(h.ctx, admin, uuid.New(), UpdateLoadInput{
			Fields: freight.LoadUpdate{Status: &status},
		})
		requireCode(t, err, shared.CodeNotFound)
	})

	t.Run("failed update restores the previous version", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.loads.setFailing(true)

		notes := "Driver running late"
		_, p, err := h.session.UpdateLoad(h.ctx, dispatcher, l.ID, UpdateLoadInput{
			Fields: freight.LoadUpdate{Notes: &notes},
		})
		require.NoError(t, err)

		requireCode(t, p.Wait(h.ctx), shared.CodeIOFailure)
		assert.Empty(t, h.load(l.ID).Notes)
	})
}

func TestSession_DeleteLoad(t *testing.T) {
	t.Run("invoiced load is blocked without force", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		_, err := h.session.DeleteLoad(h.ctx, dispatcher, l.ID, false)

		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Equal(t, 2, de.Details["count"])
		assert.Contains(t, de.Message, "INV-2026-0001")
		_, err = h.session.GetLoad(l.ID)
		assert.NoError(t, err)
	})

	t.Run("forced delete unlinks the load and recomputes totals", func(t *testing.T) {
		h := newHarness(t)
		first := h.addLoad(1000)
		second := h.addLoad(600)
		inv, p, err := h.session.CreateInvoice(h.ctx, accountant, CreateInvoiceInput{
			LoadIDs: []uuid.UUID{first.ID, second.ID},
		})
		require.NoError(t, err)
		h.wait(p)
		require.True(t, decimal.NewFromInt(1600).Equal(inv.Amount))

		p, err = h.session.DeleteLoad(h.ctx, dispatcher, first.ID, true)
		require.NoError(t, err)
		h.wait(p)

		_, err = h.session.GetLoad(first.ID)
		requireCode(t, err, shared.CodeNotFound)
		got, err := h.session.GetInvoice(inv.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{second.ID}, []uuid.UUID(got.LoadIDs))
		assert.True(t, decimal.NewFromInt(600).Equal(got.Amount), "amount %s", got.Amount)
	})

	t.Run("unreferenced load is removed", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)

		p, err := h.session.DeleteLoad(h.ctx, dispatcher, l.ID, false)
		require.NoError(t, err)
		h.wait(p)

		assert.Empty(t, h.session.ListLoads(LoadFilter{}))
		assert.Equal(t, 1, h.audit.count(audit.ActionDelete, EntityLoad))
	})

	t.Run("failed delete restores the load", func(t *testing.T) {
		h := newHarness(t)
		l := h.addLoad(1000)
		h.loads.setFailing(true)

		p, err := h.session.DeleteLoad(h.ctx, dispatcher, l.ID, false)
		require.NoError(t, err)

		requireCode(t, p.Wait(h.ctx), shared.CodeIOFailure)
		_, err = h.session.GetLoad(l.ID)
		assert.NoError(t, err)
	})
}
