package tms

import (
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_DeleteEmployee(t *testing.T) {
	t.Run("driver assigned to loads is blocked", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		for i := 0; i < 3; i++ {
			h.addLoad(1000, withDriver(driver.ID))
		}

		_, err := h.session.DeleteEmployee(h.ctx, dispatcher, driver.ID, false)

		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Equal(t, 3, de.Details["count"])
		assert.Contains(t, de.Message, "Omar Hassan")
		assert.Contains(t, de.Message, "LD-2026-00001")
		_, err = h.session.GetEmployee(driver.ID)
		assert.NoError(t, err)
	})

	t.Run("forced delete clears the driver from every load", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			ids = append(ids, h.addLoad(1000, withDriver(driver.ID)).ID)
		}

		p, err := h.session.DeleteEmployee(h.ctx, dispatcher, driver.ID, true)
		require.NoError(t, err)
		h.wait(p)

		_, err = h.session.GetEmployee(driver.ID)
		requireCode(t, err, shared.CodeNotFound)
		for _, id := range ids {
			assert.Nil(t, h.load(id).DriverID)
		}
		assert.Empty(t, h.session.ListLoads(LoadFilter{DriverID: driver.ID}))
		assert.Equal(t, 1, h.audit.count(audit.ActionDelete, EntityEmployee))
	})

	t.Run("forced delete also clears the driver from settlements", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))
		h.setStatus(dispatcher, l.ID, freight.LoadStatusDelivered)

		p, err := h.session.DeleteEmployee(h.ctx, admin, driver.ID, true)
		require.NoError(t, err)
		h.wait(p)

		settlements := settlementsFor(h.session, l.ID)
		require.Len(t, settlements, 1)
		assert.Nil(t, settlements[0].DriverID)
		assert.Equal(t, "Omar Hassan", settlements[0].DriverName)
	})

	t.Run("unreferenced employee is removed", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.55")

		p, err := h.session.DeleteEmployee(h.ctx, dispatcher, driver.ID, false)
		require.NoError(t, err)
		h.wait(p)

		assert.Empty(t, h.session.ListEmployees(false))
	})

	t.Run("failed forced delete restores loads and driver", func(t *testing.T) {
		h := newHarness(t)
		driver := h.ownerOperator(88)
		l := h.addLoad(1000, withDriver(driver.ID))
		h.loads.setFailing(true)

		p, err := h.session.DeleteEmployee(h.ctx, dispatcher, driver.ID, true)
		require.NoError(t, err)

		requireCode(t, p.Wait(h.ctx), shared.CodeIOFailure)
		got := h.load(l.ID)
		require.NotNil(t, got.DriverID)
		assert.Equal(t, driver.ID, *got.DriverID)
		_, err = h.session.GetEmployee(driver.ID)
		assert.NoError(t, err)
	})

	t.Run("accounting may not delete employees", func(t *testing.T) {
		h := newHarness(t)
		driver := h.companyDriver("0.55")

		_, err := h.session.DeleteEmployee(h.ctx, accountant, driver.ID, true)
		requireCode(t, err, shared.CodePermissionDenied)
	})

	t.Run("unknown employee", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.session.DeleteEmployee(h.ctx, admin, uuid.New(), true)
		requireCode(t, err, shared.CodeNotFound)
	})
}

func TestSession_DeleteEquipmentAndPartners(t *testing.T) {
	t.Run("truck on a load is blocked then unlinked", func(t *testing.T) {
		h := newHarness(t)
		truck, p, err := h.session.CreateTruck(h.ctx, dispatcher, CreateTruckInput{UnitNumber: "T-101"})
		require.NoError(t, err)
		h.wait(p)
		l := h.addLoad(1000, func(u *freight.LoadUpdate) { u.TruckID = &truck.ID })

		_, err = h.session.DeleteTruck(h.ctx, dispatcher, truck.ID, false)
		requireCode(t, err, shared.CodePreconditionFailed)

		p, err = h.session.DeleteTruck(h.ctx, dispatcher, truck.ID, true)
		require.NoError(t, err)
		h.wait(p)
		assert.Nil(t, h.load(l.ID).TruckID)
	})

	t.Run("broker on a load is blocked then unlinked", func(t *testing.T) {
		h := newHarness(t)
		broker, p, err := h.session.CreateBroker(h.ctx, dispatcher, CreateBrokerInput{Name: "TQL"})
		require.NoError(t, err)
		h.wait(p)
		l := h.addLoad(1000, func(u *freight.LoadUpdate) { u.BrokerID = &broker.ID })
		assert.Equal(t, "TQL", h.load(l.ID).BrokerName)

		_, err = h.session.DeleteBroker(h.ctx, dispatcher, broker.ID, false)
		de := requireCode(t, err, shared.CodePreconditionFailed)
		assert.Equal(t, 1, de.Details["count"])

		p, err = h.session.DeleteBroker(h.ctx, dispatcher, broker.ID, true)
		require.NoError(t, err)
		h.wait(p)
		assert.Nil(t, h.load(l.ID).BrokerID)
	})
}
