package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newEntry(tenantID, entityID uuid.UUID, action audit.Action, at time.Time) *audit.Entry {
	return &audit.Entry{
		TenantID:   tenantID,
		ActorID:    uuid.New(),
		ActorRole:  shared.RoleDispatcher,
		Action:     action,
		EntityType: "Load",
		EntityID:   entityID,
		After:      audit.Payload{"rate": "1000"},
		Message:    "Updated load LD-2026-00001",
		Timestamp:  at,
	}
}

// runSinkContract exercises the behaviour every audit sink must share
func runSinkContract(t *testing.T, sink audit.Sink) {
	ctx := context.Background()
	tenantID := uuid.New()
	otherTenant := uuid.New()
	loadID := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Append(ctx, newEntry(tenantID, loadID, audit.ActionCreate, base)))
	require.NoError(t, sink.Append(ctx, newEntry(tenantID, loadID, audit.ActionUpdate, base.Add(time.Minute))))
	require.NoError(t, sink.Append(ctx, newEntry(tenantID, uuid.New(), audit.ActionCreate, base.Add(2*time.Minute))))
	require.NoError(t, sink.Append(ctx, newEntry(otherTenant, loadID, audit.ActionDelete, base.Add(3*time.Minute))))

	t.Run("lists a tenant's entries newest first", func(t *testing.T) {
		entries, err := sink.List(ctx, tenantID, audit.Filter{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
		assert.True(t, entries[1].Timestamp.After(entries[2].Timestamp))
		for _, e := range entries {
			assert.Equal(t, tenantID, e.TenantID)
			assert.NotEqual(t, uuid.Nil, e.ID)
		}
	})

	t.Run("filters by entity and action", func(t *testing.T) {
		entries, err := sink.List(ctx, tenantID, audit.Filter{EntityID: loadID})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = sink.List(ctx, tenantID, audit.Filter{EntityID: loadID, Action: audit.ActionUpdate})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "1000", entries[0].After["rate"])
	})

	t.Run("honours since and limit", func(t *testing.T) {
		entries, err := sink.List(ctx, tenantID, audit.Filter{Since: base.Add(30 * time.Second)})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = sink.List(ctx, tenantID, audit.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, base.Add(2*time.Minute).Unix(), entries[0].Timestamp.Unix())
	})
}

func TestGormSink(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AuditLogModel{}))

	runSinkContract(t, NewGormSink(db))
}

func TestBadgerSink(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		sink, err := OpenBadgerSink("")
		require.NoError(t, err)
		defer sink.Close()

		runSinkContract(t, sink)
	})

	t.Run("on disk survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		tenantID := uuid.New()

		sink, err := OpenBadgerSink(dir)
		require.NoError(t, err)
		require.NoError(t, sink.Append(context.Background(), newEntry(tenantID, uuid.New(), audit.ActionCreate, time.Now())))
		require.NoError(t, sink.Close())

		sink, err = OpenBadgerSink(dir)
		require.NoError(t, err)
		defer sink.Close()

		entries, err := sink.List(context.Background(), tenantID, audit.Filter{})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
