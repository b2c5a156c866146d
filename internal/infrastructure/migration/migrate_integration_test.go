//go:build integration

package migration_test

import (
	"testing"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/migration"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrator_EmbeddedSchema(t *testing.T) {
	pg := testutil.NewPostgres(t)

	m, err := migration.New(pg.SqlDB, "", nil)
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(20260301090300), version)
	assert.False(t, dirty)

	for _, table := range []string{"loads", "invoices", "settlements", "expenses", "employees", "trucks",
		"trailers", "brokers", "factoring_companies", "audit_logs", "workflow_tasks", "sequence_counters"} {
		assert.True(t, pg.DB.Migrator().HasTable(table), "missing table %s", table)
	}

	t.Run("load numbers are unique per tenant", func(t *testing.T) {
		tenantA, tenantB := uuid.New(), uuid.New()
		insert := `INSERT INTO loads (id, tenant_id, load_number) VALUES ($1, $2, $3)`

		_, err := pg.SqlDB.Exec(insert, uuid.New(), tenantA, "LD-2026-00001")
		require.NoError(t, err)
		_, err = pg.SqlDB.Exec(insert, uuid.New(), tenantB, "LD-2026-00001")
		require.NoError(t, err, "another tenant may reuse the number")
		_, err = pg.SqlDB.Exec(insert, uuid.New(), tenantA, "LD-2026-00001")
		assert.Error(t, err)
	})

	t.Run("invoice status is constrained", func(t *testing.T) {
		_, err := pg.SqlDB.Exec(`INSERT INTO invoices (id, tenant_id, invoice_number, status) VALUES ($1, $2, $3, 'void')`,
			uuid.New(), uuid.New(), "INV-2026-0001")
		assert.Error(t, err)
	})

	t.Run("down then up again", func(t *testing.T) {
		require.NoError(t, m.Down())
		assert.False(t, pg.DB.Migrator().HasTable("loads"))
		require.NoError(t, m.Up())
		assert.True(t, pg.DB.Migrator().HasTable("loads"))
		require.NoError(t, m.Up(), "no change is not an error")
	})
}
