package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add loads table", "add_loads_table"},
		{"Add-Loads-Table", "add_loads_table"},
		{"ADD_LOADS_TABLE", "add_loads_table"},
		{"add__loads__table", "add_loads_table"},
		{"Add Settlements 2", "add_settlements_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mf, err := createMigrationAt(dir, "add expense receipts", "Receipt URL per expense", now)
	require.NoError(t, err)

	assert.Equal(t, "20260314093000", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20260314093000_add_expense_receipts.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260314093000_add_expense_receipts.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add expense receipts")
	assert.Contains(t, string(up), "Receipt URL per expense")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")

	t.Run("same version twice fails without overwriting", func(t *testing.T) {
		_, err := createMigrationAt(dir, "add expense receipts", "again", now)
		require.Error(t, err)

		up, readErr := os.ReadFile(mf.UpPath)
		require.NoError(t, readErr)
		assert.Contains(t, string(up), "Receipt URL per expense")
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		_, err := createMigrationAt(dir, "!!!", "", now)
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000003_add_expenses.up.sql":   {Data: []byte("--")},
		"000003_add_expenses.down.sql": {Data: []byte("--")},
		"000001_init.up.sql":           {Data: []byte("--")},
		"000001_init.down.sql":         {Data: []byte("--")},
		"000002_add_loads.up.sql":      {Data: []byte("--")},
		"README.md":                    {Data: []byte("docs")},
		"nested.up.sql/keep":           {Data: []byte("")},
	}

	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_loads", "000003_add_expenses"}, migrations)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestSchema(t *testing.T) {
	migrations, err := ListMigrations(Schema())
	require.NoError(t, err)
	require.Len(t, migrations, 4)
	assert.Equal(t, "20260301090000_create_fleet_and_partners", migrations[0])

	for _, name := range migrations {
		_, err := Schema().Open(name + ".down.sql")
		assert.NoError(t, err, "missing rollback for %s", name)
	}
}
