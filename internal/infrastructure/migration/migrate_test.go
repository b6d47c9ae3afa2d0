package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_EmbeddedSQLiteUpAndDown(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, "sqlite", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	var tables int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('documents', 'document_sequences', 'vehicles', 'cost_entries', 'clients', 'trade_ins')`,
	).Scan(&tables))
	assert.Equal(t, 6, tables)

	// a second run is a no-op
	require.NoError(t, m.Up())

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrator_SQLiteRejectsDocumentDelete(t *testing.T) {
	db := openSQLite(t)
	m, err := New(db, "sqlite", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	_, err = db.Exec(`INSERT INTO documents (id, created_at, updated_at, kind, prefix, year, sequence, document_number, status, vehicle_id)
		VALUES ('d1', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 'order_form', 'BC', 2025, 1, 'BC-2025-00001', 'finalized', 'v1')`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM documents WHERE id = 'd1'`)
	assert.Error(t, err)
}

func TestNew_UnknownDialect(t *testing.T) {
	_, err := New(openSQLite(t), "oracle", zap.NewNop())
	assert.Error(t, err)
}
