package db

import (
	"path/filepath"
	"testing"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	conn, err := Open(":memory:")
	require.NoError(t, err)
	assert.True(t, conn.Migrator().HasTable(&model.ToolCall{}))

	require.NoError(t, conn.Create(&model.ToolCall{Tool: "raw_query", Outcome: "success"}).Error)

	var count int64
	require.NoError(t, conn.Model(&model.ToolCall{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	conn, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, conn.Create(&model.ToolCall{Tool: "system_get_status", Outcome: "success"}).Error)

	// reopening the same file sees the row
	again, err := Open(path)
	require.NoError(t, err)
	var calls []model.ToolCall
	require.NoError(t, again.Find(&calls).Error)
	require.Len(t, calls, 1)
	assert.Equal(t, "system_get_status", calls[0].Tool)
}

func TestFailedMigrationClosesConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	// a view holding the table name makes the migration fail
	setup, err := NewDBConnection(path)
	require.NoError(t, err)
	require.NoError(t, setup.Exec("CREATE VIEW tool_calls AS SELECT 1 AS id").Error)
	sqlSetup, err := setup.DB()
	require.NoError(t, err)
	require.NoError(t, sqlSetup.Close())

	conn, err := NewDBConnection(path)
	require.NoError(t, err)
	err = migrateOrClose(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto-migration failed")

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "the connection should be closed")

	_, err = Open(path)
	assert.Error(t, err)
}
