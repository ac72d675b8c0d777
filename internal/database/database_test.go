package database

import (
	"log/slog"
	"path/filepath"
	"testing"

	"docvault/internal/config"
	"docvault/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ConnectSQLite(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseURL:    filepath.Join(t.TempDir(), "app.db"),
	}
	dbm := NewDatabaseManager(cfg, slog.Default())
	require.NoError(t, dbm.Connect())
	t.Cleanup(func() { _ = dbm.Close() })

	for _, model := range utils.Models() {
		assert.True(t, dbm.DB.Migrator().HasTable(model), "%T table missing", model)
	}
}

func TestManager_ConnectRequiresURL(t *testing.T) {
	dbm := NewDatabaseManager(&config.Config{DatabaseDriver: "sqlite"}, slog.Default())
	assert.Error(t, dbm.Connect())
}

func TestOpenTest_ShareSetSemantics(t *testing.T) {
	db := OpenTest(t)

	share := utils.DocumentShare{DocumentID: "d1", UserID: "u1"}
	require.NoError(t, db.Create(&share).Error)
	dup := utils.DocumentShare{DocumentID: "d1", UserID: "u1"}
	assert.Error(t, db.Create(&dup).Error, "composite key must reject duplicates")
}
