package database

import (
	"path/filepath"
	"testing"

	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) config.StorageConfig {
	return config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "paint.db")},
	}
}

func TestConnect_SQLite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cfg := sqliteConfig(t)

	require.NoError(t, m.Connect(cfg))
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.IsValid)
	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, cfg.SQLite.Path, m.SqliteFilePath)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestSetup_MigratesAndStampsOnce(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(sqliteConfig(t)))
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Setup())
	require.NoError(t, m.Setup())

	for _, tbl := range model.DatabaseModels {
		assert.True(t, m.DB.Migrator().HasTable(tbl), "%T", tbl)
	}

	var infos []model.AppInfo
	require.NoError(t, m.DB.Find(&infos).Error)
	require.Len(t, infos, 1)
	assert.Equal(t, "joypaint", infos[0].AppName)
	assert.Equal(t, SchemaVersion, infos[0].SchemaVersion)
}

func TestConnect_PostgresFallsBackToSQLite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	cfg := sqliteConfig(t)
	cfg.Type = "postgres"
	cfg.Postgres = config.PostgresConfig{Host: "127.0.0.1", Port: "1", Username: "x", Password: "x", Database: "x"}

	require.NoError(t, m.Connect(cfg))
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.ShouldSaveLocal)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestSetup_NotConnected(t *testing.T) {
	assert.Error(t, NewManager(zerolog.Nop()).Setup())
	assert.NoError(t, NewManager(zerolog.Nop()).Close())
}
