package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/model"
)

func TestPostgresDSN(t *testing.T) {
	c := config.PostgresConfig{Host: "db", Port: "5433", Username: "u", Password: "p", Database: "carrier"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=carrier sslmode=disable", PostgresDSN(c))

	c.SSLMode = "require"
	assert.Contains(t, PostgresDSN(c), "sslmode=require")
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
	var infos []model.JournalInfo
	require.NoError(t, db.Find(&infos).Error)
	require.Len(t, infos, 1)
	assert.Equal(t, SchemaVersion, infos[0].Version)
}

func TestSnapshot(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "source.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Battle{BattleID: "b-1"}).Error)

	out := filepath.Join(t.TempDir(), "it's a snapshot.db")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0644))
	require.NoError(t, Snapshot(db, out))

	snap, err := OpenSQLite(out)
	require.NoError(t, err)
	var battles []model.Battle
	require.NoError(t, snap.Find(&battles).Error)
	require.Len(t, battles, 1)
	assert.Equal(t, "b-1", battles[0].BattleID)

	assert.Error(t, Snapshot(db, ""))
}

func TestConnect_FallsBackToSQLite(t *testing.T) {
	unreachable := config.PostgresConfig{Host: "127.0.0.1", Port: "1", Username: "u", Password: "p", Database: "carrier"}
	path := filepath.Join(t.TempDir(), "fallback.db")

	conn, err := Connect(unreachable, path, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, conn.Local)
	require.NoError(t, Migrate(conn.DB))
	require.NoError(t, conn.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
