package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/influx"
	"github.com/bannercarrier/extension/internal/storage/memory"
	pgstorage "github.com/bannercarrier/extension/internal/storage/postgres"
	sqlitestorage "github.com/bannercarrier/extension/internal/storage/sqlite"
)

func TestCreateStorageBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.StorageConfig{
		Memory: config.MemoryConfig{OutputDir: dir},
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "journal.db"), DumpInterval: time.Minute},
		Influx: config.InfluxConfig{BackupPath: filepath.Join(dir, "influx.lp.gz")},
	}

	tests := []struct {
		typ  string
		want any
	}{
		{"", &memory.Backend{}},
		{"memory", &memory.Backend{}},
		{"sqlite", &sqlitestorage.Backend{}},
		{"postgres", &pgstorage.Backend{}},
		{"influx", &influx.Backend{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			cfg.Type = tt.typ
			b, err := createStorageBackend(cfg, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			if tt.typ == "sqlite" {
				assert.NoError(t, b.Close())
			}
		})
	}
}

func TestCreateStorageBackend_Unknown(t *testing.T) {
	_, err := createStorageBackend(config.StorageConfig{Type: "websocket"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownStorage)
}
