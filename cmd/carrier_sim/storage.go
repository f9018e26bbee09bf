package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/influx"
	"github.com/bannercarrier/extension/internal/storage"
	"github.com/bannercarrier/extension/internal/storage/memory"
	pgstorage "github.com/bannercarrier/extension/internal/storage/postgres"
	sqlitestorage "github.com/bannercarrier/extension/internal/storage/sqlite"
)

var ErrUnknownStorage = errors.New("unknown storage type")

// createStorageBackend builds the journal backend selected by storage.type.
// Backends are not initialized; the journal does that on Start.
func createStorageBackend(storageCfg config.StorageConfig, log zerolog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		log.Info().Msg("Postgres storage backend selected")
		return pgstorage.New(pgstorage.Dependencies{
			Postgres:     config.GetPostgresConfig(),
			Logger:       log,
			FallbackPath: storageCfg.SQLite.Path,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:         storageCfg.SQLite.Path,
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.DumpPath,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		log.Info().Str("path", storageCfg.SQLite.Path).Msg("SQLite storage backend selected")
		return backend, nil

	case "influx":
		log.Info().Msg("InfluxDB storage backend selected")
		return influx.NewBackend(influx.NewManager(log, storageCfg.Influx)), nil

	case "memory", "":
		log.Info().Str("dir", storageCfg.Memory.OutputDir).Msg("Memory storage backend selected")
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, storageCfg.Type)
	}
}
