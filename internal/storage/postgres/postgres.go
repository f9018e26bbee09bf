// Package postgres implements the storage.Backend interface on PostgreSQL
// through the shared GORM backend.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/database"
	gormstorage "github.com/bannercarrier/extension/internal/storage/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects with Postgres.
	DB       *gorm.DB
	Postgres config.PostgresConfig
	Logger   zerolog.Logger
	// FallbackPath is the SQLite file used when Postgres is unreachable.
	// Empty keeps the fallback in memory.
	FallbackPath string
}

// Backend implements storage.Backend on Postgres.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
	conn *database.Conn
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// Init connects when no DB was injected, runs schema migration and wires the
// GORM backend.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		conn, err := database.Connect(b.deps.Postgres, b.deps.FallbackPath, b.deps.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if conn.Local {
			b.deps.Logger.Warn().Msg("Postgres unavailable, journal is written to SQLite")
		}
		b.conn = conn
		b.deps.DB = conn.DB
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:     b.deps.DB,
		Logger: b.deps.Logger,
	})
	return b.Backend.Init()
}

// Local reports whether the backend fell back to SQLite.
func (b *Backend) Local() bool {
	return b.conn != nil && b.conn.Local
}

// Close closes connections this backend opened itself.
func (b *Backend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
