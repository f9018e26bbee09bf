// Package sqlitestorage keeps the journal in SQLite through the GORM backend
// and snapshots it to DumpPath with VACUUM INTO, periodically and at the end
// of each battle.
package sqlitestorage

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bannercarrier/extension/internal/database"
	gormstorage "github.com/bannercarrier/extension/internal/storage/gorm"
	"github.com/bannercarrier/extension/pkg/core"
)

type Config struct {
	// Path is the database file. Empty keeps the journal in memory.
	Path string
	// DumpPath receives snapshots. Empty disables them.
	DumpPath string
	// DumpInterval paces periodic snapshots; zero dumps only at battle end.
	DumpInterval time.Duration
}

// Backend is the GORM backend plus snapshots. Periodic snapshots are skipped
// while nothing was written since the last one.
type Backend struct {
	*gormstorage.Backend
	cfg Config
	log zerolog.Logger

	dirty  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New opens the database; Init migrates it.
func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSQLite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: log}),
		cfg:     cfg,
		log:     log,
	}, nil
}

// Init migrates the schema and starts periodic snapshots when configured.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" || b.cfg.DumpInterval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.snapshotLoop(ctx)
	return nil
}

func (b *Backend) StartBattle(battle *core.BattleInfo) error {
	b.dirty.Store(true)
	return b.Backend.StartBattle(battle)
}

func (b *Backend) RecordEvents(events []core.CarrierEvent) error {
	b.dirty.Store(true)
	return b.Backend.RecordEvents(events)
}

// EndBattle closes the battle row and snapshots unconditionally.
func (b *Backend) EndBattle() error {
	if err := b.Backend.EndBattle(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.snapshot()
}

// Close stops the snapshot loop and closes the database. Safe to call twice.
func (b *Backend) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
		b.cancel = nil
	}
	sqlDB, err := b.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) snapshot() error {
	b.dirty.Store(false)
	start := time.Now()
	if err := database.Snapshot(b.DB(), b.cfg.DumpPath); err != nil {
		b.dirty.Store(true)
		b.log.Error().Err(err).Str("path", b.cfg.DumpPath).Msg("Error dumping to disk")
		return err
	}
	b.log.Debug().Dur("duration", time.Since(start)).Str("path", b.cfg.DumpPath).Msg("Dumped to disk")
	return nil
}

func (b *Backend) snapshotLoop(ctx context.Context) {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if b.dirty.Load() {
				_ = b.snapshot()
			}
		}
	}
}
