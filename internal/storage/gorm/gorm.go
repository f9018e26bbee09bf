// Package gormstorage implements storage.Backend on any GORM dialect. The
// SQLite and Postgres backends wrap it and only differ in how they connect.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bannercarrier/extension/internal/database"
	"github.com/bannercarrier/extension/internal/model"
	"github.com/bannercarrier/extension/internal/model/convert"
	"github.com/bannercarrier/extension/pkg/core"
)

// ErrNoBattle is returned when events arrive outside a battle.
var ErrNoBattle = errors.New("no battle started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend writes battles and their events through GORM.
type Backend struct {
	deps Dependencies

	mu       sync.Mutex
	battle   *model.Battle
	recorded int
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the journal schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("no database connection")
	}
	b.deps.Logger.Info().Str("dialect", b.deps.DB.Name()).Msg("Migrating schema")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

// Close is a no-op; connections are owned by the caller.
func (b *Backend) Close() error {
	return nil
}

// StartBattle inserts the battle row.
func (b *Backend) StartBattle(battle *core.BattleInfo) error {
	row := convert.CoreToBattle(*battle)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}

	b.mu.Lock()
	b.battle = &row
	b.recorded = 0
	b.mu.Unlock()

	b.deps.Logger.Debug().Str("battle", battle.ID).Uint("row", row.ID).Msg("Battle started")
	return nil
}

// EndBattle stamps the end time and event count on the battle row.
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	row := b.battle
	count := b.recorded
	b.battle = nil
	b.mu.Unlock()

	if row == nil {
		return ErrNoBattle
	}

	end := time.Now()
	err := b.deps.DB.Model(&model.Battle{}).Where("id = ?", row.ID).Updates(map[string]any{
		"end_time":    end,
		"event_count": count,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finalize battle: %w", err)
	}
	return nil
}

// RecordEvents writes a batch in one transaction. Events are stamped with
// the current battle id when they carry none.
func (b *Backend) RecordEvents(events []core.CarrierEvent) error {
	b.mu.Lock()
	row := b.battle
	b.mu.Unlock()

	if row == nil {
		return ErrNoBattle
	}
	if len(events) == 0 {
		return nil
	}

	items := convert.CoreToCarrierEvents(events)
	for i := range items {
		if items[i].BattleID == "" {
			items[i].BattleID = row.BattleID
		}
	}

	start := time.Now()
	tx := b.deps.DB.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		b.deps.Logger.Error().Err(err).Int("count", len(items)).Msg("Error creating carrier events")
		return fmt.Errorf("failed to insert carrier events: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit carrier events: %w", err)
	}

	b.mu.Lock()
	b.recorded += len(items)
	b.mu.Unlock()
	b.deps.Logger.Trace().Int("count", len(items)).Dur("duration", time.Since(start)).Msg("Carrier events written")
	return nil
}

// Events reads back every stored event of a battle in insertion order.
func (b *Backend) Events(battleID string) ([]core.CarrierEvent, error) {
	var rows []model.CarrierEvent
	err := b.deps.DB.Where("battle_id = ?", battleID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]core.CarrierEvent, len(rows))
	for i, r := range rows {
		out[i] = convert.CarrierEventToCore(r)
	}
	return out, nil
}
