// Package memory keeps a battle's journal in memory and exports it as JSON
// when the battle ends.
package memory

import (
	"errors"
	"sync"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
)

// ErrNoBattle is returned when events arrive outside a battle.
var ErrNoBattle = errors.New("no battle started")

// Backend stores battle data in memory and exports to JSON
type Backend struct {
	cfg    config.MemoryConfig
	battle *core.BattleInfo
	events []core.CarrierEvent

	idCounter      uint
	lastExportPath string
	lastBattleID   string
	lastExport     []core.CarrierEvent
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartBattle begins recording a new battle
func (b *Backend) StartBattle(battle *core.BattleInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.battle = battle
	b.events = nil
	b.idCounter = 0
	return nil
}

// EndBattle finalizes and exports the battle data
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	err := b.exportJSON()
	b.lastBattleID = b.battle.ID
	b.lastExport = b.events
	b.battle = nil
	b.events = nil
	return err
}

// RecordEvents appends a batch, assigning sequential ids
func (b *Backend) RecordEvents(events []core.CarrierEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	for _, e := range events {
		b.idCounter++
		e.ID = b.idCounter
		b.events = append(b.events, e)
	}
	return nil
}

// Events returns a copy of the current battle's events
func (b *Backend) Events() []core.CarrierEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.CarrierEvent, len(b.events))
	copy(out, b.events)
	return out
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
