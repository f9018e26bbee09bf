package influx

import (
	"errors"
	"sync"
	"time"

	"github.com/bannercarrier/extension/pkg/core"
)

// ErrNoBattle is returned when events arrive outside a battle.
var ErrNoBattle = errors.New("no battle started")

// Backend adapts a Manager to the journal's storage contract.
type Backend struct {
	m *Manager

	mu     sync.Mutex
	battle *core.BattleInfo
}

// NewBackend wraps m. Init connects it.
func NewBackend(m *Manager) *Backend {
	return &Backend{m: m}
}

// Manager returns the wrapped manager.
func (b *Backend) Manager() *Manager {
	return b.m
}

// Init connects to InfluxDB or opens the backup file.
func (b *Backend) Init() error {
	return b.m.Connect()
}

// Close flushes and closes the manager.
func (b *Backend) Close() error {
	return b.m.Close()
}

// StartBattle writes the battle start marker.
func (b *Backend) StartBattle(battle *core.BattleInfo) error {
	b.mu.Lock()
	b.battle = battle
	b.mu.Unlock()

	at := battle.StartTime
	if at.IsZero() {
		at = time.Now()
	}
	return b.m.WritePoint(b.m.JournalBucket(), BattlePoint(battle, "start", at))
}

// EndBattle writes the battle end marker.
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	battle := b.battle
	b.battle = nil
	b.mu.Unlock()

	if battle == nil {
		return ErrNoBattle
	}
	return b.m.WritePoint(b.m.JournalBucket(), BattlePoint(battle, "end", time.Now()))
}

// RecordEvents writes one point per event. The first write error aborts the
// batch.
func (b *Backend) RecordEvents(events []core.CarrierEvent) error {
	b.mu.Lock()
	battle := b.battle
	b.mu.Unlock()

	if battle == nil {
		return ErrNoBattle
	}
	for _, e := range events {
		if e.BattleID == "" {
			e.BattleID = battle.ID
		}
		if err := b.m.WritePoint(b.m.JournalBucket(), EventPoint(e)); err != nil {
			return err
		}
	}
	return nil
}
