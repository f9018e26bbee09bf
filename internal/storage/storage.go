// Package storage defines the contract between the battle journal and the
// places it is written to.
package storage

import "github.com/bannercarrier/extension/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management
	StartBattle(battle *core.BattleInfo) error
	EndBattle() error

	// Event recording. Events arrive in batches from the journal writer and
	// always belong to the battle last passed to StartBattle.
	RecordEvents(events []core.CarrierEvent) error
}

// ExportMetadata describes a finished journal export.
type ExportMetadata struct {
	BattleID       string
	EventCount     int
	CarriersPlaced int
	CarriersLost   int
	WallsReached   bool
	MissionSeconds float64
}

// Exportable is an optional interface for storage backends that produce a
// file per battle.
type Exportable interface {
	GetExportedFilePath() string
	GetExportMetadata() ExportMetadata
}

// Reader is implemented by backends that can read a stored battle back.
type Reader interface {
	Events(battleID string) ([]core.CarrierEvent, error)
}

// Summarize builds export metadata from a battle's events.
func Summarize(battleID string, events []core.CarrierEvent) ExportMetadata {
	meta := ExportMetadata{BattleID: battleID, EventCount: len(events)}
	for _, e := range events {
		switch e.Kind {
		case core.EventCarrierSpawned, core.EventCarrierAssigned:
			meta.CarriersPlaced++
		case core.EventCarrierRemoved:
			meta.CarriersLost++
		case core.EventWallReached:
			meta.WallsReached = true
		}
		if e.MissionTime > meta.MissionSeconds {
			meta.MissionSeconds = e.MissionTime
		}
	}
	return meta
}
