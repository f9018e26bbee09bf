// pkg/core/events.go
package core

import "time"

// CarrierEventKind names a journal entry.
type CarrierEventKind string

const (
	EventBattleStarted    CarrierEventKind = "battle_started"
	EventCarrierSpawned   CarrierEventKind = "carrier_spawned"
	EventCarrierAssigned  CarrierEventKind = "carrier_assigned"
	EventCarrierRemoved   CarrierEventKind = "carrier_removed"
	EventMoralePulse      CarrierEventKind = "morale_pulse"
	EventMoralePenalty    CarrierEventKind = "morale_penalty"
	EventWallReached      CarrierEventKind = "wall_reached"
	EventControllerFailed CarrierEventKind = "controller_failed"
	EventBattleEnded      CarrierEventKind = "battle_ended"
)

// CarrierEvent is one entry of the battle journal.
// MissionTime is the engine clock in seconds; Time is the wall clock.
type CarrierEvent struct {
	ID          uint
	BattleID    string
	Kind        CarrierEventKind
	Time        time.Time
	MissionTime float64
	Side        Side
	UnitID      uint32
	Formation   FormationClass
	Affected    int
	Detail      string
	Position    Position3D
}

// BattleInfo describes a journaled battle.
type BattleInfo struct {
	ID           string
	StartTime    time.Time
	Raid         bool
	SiegeAssault bool
	SiegeOutside bool
	Hideout      bool
	Parties      []string
}
