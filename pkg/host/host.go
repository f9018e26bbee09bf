// Package host declares the engine capabilities the carrier controller relies
// on. The battle engine implements these; the controller never reaches engine
// state any other way.
package host

import (
	"errors"

	"github.com/bannercarrier/extension/pkg/core"
)

var (
	// ErrSpawnFailed is returned by Mission.SpawnUnit and Mission.SpawnMount
	// when the engine could not create the unit.
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrProbeFailed is returned by Mission.Probe when the ray could not be
	// cast.
	ErrProbeFailed = errors.New("probe failed")
)

// UnitID identifies a unit for the duration of a battle.
type UnitID uint32

// Origin is what a unit inherits from the party it fights for.
type Origin struct {
	Party  *core.Party
	Color1 uint32
	Color2 uint32
	Banner string
}

// LightSpec describes a point light attached to a unit.
type LightSpec struct {
	Prefab    string
	Radius    float64
	Intensity float64
	Flicker   float64
	Color     [3]float64
	Offset    core.Position3D
}

// Light is an engine-owned visual attachment. Release must be called exactly
// once.
type Light interface {
	Release()
}

// Unit is a combat unit (agent) in the battle.
type Unit interface {
	ID() UnitID
	Troop() *core.Troop
	Origin() Origin
	Team() Team
	Formation() Formation
	Position() core.Position3D

	IsActive() bool
	Health() float64
	Morale() float64
	SetMorale(m float64)
	MakeVoice(v core.VoiceType)

	Equipment() core.Equipment
	Reequip(eq core.Equipment) error
	RemoveWeapon(slot core.EquipmentIndex)
	EquipWeapon(slot core.EquipmentIndex, item *core.Item) error
	AttachLight(spec LightSpec) (Light, error)
	SetBannerWind(wind core.Position3D)

	SetFormation(f Formation)
	Teleport(pos core.Position3D)
	Mount(mount Unit) error
}

// Formation is a tactical group of units on one team.
type Formation interface {
	Class() core.FormationClass
	Team() Team
	Units() []Unit
	UnitCount() int
	Mounted() bool
	Position() core.Position3D
	Direction() core.Direction2D
}

// Team is one side's units in the battle.
type Team interface {
	Side() core.Side
	IsPlayerTeam() bool
	ActiveUnits() []Unit
	Formations() []Formation
}

// SpawnRequest carries everything needed to build a new unit.
type SpawnRequest struct {
	Troop               *core.Troop
	Origin              Origin
	Equipment           core.Equipment
	Team                Team
	Formation           Formation
	FormationTroopCount int
	FormationTroopIndex int
	Position            core.Position3D
	Direction           core.Direction2D
}

// Geometry is a static scene object hit by a probe.
type Geometry struct {
	Name     string
	Position core.Position3D
}

// Notification is a short on-screen message with a sound cue.
type Notification struct {
	Text       string
	Sound      string
	DurationMs int
	Subject    *core.Troop
}

// Mission is the running battle as seen from the controller.
type Mission interface {
	// Now is the mission clock in seconds.
	Now() float64
	Encounter() *core.Encounter
	Teams() []Team
	// PlayerSide is the side of the player's own unit, SideNone when the
	// player has no unit in the battle.
	PlayerSide() core.Side
	OrderShoutingAllowed() bool

	CarrierTroop() (*core.Troop, bool)
	Item(id string) (*core.Item, bool)

	SpawnUnit(req SpawnRequest) (Unit, error)
	SpawnMount(horse, harness *core.Item, pos core.Position3D, dir core.Direction2D) (Unit, error)

	NearbyAllies(pos core.Position3D, radius float64, team Team) []Unit
	Probe(origin, dir core.Position3D, maxDistance float64) ([]Geometry, error)
	Notify(n Notification)
}
