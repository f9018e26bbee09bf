package host

import "github.com/bannercarrier/extension/pkg/core"

// Notification commands raised by the engine.
const (
	CmdSessionLaunched   = ":SESSION:LAUNCHED:"
	CmdMissionStarted    = ":MISSION:STARTED:"
	CmdMissionTick       = ":MISSION:TICK:"
	CmdMissionEnded      = ":MISSION:ENDED:"
	CmdOrderIssued       = ":ORDER:ISSUED:"
	CmdUnitRemoved       = ":UNIT:REMOVED:"
	CmdSettlementEntered = ":SETTLEMENT:ENTERED:"
	CmdPrisonerTaken     = ":PRISONER:TAKEN:"
)

// MissionStarted is raised once the battle scene is ready.
type MissionStarted struct {
	Mission    Mission
	CombatType core.CombatType
}

// MissionTick is raised every frame.
type MissionTick struct {
	Dt float64
}

// OrderIssued is raised when a team's commander gives an order.
type OrderIssued struct {
	Team       Team
	Order      core.OrderType
	Formations []Formation
}

// UnitRemoved is raised when a unit leaves the battle.
type UnitRemoved struct {
	Unit   Unit
	Killer Unit
	State  core.RemovalState
}

// SettlementEntered is raised when the player's party enters a settlement.
type SettlementEntered struct {
	Party        *core.Party
	Gold         int
	PartySizeCap int
	SettlementID string
}

// PrisonerTaken is raised with the roster of freshly taken prisoners. Handlers
// may edit Roster in place.
type PrisonerTaken struct {
	Roster *[]core.RosterEntry
}
