// Package sim is a small in-process battlefield that implements the host
// interfaces. It backs the carrier_sim harness and the package tests.
package sim

import (
	"fmt"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Mission is a simulated battle.
type Mission struct {
	now        float64
	enc        *core.Encounter
	teams      []*Team
	units      []*Unit
	nextID     host.UnitID
	playerSide core.Side
	shouting   bool

	carrierTroop  *core.Troop
	items         map[string]*core.Item
	walls         []Wall
	notifications []host.Notification

	// FailSpawns makes the next n SpawnUnit calls fail.
	FailSpawns int
}

// NewMission creates an empty battle for enc. Order shouting is allowed.
func NewMission(enc *core.Encounter) *Mission {
	return &Mission{
		enc:      enc,
		shouting: true,
		items:    make(map[string]*core.Item),
	}
}

// AddTeam adds the team fighting on side.
func (m *Mission) AddTeam(side core.Side, player bool) *Team {
	t := &Team{mission: m, side: side, player: player}
	m.teams = append(m.teams, t)
	if player {
		m.playerSide = side
	}
	return t
}

// Team returns the team on side, nil when absent.
func (m *Mission) Team(side core.Side) *Team {
	for _, t := range m.teams {
		if t.side == side {
			return t
		}
	}
	return nil
}

// SetPlayerSide overrides the side of the player's own unit.
func (m *Mission) SetPlayerSide(s core.Side) { m.playerSide = s }

// SetOrderShouting toggles whether units may shout orders.
func (m *Mission) SetOrderShouting(on bool) { m.shouting = on }

// SetCarrierTroop registers the carrier troop template.
func (m *Mission) SetCarrierTroop(t *core.Troop) { m.carrierTroop = t }

// AddItem registers an item the engine can look up by id.
func (m *Mission) AddItem(item *core.Item) { m.items[item.ID] = item }

// Advance moves the mission clock forward by dt seconds.
func (m *Mission) Advance(dt float64) { m.now += dt }

// Units returns every unit ever created, in creation order.
func (m *Mission) Units() []*Unit { return m.units }

// Notifications returns every notification shown so far.
func (m *Mission) Notifications() []host.Notification { return m.notifications }

// Remove takes u out of the battle.
func (m *Mission) Remove(u *Unit, state core.RemovalState) {
	u.active = false
	if state.Incapacitating() {
		u.health = 0
	}
}

func (m *Mission) newUnit(troop *core.Troop, origin host.Origin, team *Team, f *Formation) *Unit {
	m.nextID++
	u := &Unit{
		id:        m.nextID,
		troop:     troop,
		origin:    origin,
		team:      team,
		formation: f,
		active:    true,
		health:    100,
		morale:    DefaultMorale,
	}
	if troop != nil {
		u.equipment = troop.Equipment
	}
	m.units = append(m.units, u)
	return u
}

func (m *Mission) Now() float64 { return m.now }
func (m *Mission) Encounter() *core.Encounter { return m.enc }
func (m *Mission) PlayerSide() core.Side { return m.playerSide }
func (m *Mission) OrderShoutingAllowed() bool { return m.shouting }

func (m *Mission) Teams() []host.Team {
	out := make([]host.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	return out
}

func (m *Mission) CarrierTroop() (*core.Troop, bool) {
	return m.carrierTroop, m.carrierTroop != nil
}

func (m *Mission) Item(id string) (*core.Item, bool) {
	item, ok := m.items[id]
	return item, ok
}

func (m *Mission) SpawnUnit(req host.SpawnRequest) (host.Unit, error) {
	if m.FailSpawns > 0 {
		m.FailSpawns--
		return nil, host.ErrSpawnFailed
	}
	if req.Troop == nil {
		return nil, fmt.Errorf("no troop: %w", host.ErrSpawnFailed)
	}
	team, ok := req.Team.(*Team)
	if !ok || team.mission != m {
		return nil, fmt.Errorf("foreign team: %w", host.ErrSpawnFailed)
	}
	f, _ := req.Formation.(*Formation)

	u := m.newUnit(req.Troop, req.Origin, team, nil)
	u.equipment = req.Equipment
	u.pos = req.Position
	if f != nil {
		u.SetFormation(f)
	}
	return u, nil
}

func (m *Mission) SpawnMount(horse, harness *core.Item, pos core.Position3D, dir core.Direction2D) (host.Unit, error) {
	if horse == nil {
		return nil, fmt.Errorf("no horse: %w", host.ErrSpawnFailed)
	}
	troop := &core.Troop{ID: horse.ID, Name: horse.Name, Role: core.RoleMount}
	troop.Equipment.SetSlot(core.Horse, horse)
	troop.Equipment.SetSlot(core.HorseHarness, harness)
	u := m.newUnit(troop, host.Origin{}, nil, nil)
	u.pos = pos
	return u, nil
}

// NearbyAllies returns the active units of team within radius of pos on the
// ground plane.
func (m *Mission) NearbyAllies(pos core.Position3D, radius float64, team host.Team) []host.Unit {
	t, ok := team.(*Team)
	if !ok || t == nil {
		return nil
	}
	var out []host.Unit
	for _, u := range m.units {
		if u.team == t && u.active && u.pos.DistanceXY(pos) <= radius {
			out = append(out, u)
		}
	}
	return out
}

func (m *Mission) Notify(n host.Notification) {
	m.notifications = append(m.notifications, n)
}
