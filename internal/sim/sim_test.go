package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/dispatcher"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

const skirmish = `
name: skirmish
seed: 5
step: 1
duration: 10
encounter: {timeOfDay: 9}
carrierTroop: bannerman
items:
  - {id: banner_pole}
  - {id: spear}
  - {id: cap}
troops:
  - id: bannerman
    role: carrier
    equipment: {weapon0: banner_pole}
  - id: recruit
    tier: 1
    formation: infantry
    equipment: {weapon0: spear, head: cap}
    upgrades: [footman]
  - id: footman
    tier: 2
    formation: infantry
factions:
  - {id: empire, basicTroop: recruit}
parties:
  - id: lucon
    side: attacker
    faction: empire
    mobile: true
    leader: {name: Lucon, hasClan: true, clanTier: 2}
    roster:
      - {troop: footman, count: 20}
  - id: looters
    side: defender
    bandit: true
teams:
  - side: attacker
    player: true
    party: lucon
    formations:
      - {class: infantry, troop: footman, count: 20, carriers: 2, morale: 45, position: {x: 10, y: 10}}
  - side: defender
    party: looters
    formations:
      - {class: infantry, troop: recruit, count: 12, position: {x: 10, y: 60}}
walls:
  - {name: fort_castle_wall, footprint: "POLYGON((0 0, 50 0, 50 5, 0 5, 0 0))", base: 0, top: 8}
script:
  - {at: 5, kind: remove, side: defender, count: 3, state: routed}
  - {at: 1, kind: order, side: attacker, formation: infantry, order: charge}
  - {at: 2, kind: march, side: attacker, velocity: {y: 2}}
  - {at: 3, kind: remove, side: attacker, target: carrier}
`

func TestParseScenario_Defaults(t *testing.T) {
	scn, err := ParseScenario([]byte("name: empty\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.5, scn.Step)
	assert.Equal(t, 60.0, scn.Duration)
	ct, err := scn.CombatType()
	require.NoError(t, err)
	assert.Equal(t, core.CombatTypeCombat, ct)
}

func TestParseScenario_Invalid(t *testing.T) {
	_, err := ParseScenario([]byte("teams: [unclosed"))
	assert.Error(t, err)

	scn, err := ParseScenario([]byte("combat: tourney\n"))
	require.NoError(t, err)
	_, err = scn.CombatType()
	assert.Error(t, err)
}

func TestBuild_Skirmish(t *testing.T) {
	scn, err := ParseScenario([]byte(skirmish))
	require.NoError(t, err)
	m, err := Build(scn)
	require.NoError(t, err)

	enc := m.Encounter()
	require.Len(t, enc.Parties, 2)
	lucon := enc.Parties[0]
	assert.Equal(t, core.SideAttacker, lucon.Side)
	require.NotNil(t, lucon.Faction.BasicTroop)
	require.Len(t, lucon.Faction.BasicTroop.UpgradeTargets, 1)
	assert.Equal(t, "footman", lucon.Faction.BasicTroop.UpgradeTargets[0].ID)
	assert.True(t, enc.Parties[1].IsBanditAffiliated())

	troop, ok := m.CarrierTroop()
	require.True(t, ok)
	assert.Equal(t, core.RoleCarrier, troop.Role)
	assert.True(t, troop.Human)

	att := m.Team(core.SideAttacker)
	require.NotNil(t, att)
	assert.True(t, att.IsPlayerTeam())
	assert.Equal(t, core.SideAttacker, m.PlayerSide())
	inf := att.Formation(core.FormationInfantry)
	require.NotNil(t, inf)
	assert.Equal(t, 22, inf.UnitCount())
	for _, u := range inf.SimUnits() {
		assert.Equal(t, 45.0, u.Morale())
		assert.Same(t, lucon, u.Origin().Party)
		assert.Equal(t, "lucon", u.Origin().Banner)
	}
	assert.Len(t, m.Team(core.SideDefender).ActiveUnits(), 12)
}

func TestBuild_UnknownReferences(t *testing.T) {
	cases := map[string]string{
		"troop item":    "items: []\ntroops: [{id: a, equipment: {head: nope}}]",
		"slot":          "items: [{id: x}]\ntroops: [{id: a, equipment: {pocket: x}}]",
		"upgrade":       "troops: [{id: a, upgrades: [b]}]",
		"upgrade cycle": "troops: [{id: a, upgrades: [b]}, {id: b, upgrades: [a]}]",
		"self upgrade":  "troops: [{id: a, upgrades: [a]}]",
		"carrier troop": "carrierTroop: ghost",
		"faction troop": "factions: [{id: f, basicTroop: ghost}]",
		"party faction": "parties: [{id: p, side: attacker, faction: ghost}]",
		"party side":    "parties: [{id: p, side: sideways}]",
		"team side":     "teams: [{side: none}]",
		"team troop":    "teams: [{side: attacker, formations: [{class: infantry, troop: ghost, count: 1}]}]",
		"wall":          "walls: [{name: w, footprint: 'POLYGON((0 0'}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			scn, err := ParseScenario([]byte(doc))
			require.NoError(t, err)
			_, err = Build(scn)
			assert.Error(t, err)
		})
	}
}

func TestLoadScenario_Examples(t *testing.T) {
	for _, path := range []string{"../../scenarios/siege_assault.yaml", "../../scenarios/night_raid.yaml"} {
		scn, err := LoadScenario(path)
		require.NoError(t, err, path)
		_, err = Build(scn)
		require.NoError(t, err, path)
	}
	_, err := LoadScenario("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestProbe_Walls(t *testing.T) {
	m := NewMission(&core.Encounter{})
	require.NoError(t, m.AddWall("town_castle_wall", "POLYGON((0 0, 10 0, 10 2, 0 2, 0 0))", 0, 10))
	require.NoError(t, m.AddWall("gatehouse", "POLYGON((20 0, 25 0, 25 5, 20 5, 20 0))", 0, 10))

	hits, err := m.Probe(core.Position3D{X: 5, Y: 1, Z: 10}, core.Down, 150)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "town_castle_wall", hits[0].Name)

	hits, err = m.Probe(core.Position3D{X: 5, Y: 30, Z: 10}, core.Down, 150)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = m.Probe(core.Position3D{X: 5, Y: 1, Z: 200}, core.Down, 150)
	require.NoError(t, err)
	assert.Empty(t, hits, "out of reach")

	hits, err = m.Probe(core.Position3D{X: 5, Y: 1, Z: 10}, core.Down, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = m.Probe(core.Position3D{X: 5, Y: 1}, core.Position3D{}, 150)
	assert.ErrorIs(t, err, host.ErrProbeFailed)

	hits, err = m.Probe(core.Position3D{X: -5, Y: 1, Z: 5}, core.Position3D{X: 1}, 100)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestNearbyAllies(t *testing.T) {
	m := NewMission(&core.Encounter{})
	a := m.AddTeam(core.SideAttacker, true)
	d := m.AddTeam(core.SideDefender, false)
	fa := a.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{})
	units := fa.AddUnits(&core.Troop{ID: "a"}, 20, host.Origin{})
	d.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
		AddUnits(&core.Troop{ID: "d"}, 20, host.Origin{})

	m.Remove(units[1], core.RemovalKilled)
	assert.Zero(t, units[1].Health())

	near := m.NearbyAllies(core.Position3D{}, 2, a)
	// (0,0) (2,0) (0,1) (1,1): unit at (1,0) is dead.
	assert.Len(t, near, 4)
	for _, u := range near {
		assert.Same(t, a, u.Team())
	}
	assert.Nil(t, m.NearbyAllies(core.Position3D{}, 2, nil))
}

func TestSpawnUnit(t *testing.T) {
	m := NewMission(&core.Encounter{})
	team := m.AddTeam(core.SideAttacker, true)
	f := team.AddFormation(core.FormationCavalry, true, core.Position3D{}, core.Direction2D{})
	troop := &core.Troop{ID: "rider"}

	m.FailSpawns = 1
	_, err := m.SpawnUnit(host.SpawnRequest{Troop: troop, Team: team, Formation: f})
	assert.ErrorIs(t, err, host.ErrSpawnFailed)

	u, err := m.SpawnUnit(host.SpawnRequest{Troop: troop, Team: team, Formation: f, Position: core.Position3D{X: 3}})
	require.NoError(t, err)
	assert.Same(t, f, u.Formation())
	assert.Equal(t, 1, f.UnitCount())
	assert.Equal(t, 3.0, u.Position().X)

	other := NewMission(&core.Encounter{}).AddTeam(core.SideAttacker, false)
	_, err = m.SpawnUnit(host.SpawnRequest{Troop: troop, Team: other})
	assert.ErrorIs(t, err, host.ErrSpawnFailed)
	_, err = m.SpawnUnit(host.SpawnRequest{Team: team})
	assert.ErrorIs(t, err, host.ErrSpawnFailed)

	_, err = m.SpawnMount(nil, nil, core.Position3D{}, core.Direction2D{})
	assert.ErrorIs(t, err, host.ErrSpawnFailed)
	horse, err := m.SpawnMount(&core.Item{ID: "horse"}, nil, core.Position3D{}, core.Direction2D{})
	require.NoError(t, err)
	require.NoError(t, u.Mount(horse))
	assert.Same(t, horse, u.(*Unit).Mounted())
}

type busRecorder struct {
	events []dispatcher.Event
	fail   string
}

func (b *busRecorder) Dispatch(e dispatcher.Event) (any, error) {
	b.events = append(b.events, e)
	if e.Command == b.fail {
		return nil, errors.New("handler failed")
	}
	return nil, nil
}

func (b *busRecorder) commands(cmd string) []dispatcher.Event {
	var out []dispatcher.Event
	for _, e := range b.events {
		if e.Command == cmd {
			out = append(out, e)
		}
	}
	return out
}

func TestRunner_Skirmish(t *testing.T) {
	scn, err := ParseScenario([]byte(skirmish))
	require.NoError(t, err)
	m, err := Build(scn)
	require.NoError(t, err)
	bus := &busRecorder{fail: host.CmdOrderIssued}

	summary, err := NewRunner(m, scn, bus, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Steps)
	assert.Equal(t, 1, summary.Orders)
	assert.Equal(t, 4, summary.Removed)
	assert.InDelta(t, 10, m.Now(), 1e-9)

	require.Equal(t, host.CmdMissionStarted, bus.events[0].Command)
	started := bus.events[0].Payload.(host.MissionStarted)
	assert.Equal(t, core.CombatTypeCombat, started.CombatType)
	assert.Equal(t, host.CmdMissionEnded, bus.events[len(bus.events)-1].Command)
	assert.Len(t, bus.commands(host.CmdMissionTick), 10)

	orders := bus.commands(host.CmdOrderIssued)
	require.Len(t, orders, 1)
	order := orders[0].Payload.(host.OrderIssued)
	assert.Equal(t, core.OrderCharge, order.Order)
	assert.Len(t, order.Formations, 1)

	removed := bus.commands(host.CmdUnitRemoved)
	require.Len(t, removed, 4)
	first := removed[0].Payload.(host.UnitRemoved)
	assert.Equal(t, core.RoleCarrier, first.Unit.Troop().Role, "script runs in time order")
	assert.Equal(t, core.RemovalKilled, first.State)
	assert.Equal(t, core.RemovalRouted, removed[1].Payload.(host.UnitRemoved).State)

	// Marching from t=2 to t=10 at 2 units/s.
	anchor := m.Team(core.SideAttacker).Formation(core.FormationInfantry).Position()
	assert.InDelta(t, 26, anchor.Y, 1e-9)
	assert.InDelta(t, 45, summary.Morale[core.SideAttacker], 1e-9)
}

func TestRunner_Cancelled(t *testing.T) {
	scn, err := ParseScenario([]byte(skirmish))
	require.NoError(t, err)
	m, err := Build(scn)
	require.NoError(t, err)
	bus := &busRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRunner(m, scn, bus, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, host.CmdMissionEnded, bus.events[len(bus.events)-1].Command)
}

func TestRunner_BadScript(t *testing.T) {
	scn, err := ParseScenario([]byte(skirmish + "  - {at: 4, kind: dance, side: attacker}\n"))
	require.NoError(t, err)
	m, err := Build(scn)
	require.NoError(t, err)

	_, err = NewRunner(m, scn, &busRecorder{}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "dance")
}
