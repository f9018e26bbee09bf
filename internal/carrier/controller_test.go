package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/sim"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

func TestNew_RequiresMission(t *testing.T) {
	_, err := New(Dependencies{})
	assert.ErrorIs(t, err, ErrNoMission)
}

func TestNew_RecordsBattleStart(t *testing.T) {
	b := newBattle(t, &core.Encounter{SiegeAssault: true})
	c := b.start()

	assert.False(t, c.Errored())
	require.NotEmpty(t, b.rec.events)
	first := b.rec.events[0]
	assert.Equal(t, core.EventBattleStarted, first.Kind)
	assert.Equal(t, "siege_assault", first.Detail)
	assert.Equal(t, "test-battle", first.BattleID)
}

func TestSpawn_FortyInfantryGetEight(t *testing.T) {
	b := newBattle(t, &core.Encounter{TimeOfDay: 12})
	team := b.m.AddTeam(core.SideAttacker, true)
	f := team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{Y: 1})
	f.AddUnits(infantryTroop(), 40, host.Origin{})

	c := b.start()
	c.Tick()

	carriers := carriersOf(c, core.SideAttacker)
	require.Len(t, carriers, 8)
	assert.Equal(t, 48, f.UnitCount())
	assert.Equal(t, 8, b.rec.count(core.EventCarrierSpawned))

	for _, u := range carriers {
		assert.Same(t, f, u.Formation())
		assert.Equal(t, core.RoleCarrier, u.Troop().Role)
		eq := u.Equipment()
		assert.Same(t, sidearm, eq.Slot(core.Weapon1), "sidearm replaces the secondary weapon")
		assert.Same(t, bannerPole, eq.Slot(core.Weapon0))
		assert.Same(t, kettleHat, eq.Slot(core.Head), "armor comes from the tier 2 basic troop")
		assert.Same(t, carrierCape, eq.Slot(core.Cape))
		assert.Empty(t, u.Lights())
		assert.NotZero(t, u.Wind())
	}
}

func TestSpawn_ProvisionsEachSideOnce(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	att := b.m.AddTeam(core.SideAttacker, true)
	att.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
		AddUnits(infantryTroop(), 10, host.Origin{})
	def := b.m.AddTeam(core.SideDefender, false)
	defInf := def.AddFormation(core.FormationInfantry, false, core.Position3D{Y: 100}, core.Direction2D{})

	c := b.start()
	c.Tick()
	assert.Len(t, carriersOf(c, core.SideAttacker), 2)
	assert.Empty(t, carriersOf(c, core.SideDefender), "defenders have no units yet")

	defInf.AddUnits(infantryTroop(), 15, host.Origin{})
	c.Tick()
	c.Tick()
	assert.Len(t, carriersOf(c, core.SideAttacker), 2)
	assert.Len(t, carriersOf(c, core.SideDefender), 3)
}

func TestSpawn_RaidAttackersExcluded(t *testing.T) {
	b := newBattle(t, &core.Encounter{Raid: true})
	b.cfg.AllowRaidAttackers = false
	for _, side := range []core.Side{core.SideAttacker, core.SideDefender} {
		team := b.m.AddTeam(side, side == core.SideAttacker)
		team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
			AddUnits(infantryTroop(), 20, host.Origin{})
	}

	c := b.start()
	c.Tick()

	assert.Empty(t, carriersOf(c, core.SideAttacker))
	assert.Len(t, carriersOf(c, core.SideDefender), 4)
}

func TestSpawn_MountedFormationTakesTemplateHorse(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	team := b.m.AddTeam(core.SideAttacker, true)
	f := team.AddFormation(core.FormationCavalry, true, core.Position3D{}, core.Direction2D{})
	f.AddUnits(cavalryTroop(), 10, host.Origin{})

	c := b.start()
	c.Tick()

	carriers := carriersOf(c, core.SideAttacker)
	require.Len(t, carriers, 2)
	for _, u := range carriers {
		eq := u.Equipment()
		assert.Same(t, sumpter, eq.Slot(core.Horse))
	}
}

func TestSpawn_FailuresSkipOnlyThatCarrier(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	team := b.m.AddTeam(core.SideAttacker, true)
	team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
		AddUnits(infantryTroop(), 40, host.Origin{})
	b.m.FailSpawns = 3

	c := b.start()
	c.Tick()

	assert.False(t, c.Errored())
	assert.Len(t, carriersOf(c, core.SideAttacker), 5)
}

func TestSpawn_MissingCarrierTroopDisables(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	b.m.SetCarrierTroop(nil)
	team := b.m.AddTeam(core.SideAttacker, true)
	team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
		AddUnits(infantryTroop(), 40, host.Origin{})

	c := b.start()
	c.Tick()

	assert.True(t, c.Errored())
	assert.Equal(t, 1, b.rec.count(core.EventControllerFailed))
	assert.Empty(t, c.Carriers())
}

// panickingMission fails the way a broken engine does.
type panickingMission struct {
	*sim.Mission
}

func (panickingMission) CarrierTroop() (*core.Troop, bool) {
	panic("carrier troop lookup exploded")
}

func TestProvision_HostPanicDisablesController(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	team := b.m.AddTeam(core.SideAttacker, true)
	f := team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{})
	f.AddUnits(infantryTroop(), 40, host.Origin{})

	c, err := New(Dependencies{Mission: panickingMission{b.m}, Config: b.cfg, Recorder: b.rec})
	require.NoError(t, err)

	assert.NotPanics(t, c.Tick)
	assert.True(t, c.Errored())
	assert.Equal(t, 1, b.rec.count(core.EventControllerFailed))

	// Disabled controllers ignore further ticks and removals.
	b.m.Advance(30)
	before := f.SimUnits()[0].Morale()
	c.Tick()
	c.OnUnitRemoved(f.SimUnits()[0], core.RemovalKilled)
	assert.Equal(t, before, f.SimUnits()[0].Morale())
	assert.Equal(t, 1, b.rec.count(core.EventControllerFailed))
}

type noEncounterMission struct {
	*sim.Mission
}

func (noEncounterMission) Encounter() *core.Encounter { return nil }

func TestNew_MissingEncounterDisables(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	c, err := New(Dependencies{Mission: noEncounterMission{b.m}, Config: b.cfg, Recorder: b.rec})
	require.NoError(t, err)
	assert.True(t, c.Errored())
}

func TestHideout_OnlyAttackerInfantryGetTwo(t *testing.T) {
	b := newBattle(t, &core.Encounter{Hideout: true})
	b.cfg.AllowInHideout = true

	att := b.m.AddTeam(core.SideAttacker, true)
	attInf := att.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{})
	attInf.AddUnits(infantryTroop(), 40, host.Origin{})
	att.AddFormation(core.FormationCavalry, true, core.Position3D{X: 50}, core.Direction2D{}).
		AddUnits(cavalryTroop(), 20, host.Origin{})
	def := b.m.AddTeam(core.SideDefender, false)
	def.AddFormation(core.FormationInfantry, false, core.Position3D{Y: 100}, core.Direction2D{}).
		AddUnits(infantryTroop(), 40, host.Origin{})

	c := b.start()
	c.Tick()

	carriers := carriersOf(c, core.SideAttacker)
	require.Len(t, carriers, 2)
	for _, u := range carriers {
		assert.Same(t, attInf, u.Formation())
	}
	assert.Empty(t, carriersOf(c, core.SideDefender))
}

func TestHideout_DisallowedFieldsNoCarriers(t *testing.T) {
	b := newBattle(t, &core.Encounter{Hideout: true})
	team := b.m.AddTeam(core.SideAttacker, true)
	team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
		AddUnits(infantryTroop(), 40, host.Origin{})

	c := b.start()
	c.Tick()

	assert.Empty(t, c.Carriers())
}

func TestDesignate_ReusesCarrierUnits(t *testing.T) {
	b := newBattle(t, &core.Encounter{})
	b.cfg.UseRealTroopSystem = true

	team := b.m.AddTeam(core.SideAttacker, true)
	reserve := team.AddFormation(core.FormationRanged, false, core.Position3D{X: -50}, core.Direction2D{})
	reserve.AddUnits(b.mustCarrierTroop(), 3, host.Origin{})
	inf := team.AddFormation(core.FormationInfantry, false, core.Position3D{X: 20, Y: 20}, core.Direction2D{})
	inf.AddUnits(infantryTroop(), 10, host.Origin{})
	cav := team.AddFormation(core.FormationCavalry, true, core.Position3D{X: 80}, core.Direction2D{})
	cav.AddUnits(cavalryTroop(), 5, host.Origin{})

	c := b.start()
	c.Tick()

	carriers := carriersOf(c, core.SideAttacker)
	require.Len(t, carriers, 3)
	assert.Equal(t, 3, b.rec.count(core.EventCarrierAssigned))
	assert.Zero(t, b.rec.count(core.EventCarrierSpawned))

	// The ranged reserve (3 units) wants none, infantry wants two and
	// cavalry one.
	var inInf, inCav int
	for _, u := range carriers {
		switch u.Formation() {
		case inf:
			inInf++
			assert.Nil(t, u.Mounted())
		case cav:
			inCav++
			require.NotNil(t, u.Mounted())
			assert.Same(t, sumpter, u.Mounted().Equipment().Slot(core.Horse))
		}
		assert.Equal(t, 1, u.Teleports())
		eq := u.Equipment()
		assert.Same(t, kettleHat, eq.Slot(core.Head))
		assert.Same(t, sidearm, eq.Slot(core.Weapon1))
	}
	assert.Equal(t, 2, inInf)
	assert.Equal(t, 1, inCav)
}

func (b *battle) mustCarrierTroop() *core.Troop {
	t, ok := b.m.CarrierTroop()
	require.True(b.t, ok)
	return t
}

func TestTorch_ReleasedExactlyOnce(t *testing.T) {
	b := newBattle(t, &core.Encounter{TimeOfDay: 22})
	b.cfg.UseTorchAtNight = true

	team := b.m.AddTeam(core.SideAttacker, true)
	team.AddFormation(core.FormationCavalry, true, core.Position3D{}, core.Direction2D{}).
		AddUnits(cavalryTroop(), 10, host.Origin{})

	c := b.start()
	c.Tick()

	carriers := carriersOf(c, core.SideAttacker)
	require.Len(t, carriers, 2)
	for _, u := range carriers {
		require.Len(t, u.Lights(), 1)
		spec := u.Lights()[0].Spec
		assert.Equal(t, TorchPrefab, spec.Prefab)
		assert.InDelta(t, 2.5, spec.Offset.Z, 1e-9, "mounted torches sit higher")
		assert.Same(t, spear, u.Equipment().Slot(core.Weapon1), "torch bearers keep their weapons")
	}

	dead := carriers[0]
	b.m.Remove(dead, core.RemovalKilled)
	c.OnUnitRemoved(dead, core.RemovalKilled)
	assert.Equal(t, 1, dead.Lights()[0].Released())

	c.End()
	c.End()
	for _, u := range carriers {
		assert.Equal(t, 1, u.Lights()[0].Released(), "unit %d", u.ID())
	}
	assert.Empty(t, c.Carriers())
	assert.Equal(t, 1, b.rec.count(core.EventBattleEnded))
}

func TestTorch_FollowsSceneClock(t *testing.T) {
	cases := []struct {
		hour  float64
		torch bool
	}{
		{12, false},
		{16.5, false},
		{17, true},
		{23, true},
		{4, true},
		{4.5, false},
	}
	for _, tc := range cases {
		b := newBattle(t, &core.Encounter{TimeOfDay: tc.hour})
		b.cfg.UseTorchAtNight = true
		team := b.m.AddTeam(core.SideAttacker, true)
		team.AddFormation(core.FormationInfantry, false, core.Position3D{}, core.Direction2D{}).
			AddUnits(infantryTroop(), 5, host.Origin{})

		c := b.start()
		c.Tick()

		carriers := carriersOf(c, core.SideAttacker)
		require.Len(t, carriers, 1)
		if tc.torch {
			assert.Len(t, carriers[0].Lights(), 1, "hour %.1f", tc.hour)
			assert.InDelta(t, 1.5, carriers[0].Lights()[0].Spec.Offset.Z, 1e-9)
		} else {
			assert.Empty(t, carriers[0].Lights(), "hour %.1f", tc.hour)
		}
	}
}
