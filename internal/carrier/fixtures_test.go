package carrier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/sim"
	"github.com/bannercarrier/extension/pkg/core"
)

var (
	bannerPole  = &core.Item{ID: "banner_pole"}
	spear       = &core.Item{ID: "spear"}
	carrierCape = &core.Item{ID: "carrier_cape"}
	sidearm     = &core.Item{ID: SidearmItemID, Name: "Cheap Sword"}
	padCap      = &core.Item{ID: "padded_cap"}
	gambeson    = &core.Item{ID: "gambeson"}
	kettleHat   = &core.Item{ID: "kettle_hat"}
	mailShirt   = &core.Item{ID: "mail_shirt"}
	sumpter     = &core.Item{ID: "sumpter_horse"}
	saddle      = &core.Item{ID: "saddle"}
)

type recorder struct {
	events []core.CarrierEvent
}

func (r *recorder) Record(e core.CarrierEvent) { r.events = append(r.events, e) }

func (r *recorder) count(kind core.CarrierEventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func carrierTroop() *core.Troop {
	t := &core.Troop{ID: "bannerman", Name: "Bannerman", Role: core.RoleCarrier, Tier: 1, Human: true}
	t.Equipment.SetSlot(core.Weapon0, bannerPole)
	t.Equipment.SetSlot(core.Weapon1, spear)
	t.Equipment.SetSlot(core.Cape, carrierCape)
	return t
}

// basicTroop is a two-step upgrade chain: recruit (tier 1) to footman
// (tier 2).
func basicTroop() *core.Troop {
	footman := &core.Troop{ID: "footman", Tier: 2, Human: true, Formation: core.FormationInfantry}
	footman.Equipment.SetSlot(core.Head, kettleHat)
	footman.Equipment.SetSlot(core.Body, mailShirt)

	recruit := &core.Troop{ID: "recruit", Tier: 1, Human: true, Formation: core.FormationInfantry}
	recruit.Equipment.SetSlot(core.Head, padCap)
	recruit.Equipment.SetSlot(core.Body, gambeson)
	recruit.UpgradeTargets = []*core.Troop{footman}
	return recruit
}

func infantryTroop() *core.Troop {
	t := &core.Troop{ID: "spearman", Role: core.RoleRegular, Tier: 2, Human: true, Formation: core.FormationInfantry}
	t.Equipment.SetSlot(core.Weapon0, spear)
	return t
}

func cavalryTroop() *core.Troop {
	t := &core.Troop{ID: "rider", Role: core.RoleRegular, Tier: 3, Human: true, Formation: core.FormationCavalry}
	t.Equipment.SetSlot(core.Weapon0, spear)
	t.Equipment.SetSlot(core.Horse, sumpter)
	t.Equipment.SetSlot(core.HorseHarness, saddle)
	return t
}

func nobleParty(id string, side core.Side) *core.Party {
	return &core.Party{
		ID:      id,
		Side:    side,
		Faction: &core.Faction{ID: "vlandia", BasicTroop: basicTroop()},
		Leader:  &core.Leader{Name: "Derthert", HasClan: true, ClanTier: 2},
		Mobile:  true,
	}
}

type battle struct {
	t   *testing.T
	enc *core.Encounter
	m   *sim.Mission
	rec *recorder
	cfg config.CarrierConfig
}

// newBattle sets up a mission with one eligible party per side and no teams.
func newBattle(t *testing.T, enc *core.Encounter) *battle {
	t.Helper()
	enc.Parties = append(enc.Parties,
		nobleParty("attackers", core.SideAttacker),
		nobleParty("defenders", core.SideDefender),
	)
	m := sim.NewMission(enc)
	m.SetCarrierTroop(carrierTroop())
	m.AddItem(sidearm)

	cfg := config.DefaultCarrierConfig()
	cfg.AllowSiegeDefenders = true
	cfg.AllowRaidDefenders = true
	return &battle{t: t, enc: enc, m: m, rec: &recorder{}, cfg: cfg}
}

func (b *battle) start() *Controller {
	b.t.Helper()
	c, err := New(Dependencies{
		Mission:  b.m,
		Config:   b.cfg,
		Recorder: b.rec,
		Rand:     rand.New(rand.NewSource(7)),
		BattleID: "test-battle",
	})
	require.NoError(b.t, err)
	return c
}

// carriersOf returns the tracked carriers fighting on side.
func carriersOf(c *Controller, side core.Side) []*sim.Unit {
	var out []*sim.Unit
	for _, u := range c.Carriers() {
		if u.Team().Side() == side {
			out = append(out, u.(*sim.Unit))
		}
	}
	return out
}
