package carrier

import (
	"fmt"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// hideoutCarriers is the fixed carrier count of attacker infantry in
// hideout battles. Every other formation gets none there.
const hideoutCarriers = 2

// spawnOffset is where a spawned carrier appears relative to its template.
var spawnOffset = core.Position3D{X: 1}

// provision runs once per side, the first tick that side has an active unit.
func (c *Controller) provision(team host.Team) error {
	side := team.Side()
	party := c.reservation.Take(side)

	var (
		n   int
		err error
	)
	if c.cfg.UseRealTroopSystem {
		n, err = c.designate(team, party)
	} else {
		n, err = c.spawn(team, party)
	}
	if err != nil {
		return err
	}

	if n > 0 {
		c.metrics.addSpawned(side, n)
	}
	c.log.Info("carriers provisioned", "side", side.String(), "count", n, "designated", c.cfg.UseRealTroopSystem)
	return nil
}

// spawn creates new carrier units in every formation of team.
func (c *Controller) spawn(team host.Team, party *core.Party) (int, error) {
	if party == nil {
		c.log.Debug("no eligible party", "side", team.Side().String())
		return 0, nil
	}

	troop, ok := c.mission.CarrierTroop()
	if !ok || troop == nil {
		return 0, ErrNoCarrierTroop
	}

	enc := c.mission.Encounter()
	loadout := DeriveLoadout(troop.Equipment, party, c.cfg)
	spawned := 0

	for _, f := range team.Formations() {
		if f == nil {
			continue
		}
		units := f.Units()
		unitCount := f.UnitCount()
		if len(units) == 0 || unitCount == 0 {
			continue
		}

		count := DesiredCarriers(unitCount, f.Class(), c.cfg)
		if enc.Hideout {
			if f.Class() == core.FormationInfantry && team.Side() == core.SideAttacker {
				count = hideoutCarriers
			} else {
				count = 0
			}
		}
		spread := unitCount / max(count, 1)

		for i := 0; i < count; i++ {
			tmpl := units[c.rng.Intn(len(units))]
			u, err := c.spawnOne(team, f, party, troop, loadout, tmpl, unitCount+1, i*spread)
			if err != nil {
				c.log.Debug("carrier spawn skipped", "formation", f.Class().String(), "error", err)
				continue
			}
			spawned++
			c.emit(core.CarrierEvent{
				Kind:      core.EventCarrierSpawned,
				Side:      team.Side(),
				UnitID:    uint32(u.ID()),
				Formation: f.Class(),
				Position:  u.Position(),
			})
		}
	}
	return spawned, nil
}

func (c *Controller) spawnOne(team host.Team, f host.Formation, party *core.Party, troop *core.Troop,
	loadout core.Equipment, tmpl host.Unit, troopCount, troopIndex int) (host.Unit, error) {
	eq := loadout.Clone()
	if f.Mounted() {
		if t := tmpl.Troop(); t != nil {
			eq.SetSlot(core.Horse, t.Equipment.Slot(core.Horse))
		}
	}

	origin := tmpl.Origin()
	u, err := c.mission.SpawnUnit(host.SpawnRequest{
		Troop: troop,
		Origin: host.Origin{
			Party:  party,
			Color1: origin.Color1,
			Color2: origin.Color2,
			Banner: origin.Banner,
		},
		Equipment:           eq,
		Team:                team,
		Formation:           f,
		FormationTroopCount: troopCount,
		FormationTroopIndex: troopIndex,
		Position:            tmpl.Position().Add(spawnOffset),
		Direction:           f.Direction(),
	})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, host.ErrSpawnFailed
	}

	light := c.arm(u, f.Mounted())
	u.SetFormation(f)
	c.track(u, f.Class(), light)
	return u, nil
}

// designate re-equips carrier-class units already on the field and spreads
// them over the formations of team.
func (c *Controller) designate(team host.Team, party *core.Party) (int, error) {
	var pending []host.Unit
	for _, u := range team.ActiveUnits() {
		t := u.Troop()
		if t == nil || !t.Human || t.Role != core.RoleCarrier || c.IsCarrier(u.ID()) {
			continue
		}
		if err := u.Reequip(DeriveLoadout(t.Equipment, party, c.cfg)); err != nil {
			c.log.Debug("carrier re-equip skipped", "unit", u.ID(), "error", err)
			continue
		}
		light := c.arm(u, false)
		c.track(u, core.FormationUnknown, light)
		pending = append(pending, u)
	}
	designated := len(pending)

	for _, f := range team.Formations() {
		if len(pending) == 0 {
			break
		}
		if f == nil {
			continue
		}
		count := DesiredCarriers(f.UnitCount(), f.Class(), c.cfg)
		for i := 0; i < count && len(pending) > 0; i++ {
			u := pending[0]
			pending = pending[1:]

			u.SetFormation(f)
			u.Teleport(f.Position())
			c.carriers[u.ID()].formation = f.Class()
			if f.Mounted() {
				if err := c.mountFrom(u, f); err != nil {
					c.log.Debug("carrier mount skipped", "unit", u.ID(), "error", err)
				}
			}
			c.emit(core.CarrierEvent{
				Kind:      core.EventCarrierAssigned,
				Side:      team.Side(),
				UnitID:    uint32(u.ID()),
				Formation: f.Class(),
				Position:  f.Position(),
			})
		}
	}
	return designated, nil
}

// mountFrom puts u on a horse matching a random rider of f.
func (c *Controller) mountFrom(u host.Unit, f host.Formation) error {
	var riders []*core.Troop
	for _, v := range f.Units() {
		if t := v.Troop(); t != nil && t.Equipment.Slot(core.Horse) != nil {
			riders = append(riders, t)
		}
	}
	if len(riders) == 0 {
		return fmt.Errorf("formation %s has no riders", f.Class())
	}
	t := riders[c.rng.Intn(len(riders))]

	mount, err := c.mission.SpawnMount(t.Equipment.Slot(core.Horse), t.Equipment.Slot(core.HorseHarness), u.Position(), f.Direction())
	if err != nil {
		return fmt.Errorf("spawning mount: %w", err)
	}
	return u.Mount(mount)
}

// arm gives u a torch at night, otherwise swaps its secondary weapon for the
// blunt sidearm. The returned light is owned by the carrier record.
func (c *Controller) arm(u host.Unit, mounted bool) host.Light {
	var light host.Light
	if torchActive(c.mission.Encounter(), c.cfg) {
		l, err := u.AttachLight(torchLight(mounted))
		if err != nil {
			c.log.Debug("torch skipped", "unit", u.ID(), "error", err)
		} else {
			light = l
		}
	} else {
		u.RemoveWeapon(core.Weapon1)
		if c.cfg.GiveSwordToHand {
			if item, ok := c.mission.Item(SidearmItemID); ok {
				if err := u.EquipWeapon(core.Weapon1, item); err != nil {
					c.log.Debug("sidearm skipped", "unit", u.ID(), "error", err)
				}
			}
		}
	}
	u.SetBannerWind(c.wind)
	return light
}
