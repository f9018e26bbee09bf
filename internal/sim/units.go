package sim

import (
	"errors"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// DefaultMorale is the morale a unit starts the battle with.
const DefaultMorale = 30.0

var errNoItem = errors.New("no item")

// Unit is a simulated combat unit.
type Unit struct {
	id        host.UnitID
	troop     *core.Troop
	origin    host.Origin
	team      *Team
	formation *Formation

	pos    core.Position3D
	active bool
	health float64
	morale float64

	equipment core.Equipment
	voices    []core.VoiceType
	lights    []*Light
	wind      core.Position3D
	mount     *Unit
	teleports int
}

func (u *Unit) ID() host.UnitID { return u.id }
func (u *Unit) Troop() *core.Troop { return u.troop }
func (u *Unit) Origin() host.Origin { return u.origin }
func (u *Unit) Position() core.Position3D { return u.pos }
func (u *Unit) IsActive() bool { return u.active }
func (u *Unit) Health() float64 { return u.health }
func (u *Unit) Morale() float64 { return u.morale }
func (u *Unit) SetMorale(m float64) { u.morale = m }

func (u *Unit) Team() host.Team {
	if u.team == nil {
		return nil
	}
	return u.team
}

func (u *Unit) Formation() host.Formation {
	if u.formation == nil {
		return nil
	}
	return u.formation
}

func (u *Unit) MakeVoice(v core.VoiceType) {
	u.voices = append(u.voices, v)
}

// Voices returns every voice the unit made, oldest first.
func (u *Unit) Voices() []core.VoiceType { return u.voices }

func (u *Unit) Equipment() core.Equipment { return u.equipment }

func (u *Unit) Reequip(eq core.Equipment) error {
	u.equipment = eq
	return nil
}

func (u *Unit) RemoveWeapon(slot core.EquipmentIndex) {
	u.equipment.SetSlot(slot, nil)
}

func (u *Unit) EquipWeapon(slot core.EquipmentIndex, item *core.Item) error {
	if item == nil {
		return errNoItem
	}
	u.equipment.SetSlot(slot, item)
	return nil
}

func (u *Unit) AttachLight(spec host.LightSpec) (host.Light, error) {
	l := &Light{Spec: spec}
	u.lights = append(u.lights, l)
	return l, nil
}

// Lights returns the lights attached to the unit.
func (u *Unit) Lights() []*Light { return u.lights }

func (u *Unit) SetBannerWind(wind core.Position3D) { u.wind = wind }

// Wind returns the banner wind last applied.
func (u *Unit) Wind() core.Position3D { return u.wind }

func (u *Unit) SetFormation(f host.Formation) {
	nf, ok := f.(*Formation)
	if !ok || nf == u.formation {
		return
	}
	if u.formation != nil {
		u.formation.remove(u)
	}
	u.formation = nf
	nf.units = append(nf.units, u)
}

func (u *Unit) Teleport(pos core.Position3D) {
	u.pos = pos
	u.teleports++
}

// Teleports counts Teleport calls.
func (u *Unit) Teleports() int { return u.teleports }

func (u *Unit) Mount(mount host.Unit) error {
	m, ok := mount.(*Unit)
	if !ok || m == nil {
		return errors.New("not a simulated mount")
	}
	u.mount = m
	return nil
}

// Mounted returns the horse the unit rides, nil when on foot.
func (u *Unit) Mounted() *Unit { return u.mount }

// MoveBy shifts the unit by d.
func (u *Unit) MoveBy(d core.Position3D) { u.pos = u.pos.Add(d) }

// Light is a simulated light attachment.
type Light struct {
	Spec     host.LightSpec
	released int
}

func (l *Light) Release() { l.released++ }

// Released counts Release calls.
func (l *Light) Released() int { return l.released }

// Formation is a simulated formation.
type Formation struct {
	class   core.FormationClass
	team    *Team
	units   []*Unit
	mounted bool
	pos     core.Position3D
	dir     core.Direction2D
}

func (f *Formation) Class() core.FormationClass { return f.class }
func (f *Formation) Team() host.Team { return f.team }
func (f *Formation) Mounted() bool { return f.mounted }
func (f *Formation) Position() core.Position3D { return f.pos }
func (f *Formation) Direction() core.Direction2D { return f.dir }

// Units lists the active units of the formation.
func (f *Formation) Units() []host.Unit {
	out := make([]host.Unit, 0, len(f.units))
	for _, u := range f.units {
		if u.active {
			out = append(out, u)
		}
	}
	return out
}

func (f *Formation) UnitCount() int {
	n := 0
	for _, u := range f.units {
		if u.active {
			n++
		}
	}
	return n
}

// SimUnits lists every unit ever assigned to the formation, active or not.
func (f *Formation) SimUnits() []*Unit { return f.units }

// MoveBy shifts the anchor and every active unit by d.
func (f *Formation) MoveBy(d core.Position3D) {
	f.pos = f.pos.Add(d)
	for _, u := range f.units {
		if u.active {
			u.MoveBy(d)
		}
	}
}

func (f *Formation) remove(u *Unit) {
	for i, v := range f.units {
		if v == u {
			f.units = append(f.units[:i], f.units[i+1:]...)
			return
		}
	}
}

// AddUnits places n units of troop in a line behind the formation anchor.
func (f *Formation) AddUnits(troop *core.Troop, n int, origin host.Origin) []*Unit {
	out := make([]*Unit, 0, n)
	base := len(f.units)
	for i := 0; i < n; i++ {
		u := f.team.mission.newUnit(troop, origin, f.team, f)
		u.pos = f.pos.Add(core.Position3D{X: float64((base + i) % 10), Y: float64((base + i) / 10)})
		f.units = append(f.units, u)
		out = append(out, u)
	}
	return out
}

// Team is a simulated team.
type Team struct {
	mission    *Mission
	side       core.Side
	player     bool
	formations []*Formation
}

func (t *Team) Side() core.Side { return t.side }
func (t *Team) IsPlayerTeam() bool { return t.player }

func (t *Team) Formations() []host.Formation {
	out := make([]host.Formation, 0, len(t.formations))
	for _, f := range t.formations {
		out = append(out, f)
	}
	return out
}

// ActiveUnits lists the team's active units in spawn order.
func (t *Team) ActiveUnits() []host.Unit {
	var out []host.Unit
	for _, u := range t.mission.units {
		if u.team == t && u.active {
			out = append(out, u)
		}
	}
	return out
}

// AddFormation creates an empty formation anchored at pos.
func (t *Team) AddFormation(class core.FormationClass, mounted bool, pos core.Position3D, dir core.Direction2D) *Formation {
	f := &Formation{class: class, team: t, mounted: mounted, pos: pos, dir: dir}
	t.formations = append(t.formations, f)
	return f
}

// Formation returns the first formation of class, nil when absent.
func (t *Team) Formation(class core.FormationClass) *Formation {
	for _, f := range t.formations {
		if f.class == class {
			return f
		}
	}
	return nil
}
