package sim

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Scenario is a scripted battle loaded from YAML.
type Scenario struct {
	Name     string  `yaml:"name"`
	Seed     int64   `yaml:"seed"`
	Step     float64 `yaml:"step"`
	Duration float64 `yaml:"duration"`
	// Combat is "combat", "noncombat" or "arena".
	Combat        string          `yaml:"combat"`
	Encounter     EncounterSpec   `yaml:"encounter"`
	OrderShouting *bool           `yaml:"orderShouting"`
	CarrierTroop  string          `yaml:"carrierTroop"`
	Items         []core.Item     `yaml:"items"`
	Troops        []TroopSpec     `yaml:"troops"`
	Factions      []FactionSpec   `yaml:"factions"`
	Parties       []PartySpec     `yaml:"parties"`
	Teams         []TeamSpec      `yaml:"teams"`
	Walls         []WallSpec      `yaml:"walls"`
	Script        []ScriptedEvent `yaml:"script"`
}

type EncounterSpec struct {
	Raid         bool    `yaml:"raid"`
	SiegeAssault bool    `yaml:"siegeAssault"`
	SiegeOutside bool    `yaml:"siegeOutside"`
	Hideout      bool    `yaml:"hideout"`
	Indoor       bool    `yaml:"indoor"`
	TimeOfDay    float64 `yaml:"timeOfDay"`
}

type TroopSpec struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	Tier      int    `yaml:"tier"`
	Human     *bool  `yaml:"human"`
	Formation string `yaml:"formation"`
	// Equipment maps slot names to item ids.
	Equipment map[string]string `yaml:"equipment"`
	Upgrades  []string          `yaml:"upgrades"`
}

type FactionSpec struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Bandit     bool   `yaml:"bandit"`
	BasicTroop string `yaml:"basicTroop"`
}

type LeaderSpec struct {
	Name     string `yaml:"name"`
	HasClan  bool   `yaml:"hasClan"`
	ClanTier int    `yaml:"clanTier"`
}

type RosterSpec struct {
	Troop string `yaml:"troop"`
	Count int    `yaml:"count"`
}

type PartySpec struct {
	ID       string       `yaml:"id"`
	Name     string       `yaml:"name"`
	Side     string       `yaml:"side"`
	Faction  string       `yaml:"faction"`
	Leader   *LeaderSpec  `yaml:"leader"`
	Mobile   bool         `yaml:"mobile"`
	Caravan  bool         `yaml:"caravan"`
	Villager bool         `yaml:"villager"`
	Garrison bool         `yaml:"garrison"`
	Bandit   bool         `yaml:"bandit"`
	Roster   []RosterSpec `yaml:"roster"`
}

type TeamSpec struct {
	Side       string          `yaml:"side"`
	Player     bool            `yaml:"player"`
	Party      string          `yaml:"party"`
	Formations []FormationSpec `yaml:"formations"`
}

type FormationSpec struct {
	Class     string           `yaml:"class"`
	Troop     string           `yaml:"troop"`
	Count     int              `yaml:"count"`
	Mounted   bool             `yaml:"mounted"`
	Position  core.Position3D  `yaml:"position"`
	Direction core.Direction2D `yaml:"direction"`
	Morale    *float64         `yaml:"morale"`
	// Carriers places that many carrier-troop units in the formation up
	// front.
	Carriers int `yaml:"carriers"`
}

type WallSpec struct {
	Name      string  `yaml:"name"`
	Footprint string  `yaml:"footprint"`
	Base      float64 `yaml:"base"`
	Top       float64 `yaml:"top"`
}

// ScriptedEvent is one timed action of the scenario script.
type ScriptedEvent struct {
	At float64 `yaml:"at"`
	// Kind is "order", "remove" or "march".
	Kind      string `yaml:"kind"`
	Side      string `yaml:"side"`
	Formation string `yaml:"formation"`

	Order string `yaml:"order"`

	// Target is "carrier" or "unit"; Count defaults to one.
	Target string `yaml:"target"`
	Count  int    `yaml:"count"`
	State  string `yaml:"state"`

	Velocity core.Position3D `yaml:"velocity"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario and fills defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var scn Scenario
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if scn.Step <= 0 {
		scn.Step = 0.5
	}
	if scn.Duration <= 0 {
		scn.Duration = 60
	}
	if scn.Combat == "" {
		scn.Combat = "combat"
	}
	return &scn, nil
}

// CombatType returns the parsed mission type.
func (s *Scenario) CombatType() (core.CombatType, error) {
	switch strings.ToLower(s.Combat) {
	case "", "combat":
		return core.CombatTypeCombat, nil
	case "noncombat":
		return core.CombatTypeNonCombat, nil
	case "arena":
		return core.CombatTypeArena, nil
	}
	return core.CombatTypeNonCombat, fmt.Errorf("unknown combat type %q", s.Combat)
}

// Build turns the scenario into a ready mission.
func Build(scn *Scenario) (*Mission, error) {
	if scn == nil {
		return nil, errors.New("nil scenario")
	}
	b := builder{
		scn:      scn,
		items:    make(map[string]*core.Item),
		troops:   make(map[string]*core.Troop),
		factions: make(map[string]*core.Faction),
		parties:  make(map[string]*core.Party),
	}
	return b.build()
}

type builder struct {
	scn      *Scenario
	items    map[string]*core.Item
	troops   map[string]*core.Troop
	factions map[string]*core.Faction
	parties  map[string]*core.Party
}

func (b *builder) build() (*Mission, error) {
	enc := &core.Encounter{
		Raid:         b.scn.Encounter.Raid,
		SiegeAssault: b.scn.Encounter.SiegeAssault,
		SiegeOutside: b.scn.Encounter.SiegeOutside,
		Hideout:      b.scn.Encounter.Hideout,
		Indoor:       b.scn.Encounter.Indoor,
		TimeOfDay:    b.scn.Encounter.TimeOfDay,
	}
	m := NewMission(enc)
	if b.scn.OrderShouting != nil {
		m.SetOrderShouting(*b.scn.OrderShouting)
	}

	for i := range b.scn.Items {
		item := b.scn.Items[i]
		b.items[item.ID] = &item
		m.AddItem(&item)
	}
	if err := b.buildTroops(); err != nil {
		return nil, err
	}
	if b.scn.CarrierTroop != "" {
		t, ok := b.troops[b.scn.CarrierTroop]
		if !ok {
			return nil, fmt.Errorf("carrier troop %q not defined", b.scn.CarrierTroop)
		}
		m.SetCarrierTroop(t)
	}
	for _, fs := range b.scn.Factions {
		f := &core.Faction{ID: fs.ID, Name: fs.Name, IsBandit: fs.Bandit}
		if fs.BasicTroop != "" {
			t, ok := b.troops[fs.BasicTroop]
			if !ok {
				return nil, fmt.Errorf("faction %s: unknown basic troop %q", fs.ID, fs.BasicTroop)
			}
			f.BasicTroop = t
		}
		b.factions[fs.ID] = f
	}
	if err := b.buildParties(enc); err != nil {
		return nil, err
	}
	if err := b.buildTeams(m); err != nil {
		return nil, err
	}
	for _, w := range b.scn.Walls {
		if err := m.AddWall(w.Name, w.Footprint, w.Base, w.Top); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (b *builder) buildTroops() error {
	for _, ts := range b.scn.Troops {
		role, err := core.ParseRole(ts.Role)
		if err != nil {
			return fmt.Errorf("troop %s: %w", ts.ID, err)
		}
		t := &core.Troop{
			ID:        ts.ID,
			Name:      ts.Name,
			Role:      role,
			Tier:      ts.Tier,
			Human:     ts.Human == nil || *ts.Human,
			Formation: core.ParseFormationClass(ts.Formation),
		}
		for slot, itemID := range ts.Equipment {
			idx, err := core.ParseEquipmentIndex(slot)
			if err != nil {
				return fmt.Errorf("troop %s: %w", ts.ID, err)
			}
			item, ok := b.items[itemID]
			if !ok {
				return fmt.Errorf("troop %s: unknown item %q", ts.ID, itemID)
			}
			t.Equipment.SetSlot(idx, item)
		}
		b.troops[ts.ID] = t
	}
	// Upgrades may point forward, so link them once every troop exists.
	for _, ts := range b.scn.Troops {
		for _, id := range ts.Upgrades {
			target, ok := b.troops[id]
			if !ok {
				return fmt.Errorf("troop %s: unknown upgrade %q", ts.ID, id)
			}
			b.troops[ts.ID].UpgradeTargets = append(b.troops[ts.ID].UpgradeTargets, target)
		}
	}
	for _, ts := range b.scn.Troops {
		if err := checkUpgradeCycle(b.troops[ts.ID]); err != nil {
			return fmt.Errorf("troop %s: %w", ts.ID, err)
		}
	}
	return nil
}

// checkUpgradeCycle rejects upgrade trees that lead back to a troop already
// on the path.
func checkUpgradeCycle(root *core.Troop) error {
	onPath := map[*core.Troop]bool{}
	var walk func(t *core.Troop) error
	walk = func(t *core.Troop) error {
		if onPath[t] {
			return fmt.Errorf("upgrade cycle through %q", t.ID)
		}
		onPath[t] = true
		for _, next := range t.UpgradeTargets {
			if err := walk(next); err != nil {
				return err
			}
		}
		delete(onPath, t)
		return nil
	}
	return walk(root)
}

func (b *builder) buildParties(enc *core.Encounter) error {
	for _, ps := range b.scn.Parties {
		side, err := core.ParseSide(ps.Side)
		if err != nil {
			return fmt.Errorf("party %s: %w", ps.ID, err)
		}
		p := &core.Party{
			ID:       ps.ID,
			Name:     ps.Name,
			Side:     side,
			Mobile:   ps.Mobile,
			Caravan:  ps.Caravan,
			Villager: ps.Villager,
			Garrison: ps.Garrison,
			Bandit:   ps.Bandit,
		}
		if ps.Faction != "" {
			f, ok := b.factions[ps.Faction]
			if !ok {
				return fmt.Errorf("party %s: unknown faction %q", ps.ID, ps.Faction)
			}
			p.Faction = f
		}
		if ps.Leader != nil {
			p.Leader = &core.Leader{Name: ps.Leader.Name, HasClan: ps.Leader.HasClan, ClanTier: ps.Leader.ClanTier}
		}
		for _, r := range ps.Roster {
			t, ok := b.troops[r.Troop]
			if !ok {
				return fmt.Errorf("party %s: unknown troop %q", ps.ID, r.Troop)
			}
			p.Roster = append(p.Roster, core.RosterEntry{Troop: t, Count: r.Count})
		}
		b.parties[ps.ID] = p
		enc.Parties = append(enc.Parties, p)
	}
	return nil
}

func (b *builder) buildTeams(m *Mission) error {
	for _, ts := range b.scn.Teams {
		side, err := core.ParseSide(ts.Side)
		if err != nil {
			return fmt.Errorf("team: %w", err)
		}
		if side == core.SideNone {
			return errors.New("team: side is required")
		}
		team := m.AddTeam(side, ts.Player)

		var origin host.Origin
		if ts.Party != "" {
			p, ok := b.parties[ts.Party]
			if !ok {
				return fmt.Errorf("team %s: unknown party %q", side, ts.Party)
			}
			origin = partyOrigin(p)
		}

		for _, fs := range ts.Formations {
			class := core.ParseFormationClass(fs.Class)
			troop, ok := b.troops[fs.Troop]
			if !ok {
				return fmt.Errorf("team %s formation %s: unknown troop %q", side, fs.Class, fs.Troop)
			}
			f := team.AddFormation(class, fs.Mounted, fs.Position, fs.Direction)
			units := f.AddUnits(troop, fs.Count, origin)
			if fs.Carriers > 0 {
				if m.carrierTroop == nil {
					return fmt.Errorf("team %s formation %s: carriers placed without a carrier troop", side, fs.Class)
				}
				units = append(units, f.AddUnits(m.carrierTroop, fs.Carriers, origin)...)
			}
			if fs.Morale != nil {
				for _, u := range units {
					u.SetMorale(*fs.Morale)
				}
			}
		}
	}
	return nil
}

// partyOrigin derives stable banner colors from the party id.
func partyOrigin(p *core.Party) host.Origin {
	h := fnv.New32a()
	_, _ = h.Write([]byte(p.ID))
	sum := h.Sum32()
	return host.Origin{
		Party:  p,
		Color1: 0xff000000 | sum&0x00ffffff,
		Color2: 0xff000000 | ^sum&0x00ffffff,
		Banner: p.ID,
	}
}
