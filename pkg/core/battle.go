// pkg/core/battle.go
package core

// CombatType distinguishes real fights from other missions (tournaments,
// conversations, arenas).
type CombatType int

const (
	CombatTypeCombat CombatType = iota
	CombatTypeNonCombat
	CombatTypeArena
)

// Encounter is the battle the controller runs in. It is read-only for the
// lifetime of a battle.
type Encounter struct {
	Raid         bool
	SiegeAssault bool
	SiegeOutside bool
	Hideout      bool

	// TimeOfDay is the scene clock in hours, 0-24.
	TimeOfDay float64
	Indoor    bool

	Parties []*Party
}

// IsSiege reports whether either siege flavour applies.
func (e *Encounter) IsSiege() bool {
	return e.SiegeAssault || e.SiegeOutside
}

// PartiesOn returns the involved parties fighting on side, in encounter order.
func (e *Encounter) PartiesOn(side Side) []*Party {
	var out []*Party
	for _, p := range e.Parties {
		if p != nil && p.Side == side {
			out = append(out, p)
		}
	}
	return out
}
