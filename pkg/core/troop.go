// pkg/core/troop.go
package core

// Role tags what a troop is used for. Carriers are recognised by role, never
// by name.
type Role int

const (
	RoleRegular Role = iota
	RoleCarrier
	RoleHero
	RoleMount
)

// EquipmentIndex addresses a loadout slot.
type EquipmentIndex int

const (
	Weapon0 EquipmentIndex = iota
	Weapon1
	Weapon2
	Weapon3
	ExtraWeapon
	Head
	Body
	Leg
	Gloves
	Cape
	Horse
	HorseHarness
	NumEquipmentSlots
)

// Armor slots run from ArmorBegin up to, not including, ArmorEnd.
const (
	ArmorBegin = Head
	ArmorEnd   = Horse
)

// Item is a single equippable object.
type Item struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Equipment is a full loadout. A nil slot is empty.
type Equipment [NumEquipmentSlots]*Item

// Clone returns an independent copy of the slot table. Items are shared.
func (e Equipment) Clone() Equipment {
	return e
}

// Slot returns the item in slot i.
func (e Equipment) Slot(i EquipmentIndex) *Item {
	return e[i]
}

// SetSlot puts item into slot i.
func (e *Equipment) SetSlot(i EquipmentIndex, item *Item) {
	e[i] = item
}

// Troop is a unit template (a character type in the engine).
type Troop struct {
	ID             string
	Name           string
	Role           Role
	Tier           int
	Human          bool
	Formation      FormationClass
	Equipment      Equipment
	UpgradeTargets []*Troop
}
