// pkg/core/parse.go
package core

import (
	"fmt"
	"strings"
)

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// ParseSide maps "attacker" or "defender" to a Side.
func ParseSide(s string) (Side, error) {
	switch normalize(s) {
	case "attacker":
		return SideAttacker, nil
	case "defender":
		return SideDefender, nil
	case "", "none":
		return SideNone, nil
	}
	return SideNone, fmt.Errorf("unknown side %q", s)
}

var orderNames = map[string]OrderType{
	"advance":           OrderAdvance,
	"hold_fire":         OrderHoldFire,
	"move":              OrderMove,
	"stand_your_ground": OrderStandYourGround,
	"fall_back":         OrderFallBack,
	"charge":            OrderCharge,
	"schiltron":         OrderArrangementSchiltron,
	"fire_at_will":      OrderFireAtWill,
}

// ParseOrderType maps an order name to its type. Unknown names are
// OrderOther.
func ParseOrderType(s string) OrderType {
	if o, ok := orderNames[normalize(s)]; ok {
		return o
	}
	return OrderOther
}

// ParseRemovalState maps a removal cause name to its state.
func ParseRemovalState(s string) (RemovalState, error) {
	switch normalize(s) {
	case "", "killed":
		return RemovalKilled, nil
	case "unconscious":
		return RemovalUnconscious, nil
	case "routed":
		return RemovalRouted, nil
	case "deleted":
		return RemovalDeleted, nil
	}
	return RemovalDeleted, fmt.Errorf("unknown removal state %q", s)
}

// ParseRole maps a role name to a Role.
func ParseRole(s string) (Role, error) {
	switch normalize(s) {
	case "", "regular":
		return RoleRegular, nil
	case "carrier":
		return RoleCarrier, nil
	case "hero":
		return RoleHero, nil
	case "mount":
		return RoleMount, nil
	}
	return RoleRegular, fmt.Errorf("unknown role %q", s)
}

var slotNames = map[string]EquipmentIndex{
	"weapon0":       Weapon0,
	"weapon1":       Weapon1,
	"weapon2":       Weapon2,
	"weapon3":       Weapon3,
	"extra_weapon":  ExtraWeapon,
	"head":          Head,
	"body":          Body,
	"leg":           Leg,
	"gloves":        Gloves,
	"cape":          Cape,
	"horse":         Horse,
	"horse_harness": HorseHarness,
}

// ParseEquipmentIndex maps a slot name such as "head" or "weapon1" to its
// index.
func ParseEquipmentIndex(s string) (EquipmentIndex, error) {
	if i, ok := slotNames[normalize(s)]; ok {
		return i, nil
	}
	return NumEquipmentSlots, fmt.Errorf("unknown equipment slot %q", s)
}
