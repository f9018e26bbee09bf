package carrier

import (
	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
)

// defaultQuota applies to formation classes without a configured ratio.
const defaultQuota = 5

// Quota returns how many units a formation of class needs per carrier.
func Quota(class core.FormationClass, cfg config.CarrierConfig) int {
	var q int
	switch class {
	case core.FormationInfantry:
		q = cfg.PerInfantry
	case core.FormationHorseArcher:
		q = cfg.PerHorseArcher
	case core.FormationRanged:
		q = cfg.PerArcher
	case core.FormationSkirmisher:
		q = cfg.PerSkirmisher
	case core.FormationCavalry:
		q = cfg.PerCavalry
	case core.FormationHeavyInfantry:
		q = cfg.PerHeavyInfantry
	case core.FormationHeavyCavalry:
		q = cfg.PerHeavyCavalry
	case core.FormationLightCavalry:
		q = cfg.PerLightCavalry
	default:
		return defaultQuota
	}
	if q < 1 {
		return 1
	}
	return q
}

// DesiredCarriers is the number of carriers a formation of unitCount units
// should field.
func DesiredCarriers(unitCount int, class core.FormationClass, cfg config.CarrierConfig) int {
	if unitCount <= 0 {
		return 0
	}
	return unitCount / Quota(class, cfg)
}

// RecruitCapacity is the number of carriers a party roster can support: the
// sum of the per-formation quotas over its regular troops.
func RecruitCapacity(roster []core.RosterEntry, cfg config.CarrierConfig) int {
	byClass := make(map[core.FormationClass]int)
	for _, e := range roster {
		if e.Troop == nil || e.Troop.Role != core.RoleRegular {
			continue
		}
		byClass[e.Troop.Formation] += e.Count
	}

	total := 0
	for class, n := range byClass {
		total += DesiredCarriers(n, class, cfg)
	}
	return total
}
