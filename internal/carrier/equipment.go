package carrier

import (
	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Item ids and visuals used when equipping carriers.
const (
	SidearmItemID = "carrier_cheap_sword"
	TorchPrefab   = "torch_burning_prefab"
)

// BasicTroopEquipment returns the loadout of the party culture's basic troop,
// promoted along its upgrade chain to the leader's clan tier when tier-based
// equipping is on. ok is false when the party has no faction or the faction
// has no basic troop.
func BasicTroopEquipment(party *core.Party, cfg config.CarrierConfig) (core.Equipment, bool) {
	if party == nil || party.Faction == nil || party.Faction.BasicTroop == nil {
		return core.Equipment{}, false
	}

	troop := party.Faction.BasicTroop
	eq := troop.Equipment

	if cfg.UseTierBasedBannerman && party.Leader != nil && party.Leader.HasClan {
		tier := party.Leader.ClanTier
		seen := map[*core.Troop]bool{troop: true}
		for troop.Tier != tier {
			if len(troop.UpgradeTargets) == 0 || troop.UpgradeTargets[0] == nil {
				break
			}
			next := troop.UpgradeTargets[0]
			if seen[next] {
				break
			}
			seen[next] = true
			troop = next
			eq = troop.Equipment
		}
	}

	return eq, true
}

// DeriveLoadout overlays the armor slots of the party's basic troop onto the
// carrier template's loadout.
func DeriveLoadout(base core.Equipment, party *core.Party, cfg config.CarrierConfig) core.Equipment {
	eq := base.Clone()
	overlay, ok := BasicTroopEquipment(party, cfg)
	if !ok {
		return eq
	}
	for k := core.ArmorBegin; k < core.ArmorEnd-1; k++ {
		eq.SetSlot(k, overlay.Slot(k))
	}
	return eq
}

// torchActive reports whether carriers hold torches instead of sidearms.
func torchActive(enc *core.Encounter, cfg config.CarrierConfig) bool {
	if !cfg.UseTorchAtNight || enc == nil {
		return false
	}
	return enc.TimeOfDay >= 17 || enc.TimeOfDay <= 4
}

// torchLight is the light attached to a torch-bearing carrier.
func torchLight(mounted bool) host.LightSpec {
	z := 1.5
	if mounted {
		z++
	}
	return host.LightSpec{
		Prefab:    TorchPrefab,
		Radius:    10,
		Intensity: 70,
		Flicker:   0.8,
		Color:     [3]float64{1, 0.68, 0.29},
		Offset:    core.Position3D{X: 0.5, Y: 1, Z: z},
	}
}
