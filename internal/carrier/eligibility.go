package carrier

import (
	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
)

// IsEligible reports whether party may field carriers in the encounter. The
// first matching exclusion wins.
func IsEligible(party *core.Party, enc *core.Encounter, cfg config.CarrierConfig) bool {
	if party == nil || enc == nil {
		return false
	}

	if enc.Raid {
		if party.Side == core.SideAttacker && !cfg.AllowRaidAttackers {
			return false
		}
		if party.Side == core.SideDefender && !cfg.AllowRaidDefenders {
			return false
		}
	}

	if enc.IsSiege() {
		if party.Side == core.SideAttacker && !cfg.AllowSiegeAttackers {
			return false
		}
		if party.Side == core.SideDefender && !cfg.AllowSiegeDefenders {
			return false
		}
	}

	if enc.Hideout && !cfg.AllowInHideout {
		return false
	}

	if cfg.AllowNonNobles && !party.IsBanditAffiliated() && party.Mobile {
		return true
	}

	return party.Faction != nil &&
		!party.Faction.IsBandit &&
		party.Mobile &&
		!party.Caravan &&
		!party.Villager &&
		!party.Garrison
}

// Reservation maps each side to the first eligible party found for it.
// Take consumes the entry so one party serves every formation of a side.
type Reservation struct {
	parties map[core.Side]*core.Party
}

// NewReservation scans the encounter's parties in order.
func NewReservation(enc *core.Encounter, cfg config.CarrierConfig) *Reservation {
	r := &Reservation{parties: make(map[core.Side]*core.Party)}
	if enc == nil {
		return r
	}
	for _, p := range enc.Parties {
		if p == nil || p.Side == core.SideNone {
			continue
		}
		if _, taken := r.parties[p.Side]; taken {
			continue
		}
		if IsEligible(p, enc, cfg) {
			r.parties[p.Side] = p
		}
	}
	return r
}

// Take removes and returns the party reserved for side, nil when none is
// left.
func (r *Reservation) Take(side core.Side) *core.Party {
	p, ok := r.parties[side]
	if !ok {
		return nil
	}
	delete(r.parties, side)
	return p
}

// Has reports whether a party is still reserved for side.
func (r *Reservation) Has(side core.Side) bool {
	_, ok := r.parties[side]
	return ok
}
