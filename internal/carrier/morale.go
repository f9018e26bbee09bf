package carrier

import (
	"math"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// yellThreshold is the morale above which a boosted unit yells.
const yellThreshold = 60.0

// pulse is the throttled ambient tick over all living carriers.
func (c *Controller) pulse() {
	enc := c.mission.Encounter()
	if enc.Hideout {
		return
	}

	for _, id := range c.order {
		r, ok := c.carriers[id]
		if !ok {
			continue
		}
		u := r.unit
		if !u.IsActive() || u.Team() == nil || u.Health() <= 0 {
			continue
		}

		if c.cfg.AllowMoraleBoostForWalls {
			c.checkWalls(u, enc)
		}

		if n := c.boost(u); n > 0 {
			side := u.Team().Side()
			c.metrics.addPulses(side, n)
			c.emit(core.CarrierEvent{
				Kind:      core.EventMoralePulse,
				Side:      side,
				UnitID:    uint32(id),
				Formation: r.formation,
				Affected:  n,
				Position:  u.Position(),
			})
		}
	}
}

// boost raises the morale of allies around carrier towards the configured
// ceiling and returns how many were raised.
func (c *Controller) boost(carrier host.Unit) int {
	ceiling := c.cfg.MaximumMoraleWhileAround
	raised := 0
	for _, a := range c.mission.NearbyAllies(carrier.Position(), c.cfg.MoraleRadius, carrier.Team()) {
		m := a.Morale()
		if m >= ceiling {
			continue
		}
		a.SetMorale(math.Min(m+c.cfg.MoraleEffect, ceiling))
		raised++
		if a.Morale() > yellThreshold {
			a.MakeVoice(core.VoiceYell)
		}
	}
	return raised
}

// OnUnitRemoved applies the carrier death penalty. Only killed or
// unconscious carriers count.
func (c *Controller) OnUnitRemoved(u host.Unit, state core.RemovalState) {
	if c.errored || c.ended || u == nil || !state.Incapacitating() {
		return
	}
	id := u.ID()
	r, ok := c.carriers[id]
	if !ok {
		return
	}

	if r.light != nil {
		r.light.Release()
		r.light = nil
	}
	c.untrack(id)

	team := u.Team()
	side := core.SideNone
	if team != nil {
		side = team.Side()
	}
	c.metrics.addRemoved(side)
	c.emit(core.CarrierEvent{
		Kind:      core.EventCarrierRemoved,
		Side:      side,
		UnitID:    uint32(id),
		Formation: r.formation,
		Detail:    state.String(),
		Position:  u.Position(),
	})

	if c.mission.Encounter().Hideout || team == nil {
		return
	}

	hit := 0
	for _, a := range c.mission.NearbyAllies(u.Position(), c.cfg.MoraleRadius, team) {
		if a.ID() == id {
			continue
		}
		if c.cfg.ExemptCarriersFromPenalty && c.IsCarrier(a.ID()) {
			continue
		}
		a.SetMorale(a.Morale() - c.cfg.MoraleEffect)
		hit++
	}
	c.emit(core.CarrierEvent{
		Kind:      core.EventMoralePenalty,
		Side:      side,
		UnitID:    uint32(id),
		Formation: r.formation,
		Affected:  hit,
		Position:  u.Position(),
	})
}
