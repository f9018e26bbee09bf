package carrier

import (
	"strings"

	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Wall probe and notification settings.
const (
	wallProbeDistance = 150.0
	wallNameMarker    = "_castle_"

	wallsOwnText    = "Your banner has reached the walls!"
	wallsEnemyText  = "Enemy banner has reached the walls!"
	wallsOwnSound   = "event:/alerts/report/battle_winning"
	wallsEnemySound = "event:/alerts/report/battle_losing"
	wallsDurationMs = 500
)

// checkWalls fires the once-per-battle wall latch when an attacking carrier
// stands on fortification geometry during a siege assault.
func (c *Controller) checkWalls(u host.Unit, enc *core.Encounter) {
	if c.wallsReached || !enc.SiegeAssault {
		return
	}
	team := u.Team()
	if team == nil || team.Side() != core.SideAttacker {
		return
	}
	if !c.standingOnWalls(u) {
		return
	}

	c.wallsReached = true

	if c.cfg.AllowMoraleBoostMessageForWalls {
		n := host.Notification{
			Text:       wallsEnemyText,
			Sound:      wallsEnemySound,
			DurationMs: wallsDurationMs,
			Subject:    u.Troop(),
		}
		if c.mission.PlayerSide() == core.SideAttacker {
			n.Text = wallsOwnText
			n.Sound = wallsOwnSound
		}
		c.mission.Notify(n)
	}

	active := team.ActiveUnits()
	for _, a := range active {
		a.SetMorale(core.MaxMorale)
	}

	c.metrics.addWallsReached(team.Side())
	c.log.Info("banner reached the walls", "unit", u.ID(), "boosted", len(active))
	c.emit(core.CarrierEvent{
		Kind:     core.EventWallReached,
		Side:     team.Side(),
		UnitID:   uint32(u.ID()),
		Affected: len(active),
		Position: u.Position(),
	})
}

// standingOnWalls probes straight down from u. A failing probe counts as a
// miss.
func (c *Controller) standingOnWalls(u host.Unit) bool {
	hits, err := c.mission.Probe(u.Position(), core.Down, wallProbeDistance)
	if err != nil {
		c.log.Debug("wall probe failed", "unit", u.ID(), "error", err)
		return false
	}
	for _, g := range hits {
		if strings.Contains(g.Name, wallNameMarker) {
			return true
		}
	}
	return false
}
