package convert

import (
	"encoding/json"

	"github.com/bannercarrier/extension/internal/model"
	"github.com/bannercarrier/extension/pkg/core"
)

// BattleToCore converts a GORM Battle to a core.BattleInfo.
func BattleToCore(b model.Battle) core.BattleInfo {
	var parties []string
	if len(b.Parties) > 0 {
		_ = json.Unmarshal(b.Parties, &parties)
	}

	return core.BattleInfo{
		ID:           b.BattleID,
		StartTime:    b.StartTime,
		Raid:         b.Raid,
		SiegeAssault: b.SiegeAssault,
		SiegeOutside: b.SiegeOutside,
		Hideout:      b.Hideout,
		Parties:      parties,
	}
}

// CarrierEventToCore converts a GORM CarrierEvent to a core.CarrierEvent.
// Unknown side names map to core.SideNone.
func CarrierEventToCore(e model.CarrierEvent) core.CarrierEvent {
	side, _ := core.ParseSide(e.Side)

	return core.CarrierEvent{
		ID:          e.ID,
		BattleID:    e.BattleID,
		Kind:        core.CarrierEventKind(e.Kind),
		Time:        e.Time,
		MissionTime: e.MissionTime,
		Side:        side,
		UnitID:      e.UnitID,
		Formation:   core.ParseFormationClass(e.Formation),
		Affected:    e.Affected,
		Detail:      e.Detail,
		Position:    core.Position3D{X: e.PosX, Y: e.PosY, Z: e.PosZ},
	}
}
