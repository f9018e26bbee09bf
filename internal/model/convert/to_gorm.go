// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/bannercarrier/extension/internal/model"
	"github.com/bannercarrier/extension/pkg/core"
)

// partiesToJSON converts a []string to datatypes.JSON for DB storage.
func partiesToJSON(parties []string) datatypes.JSON {
	if len(parties) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(parties)
	return datatypes.JSON(data)
}

// CoreToBattle converts a core.BattleInfo to a GORM model.Battle.
func CoreToBattle(b core.BattleInfo) model.Battle {
	return model.Battle{
		BattleID:     b.ID,
		StartTime:    b.StartTime,
		Raid:         b.Raid,
		SiegeAssault: b.SiegeAssault,
		SiegeOutside: b.SiegeOutside,
		Hideout:      b.Hideout,
		Parties:      partiesToJSON(b.Parties),
	}
}

// CoreToCarrierEvent converts a core.CarrierEvent to a GORM model.CarrierEvent.
// The core ID is not carried over; the database assigns its own.
func CoreToCarrierEvent(e core.CarrierEvent) model.CarrierEvent {
	return model.CarrierEvent{
		BattleID:    e.BattleID,
		Time:        e.Time,
		MissionTime: e.MissionTime,
		Kind:        string(e.Kind),
		Side:        e.Side.String(),
		UnitID:      e.UnitID,
		Formation:   e.Formation.String(),
		Affected:    e.Affected,
		Detail:      e.Detail,
		PosX:        e.Position.X,
		PosY:        e.Position.Y,
		PosZ:        e.Position.Z,
	}
}

// CoreToCarrierEvents converts a batch, stamping nothing.
func CoreToCarrierEvents(events []core.CarrierEvent) []model.CarrierEvent {
	out := make([]model.CarrierEvent, len(events))
	for i, e := range events {
		out[i] = CoreToCarrierEvent(e)
	}
	return out
}
