package influx

import (
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/bannercarrier/extension/pkg/core"
)

// Measurement names.
const (
	MeasurementEvent  = "carrier_event"
	MeasurementBattle = "carrier_battle"
	MeasurementStatus = "carrier_status"
)

// EventPoint converts a journal entry to a point. Kind, side and formation
// are tags; everything else is a field.
func EventPoint(e core.CarrierEvent) *influxdb2_write.Point {
	point := influxdb2_write.NewPointWithMeasurement(MeasurementEvent).
		AddTag("battle", e.BattleID).
		AddTag("kind", string(e.Kind)).
		AddTag("side", e.Side.String()).
		AddField("missionTime", e.MissionTime).
		AddField("affected", e.Affected).
		SetTime(e.Time)

	if e.UnitID != 0 {
		point.AddTag("formation", e.Formation.String()).
			AddField("unit", int64(e.UnitID)).
			AddField("x", e.Position.X).
			AddField("y", e.Position.Y).
			AddField("z", e.Position.Z)
	}
	if e.Detail != "" {
		point.AddField("detail", e.Detail)
	}
	return point
}

// BattlePoint marks the start or end of a battle.
func BattlePoint(b *core.BattleInfo, phase string, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementBattle).
		AddTag("battle", b.ID).
		AddTag("phase", phase).
		AddField("raid", b.Raid).
		AddField("siegeAssault", b.SiegeAssault).
		AddField("siegeOutside", b.SiegeOutside).
		AddField("hideout", b.Hideout).
		AddField("parties", len(b.Parties)).
		SetTime(at)
}

// StatusPoint is a snapshot of the journal taken by the status monitor.
func StatusPoint(battleID string, errored bool, pending int, written, dropped int64, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementStatus).
		AddTag("battle", battleID).
		AddField("errored", errored).
		AddField("pending", pending).
		AddField("written", written).
		AddField("dropped", dropped).
		SetTime(at)
}
