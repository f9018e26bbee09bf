package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&JournalInfo{},
	&Battle{},
	&CarrierEvent{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// JournalInfo describes the instance writing the journal
type JournalInfo struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
	Version     string `json:"version" gorm:"size:32"`
}

func (*JournalInfo) TableName() string {
	return "journal_infos"
}

////////////////////////
// BATTLE DATA
////////////////////////

// Battle is one journaled battle. BattleID is the uuid assigned at mission start.
type Battle struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt    time.Time      `json:"createdAt"`
	BattleID     string         `json:"battleId" gorm:"size:36;uniqueIndex:idx_battle_battle_id"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      *time.Time     `json:"endTime"`
	Raid         bool           `json:"raid"`
	SiegeAssault bool           `json:"siegeAssault"`
	SiegeOutside bool           `json:"siegeOutside"`
	Hideout      bool           `json:"hideout"`
	Parties      datatypes.JSON `json:"parties"`
	EventCount   int            `json:"eventCount"`
}

func (*Battle) TableName() string {
	return "battles"
}

// CarrierEvent is one controller action recorded against a battle
type CarrierEvent struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID    string    `json:"battleId" gorm:"size:36;index:idx_carrierevent_battle_id"`
	Time        time.Time `json:"time" gorm:"index:idx_carrierevent_time"`
	MissionTime float64   `json:"missionTime"`
	Kind        string    `json:"kind" gorm:"size:32;index:idx_carrierevent_kind"`
	Side        string    `json:"side" gorm:"size:16"`
	UnitID      uint32    `json:"unitId"`
	Formation   string    `json:"formation" gorm:"size:32"`
	Affected    int       `json:"affected"`
	Detail      string    `json:"detail" gorm:"size:255"`
	PosX        float64   `json:"posX"`
	PosY        float64   `json:"posY"`
	PosZ        float64   `json:"posZ"`
}

func (*CarrierEvent) TableName() string {
	return "carrier_events"
}
