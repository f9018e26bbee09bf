package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bannercarrier/extension/internal/storage"
	"github.com/bannercarrier/extension/pkg/core"
)

// JournalExport is the root JSON structure
type JournalExport struct {
	BattleID  string                 `json:"battleId"`
	StartTime time.Time              `json:"startTime"`
	Encounter string                 `json:"encounter"`
	Parties   []string               `json:"parties"`
	Summary   storage.ExportMetadata `json:"summary"`
	Events    []EventJSON            `json:"events"`
}

// EventJSON is one journal entry
type EventJSON struct {
	ID          uint      `json:"id"`
	Kind        string    `json:"kind"`
	Time        time.Time `json:"time"`
	MissionTime float64   `json:"missionTime"`
	Side        string    `json:"side,omitempty"`
	UnitID      uint32    `json:"unitId,omitempty"`
	Formation   string    `json:"formation,omitempty"`
	Affected    int       `json:"affected,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Position    []float64 `json:"position,omitempty"`
}

// encounterName names the battle type for the export header
func encounterName(b *core.BattleInfo) string {
	switch {
	case b.Hideout:
		return "hideout"
	case b.SiegeAssault:
		return "siege_assault"
	case b.SiegeOutside:
		return "siege_outside"
	case b.Raid:
		return "raid"
	default:
		return "field"
	}
}

// exportJSON writes the battle data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	name := strings.ReplaceAll(b.battle.ID, " ", "_")
	name = strings.ReplaceAll(name, ":", "_")
	if name == "" {
		name = "battle"
	}
	timestamp := b.battle.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", name, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", name, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() JournalExport {
	export := JournalExport{
		BattleID:  b.battle.ID,
		StartTime: b.battle.StartTime,
		Encounter: encounterName(b.battle),
		Parties:   b.battle.Parties,
		Summary:   storage.Summarize(b.battle.ID, b.events),
		Events:    make([]EventJSON, 0, len(b.events)),
	}
	if export.Parties == nil {
		export.Parties = []string{}
	}

	for _, e := range b.events {
		evt := EventJSON{
			ID:          e.ID,
			Kind:        string(e.Kind),
			Time:        e.Time,
			MissionTime: e.MissionTime,
			UnitID:      e.UnitID,
			Affected:    e.Affected,
			Detail:      e.Detail,
		}
		if e.Side != core.SideNone {
			evt.Side = e.Side.String()
		}
		if e.UnitID != 0 {
			evt.Formation = e.Formation.String()
			evt.Position = []float64{e.Position.X, e.Position.Y, e.Position.Z}
		}
		export.Events = append(export.Events, evt)
	}

	return export
}

// GetExportMetadata summarizes the last exported battle
func (b *Backend) GetExportMetadata() storage.ExportMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return storage.Summarize(b.lastBattleID, b.lastExport)
}

func (b *Backend) writeJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data JournalExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
