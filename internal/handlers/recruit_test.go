package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
)

var (
	footman   = &core.Troop{ID: "footman", Role: core.RoleRegular, Human: true, Formation: core.FormationInfantry}
	archer    = &core.Troop{ID: "archer", Role: core.RoleRegular, Human: true, Formation: core.FormationRanged}
	scout     = &core.Troop{ID: "scout", Role: core.RoleRegular, Human: true, Formation: core.FormationLightCavalry}
	bannerman = &core.Troop{ID: "bannerman", Role: core.RoleCarrier, Human: true}
)

func TestPlanRecruitment(t *testing.T) {
	cfg := config.DefaultCarrierConfig()
	party := &core.Party{Roster: []core.RosterEntry{
		{Troop: footman, Count: 40},
		{Troop: archer, Count: 12},
		{Troop: scout, Count: 5},
		{Troop: bannerman, Count: 3},
	}}
	// 40/5 + 12/5 + 5/2 = 8 + 2 + 2
	wantCapacity := 12

	tests := []struct {
		name      string
		gold      int
		sizeLimit int
		err       error
	}{
		{"affordable", 90, 100, nil},
		{"exact gold", 90, 69, nil},
		{"short of gold", 89, 100, ErrNotEnoughGold},
		{"party full", 1000, 68, ErrPartySizeLimit},
		{"size checked before gold", 0, 60, ErrPartySizeLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanRecruitment(party, tt.gold, tt.sizeLimit, cfg)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, wantCapacity, plan.Capacity)
			assert.Equal(t, 3, plan.Current)
			assert.Equal(t, 9, plan.Missing)
			assert.Equal(t, 90, plan.Cost)
		})
	}
}

func TestPlanRecruitment_NothingMissing(t *testing.T) {
	cfg := config.DefaultCarrierConfig()
	party := &core.Party{Roster: []core.RosterEntry{
		{Troop: footman, Count: 10},
		{Troop: bannerman, Count: 5},
	}}

	plan, err := PlanRecruitment(party, 0, 0, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Capacity)
	assert.Zero(t, plan.Missing)
	assert.Zero(t, plan.Cost)
}

func TestPlanRecruitment_NoParty(t *testing.T) {
	_, err := PlanRecruitment(nil, 100, 100, config.DefaultCarrierConfig())
	assert.Error(t, err)
}

func TestFilterPrisoners(t *testing.T) {
	roster := []core.RosterEntry{
		{Troop: bannerman, Count: 2},
		{Troop: footman, Count: 7},
		{Troop: nil, Count: 1},
		{Troop: bannerman, Count: 1},
		{Troop: archer, Count: 3},
	}

	removed := FilterPrisoners(&roster)
	assert.Equal(t, 3, removed)
	require.Len(t, roster, 3)
	assert.Same(t, footman, roster[0].Troop)
	assert.Nil(t, roster[1].Troop)
	assert.Same(t, archer, roster[2].Troop)

	assert.Zero(t, FilterPrisoners(nil))
	empty := []core.RosterEntry{}
	assert.Zero(t, FilterPrisoners(&empty))
}
