package handlers

import (
	"errors"
	"fmt"

	"github.com/bannercarrier/extension/internal/carrier"
	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
)

var (
	ErrNotEnoughGold  = errors.New("not enough gold")
	ErrPartySizeLimit = errors.New("party size limit reached")
)

// RecruitPlan is what topping up a party's carriers would take. No troops or
// gold change hands.
type RecruitPlan struct {
	// Capacity is the number of carriers the party's roster supports.
	Capacity int
	// Current is the number of carriers already in the roster.
	Current int
	// Missing is how many carriers would be recruited.
	Missing int
	// Cost is Missing times the per-carrier price.
	Cost int
}

// PlanRecruitment sizes a carrier top-up for party and checks that the party
// can afford and hold it.
func PlanRecruitment(party *core.Party, gold, sizeLimit int, cfg config.CarrierConfig) (RecruitPlan, error) {
	if party == nil {
		return RecruitPlan{}, errors.New("no party")
	}

	plan := RecruitPlan{
		Capacity: carrier.RecruitCapacity(party.Roster, cfg),
		Current:  party.CountRole(core.RoleCarrier),
	}
	plan.Missing = max(0, plan.Capacity-plan.Current)
	plan.Cost = plan.Missing * cfg.CarrierTroopCost

	if plan.Missing == 0 {
		return plan, nil
	}
	if party.Size()+plan.Missing > sizeLimit {
		return plan, fmt.Errorf("%w: %d + %d exceeds %d", ErrPartySizeLimit, party.Size(), plan.Missing, sizeLimit)
	}
	if gold < plan.Cost {
		return plan, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughGold, plan.Cost, gold)
	}
	return plan, nil
}

// FilterPrisoners removes carriers from a prisoner roster in place.
// Carriers are never taken prisoner. It returns the number of troops removed.
func FilterPrisoners(roster *[]core.RosterEntry) int {
	if roster == nil {
		return 0
	}
	kept := (*roster)[:0]
	removed := 0
	for _, e := range *roster {
		if e.Troop != nil && e.Troop.Role == core.RoleCarrier {
			removed += e.Count
			continue
		}
		kept = append(kept, e)
	}
	*roster = kept
	return removed
}
