package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bannercarrier/extension/internal/dispatcher"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Bus is where the runner raises engine events.
type Bus interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Summary describes the end state of a run.
type Summary struct {
	// BattleID is set when the mission-start handler opened a battle.
	BattleID      string
	Steps         int
	Removed       int
	Orders        int
	Voices        int
	Notifications int
	// Morale is the mean morale of the active units of each side.
	Morale map[core.Side]float64
}

// Runner plays a scenario against a mission, raising engine events on a bus.
type Runner struct {
	mission *Mission
	scn     *Scenario
	bus     Bus
	log     *slog.Logger

	script   []ScriptedEvent
	next     int
	marching map[*Formation]core.Position3D
	summary  Summary
}

// NewRunner prepares a run of scn on m.
func NewRunner(m *Mission, scn *Scenario, bus Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	script := append([]ScriptedEvent(nil), scn.Script...)
	sort.SliceStable(script, func(i, j int) bool { return script[i].At < script[j].At })
	return &Runner{
		mission:  m,
		scn:      scn,
		bus:      bus,
		log:      logger.With("component", "sim"),
		script:   script,
		marching: make(map[*Formation]core.Position3D),
	}
}

// Run plays the scenario to its end or until ctx is cancelled. Handler
// errors are logged and do not stop the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	ct, err := r.scn.CombatType()
	if err != nil {
		return r.summary, err
	}

	if info, ok := r.raise(host.CmdMissionStarted, host.MissionStarted{Mission: r.mission, CombatType: ct}).(*core.BattleInfo); ok && info != nil {
		r.summary.BattleID = info.ID
	}

	for r.mission.Now() < r.scn.Duration {
		if err := ctx.Err(); err != nil {
			r.raise(host.CmdMissionEnded, nil)
			return r.finish(), err
		}
		if err := r.applyDue(); err != nil {
			r.raise(host.CmdMissionEnded, nil)
			return r.finish(), err
		}
		r.march(r.scn.Step)
		r.mission.Advance(r.scn.Step)
		r.raise(host.CmdMissionTick, host.MissionTick{Dt: r.scn.Step})
		r.summary.Steps++
	}

	r.raise(host.CmdMissionEnded, nil)
	return r.finish(), nil
}

// raise returns the first handler result.
func (r *Runner) raise(cmd string, payload any) any {
	res, err := r.bus.Dispatch(dispatcher.Event{Command: cmd, Payload: payload})
	if err != nil {
		r.log.Debug("event not handled", "command", cmd, "error", err)
	}
	return res
}

func (r *Runner) applyDue() error {
	now := r.mission.Now()
	for r.next < len(r.script) && r.script[r.next].At <= now {
		ev := r.script[r.next]
		r.next++
		if err := r.apply(ev); err != nil {
			return fmt.Errorf("script event at %.1fs: %w", ev.At, err)
		}
	}
	return nil
}

func (r *Runner) apply(ev ScriptedEvent) error {
	side, err := core.ParseSide(ev.Side)
	if err != nil {
		return err
	}
	team := r.mission.Team(side)
	if team == nil {
		return fmt.Errorf("no team on side %q", ev.Side)
	}

	switch ev.Kind {
	case "order":
		formations := r.selectFormations(team, ev.Formation)
		r.raise(host.CmdOrderIssued, host.OrderIssued{
			Team:       team,
			Order:      core.ParseOrderType(ev.Order),
			Formations: formations,
		})
		r.summary.Orders++
	case "remove":
		state, err := core.ParseRemovalState(ev.State)
		if err != nil {
			return err
		}
		n := max(ev.Count, 1)
		for _, u := range r.pickUnits(team, ev.Formation, ev.Target == "carrier", n) {
			r.mission.Remove(u, state)
			r.raise(host.CmdUnitRemoved, host.UnitRemoved{Unit: u, State: state})
			r.summary.Removed++
		}
	case "march":
		for _, f := range r.selectFormations(team, ev.Formation) {
			r.marching[f.(*Formation)] = ev.Velocity
		}
	default:
		return fmt.Errorf("unknown script event kind %q", ev.Kind)
	}
	return nil
}

func (r *Runner) selectFormations(team *Team, class string) []host.Formation {
	var out []host.Formation
	want := core.ParseFormationClass(class)
	for _, f := range team.formations {
		if class == "" || f.class == want {
			out = append(out, f)
		}
	}
	return out
}

// pickUnits returns up to n active units of team, restricted to one
// formation class when given, carriers only or non-carriers only.
func (r *Runner) pickUnits(team *Team, class string, carriers bool, n int) []*Unit {
	want := core.ParseFormationClass(class)
	var out []*Unit
	for _, u := range r.mission.units {
		if len(out) == n {
			break
		}
		if u.team != team || !u.active || u.troop == nil {
			continue
		}
		if class != "" && (u.formation == nil || u.formation.class != want) {
			continue
		}
		if (u.troop.Role == core.RoleCarrier) != carriers {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (r *Runner) march(dt float64) {
	for f, v := range r.marching {
		f.MoveBy(core.Position3D{X: v.X * dt, Y: v.Y * dt, Z: v.Z * dt})
	}
}

func (r *Runner) finish() Summary {
	r.summary.Notifications = len(r.mission.notifications)
	r.summary.Morale = make(map[core.Side]float64)
	for _, t := range r.mission.teams {
		var sum float64
		var n int
		for _, u := range r.mission.units {
			if u.team == t && u.active {
				sum += u.morale
				n++
			}
		}
		if n > 0 {
			r.summary.Morale[t.side] = sum / float64(n)
		}
	}
	voices := 0
	for _, u := range r.mission.units {
		voices += len(u.voices)
	}
	r.summary.Voices = voices
	return r.summary
}
