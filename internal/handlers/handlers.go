// Package handlers turns engine events raised on the dispatcher into
// per-battle carrier work: it owns the controller and relay scheduler of the
// battle being fought and the campaign hooks around it.
package handlers

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/bannercarrier/extension/internal/carrier"
	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/dispatcher"
	"github.com/bannercarrier/extension/internal/journal"
	"github.com/bannercarrier/extension/internal/mission"
	"github.com/bannercarrier/extension/internal/relay"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger *slog.Logger
	// Journal is optional. Without it battles run unrecorded.
	Journal *journal.Recorder
	// MissionContext is optional. It is updated on battle start and end.
	MissionContext *mission.Context
	// ConfigDir is reloaded on session launch.
	ConfigDir string
	Config    config.CarrierConfig
	// Seed makes battles reproducible. Zero seeds from the clock.
	Seed int64
}

// battle is everything owned by the battle being fought.
type battle struct {
	info  *core.BattleInfo
	ctrl  *carrier.Controller
	sched *relay.Scheduler
}

// Service provides handler methods for engine events
type Service struct {
	deps Dependencies
	log  *slog.Logger
	rng  *rand.Rand

	mu      sync.Mutex
	cfg     config.CarrierConfig
	current *battle
}

// NewService creates a service with the given policy snapshot.
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		deps: deps,
		log:  deps.Logger.With("component", "handlers"),
		rng:  rand.New(rand.NewSource(seed)),
		cfg:  deps.Config,
	}
}

// Config returns the policy snapshot used for the next battle.
func (s *Service) Config() config.CarrierConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Controller returns the current battle's controller, nil between battles.
func (s *Service) Controller() *carrier.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.ctrl
}

// Scheduler returns the current battle's relay scheduler, nil between battles.
func (s *Service) Scheduler() *relay.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.sched
}

// RegisterHandlers subscribes the service to the engine commands on d.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(host.CmdSessionLaunched, func(e dispatcher.Event) (any, error) {
		return nil, s.OnSessionLaunched()
	}, dispatcher.Logged())

	d.Register(host.CmdMissionStarted, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(host.MissionStarted)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		return s.OnMissionStarted(p.Mission, p.CombatType)
	}, dispatcher.Logged())

	d.Register(host.CmdMissionTick, func(e dispatcher.Event) (any, error) {
		s.OnTick()
		return nil, nil
	})

	d.Register(host.CmdMissionEnded, func(e dispatcher.Event) (any, error) {
		return nil, s.OnMissionEnded()
	}, dispatcher.Logged())

	d.Register(host.CmdOrderIssued, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(host.OrderIssued)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		return s.OnOrderIssued(p.Team, p.Order, p.Formations), nil
	})

	d.Register(host.CmdUnitRemoved, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(host.UnitRemoved)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		s.OnUnitRemoved(p.Unit, p.State)
		return nil, nil
	})

	d.Register(host.CmdSettlementEntered, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(host.SettlementEntered)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		return s.OnSettlementEntered(p)
	}, dispatcher.Logged())

	d.Register(host.CmdPrisonerTaken, func(e dispatcher.Event) (any, error) {
		p, ok := e.Payload.(host.PrisonerTaken)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		return s.OnPrisonerTaken(p.Roster), nil
	})
}

// OnSessionLaunched reloads configuration and swaps the policy snapshot used
// by later battles. A battle in progress keeps its own copy.
func (s *Service) OnSessionLaunched() error {
	if err := config.Load(s.deps.ConfigDir); err != nil {
		s.log.Warn("config reload failed, keeping current policy", "error", err)
		return err
	}
	cfg := config.GetCarrierConfig()

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.log.Info("carrier policy loaded",
		"moraleEffect", cfg.MoraleEffect,
		"moraleRadius", cfg.MoraleRadius,
		"orderRelay", cfg.UseOrderRelay)
	return nil
}

// OnMissionStarted sets up carriers for a combat mission. Other missions are
// ignored and return a nil battle. A previous battle that was never ended is
// ended first.
func (s *Service) OnMissionStarted(m host.Mission, ct core.CombatType) (*core.BattleInfo, error) {
	if m == nil {
		return nil, carrier.ErrNoMission
	}
	if ct != core.CombatTypeCombat {
		s.log.Debug("not a combat mission, skipping", "combatType", ct)
		return nil, nil
	}
	enc := m.Encounter()
	if enc == nil {
		s.log.Debug("mission has no encounter, skipping")
		return nil, nil
	}

	if err := s.OnMissionEnded(); err != nil {
		s.log.Warn("ending stale battle", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info := newBattleInfo(enc)
	if s.deps.Journal != nil {
		if err := s.deps.Journal.StartBattle(info); err != nil {
			s.log.Error("journal did not start battle", "battle", info.ID, "error", err)
		}
	}

	var rec carrier.Recorder
	if s.deps.Journal != nil {
		rec = s.deps.Journal
	}
	ctrl, err := carrier.New(carrier.Dependencies{
		Mission:  m,
		Config:   s.cfg,
		Logger:   s.deps.Logger,
		Recorder: rec,
		Rand:     rand.New(rand.NewSource(s.rng.Int63())),
		BattleID: info.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating carrier controller: %w", err)
	}

	sched, err := relay.New(relay.Dependencies{
		Mission: m,
		Enabled: s.cfg.UseOrderRelay,
		Logger:  s.deps.Logger,
		Rand:    rand.New(rand.NewSource(s.rng.Int63())),
	})
	if err != nil {
		ctrl.End()
		return nil, fmt.Errorf("creating relay scheduler: %w", err)
	}

	s.current = &battle{info: info, ctrl: ctrl, sched: sched}
	if mc := s.deps.MissionContext; mc != nil {
		mc.SetBattle(info)
		mc.SetErrored(ctrl.Errored())
	}

	s.log.Info("battle started",
		"battle", info.ID,
		"parties", len(info.Parties),
		"relay", sched.Active(),
		"errored", ctrl.Errored())
	return info, nil
}

// OnTick drives the current battle by one engine frame.
func (s *Service) OnTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.ctrl.Tick()
	s.current.sched.Tick()
	if mc := s.deps.MissionContext; mc != nil {
		mc.SetErrored(s.current.ctrl.Errored())
	}
}

// OnOrderIssued forwards a player order to the relay scheduler and returns the
// number of acknowledgements queued.
func (s *Service) OnOrderIssued(team host.Team, order core.OrderType, formations []host.Formation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.sched.OnOrderIssued(team, order, formations)
}

// OnUnitRemoved forwards a unit removal to the controller.
func (s *Service) OnUnitRemoved(u host.Unit, state core.RemovalState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.ctrl.OnUnitRemoved(u, state)
}

// OnMissionEnded tears the current battle down. It is a no-op between
// battles.
func (s *Service) OnMissionEnded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	b := s.current
	s.current = nil

	b.ctrl.End()
	err := b.sched.Close()
	if s.deps.Journal != nil {
		if jerr := s.deps.Journal.EndBattle(); jerr != nil {
			s.log.Error("journal did not end battle", "battle", b.info.ID, "error", jerr)
			if err == nil {
				err = jerr
			}
		}
	}
	if mc := s.deps.MissionContext; mc != nil {
		mc.ClearBattle()
	}

	s.log.Info("battle ended",
		"battle", b.info.ID,
		"wallsReached", b.ctrl.WallsReached(),
		"errored", b.ctrl.Errored())
	return err
}

// OnSettlementEntered sizes the carrier top-up for a party entering a
// settlement and logs the outcome.
func (s *Service) OnSettlementEntered(p host.SettlementEntered) (RecruitPlan, error) {
	plan, err := PlanRecruitment(p.Party, p.Gold, p.PartySizeCap, s.Config())
	if err != nil {
		s.log.Info("carrier recruitment refused",
			"settlement", p.SettlementID,
			"missing", plan.Missing,
			"cost", plan.Cost,
			"reason", err)
		return plan, err
	}
	s.log.Info("carrier recruitment planned",
		"settlement", p.SettlementID,
		"capacity", plan.Capacity,
		"current", plan.Current,
		"missing", plan.Missing,
		"cost", plan.Cost)
	return plan, nil
}

// OnPrisonerTaken strips carriers from a prisoner roster.
func (s *Service) OnPrisonerTaken(roster *[]core.RosterEntry) int {
	n := FilterPrisoners(roster)
	if n > 0 {
		s.log.Debug("carriers removed from prisoners", "count", n)
	}
	return n
}

func newBattleInfo(enc *core.Encounter) *core.BattleInfo {
	info := &core.BattleInfo{
		ID:           journal.NewBattleID(),
		StartTime:    time.Now().UTC(),
		Raid:         enc.Raid,
		SiegeAssault: enc.SiegeAssault,
		SiegeOutside: enc.SiegeOutside,
		Hideout:      enc.Hideout,
	}
	for _, p := range enc.Parties {
		if p != nil {
			info.Parties = append(info.Parties, p.ID)
		}
	}
	return info
}
