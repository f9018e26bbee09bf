// Package relay staggers vocal acknowledgements after the player issues an
// order, so a formation answers over a second or two instead of in one
// chorus.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/bannercarrier/extension/internal/queue"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

const instrumentationName = "github.com/bannercarrier/extension/internal/relay"

// Scheduling constants.
const (
	unitsPerVoice    = 8
	largeSampleCount = 50
	largeSpreadSecs  = 5.0
	smallSpreadSecs  = 1.8
	baseDelaySecs    = 0.1
)

var ErrNoMission = errors.New("no mission")

// VoiceAction is one pending acknowledgement.
type VoiceAction struct {
	Unit  host.Unit
	Voice core.VoiceType
	At    float64
}

// Dependencies configures a Scheduler.
type Dependencies struct {
	Mission host.Mission
	// Enabled mirrors the order relay toggle of the carrier policy.
	Enabled bool
	Logger  *slog.Logger
	Rand    *rand.Rand
}

// Scheduler owns the voice queue of one battle. Like the carrier controller
// it is driven from the engine tick.
type Scheduler struct {
	mission host.Mission
	log     *slog.Logger
	rng     *rand.Rand
	active  bool
	queue   *queue.PriorityQueue[VoiceAction]

	fired        metric.Int64Counter
	pendingGauge metric.Int64ObservableGauge
	registration metric.Registration
}

// New builds a scheduler. It stays inactive unless relaying is enabled, the
// mission allows order shouting and the player has a team.
func New(deps Dependencies) (*Scheduler, error) {
	if deps.Mission == nil {
		return nil, ErrNoMission
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Scheduler{
		mission: deps.Mission,
		log:     deps.Logger.With("component", "relay"),
		rng:     deps.Rand,
		queue:   queue.NewPriority[VoiceAction](),
	}
	s.active = deps.Enabled && deps.Mission.OrderShoutingAllowed() && hasPlayerTeam(deps.Mission)

	m := otel.Meter(instrumentationName)
	var err error
	s.fired, err = m.Int64Counter(
		"relay.voices.fired",
		metric.WithDescription("Voice acknowledgements played"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	s.pendingGauge, err = m.Int64ObservableGauge(
		"relay.queue.pending",
		metric.WithDescription("Voice acknowledgements waiting to play"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pending gauge: %w", err)
	}

	s.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(s.pendingGauge, int64(s.queue.Len()))
			return nil
		},
		s.pendingGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pending callback: %w", err)
	}

	return s, nil
}

// Active reports whether orders are being relayed.
func (s *Scheduler) Active() bool { return s.active }

// Pending returns the number of queued actions.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// Stagger returns how many units of a formation of unitCount answer and the
// delay between consecutive answers.
func Stagger(unitCount int) (count int, inc float64) {
	if unitCount > 0 {
		count = unitCount / unitsPerVoice
	}
	spread := smallSpreadSecs
	if count > largeSampleCount {
		spread = largeSpreadSecs
	}
	return count, spread / float64(max(count, 1))
}

// VoiceFor picks the acknowledgement for order. Some orders pick one of two
// voices with equal odds.
func VoiceFor(order core.OrderType, rng *rand.Rand) core.VoiceType {
	coin := func(a, b core.VoiceType) core.VoiceType {
		if rng.Float64() > 0.5 {
			return a
		}
		return b
	}

	switch order {
	case core.OrderAdvance:
		return core.VoiceAdvance
	case core.OrderHoldFire:
		return core.VoiceHoldFire
	case core.OrderMove:
		return coin(core.VoiceAffirmative, core.VoiceMove)
	case core.OrderStandYourGround:
		return core.VoiceIdle
	case core.OrderFallBack:
		return core.VoiceFallBack
	case core.OrderCharge:
		return coin(core.VoiceYell, core.VoiceCharge)
	case core.OrderArrangementSchiltron:
		return coin(core.VoiceFormShieldWall, core.VoiceAffirmative)
	case core.OrderFireAtWill:
		return core.VoiceFireAtWill
	default:
		return coin(core.VoiceAffirmative, core.VoiceGrunt)
	}
}

// OnOrderIssued queues acknowledgements for an order given by the player's
// team. It returns the number of queued actions. If anything goes wrong
// while building them the whole order is dropped.
func (s *Scheduler) OnOrderIssued(team host.Team, order core.OrderType, formations []host.Formation) int {
	if !s.active || team == nil || !team.IsPlayerTeam() {
		return 0
	}

	actions, err := s.plan(order, formations)
	if err != nil {
		s.log.Debug("order acknowledgements dropped", "order", order, "error", err)
		return 0
	}
	for _, a := range actions {
		s.queue.Push(a, a.At)
	}
	return len(actions)
}

func (s *Scheduler) plan(order core.OrderType, formations []host.Formation) (actions []VoiceAction, err error) {
	defer func() {
		if r := recover(); r != nil {
			actions, err = nil, fmt.Errorf("host panic: %v", r)
		}
	}()

	now := s.mission.Now()
	for _, f := range formations {
		if f == nil {
			continue
		}
		count, inc := Stagger(f.UnitCount())
		if count == 0 {
			continue
		}
		units := f.Units()
		if len(units) == 0 {
			return nil, fmt.Errorf("formation %s reports %d units but lists none", f.Class(), f.UnitCount())
		}
		for k := 0; k < count; k++ {
			actions = append(actions, VoiceAction{
				Unit:  units[s.rng.Intn(len(units))],
				Voice: VoiceFor(order, s.rng),
				At:    now + float64(k)*inc + baseDelaySecs,
			})
		}
	}
	return actions, nil
}

// Tick plays every action that is due, earliest first, and returns how many
// were played.
func (s *Scheduler) Tick() int {
	due := s.queue.PopDue(s.mission.Now())
	for _, a := range due {
		a.Unit.MakeVoice(a.Voice)
	}
	if len(due) > 0 {
		s.fired.Add(context.Background(), int64(len(due)))
	}
	return len(due)
}

// Close drops pending actions and detaches the metrics callback.
func (s *Scheduler) Close() error {
	s.queue.Clear()
	if s.registration != nil {
		return s.registration.Unregister()
	}
	return nil
}

func hasPlayerTeam(m host.Mission) bool {
	for _, t := range m.Teams() {
		if t != nil && t.IsPlayerTeam() {
			return true
		}
	}
	return false
}
