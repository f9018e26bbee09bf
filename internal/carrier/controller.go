// Package carrier runs banner carriers for one battle: it provisions them per
// side, propagates their morale effect and watches for them reaching the
// walls of a besieged settlement.
package carrier

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

var (
	ErrNoMission      = errors.New("no mission")
	ErrNoEncounter    = errors.New("mission has no encounter")
	ErrNoCarrierTroop = errors.New("carrier troop not defined")
)

// defaultTickInterval is used when the configured cadence is not positive.
const defaultTickInterval = 5.0

// Recorder receives journal entries. Implementations must not block.
type Recorder interface {
	Record(e core.CarrierEvent)
}

// Dependencies holds everything a Controller needs for one battle.
type Dependencies struct {
	Mission  host.Mission
	Config   config.CarrierConfig
	Logger   *slog.Logger
	Recorder Recorder
	Rand     *rand.Rand
	BattleID string
}

// record is a tracked carrier and the light it owns, if any.
type record struct {
	unit      host.Unit
	formation core.FormationClass
	light     host.Light
}

// Controller is the per-battle carrier controller. It is driven from the
// engine tick and is not safe for concurrent use.
type Controller struct {
	deps    Dependencies
	mission host.Mission
	cfg     config.CarrierConfig
	log     *slog.Logger
	rng     *rand.Rand
	metrics *metrics

	reservation *Reservation
	provisioned map[core.Side]bool
	carriers    map[host.UnitID]*record
	order       []host.UnitID

	wind         core.Position3D
	lastTick     float64
	interval     float64
	wallsReached bool
	errored      bool
	ended        bool
}

// New prepares a controller for the mission's encounter. A fault while
// reading the encounter leaves the controller permanently disabled rather
// than failing the battle; check Errored.
func New(deps Dependencies) (*Controller, error) {
	if deps.Mission == nil {
		return nil, ErrNoMission
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		deps:        deps,
		mission:     deps.Mission,
		cfg:         deps.Config,
		log:         deps.Logger.With("component", "carrier", "battle", deps.BattleID),
		rng:         deps.Rand,
		metrics:     m,
		provisioned: make(map[core.Side]bool),
		carriers:    make(map[host.UnitID]*record),
		interval:    deps.Config.MoraleTickInterval.Seconds(),
	}
	if c.interval <= 0 {
		c.interval = defaultTickInterval
	}

	if err := guard(c.start); err != nil {
		c.fail("start", err)
	}
	return c, nil
}

func (c *Controller) start() error {
	enc := c.mission.Encounter()
	if enc == nil {
		return ErrNoEncounter
	}
	c.lastTick = c.mission.Now()
	c.wind = core.Position3D{
		X: c.rng.Float64()*6 - 3,
		Y: c.rng.Float64()*6 - 3,
		Z: c.rng.Float64()*2 - 1,
	}
	c.reservation = NewReservation(enc, c.cfg)
	c.emit(core.CarrierEvent{Kind: core.EventBattleStarted, Detail: encounterDetail(enc)})
	return nil
}

// Tick runs one engine frame: provisioning for sides that just became
// active, then the throttled morale pulse.
func (c *Controller) Tick() {
	if c.errored || c.ended {
		return
	}

	for _, team := range c.mission.Teams() {
		if team == nil {
			continue
		}
		side := team.Side()
		if c.provisioned[side] || len(team.ActiveUnits()) == 0 {
			continue
		}
		c.provisioned[side] = true
		if err := guard(func() error { return c.provision(team) }); err != nil {
			c.fail("provision "+side.String(), err)
			return
		}
	}

	now := c.mission.Now()
	if now-c.lastTick > c.interval {
		c.lastTick = now
		c.pulse()
	}
}

// End releases every carrier light and drops all state. Further calls are
// ignored.
func (c *Controller) End() {
	if c.ended {
		return
	}
	c.ended = true
	for _, id := range c.order {
		if r := c.carriers[id]; r != nil && r.light != nil {
			r.light.Release()
			r.light = nil
		}
	}
	n := len(c.carriers)
	c.carriers = make(map[host.UnitID]*record)
	c.order = nil
	c.emit(core.CarrierEvent{Kind: core.EventBattleEnded, Affected: n})
}

// Errored reports whether a setup fault disabled the controller.
func (c *Controller) Errored() bool { return c.errored }

// WallsReached reports whether the wall latch has fired.
func (c *Controller) WallsReached() bool { return c.wallsReached }

// IsCarrier reports whether id is a tracked carrier.
func (c *Controller) IsCarrier(id host.UnitID) bool {
	_, ok := c.carriers[id]
	return ok
}

// Carriers returns the tracked carriers in provisioning order.
func (c *Controller) Carriers() []host.Unit {
	out := make([]host.Unit, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.carriers[id].unit)
	}
	return out
}

func (c *Controller) track(u host.Unit, class core.FormationClass, light host.Light) {
	id := u.ID()
	if _, dup := c.carriers[id]; dup {
		return
	}
	c.carriers[id] = &record{unit: u, formation: class, light: light}
	c.order = append(c.order, id)
}

func (c *Controller) untrack(id host.UnitID) {
	delete(c.carriers, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Controller) fail(stage string, err error) {
	c.errored = true
	c.log.Error("carrier controller disabled", "stage", stage, "error", err)
	c.emit(core.CarrierEvent{Kind: core.EventControllerFailed, Detail: fmt.Sprintf("%s: %v", stage, err)})
}

func (c *Controller) emit(e core.CarrierEvent) {
	if c.deps.Recorder == nil {
		return
	}
	e.BattleID = c.deps.BattleID
	e.Time = time.Now()
	e.MissionTime = c.mission.Now()
	c.deps.Recorder.Record(e)
}

// guard turns a host panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()
	return fn()
}

func encounterDetail(enc *core.Encounter) string {
	switch {
	case enc.Hideout:
		return "hideout"
	case enc.SiegeAssault:
		return "siege_assault"
	case enc.SiegeOutside:
		return "siege_outside"
	case enc.Raid:
		return "raid"
	default:
		return "field"
	}
}
