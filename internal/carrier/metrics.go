package carrier

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bannercarrier/extension/pkg/core"
)

const instrumentationName = "github.com/bannercarrier/extension/internal/carrier"

type metrics struct {
	spawned      metric.Int64Counter
	removed      metric.Int64Counter
	pulses       metric.Int64Counter
	wallsReached metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	out.spawned, err = m.Int64Counter(
		"carrier.spawned",
		metric.WithDescription("Carriers spawned or designated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating spawned counter: %w", err)
	}

	out.removed, err = m.Int64Counter(
		"carrier.removed",
		metric.WithDescription("Carriers killed or knocked out"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating removed counter: %w", err)
	}

	out.pulses, err = m.Int64Counter(
		"carrier.morale.pulses",
		metric.WithDescription("Units whose morale was raised by a nearby carrier"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pulse counter: %w", err)
	}

	out.wallsReached, err = m.Int64Counter(
		"carrier.walls.reached",
		metric.WithDescription("Battles where an attacking carrier reached the walls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating walls counter: %w", err)
	}

	return out, nil
}

func sideAttr(s core.Side) metric.AddOption {
	return metric.WithAttributes(attribute.String("side", s.String()))
}

func (m *metrics) addSpawned(s core.Side, n int) {
	m.spawned.Add(context.Background(), int64(n), sideAttr(s))
}

func (m *metrics) addRemoved(s core.Side) {
	m.removed.Add(context.Background(), 1, sideAttr(s))
}

func (m *metrics) addPulses(s core.Side, n int) {
	m.pulses.Add(context.Background(), int64(n), sideAttr(s))
}

func (m *metrics) addWallsReached(s core.Side) {
	m.wallsReached.Add(context.Background(), 1, sideAttr(s))
}
