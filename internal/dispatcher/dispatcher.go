// Package dispatcher routes host notifications to the handlers subscribed to
// them. Delivery is synchronous: handlers run on the caller's goroutine, in
// registration order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bannercarrier/extension/internal/dispatcher"

// ErrUnknownCommand is returned by Dispatch for commands nobody subscribed to.
var ErrUnknownCommand = errors.New("unknown command")

// Event is a notification raised by the battle engine. Payload holds one of
// the host event structs matching Command.
type Event struct {
	Command   string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	logged bool
}

// Logged logs each delivery at debug level and failures at error level.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

// Dispatcher is safe for concurrent Register and Dispatch.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	logger   Logger

	events   metric.Int64Counter
	duration metric.Float64Histogram
}

// New uses the global OTel meter; instruments are no-ops until a meter
// provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger,
	}

	m := otel.Meter(instrumentationName)
	var err error
	d.events, err = m.Int64Counter(
		"dispatcher.events",
		metric.WithDescription("Events delivered to handlers, by command and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}
	d.duration, err = m.Float64Histogram(
		"dispatcher.handler.duration",
		metric.WithDescription("Time spent in one handler"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return d, nil
}

// Register subscribes h to command. Several handlers may share a command.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	handler := d.instrumented(command, h)
	if o.logged {
		handler = d.withLogging(command, handler)
	}

	d.mu.Lock()
	d.handlers[command] = append(d.handlers[command], handler)
	d.mu.Unlock()
}

// Dispatch delivers e to every handler of its command. It returns the first
// non-nil result and the joined handler errors; a failing handler does not
// stop delivery to the others. A zero Timestamp is set to now.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	hs := d.handlers[e.Command]
	d.mu.RUnlock()
	if len(hs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	var (
		result any
		errs   []error
	)
	for _, h := range hs {
		r, err := h(e)
		if err != nil {
			errs = append(errs, err)
		}
		if result == nil && r != nil {
			result = r
		}
	}
	return result, errors.Join(errs...)
}

// HasHandler reports whether anything is subscribed to command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[command]) > 0
}

// instrumented records the outcome and duration of h, and turns a panic in h
// into an error.
func (d *Dispatcher) instrumented(command string, h HandlerFunc) HandlerFunc {
	cmd := attribute.String("command", command)
	return func(e Event) (result any, err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				result, err = nil, fmt.Errorf("handler for %s panicked: %v", command, r)
			}
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			ctx := context.Background()
			d.events.Add(ctx, 1, metric.WithAttributes(cmd, attribute.String("outcome", outcome)))
			d.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(cmd))
		}()
		return h(e)
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("Handling event", "command", command, "payload", fmt.Sprintf("%T", e.Payload))

		result, err := h(e)
		if err != nil {
			d.logger.Error("Event failed", "command", command, "duration", time.Since(start), "error", err)
			return result, err
		}
		d.logger.Debug("Event handled", "command", command, "duration", time.Since(start))
		return result, nil
	}
}
