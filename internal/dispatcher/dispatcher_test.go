package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cmdTick    = "mission_tick"
	cmdRemoved = "unit_removed"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s %s %v", level, msg, kv))
}

func (l *recordingLogger) Debug(msg string, kv ...any) { l.add("DEBUG", msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...any)  { l.add("INFO", msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...any) { l.add("ERROR", msg, kv) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if strings.HasPrefix(line, level+" ") {
			n++
		}
	}
	return n
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingLogger) {
	t.Helper()
	logger := &recordingLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	return d, logger
}

func TestDispatch_DeliversPayload(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register(cmdRemoved, func(e Event) (any, error) {
		got = e
		return "released", nil
	})

	res, err := d.Dispatch(Event{Command: cmdRemoved, Payload: "carrier-7"})
	require.NoError(t, err)
	assert.Equal(t, "released", res)
	assert.Equal(t, "carrier-7", got.Payload)
	assert.False(t, got.Timestamp.IsZero(), "dispatch stamps the event")
}

func TestDispatch_KeepsTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	var got time.Time
	d.Register(cmdTick, func(e Event) (any, error) {
		got = e.Timestamp
		return nil, nil
	})
	_, err := d.Dispatch(Event{Command: cmdTick, Timestamp: at})
	require.NoError(t, err)
	assert.Equal(t, at, got)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(Event{Command: "siege_engine_built"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "siege_engine_built")
}

func TestDispatch_FanOutInRegistrationOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	failure := errors.New("controller faulted")

	var order []string
	d.Register(cmdTick, func(Event) (any, error) {
		order = append(order, "controller")
		return nil, failure
	})
	d.Register(cmdTick, func(Event) (any, error) {
		order = append(order, "relay")
		return 2, nil
	})
	d.Register(cmdTick, func(Event) (any, error) {
		order = append(order, "journal")
		return 5, nil
	})

	res, err := d.Dispatch(Event{Command: cmdTick})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 2, res, "first non-nil result wins")
	assert.Equal(t, []string{"controller", "relay", "journal"}, order)
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d, _ := newTestDispatcher(t)
	reached := false
	d.Register(cmdRemoved, func(Event) (any, error) { panic("nil agent") })
	d.Register(cmdRemoved, func(Event) (any, error) {
		reached = true
		return nil, nil
	})

	_, err := d.Dispatch(Event{Command: cmdRemoved})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil agent")
	assert.True(t, reached)
}

func TestLogged(t *testing.T) {
	d, logger := newTestDispatcher(t)
	d.Register(cmdTick, func(Event) (any, error) { return nil, nil }, Logged())
	d.Register(cmdRemoved, func(Event) (any, error) { return nil, errors.New("no such agent") }, Logged())

	_, err := d.Dispatch(Event{Command: cmdTick})
	require.NoError(t, err)
	assert.Equal(t, 2, logger.count("DEBUG"))
	assert.Zero(t, logger.count("ERROR"))

	_, err = d.Dispatch(Event{Command: cmdRemoved})
	require.Error(t, err)
	assert.Equal(t, 1, logger.count("ERROR"))
}

func TestHasHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(cmdTick, func(Event) (any, error) { return nil, nil })

	assert.True(t, d.HasHandler(cmdTick))
	assert.False(t, d.HasHandler(cmdRemoved))
}

func TestDispatch_ConcurrentRegister(t *testing.T) {
	d, _ := newTestDispatcher(t)
	d.Register(cmdTick, func(Event) (any, error) { return nil, nil })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Register(cmdRemoved, func(Event) (any, error) { return nil, nil })
		}()
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch(Event{Command: cmdTick})
		}()
	}
	wg.Wait()
	assert.True(t, d.HasHandler(cmdRemoved))
}
