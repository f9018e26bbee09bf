package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// captureStdout points osStdout at a pipe; the returned func restores it and
// yields what was written.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)
	orig := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = orig
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}

func TestSetup_Sinks(t *testing.T) {
	t.Run("file only", func(t *testing.T) {
		restore := captureStdout(t)
		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", nil)
		m.Logger().Info("carrier placed", "formation", "infantry")

		assert.Empty(t, restore())
		assert.Contains(t, file.String(), "carrier placed")
		assert.Contains(t, file.String(), "formation=infantry")
	})

	t.Run("stdout without file", func(t *testing.T) {
		restore := captureStdout(t)
		m := NewSlogManager()
		m.Setup(nil, "info", nil)
		m.Logger().Info("relay idle")

		assert.Contains(t, restore(), "relay idle")
	})

	t.Run("graylog gets json", func(t *testing.T) {
		var file, gelf bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", nil, Options{Graylog: &gelf})
		m.Logger().Warn("carrier lost", "side", "attacker")

		assert.Contains(t, file.String(), "carrier lost")
		assert.Contains(t, gelf.String(), `"msg":"carrier lost"`)
		assert.Contains(t, gelf.String(), `"side":"attacker"`)
	})

	t.Run("otel bridge", func(t *testing.T) {
		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", sdklog.NewLoggerProvider())
		m.Logger().Info("bridged")

		assert.Contains(t, file.String(), "bridged")
		assert.NoError(t, m.Flush(context.Background()))
	})
}

func TestSetup_Level(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		warning bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"error", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tt.level, nil)
			m.Logger().Debug("tick queued")
			m.Logger().Warn("morale low")

			assert.Equal(t, tt.debug, strings.Contains(buf.String(), "tick queued"))
			assert.Equal(t, tt.warning, strings.Contains(buf.String(), "morale low"))
		})
	}
}

func TestSetup_ReplacesPipeline(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	old := m.Logger()
	m.Setup(&second, "info", nil)

	m.Logger().Info("after")
	old.Info("before")

	assert.NotContains(t, first.String(), "after")
	assert.Contains(t, first.String(), "before")
	assert.Contains(t, second.String(), "after")
}

func TestSetup_StampsBattle(t *testing.T) {
	var buf bytes.Buffer
	var battle string
	m := NewSlogManager()
	m.Setup(&buf, "info", nil, Options{Battle: func() []slog.Attr {
		if battle == "" {
			return nil
		}
		return []slog.Attr{slog.String("battle", battle)}
	}})

	relay := m.Component("relay")
	relay.Info("between battles")
	battle = "b-1"
	relay.Info("first")
	battle = "b-2"
	relay.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.NotContains(t, lines[1], "battle=")
	assert.Contains(t, lines[1], "component=relay")
	assert.Contains(t, lines[2], "battle=b-1")
	assert.Contains(t, lines[3], "battle=b-2")
}

func TestManager_BeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		" info ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"trace":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "%q", in)
	}
}

type failingSink struct{ slog.Handler }

func (failingSink) Enabled(context.Context, slog.Level) bool  { return true }
func (failingSink) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestFanout(t *testing.T) {
	var info, debug bytes.Buffer
	infoSink := slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	debugSink := slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	f := newFanout(nil, infoSink, nil, debugSink)
	require.Len(t, f, 2)
	assert.True(t, f.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newFanout(infoSink).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newFanout().Enabled(context.Background(), slog.LevelError))

	logger := slog.New(f).With("side", "defender").WithGroup("order")
	logger.Debug("relayed", "kind", "charge")

	assert.Empty(t, info.String())
	assert.Contains(t, debug.String(), "side=defender")
	assert.Contains(t, debug.String(), "order.kind=charge")
	assert.Equal(t, f, f.WithGroup(""))
}

func TestFanout_JoinsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	f := newFanout(failingSink{}, slog.NewTextHandler(&buf, nil))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still delivered", 0)
	err := f.Handle(context.Background(), r)
	assert.EqualError(t, err, "sink down")
	assert.Contains(t, buf.String(), "still delivered")
}
