package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// indirections for tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

// otelScope names the instrumentation scope of bridged records.
const otelScope = "banner-carrier"

// SlogManager owns the process slog pipeline: a text sink (file or stdout),
// an optional GELF sink and an optional OTel log bridge.
type SlogManager struct {
	logger      *slog.Logger
	logProvider *sdklog.LoggerProvider
}

// Options are the optional sinks of Setup.
type Options struct {
	// Graylog receives JSON records, typically a *gelf.Writer.
	Graylog io.Writer
	// Battle stamps the running battle on every record.
	Battle AttrSource
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a slog level.
// Anything else is INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// utcTime renders record times as RFC 3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the pipeline. Records go to file when given, to stdout
// otherwise. A nil provider disables the OTel bridge. Loggers handed out by
// an earlier Setup keep their old sinks.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Options) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	m.logProvider = provider

	hopts := &slog.HandlerOptions{Level: ParseLevel(level), ReplaceAttr: utcTime}
	out := file
	if out == nil {
		out = osStdout
	}

	sinks := []slog.Handler{slog.NewTextHandler(out, hopts)}
	if o.Graylog != nil {
		sinks = append(sinks, slog.NewJSONHandler(o.Graylog, hopts))
	}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler(otelScope, otelslog.WithLoggerProvider(provider)))
	}

	var h slog.Handler = newFanout(sinks...)
	if o.Battle != nil {
		h = battleStamp{next: h, source: o.Battle}
	}
	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", ParseLevel(level).String())
}

// Logger returns the configured logger, slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Component returns the logger tagged with component=name.
func (m *SlogManager) Component(name string) *slog.Logger {
	return m.Logger().With("component", name)
}

// Flush pushes buffered OTel records to the exporter.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider == nil {
		return nil
	}
	return m.logProvider.ForceFlush(ctx)
}
