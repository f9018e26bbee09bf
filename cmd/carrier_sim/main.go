// Command carrier_sim plays a scripted battle against the simulated host with
// the banner carrier controller attached, journaling everything it does.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/dispatcher"
	"github.com/bannercarrier/extension/internal/handlers"
	"github.com/bannercarrier/extension/internal/influx"
	"github.com/bannercarrier/extension/internal/journal"
	"github.com/bannercarrier/extension/internal/logging"
	"github.com/bannercarrier/extension/internal/mission"
	"github.com/bannercarrier/extension/internal/monitor"
	intOtel "github.com/bannercarrier/extension/internal/otel"
	"github.com/bannercarrier/extension/internal/sim"
	"github.com/bannercarrier/extension/internal/storage"
	"github.com/bannercarrier/extension/pkg/core"
	"github.com/bannercarrier/extension/pkg/host"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "banner_carrier"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// GraylogWriter is the GELF writer
	GraylogWriter *gelf.Writer

	SessionStartTime time.Time = time.Now()
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet(ExtensionName, pflag.ContinueOnError)
	scenarioPath := flags.StringP("scenario", "s", "scenarios/siege_assault.yaml", "scenario file to play")
	configDir := flags.StringP("config", "c", ".", "directory holding "+config.FileName)
	flags.String("storage", "", "journal backend: memory, sqlite, postgres or influx")
	flags.String("log-level", "", "DEBUG, INFO, WARN or ERROR")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "%s %s (built %s)\n", ExtensionName, CurrentExtensionVersion, BuildDate)
		return nil
	}

	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage"))
	_ = viper.BindPFlag("logLevel", flags.Lookup("log-level"))

	missionCtx := mission.NewContext()
	logFile, err := setupLogging(missionCtx)
	if err != nil {
		return err
	}
	defer logFile.Close()
	defer shutdownTelemetry()

	scn, err := sim.LoadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	m, err := sim.Build(scn)
	if err != nil {
		return fmt.Errorf("building scenario %q: %w", scn.Name, err)
	}

	zlog := logging.NewZerolog(logFile, viper.GetString("logLevel"))
	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, zlog)
	if err != nil {
		return err
	}
	rec, err := journal.New(journal.Dependencies{Backend: backend, Logger: zlog})
	if err != nil {
		return err
	}
	if err := rec.Start(); err != nil {
		return fmt.Errorf("starting journal on %s storage: %w", storageCfg.Type, err)
	}

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		_ = rec.Close()
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	handlerService := handlers.NewService(handlers.Dependencies{
		Logger:         SlogManager.Component("handlers"),
		Journal:        rec,
		MissionContext: missionCtx,
		ConfigDir:      *configDir,
		Config:         config.GetCarrierConfig(),
		Seed:           scn.Seed,
	})
	handlerService.RegisterHandlers(eventDispatcher)

	if _, err := eventDispatcher.Dispatch(dispatcher.Event{Command: host.CmdSessionLaunched}); err != nil {
		Logger.Warn("Session launched without a config file", "error", err)
	}

	monitorService := startMonitor(missionCtx, rec, backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	Logger.Info("Playing scenario", "name", scn.Name, "path", *scenarioPath, "seed", scn.Seed)
	summary, runErr := sim.NewRunner(m, scn, eventDispatcher, Logger).Run(ctx)

	if monitorService != nil {
		monitorService.Stop()
	}
	// The runner ended the battle; read it back before the backend closes.
	printSummary(stdout, scn, summary, rec, backend)
	if err := rec.Close(); err != nil {
		Logger.Error("Failed to close journal", "error", err)
	}
	return runErr
}

// setupLogging opens the session log file and rebuilds the slog pipeline with
// file output, OTel and Graylog when enabled.
func setupLogging(missionCtx *mission.Context) (*os.File, error) {
	logFile, logFilePath, err := logging.OpenLogFile(viper.GetString("logsDir"), ExtensionName, SessionStartTime)
	if err != nil {
		return nil, err
	}
	Logger.Info("Begin logging in logs directory", "path", logFilePath)

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		providerCfg := intOtel.FromConfig(otelCfg, logFile)
		providerCfg.ServiceVersion = CurrentExtensionVersion
		OTelProvider, err = intOtel.New(providerCfg)
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	opts := logging.Options{Battle: missionCtx.LogAttrs}
	graylogCfg := config.GetGraylogConfig()
	if graylogCfg.Enabled {
		GraylogWriter, err = gelf.NewWriter(graylogCfg.Address)
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err, "address", graylogCfg.Address)
		} else {
			opts.Graylog = GraylogWriter
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, opts)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logFilePath, "version", CurrentExtensionVersion)
	return logFile, nil
}

// startMonitor runs the status monitor when enabled. Status points go to the
// performance bucket when journaling to InfluxDB.
func startMonitor(missionCtx *mission.Context, rec *journal.Recorder, backend storage.Backend) *monitor.Service {
	cfg := config.GetMonitorConfig()
	if !cfg.Enabled {
		return nil
	}

	deps := monitor.Dependencies{
		Logger:         SlogManager.Component("monitor"),
		MissionContext: missionCtx,
		Journal:        rec,
		Interval:       cfg.Interval,
	}
	if cfg.StatusFile != "" {
		deps.StatusPath = filepath.Join(viper.GetString("logsDir"), cfg.StatusFile)
	}
	if ib, ok := backend.(*influx.Backend); ok {
		deps.Influx = ib.Manager()
	}

	s := monitor.NewService(deps)
	if err := s.Start(); err != nil {
		Logger.Error("Failed to start status monitor", "error", err)
		return nil
	}
	return s
}

func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := SlogManager.Flush(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "flushing logs:", err)
	}
	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "shutting down OTel:", err)
		}
	}
	if GraylogWriter != nil {
		_ = GraylogWriter.Close()
	}
}

func printSummary(w io.Writer, scn *sim.Scenario, s sim.Summary, rec *journal.Recorder, backend storage.Backend) {
	fmt.Fprintf(w, "scenario:      %s\n", scn.Name)
	fmt.Fprintf(w, "steps:         %d\n", s.Steps)
	fmt.Fprintf(w, "orders:        %d\n", s.Orders)
	fmt.Fprintf(w, "voices:        %d\n", s.Voices)
	fmt.Fprintf(w, "removed:       %d\n", s.Removed)
	fmt.Fprintf(w, "notifications: %d\n", s.Notifications)

	sides := make([]core.Side, 0, len(s.Morale))
	for side := range s.Morale {
		sides = append(sides, side)
	}
	sort.Slice(sides, func(i, j int) bool { return sides[i] < sides[j] })
	for _, side := range sides {
		fmt.Fprintf(w, "morale %-8s %.1f\n", side.String()+":", s.Morale[side])
	}

	fmt.Fprintf(w, "journaled:     %d (dropped %d)\n", rec.Written(), rec.Dropped())
	switch b := backend.(type) {
	case storage.Exportable:
		if b.GetExportedFilePath() == "" {
			return
		}
		meta := b.GetExportMetadata()
		fmt.Fprintf(w, "carriers:      %d placed, %d lost\n", meta.CarriersPlaced, meta.CarriersLost)
		fmt.Fprintf(w, "export:        %s\n", b.GetExportedFilePath())
	case storage.Reader:
		if s.BattleID == "" {
			return
		}
		events, err := b.Events(s.BattleID)
		if err != nil {
			Logger.Error("Failed to read journal back", "battle", s.BattleID, "error", err)
			return
		}
		meta := storage.Summarize(s.BattleID, events)
		fmt.Fprintf(w, "carriers:      %d placed, %d lost\n", meta.CarriersPlaced, meta.CarriersLost)
		fmt.Fprintf(w, "stored:        %d events\n", meta.EventCount)
	}
}
