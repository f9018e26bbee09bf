// Package otel builds the OpenTelemetry log pipeline bridged from slog.
// Carrier, relay and dispatcher instruments use the global meter and stay
// no-ops unless the host process installs a meter provider.
package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bannercarrier/extension/internal/config"
)

// ErrNoExporter is returned when OTel is enabled with neither a log writer nor
// an OTLP endpoint.
var ErrNoExporter = errors.New("otel enabled but no log writer or endpoint configured")

type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	BatchTimeout   time.Duration
	// LogWriter receives pretty-printed records, usually the session log file.
	LogWriter io.Writer
	// Endpoint enables OTLP/HTTP export when set.
	Endpoint string
	Insecure bool
}

// FromConfig builds a provider Config from the loaded settings.
func FromConfig(cfg config.OTelConfig, logWriter io.Writer) Config {
	return Config{
		Enabled:      cfg.Enabled,
		ServiceName:  cfg.ServiceName,
		BatchTimeout: cfg.BatchTimeout,
		LogWriter:    logWriter,
		Endpoint:     cfg.Endpoint,
		Insecure:     cfg.Insecure,
	}
}

// Provider owns the log provider. The zero Provider is disabled.
type Provider struct {
	logProvider *sdklog.LoggerProvider
}

// New returns a disabled Provider when cfg.Enabled is false.
func New(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	ctx := context.Background()
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(cfg.ServiceName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	batch := []sdklog.BatchProcessorOption{sdklog.WithExportTimeout(cfg.BatchTimeout)}
	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, batch...)))
	}
	if cfg.Endpoint != "" {
		exp, err := otlploghttp.New(ctx, otlpOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
		}
		opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, batch...)))
	}
	if len(opts) == 1 {
		return nil, ErrNoExporter
	}

	return &Provider{logProvider: sdklog.NewLoggerProvider(opts...)}, nil
}

func otlpOptions(cfg Config) []otlploghttp.Option {
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	return opts
}

// LoggerProvider is nil when disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

func (p *Provider) Enabled() bool {
	return p.logProvider != nil
}

// Shutdown flushes and stops the exporters. Safe on a disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}
