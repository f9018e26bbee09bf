// Package influx writes the battle journal to InfluxDB as time-series
// points, falling back to a gzipped line-protocol file when the server is
// unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/bannercarrier/extension/internal/config"
)

const (
	defaultJournalBucket = "carrier_journal"
	performanceBucket    = "carrier_performance"
	pingTimeout          = 5 * time.Second
)

// ErrNoBackup is returned by Connect when the server is down and no backup
// path is configured.
var ErrNoBackup = errors.New("influxDB unreachable and no backup path configured")

// Manager owns the client, one write API per bucket and the backup file.
type Manager struct {
	cfg     config.InfluxConfig
	buckets [2]string
	log     zerolog.Logger

	client  influxdb2.Client
	writers map[string]influxdb2_api.WriteAPI
	online  bool

	mu sync.Mutex
	// BackupWriter receives line protocol while offline. Connect opens it on
	// BackupPath unless already set.
	BackupWriter *gzip.Writer
	backupFile   *os.File
}

func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	journal := cfg.Bucket
	if journal == "" {
		journal = defaultJournalBucket
	}
	return &Manager{
		cfg:     cfg,
		buckets: [2]string{journal, performanceBucket},
		log:     log,
		writers: make(map[string]influxdb2_api.WriteAPI),
	}
}

// URL is the server address built from protocol, host and port.
func (m *Manager) URL() string {
	return fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
}

// Online reports whether points go to the server rather than the backup.
func (m *Manager) Online() bool {
	return m.online
}

// JournalBucket receives carrier events and battle markers.
func (m *Manager) JournalBucket() string {
	return m.buckets[0]
}

// PerformanceBucket receives status monitor snapshots.
func (m *Manager) PerformanceBucket() string {
	return m.buckets[1]
}

// Connect pings the server and prepares the org, buckets and writers. When
// the server does not answer, points go to the backup file instead.
func (m *Manager) Connect() error {
	m.client = influxdb2.NewClientWithOptions(m.URL(), m.cfg.Token,
		influxdb2.DefaultOptions().SetBatchSize(2500).SetFlushInterval(1000))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if up, err := m.client.Ping(ctx); err != nil || !up {
		m.log.Warn().Err(err).Str("url", m.URL()).Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.ensureBuckets(context.Background()); err != nil {
		return err
	}
	for _, bucket := range m.buckets {
		m.openWriter(bucket)
	}
	m.online = true
	m.log.Info().Str("url", m.URL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return ErrNoBackup
	}
	f, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = f
	m.BackupWriter = gzip.NewWriter(f)
	m.log.Info().Str("backupPath", m.cfg.BackupPath).Msg("InfluxDB backup file opened")
	return nil
}

// ensureBuckets creates the org and both buckets when missing. A zero
// retention keeps data forever.
func (m *Manager) ensureBuckets(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.log.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org); err != nil {
			return fmt.Errorf("creating organization %s: %w", m.cfg.Org, err)
		}
	}

	var rules []domain.RetentionRule
	if m.cfg.Retention > 0 {
		expire := domain.RetentionRuleTypeExpire
		rules = append(rules, domain.RetentionRule{Type: &expire, EverySeconds: int64(m.cfg.Retention.Seconds())})
	}

	buckets := m.client.BucketsAPI()
	for _, name := range m.buckets {
		if _, err := buckets.FindBucketByName(ctx, name); err == nil {
			continue
		}
		m.log.Info().Str("bucket", name).Dur("retention", m.cfg.Retention).Msg("Bucket not found, creating")
		if _, err := buckets.CreateBucketWithName(ctx, org, name, rules...); err != nil {
			return fmt.Errorf("creating bucket %s: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) openWriter(bucket string) {
	w := m.client.WriteAPI(m.cfg.Org, bucket)
	m.writers[bucket] = w
	go func(errs <-chan error) {
		for err := range errs {
			m.log.Error().Err(err).Str("bucket", bucket).Msg("Error sending data to InfluxDB")
		}
	}(w.Errors())
}

// WritePoint queues point for bucket, or appends it to the backup while
// offline.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	if m.online {
		w, ok := m.writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket %q not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return errors.New("influxDB not connected and no backup writer")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes the writers and releases the client and backup file.
func (m *Manager) Close() error {
	for _, w := range m.writers {
		w.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}
