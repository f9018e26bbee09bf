package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the extension folder.
const FileName = "carrier.cfg.json"

// MemoryConfig holds in-memory/JSON journal backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite journal backend settings
type SQLiteConfig struct {
	// Path is the database file. Empty keeps the journal in memory.
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// InfluxConfig holds settings of the InfluxDB journal backend
type InfluxConfig struct {
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	// Bucket receives carrier events; status snapshots go to a separate
	// performance bucket.
	Bucket    string        `json:"bucket" mapstructure:"bucket"`
	Retention time.Duration `json:"retention" mapstructure:"retention"`
	// BackupPath receives gzipped line protocol when the server is unreachable.
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Influx InfluxConfig `json:"influx" mapstructure:"influx"`
}

// PostgresConfig holds the connection settings of the postgres backend
type PostgresConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// MonitorConfig holds status monitor settings
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
	// StatusFile is relative to the logs directory.
	StatusFile string
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// setDefaults registers every default. It is safe to call repeatedly.
func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./carrierlogs")

	viper.SetDefault("Banner.MoraleRadius", 5)
	viper.SetDefault("Banner.MoraleDropWhenBannermanKilled", 10)
	viper.SetDefault("Banner.MaximumMoraleWhenAroundAllyBannerman", 40)
	viper.SetDefault("Banner.CarrierTroopCost", 10)
	viper.SetDefault("Banner.MoraleTickInterval", "5s")

	viper.SetDefault("Banner.PerInfantry", 5)
	viper.SetDefault("Banner.PerCavalry", 5)
	viper.SetDefault("Banner.PerArcher", 5)
	viper.SetDefault("Banner.PerHorseArcher", 5)
	viper.SetDefault("Banner.PerSkirmisher", 5)
	viper.SetDefault("Banner.PerHeavyInfantry", 5)
	viper.SetDefault("Banner.PerHeavyCavalry", 5)
	viper.SetDefault("Banner.PerLightCavalry", 2)

	viper.SetDefault("Banner.AllowSiegeAttackers", true)
	viper.SetDefault("Banner.AllowSiegeDefenders", false)
	viper.SetDefault("Banner.AllowRaidAttackers", true)
	viper.SetDefault("Banner.AllowRaidDefenders", false)
	viper.SetDefault("Banner.AllowInHideout", false)
	viper.SetDefault("Banner.AllowMoraleBoostWhenBannermenReachWalls", true)
	viper.SetDefault("Banner.AllowBannermenReachedMessageAndSound", true)
	viper.SetDefault("Banner.UseRealTroopSystem", false)
	viper.SetDefault("Banner.GiveSwordToHand", true)
	viper.SetDefault("Banner.ExemptBannermenFromMoralePenalty", true)

	viper.SetDefault("Extra.AlsoUseTorchAtNight", false)
	viper.SetDefault("Extra.AllowNonNobleArmiesToCarryBanner", false)
	viper.SetDefault("Extra.UseTierBasedBannerman", true)
	viper.SetDefault("Extra.UseResponsiveUnits", true)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./journals")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "30s")
	viper.SetDefault("storage.influx.backupPath", "./journals/influx_backup.lp.gz")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "carrier")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "carrier-metrics")
	viper.SetDefault("influx.bucket", "carrier_journal")
	viper.SetDefault("influx.retention", "2160h")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "status.json")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "banner-carrier")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetStorageConfig returns the journal storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Influx: InfluxConfig{
			Protocol:   viper.GetString("influx.protocol"),
			Host:       viper.GetString("influx.host"),
			Port:       viper.GetString("influx.port"),
			Token:      viper.GetString("influx.token"),
			Org:        viper.GetString("influx.org"),
			Bucket:     viper.GetString("influx.bucket"),
			Retention:  viper.GetDuration("influx.retention"),
			BackupPath: viper.GetString("storage.influx.backupPath"),
		},
	}
}

// GetPostgresConfig returns the db.* connection settings.
func GetPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		Interval:   viper.GetDuration("monitor.interval"),
		StatusFile: viper.GetString("monitor.statusFile"),
	}
}

// GetGraylogConfig returns the GELF shipping settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
