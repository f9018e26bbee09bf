// Package database opens and migrates the GORM connections behind the
// sqlite and postgres journal backends.
package database

import (
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bannercarrier/extension/internal/config"
	"github.com/bannercarrier/extension/internal/model"
)

// SchemaVersion is written to journal_infos on first migration.
const SchemaVersion = "1"

const (
	memoryDSN        = "file::memory:?cache=shared"
	postgresMaxConns = 10
)

// sqlitePragmas trade durability for write speed; file journals are
// snapshotted with Snapshot instead.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
}

// PostgresDSN renders c as a libpq keyword/value string. SSL is off unless
// c.SSLMode says otherwise.
func PostgresDSN(c config.PostgresConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
}

// OpenPostgres connects and pings the server.
func OpenPostgres(c config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(c),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(postgresMaxConns)
	return db, nil
}

// OpenSQLite opens the database file at path, or a shared in-memory database
// when path is empty.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = memoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Migrate creates the journal tables, and the journal_infos row on first run.
func Migrate(db *gorm.DB) error {
	if !db.Migrator().HasTable(&model.JournalInfo{}) {
		if err := db.AutoMigrate(&model.JournalInfo{}); err != nil {
			return fmt.Errorf("failed to create journal_infos table: %w", err)
		}
		info := model.JournalInfo{
			Name:        "carrier-journal",
			Description: "Banner carrier battle journal",
			Version:     SchemaVersion,
		}
		if err := db.Create(&info).Error; err != nil {
			return fmt.Errorf("failed to create journal_infos entry: %w", err)
		}
	}
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Snapshot writes a point-in-time copy of a SQLite db to path with VACUUM
// INTO, replacing any existing file.
func Snapshot(db *gorm.DB, path string) error {
	if path == "" {
		return fmt.Errorf("snapshot path not set")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing previous snapshot: %w", err)
	}
	target := "file:" + strings.ReplaceAll(path, "'", "''")
	if err := db.Exec("VACUUM INTO '" + target + "';").Error; err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	return nil
}

// Conn is a journal connection that may have fallen back from Postgres to
// SQLite.
type Conn struct {
	DB *gorm.DB
	// Local is set when Postgres was unreachable.
	Local bool
}

// Connect opens Postgres, falling back to SQLite at fallbackPath (in memory
// when empty) if the server cannot be reached.
func Connect(pg config.PostgresConfig, fallbackPath string, log zerolog.Logger) (*Conn, error) {
	log.Debug().Str("host", pg.Host).Str("database", pg.Database).Msg("Connecting to Postgres DB")
	db, err := OpenPostgres(pg)
	if err == nil {
		log.Info().Str("host", pg.Host).Msg("Connected to database")
		return &Conn{DB: db}, nil
	}
	log.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")

	db, err = OpenSQLite(fallbackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open fallback SQLite DB: %w", err)
	}
	if fallbackPath == "" {
		log.Info().Msg("Using local SQLite DB in memory")
	} else {
		log.Info().Str("path", fallbackPath).Msg("Using local SQLite DB")
	}
	return &Conn{DB: db, Local: true}, nil
}

func (c *Conn) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
