package db

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/config"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrUnknownDriver is returned for a STORAGE_DRIVER other than sqlite or postgres.
var ErrUnknownDriver = errors.New("unknown storage driver")

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg config.StorageConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	case "postgres":
		dsn := NormalizeDSN(cfg.DSN)
		if dsn == "" {
			return nil, errors.WithHint(errors.New("postgres driver selected without DSN"), "set DATABASE_DSN")
		}
		return postgres.Open(dsn), nil
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "%q", cfg.Driver)
	}
}

// ConnectAndMigrate opens the configured database and creates the slot table.
// Postgres may still be starting, so opening is retried a few times.
func ConnectAndMigrate(cfg config.StorageConfig, log *logger.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
		if err == nil {
			break
		}
		log.Warnf("database connection attempt %d/%d to %s failed: %v", i+1, connectAttempts, Target(cfg), err)
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Infof("storage ready driver=%s target=%s", cfg.Driver, Target(cfg))
	return db, nil
}

// Target names the configured database for logs without exposing credentials.
func Target(cfg config.StorageConfig) string {
	if cfg.Driver == "postgres" {
		return RedactDSN(NormalizeDSN(cfg.DSN))
	}
	return cfg.SQLitePath
}

// Migrate applies the GORM schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&storage.Entry{}); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}
