package db

import (
	"time"

	"user-server/confs"
	"user-server/entities"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database, tunes the pool and migrates the schema.
func Connect(cfg *confs.DatabaseConfig, log *logrus.Logger) (Database, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case confs.DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	log.WithField("driver", cfg.Driver).Info("connecting to database")

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      newGormLogger(log),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database instance")
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(0)

	log.Info("database connection established")

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("database migrations completed")

	return &GormDatabase{DB: db}, nil
}

// Migrate creates or updates the users and books tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.User{}, &entities.Book{}); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

func newGormLogger(log *logrus.Logger) logger.Interface {
	level := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		level = logger.Info
	}
	return logger.New(log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
