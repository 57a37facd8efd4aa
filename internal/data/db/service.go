package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/rushhourgame/railnet/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	// LogLevel is one of silent, error, warn, info.
	LogLevel string
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// NewService opens the configured database. Plugins are registered before the handle is returned.
func NewService(opts Options, logg *logger.Logger, plugins ...gorm.Plugin) (*Service, error) {
	serviceLog := logg.With("service", "DBService", "driver", opts.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             durationOr(opts.SlowThreshold, time.Second),
			LogLevel:                  parseGormLogLevel(opts.LogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	switch driver {
	case DriverPostgres, "":
		driver = DriverPostgres
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		dialector = postgres.Open(opts.DSN)
	case DriverSQLite:
		dsn := opts.DSN
		if strings.TrimSpace(dsn) == "" {
			dsn = SQLiteMemoryDSN("railnet")
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One connection keeps the shared in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	for _, p := range plugins {
		if p == nil {
			continue
		}
		if err := gdb.Use(p); err != nil {
			return nil, fmt.Errorf("register gorm plugin %s: %w", p.Name(), err)
		}
	}

	serviceLog.Info("database connected")
	return &Service{db: gdb, log: serviceLog, driver: driver}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var memorySeq atomic.Int64

// SQLiteMemoryDSN names a private shared-cache in-memory database with foreign keys on.
func SQLiteMemoryDSN(name string) string {
	name = strings.NewReplacer("/", "_", " ", "_", "?", "_", "&", "_").Replace(strings.TrimSpace(name))
	if name == "" {
		name = "railnet"
	}
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, memorySeq.Add(1))
}

func parseGormLogLevel(v string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
