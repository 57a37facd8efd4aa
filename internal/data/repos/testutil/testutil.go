package testutil

import (
	"os"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/rushhourgame/railnet/internal/data/db"
	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	pgOnce sync.Once
	pgDB   *db.Service
	pgErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// TestDB is a migrated database handle plus the statement counter installed on it.
type TestDB struct {
	DB      *gorm.DB
	Queries *observability.QueryCounter
}

// DB returns a freshly migrated database. By default it is a private SQLite in-memory
// database; with TEST_POSTGRES_DSN set it is the shared Postgres database with railway
// tables truncated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	return Open(tb).DB
}

func Open(tb testing.TB) *TestDB {
	tb.Helper()
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		return openPostgres(tb, dsn)
	}
	counter := observability.NewQueryCounter(nil)
	svc, err := db.NewService(db.Options{
		Driver:   db.DriverSQLite,
		DSN:      db.SQLiteMemoryDSN(tb.Name()),
		LogLevel: "silent",
	}, Logger(tb), counter)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	counter.Reset()
	return &TestDB{DB: svc.DB(), Queries: counter}
}

var pgCounter = observability.NewQueryCounter(nil)

func openPostgres(tb testing.TB, dsn string) *TestDB {
	tb.Helper()
	pgOnce.Do(func() {
		pgDB, pgErr = db.NewService(db.Options{
			Driver:   db.DriverPostgres,
			DSN:      dsn,
			LogLevel: "silent",
		}, Logger(tb), pgCounter)
		if pgErr != nil {
			return
		}
		pgErr = pgDB.AutoMigrateAll()
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	truncate := `TRUNCATE station, platform, gate, corridor, station_connected_track,
		track, track_curve_point, signal, signal_protected_track,
		train, car, schedule, stop_time CASCADE`
	if err := pgDB.DB().Exec(truncate).Error; err != nil {
		tb.Fatalf("truncate: %v", err)
	}
	pgCounter.Reset()
	return &TestDB{DB: pgDB.DB(), Queries: pgCounter}
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
