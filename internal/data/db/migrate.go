package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureIndexes creates the composite indexes that struct tags cannot express.
// Every statement is idempotent and valid on both Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		// Bounding-box lookups over station location.
		{"idx_station_location_xy", `CREATE INDEX IF NOT EXISTS idx_station_location_xy ON station (location_x, location_y)`},
		// FindByName picks the earliest-created row.
		{"idx_station_name_created", `CREATE INDEX IF NOT EXISTS idx_station_name_created ON station (name, created_at)`},
		{"idx_train_owner_player", `CREATE INDEX IF NOT EXISTS idx_train_owner_player ON train (owner_id, is_player_controlled)`},
		{"idx_stop_time_schedule_station", `CREATE INDEX IF NOT EXISTS idx_stop_time_schedule_station ON stop_time (schedule_id, station_id)`},
		{"idx_car_train_order", `CREATE INDEX IF NOT EXISTS idx_car_train_order ON car (train_id, sequence_order)`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating railway tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
