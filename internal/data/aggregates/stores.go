package aggregates

import (
	repos "github.com/rushhourgame/railnet/internal/data/repos/railway"
	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
)

// Stores bundles the four railway aggregate stores over one database.
type Stores struct {
	Stations  domainagg.StationStore
	Tracks    domainagg.TrackStore
	Trains    domainagg.TrainStore
	Schedules domainagg.ScheduleStore
}

// NewStores builds table repos on base.DB and the stores on top of them.
func NewStores(base BaseDeps) *Stores {
	base = base.withDefaults()
	db, log := base.DB, base.Log

	trains := repos.NewTrainRepo(db, log)
	schedules := repos.NewScheduleRepo(db, log)
	stopTimes := repos.NewStopTimeRepo(db, log)

	return &Stores{
		Stations: NewStationStore(StationStoreDeps{
			Base:      base,
			Stations:  repos.NewStationRepo(db, log),
			Platforms: repos.NewPlatformRepo(db, log),
			Gates:     repos.NewGateRepo(db, log),
			Corridors: repos.NewCorridorRepo(db, log),
			Connected: repos.NewStationConnectedTrackRepo(db, log),
		}),
		Tracks: NewTrackStore(TrackStoreDeps{
			Base:      base,
			Tracks:    repos.NewTrackRepo(db, log),
			Curve:     repos.NewCurvePointRepo(db, log),
			Signals:   repos.NewSignalRepo(db, log),
			Protected: repos.NewSignalProtectedTrackRepo(db, log),
		}),
		Trains: NewTrainStore(TrainStoreDeps{
			Base:      base,
			Trains:    trains,
			Cars:      repos.NewCarRepo(db, log),
			Schedules: schedules,
			StopTimes: stopTimes,
		}),
		Schedules: NewScheduleStore(ScheduleStoreDeps{
			Base:      base,
			Trains:    trains,
			Schedules: schedules,
			StopTimes: stopTimes,
		}),
	}
}
