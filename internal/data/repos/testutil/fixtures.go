package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
)

func audited() types.AuditedEntity {
	now := time.Now().UTC()
	return types.AuditedEntity{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now, Version: 1}
}

func SeedStation(tb testing.TB, ctx context.Context, tx *gorm.DB, name, ownerID string, loc types.Location) *types.Station {
	tb.Helper()
	st := &types.Station{
		AuditedEntity: audited(),
		Name:          name,
		OwnerID:       ownerID,
		TotalCapacity: 100,
		Location:      loc,
	}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed station: %v", err)
	}
	return st
}

func SeedPlatform(tb testing.TB, ctx context.Context, tx *gorm.DB, stationID, trackID string, capacity int) *types.Platform {
	tb.Helper()
	p := &types.Platform{
		ID:               uuid.NewString(),
		StationID:        stationID,
		ConnectedTrackID: trackID,
		Capacity:         capacity,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed platform: %v", err)
	}
	return p
}

func SeedTrack(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID string, startJunction, endJunction *string) *types.Track {
	tb.Helper()
	tr := &types.Track{
		AuditedEntity:   audited(),
		OwnerID:         ownerID,
		Length:          100,
		MaxSpeed:        80,
		StartJunctionID: startJunction,
		EndJunctionID:   endJunction,
	}
	if err := tx.WithContext(ctx).Create(tr).Error; err != nil {
		tb.Fatalf("seed track: %v", err)
	}
	return tr
}

func SeedSignal(tb testing.TB, ctx context.Context, tx *gorm.DB, trackID string, st types.SignalType) *types.Signal {
	tb.Helper()
	s := &types.Signal{
		ID:         uuid.NewString(),
		TrackID:    trackID,
		SignalType: st,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed signal: %v", err)
	}
	return s
}

func SeedTrain(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID string, tt types.TrainType, playerControlled bool) *types.Train {
	tb.Helper()
	tr := &types.Train{
		AuditedEntity:      audited(),
		OwnerID:            ownerID,
		TrainType:          tt,
		TotalCapacity:      400,
		DoorCount:          8,
		IsPlayerControlled: playerControlled,
	}
	if err := tx.WithContext(ctx).Create(tr).Error; err != nil {
		tb.Fatalf("seed train: %v", err)
	}
	return tr
}

func SeedSchedule(tb testing.TB, ctx context.Context, tx *gorm.DB, trainID, routeID string) *types.Schedule {
	tb.Helper()
	s := &types.Schedule{
		AuditedEntity: audited(),
		TrainID:       trainID,
		RouteID:       routeID,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return s
}

func SeedStopTime(tb testing.TB, ctx context.Context, tx *gorm.DB, scheduleID, stationID string, seq int, arrive, depart types.TimeOfDay) *types.StopTime {
	tb.Helper()
	st := &types.StopTime{
		ID:            uuid.NewString(),
		ScheduleID:    scheduleID,
		StationID:     stationID,
		ArrivalTime:   arrive,
		DepartureTime: depart,
		SequenceOrder: seq,
	}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed stop time: %v", err)
	}
	return st
}
