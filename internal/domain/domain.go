package domain

import "github.com/rushhourgame/railnet/internal/domain/railway"

const (
	TrainTypeLocal          = railway.TrainTypeLocal
	TrainTypeRapid          = railway.TrainTypeRapid
	TrainTypeExpress        = railway.TrainTypeExpress
	TrainTypeLimitedExpress = railway.TrainTypeLimitedExpress

	SignalTypeBlock    = railway.SignalTypeBlock
	SignalTypePath     = railway.SignalTypePath
	SignalTypeAbsolute = railway.SignalTypeAbsolute
	SignalTypeShunting = railway.SignalTypeShunting
)

var (
	ErrInvalid           = railway.ErrInvalid
	ErrDuplicateSequence = railway.ErrDuplicateSequence
)

type AuditedEntity = railway.AuditedEntity
type Location = railway.Location
type Point3D = railway.Point3D
type TimeOfDay = railway.TimeOfDay

type TrainType = railway.TrainType
type SignalType = railway.SignalType
type JunctionType = railway.JunctionType
type TrainOperationState = railway.TrainOperationState

type Station = railway.Station
type Platform = railway.Platform
type Gate = railway.Gate
type Corridor = railway.Corridor
type StationConnectedTrack = railway.StationConnectedTrack

type Track = railway.Track
type CurvePoint = railway.CurvePoint
type Signal = railway.Signal
type SignalProtectedTrack = railway.SignalProtectedTrack

type Train = railway.Train
type Car = railway.Car

type Schedule = railway.Schedule
type StopTime = railway.StopTime

type Order = railway.Order
type Page = railway.Page
type BoundingBox = railway.BoundingBox
type StationFilter = railway.StationFilter
type PlatformFilter = railway.PlatformFilter
type GateFilter = railway.GateFilter
type TrackFilter = railway.TrackFilter
type SignalFilter = railway.SignalFilter
type TrainFilter = railway.TrainFilter
type CarFilter = railway.CarFilter
type ScheduleFilter = railway.ScheduleFilter
type StopTimeFilter = railway.StopTimeFilter

// AllModels lists every persisted model in dependency order (roots before children).
func AllModels() []any {
	return []any{
		&Station{},
		&Platform{},
		&Gate{},
		&Corridor{},
		&StationConnectedTrack{},

		&Track{},
		&CurvePoint{},
		&Signal{},
		&SignalProtectedTrack{},

		&Train{},
		&Car{},
		&Schedule{},
		&StopTime{},
	}
}
