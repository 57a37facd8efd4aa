package railway

// Filters are conjunctions of their non-nil fields. A nil field does not constrain the result.

// Order sorts by an allow-listed column. Unknown columns are rejected by the store.
type Order struct {
	Column string
	Desc   bool
}

// Page bounds a result set; zero values mean "no bound".
type Page struct {
	Limit  int
	Offset int
}

// BoundingBox is inclusive on every edge.
type BoundingBox struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

func (b BoundingBox) Contains(l Location) bool {
	return l.X >= b.MinX && l.X <= b.MaxX && l.Y >= b.MinY && l.Y <= b.MaxY
}

type StationFilter struct {
	Name             *string
	OwnerID          *string
	ConnectedTrackID *string
	Within           *BoundingBox
	MinTotalCapacity *int

	OrderBy []Order
	Page    Page
}

type PlatformFilter struct {
	StationID        *string
	ConnectedTrackID *string
	MinCapacity      *int

	OrderBy []Order
}

type GateFilter struct {
	StationID         *string
	MinProcessingTime *float64
	MinCapacity       *int
	MaxCapacity       *int

	OrderBy []Order
}

type TrackFilter struct {
	OwnerID         *string
	TouchesJunction *string
	MinMaxSpeed     *float64
	MinLength       *float64
	MaxLength       *float64

	OrderBy []Order
	Page    Page
}

type SignalFilter struct {
	TrackID         *string
	SignalType      *SignalType
	ProtectsTrackID *string

	OrderBy []Order
}

type TrainFilter struct {
	OwnerID            *string
	TrainType          *TrainType
	GroupID            *string
	IsPlayerControlled *bool
	AssignedRouteID    *string
	MinTotalCapacity   *int

	OrderBy []Order
	Page    Page
}

type CarFilter struct {
	TrainID     *string
	MinCapacity *int
	DoorCount   *int

	OrderBy []Order
}

type ScheduleFilter struct {
	TrainID *string
	RouteID *string

	OrderBy []Order
	Page    Page
}

// StopTimeFilter's time bounds are strict: ArrivalAfter keeps arrivals later than the
// threshold and DepartureBefore keeps departures earlier than it.
type StopTimeFilter struct {
	ScheduleID      *string
	StationID       *string
	ArrivalAfter    *TimeOfDay
	DepartureBefore *TimeOfDay

	OrderBy []Order
}

// Ptr is a convenience for building filters from literals.
func Ptr[T any](v T) *T { return &v }
