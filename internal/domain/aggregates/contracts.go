package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rushhourgame/railnet/internal/domain/railway"
)

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start/manage atomic DB transactions internally.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy defines how aggregate contracts should expose reads.
type ReadPolicy string

const (
	// ReadPolicyRootScoped returns root scalars and weak id lists only; owned collections stay nil.
	ReadPolicyRootScoped ReadPolicy = "root_scoped_reads"
	// ReadPolicyBatchedRelations loads owned collections through an explicit RelationSet,
	// one batched query per relation regardless of how many roots are loaded.
	ReadPolicyBatchedRelations ReadPolicy = "batched_relation_reads"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicies     []ReadPolicy
	Relations        []Relation
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
// Implementations should return a stable contract description.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Relation names an owned collection of an aggregate root.
type Relation string

const (
	RelationPlatforms Relation = "platforms"
	RelationGates     Relation = "gates"
	RelationCorridors Relation = "corridors"

	RelationCurve   Relation = "curve"
	RelationSignals Relation = "signals"

	RelationCars     Relation = "cars"
	RelationSchedule Relation = "schedule"

	RelationStopTimes Relation = "stop_times"
)

// RelationSet is the eager-load or replace set passed to wide loaders and UpdateReplacing.
type RelationSet map[Relation]struct{}

func Relations(rs ...Relation) RelationSet {
	out := make(RelationSet, len(rs))
	for _, r := range rs {
		out[r] = struct{}{}
	}
	return out
}

func (s RelationSet) Has(r Relation) bool {
	_, ok := s[r]
	return ok
}

func (s RelationSet) Empty() bool { return len(s) == 0 }

func (s RelationSet) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// AllRelations is the set of every owned collection of the contract.
func (c Contract) AllRelations() RelationSet {
	return Relations(c.Relations...)
}

// Check rejects relations the contract does not own.
func (c Contract) Check(op string, rs RelationSet) error {
	var unknown []string
	for r := range rs {
		ok := false
		for _, allowed := range c.Relations {
			if r == allowed {
				ok = true
				break
			}
		}
		if !ok {
			unknown = append(unknown, string(r))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return NewError(CodeValidation, op,
		fmt.Sprintf("unknown relation(s) for %s: %s", c.Name, strings.Join(unknown, ", ")), nil)
}

var StationStoreContract = Contract{
	Name:             "Railway.Station",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicies:     []ReadPolicy{ReadPolicyRootScoped, ReadPolicyBatchedRelations},
	Relations:        []Relation{RelationPlatforms, RelationGates, RelationCorridors},
	Notes:            "Owns platforms, gates and corridors; connected track ids are weak references.",
}

var TrackStoreContract = Contract{
	Name:             "Railway.Track",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicies:     []ReadPolicy{ReadPolicyRootScoped, ReadPolicyBatchedRelations},
	Relations:        []Relation{RelationCurve, RelationSignals},
	Notes:            "Owns curve points and signals; junction ids and signal protected track ids are weak references.",
}

var TrainStoreContract = Contract{
	Name:             "Railway.Train",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicies:     []ReadPolicy{ReadPolicyRootScoped, ReadPolicyBatchedRelations},
	Relations:        []Relation{RelationCars, RelationSchedule},
	Notes:            "Owns cars and one schedule (with its stop times); assigned route id is a weak reference.",
}

var ScheduleStoreContract = Contract{
	Name:             "Railway.Schedule",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicies:     []ReadPolicy{ReadPolicyRootScoped, ReadPolicyBatchedRelations},
	Relations:        []Relation{RelationStopTimes},
	Notes:            "Owned by a train; owns stop times; route and station ids are weak references.",
}

// Store is the contract shared by every aggregate root store.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeIntegrity, CodeRetryable, CodeInternal.
type Store[T any, F any] interface {
	Aggregate

	// Create assigns id (if empty), timestamps and version 1, then persists root and children atomically.
	Create(ctx context.Context, agg *T) (*T, error)
	// GetByID returns root scalars and weak id lists. Owned collections are nil.
	GetByID(ctx context.Context, id string) (*T, bool, error)
	// GetByIDs is a batched GetByID. Missing ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*T, error)
	// Update compares-and-swaps on (id, version) and persists scalars plus weak id lists.
	Update(ctx context.Context, agg *T) (*T, error)
	// UpdateReplacing is Update plus delete-then-reinsert of the named owned collections.
	UpdateReplacing(ctx context.Context, agg *T, replace RelationSet) (*T, error)
	// DeleteByID removes the root and every owned child. Weak references elsewhere are left as is.
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)

	Find(ctx context.Context, f F) ([]*T, error)

	GetWithRelations(ctx context.Context, id string, rel RelationSet) (*T, bool, error)
	ListAllWithRelations(ctx context.Context, rel RelationSet) ([]*T, error)
	ListWithRelations(ctx context.Context, f F, rel RelationSet) ([]*T, error)
}

type StationStore interface {
	Store[railway.Station, railway.StationFilter]

	// FindByName returns the earliest-created station with the exact name.
	FindByName(ctx context.Context, name string) (*railway.Station, bool, error)
	FindPlatforms(ctx context.Context, f railway.PlatformFilter) ([]*railway.Platform, error)
	FindGates(ctx context.Context, f railway.GateFilter) ([]*railway.Gate, error)
}

type TrackStore interface {
	Store[railway.Track, railway.TrackFilter]

	// FindSignals returns signals with their protected track ids populated.
	FindSignals(ctx context.Context, f railway.SignalFilter) ([]*railway.Signal, error)
}

type TrainStore interface {
	Store[railway.Train, railway.TrainFilter]

	FindCars(ctx context.Context, f railway.CarFilter) ([]*railway.Car, error)
}

type ScheduleStore interface {
	Store[railway.Schedule, railway.ScheduleFilter]

	GetByTrainID(ctx context.Context, trainID string) (*railway.Schedule, bool, error)
	FindStopTimes(ctx context.Context, f railway.StopTimeFilter) ([]*railway.StopTime, error)
}
