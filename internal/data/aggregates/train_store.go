package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	repos "github.com/rushhourgame/railnet/internal/data/repos/railway"
	types "github.com/rushhourgame/railnet/internal/domain"
	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

const AggregateTrain = "train"

type TrainStoreDeps struct {
	Base BaseDeps

	Trains    repos.TrainRepo
	Cars      repos.CarRepo
	Schedules repos.ScheduleRepo
	StopTimes repos.StopTimeRepo
}

type trainStore struct {
	deps TrainStoreDeps
}

func NewTrainStore(deps TrainStoreDeps) domainagg.TrainStore {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "Train")
	return &trainStore{deps: deps}
}

func (s *trainStore) Contract() domainagg.Contract {
	return domainagg.TrainStoreContract
}

func (s *trainStore) Create(ctx context.Context, t *types.Train) (*types.Train, error) {
	const op = "Railway.Train.Create"
	if t == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing train", nil)
	}
	all := s.Contract().AllRelations()
	undo := s.snapshot(t)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := s.validate(t, all); err != nil {
			return err
		}
		now := nowUTC()
		ensureID(&t.ID)
		t.CreatedAt, t.UpdatedAt, t.Version = now, now, 1
		s.adoptCars(t)
		if sc := t.Schedule; sc != nil {
			ensureID(&sc.ID)
			stampNewSchedule(sc, t.ID, now)
		}

		if _, err := s.deps.Trains.Create(dbc, []*types.Train{t}); err != nil {
			return err
		}
		return s.insertChildren(dbc, t, all)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrain, IDs: []string{t.ID}, Root: t})
	if t.Schedule != nil {
		notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: []string{t.Schedule.ID}, Root: t.Schedule})
	}
	return t, nil
}

func (s *trainStore) GetByID(ctx context.Context, id string) (*types.Train, bool, error) {
	out, err := s.GetByIDs(ctx, []string{id})
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return out[0], true, nil
}

func (s *trainStore) GetByIDs(ctx context.Context, ids []string) ([]*types.Train, error) {
	var out []*types.Train
	err := executeRead(ctx, s.deps.Base, "Railway.Train.GetByIDs", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Trains.GetByIDs(dbc, ids)
		return err
	})
	return out, err
}

func (s *trainStore) Update(ctx context.Context, t *types.Train) (*types.Train, error) {
	return s.update(ctx, "Railway.Train.Update", t, nil)
}

func (s *trainStore) UpdateReplacing(ctx context.Context, t *types.Train, replace domainagg.RelationSet) (*types.Train, error) {
	return s.update(ctx, "Railway.Train.UpdateReplacing", t, replace)
}

func (s *trainStore) update(ctx context.Context, op string, t *types.Train, replace domainagg.RelationSet) (*types.Train, error) {
	if t == nil || strings.TrimSpace(t.ID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing train id", nil)
	}
	if err := s.Contract().Check(op, replace); err != nil {
		return nil, err
	}
	now := nowUTC()
	undo := s.snapshot(t)
	var sched scheduleReplacement
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		sched = scheduleReplacement{}
		if err := s.validate(t, replace); err != nil {
			return err
		}
		if err := s.deps.Base.CASGuard.UpdateRoot(dbc, types.Train{}.TableName(), t.ID, t.Version, map[string]any{
			"owner_id":             t.OwnerID,
			"train_type":           t.TrainType,
			"group_id":             t.GroupID,
			"total_capacity":       t.TotalCapacity,
			"door_count":           t.DoorCount,
			"is_player_controlled": t.IsPlayerControlled,
			"assigned_route_id":    t.AssignedRouteID,
			"updated_at":           now,
			"version":              t.Version + 1,
		}); err != nil {
			return err
		}
		if replace.Has(domainagg.RelationCars) {
			cars := domainagg.Relations(domainagg.RelationCars)
			if err := s.deleteChildren(dbc, []string{t.ID}, cars); err != nil {
				return err
			}
			s.adoptCars(t)
			if err := s.insertChildren(dbc, t, cars); err != nil {
				return err
			}
		}
		if !replace.Has(domainagg.RelationSchedule) {
			return nil
		}
		var err error
		sched, err = s.replaceSchedule(dbc, t, now)
		return err
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	t.Version++
	t.UpdatedAt = now
	if sched.kept {
		t.Schedule.Version++
		t.Schedule.UpdatedAt = now
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrain, IDs: []string{t.ID}, Root: t})
	if len(sched.dropped) > 0 {
		notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: sched.dropped, Deleted: true})
	}
	if t.Schedule != nil && replace.Has(domainagg.RelationSchedule) {
		notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: []string{t.Schedule.ID}, Root: t.Schedule})
	}
	return t, nil
}

type scheduleReplacement struct {
	// kept is set when the stored schedule was updated in place under its own version.
	kept    bool
	dropped []string
}

// replaceSchedule swaps the train's schedule for t.Schedule. A schedule carrying the stored
// schedule's id is updated in place, guarded by its own version, and keeps its identity. Any
// other schedule replaces the stored one under a fresh id.
func (s *trainStore) replaceSchedule(dbc dbctx.Context, t *types.Train, now time.Time) (scheduleReplacement, error) {
	var out scheduleReplacement
	current, err := s.deps.Schedules.GetByTrainIDs(dbc, []string{t.ID})
	if err != nil {
		return out, err
	}
	sc := t.Schedule
	for _, cur := range current {
		if sc != nil && sc.ID == cur.ID {
			out.kept = true
			continue
		}
		out.dropped = append(out.dropped, cur.ID)
	}
	if len(out.dropped) > 0 {
		if _, err := s.deps.StopTimes.DeleteByScheduleIDs(dbc, out.dropped); err != nil {
			return out, err
		}
		if _, err := s.deps.Schedules.DeleteByIDs(dbc, out.dropped); err != nil {
			return out, err
		}
	}
	if sc == nil {
		return out, nil
	}
	if !out.kept {
		sc.ID = uuid.NewString()
		stampNewSchedule(sc, t.ID, now)
		if _, err := s.deps.Schedules.Create(dbc, []*types.Schedule{sc}); err != nil {
			return out, err
		}
		return out, s.deps.StopTimes.Create(dbc, sc.StopTimes)
	}

	sc.TrainID = t.ID
	if err := s.deps.Base.CASGuard.UpdateRoot(dbc, types.Schedule{}.TableName(), sc.ID, sc.Version, map[string]any{
		"route_id":   sc.RouteID,
		"updated_at": now,
		"version":    sc.Version + 1,
	}); err != nil {
		return out, err
	}
	if _, err := s.deps.StopTimes.DeleteByScheduleIDs(dbc, []string{sc.ID}); err != nil {
		return out, err
	}
	adoptStopTimes(sc)
	return out, s.deps.StopTimes.Create(dbc, sc.StopTimes)
}

// DeleteByID removes the train with its cars, its schedule and the schedule's stop times.
func (s *trainStore) DeleteByID(ctx context.Context, id string) error {
	const op = "Railway.Train.DeleteByID"
	if strings.TrimSpace(id) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing train id", nil)
	}
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		ids := []string{id}
		if err := s.deleteChildren(dbc, ids, s.Contract().AllRelations()); err != nil {
			return err
		}
		n, err := s.deps.Trains.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(op, "train", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrain, IDs: []string{id}, Deleted: true})
	return nil
}

func (s *trainStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := executeRead(ctx, s.deps.Base, "Railway.Train.ExistsByID", func(dbc dbctx.Context) error {
		var err error
		ok, err = s.deps.Trains.ExistsByID(dbc, id)
		return err
	})
	return ok, err
}

func (s *trainStore) Find(ctx context.Context, f types.TrainFilter) ([]*types.Train, error) {
	return s.ListWithRelations(ctx, f, nil)
}

func (s *trainStore) FindCars(ctx context.Context, f types.CarFilter) ([]*types.Car, error) {
	var out []*types.Car
	err := executeRead(ctx, s.deps.Base, "Railway.Train.FindCars", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Cars.Find(dbc, f)
		return err
	})
	return out, err
}

func (s *trainStore) GetWithRelations(ctx context.Context, id string, rel domainagg.RelationSet) (*types.Train, bool, error) {
	const op = "Railway.Train.GetWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, false, err
	}
	var out *types.Train
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := s.deps.Trains.GetByIDs(dbc, []string{id})
		if err != nil || len(rows) == 0 {
			return err
		}
		out = rows[0]
		return s.hydrate(dbc, rows, rel)
	})
	if err != nil || out == nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *trainStore) ListAllWithRelations(ctx context.Context, rel domainagg.RelationSet) ([]*types.Train, error) {
	return s.ListWithRelations(ctx, types.TrainFilter{}, rel)
}

func (s *trainStore) ListWithRelations(ctx context.Context, f types.TrainFilter, rel domainagg.RelationSet) ([]*types.Train, error) {
	const op = "Railway.Train.ListWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, err
	}
	var out []*types.Train
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Trains.Find(dbc, f); err != nil {
			return err
		}
		return s.hydrate(dbc, out, rel)
	})
	return out, err
}

func (s *trainStore) hydrate(dbc dbctx.Context, trains []*types.Train, rel domainagg.RelationSet) error {
	if len(trains) == 0 || rel.Empty() {
		return nil
	}
	ids := idsOf(trains, func(t *types.Train) string { return t.ID })

	var loaders []relationLoader
	if rel.Has(domainagg.RelationCars) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Cars.ListByTrainIDs(dbc, ids)
			if err != nil {
				return err
			}
			byTrain := groupBy(rows, func(c *types.Car) string { return c.TrainID })
			for _, t := range trains {
				t.Cars = orEmpty(byTrain[t.ID])
			}
			return nil
		})
	}
	if rel.Has(domainagg.RelationSchedule) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			schedules, err := s.deps.Schedules.GetByTrainIDs(dbc, ids)
			if err != nil {
				return err
			}
			if err := attachStopTimes(dbc, s.deps.StopTimes, schedules); err != nil {
				return err
			}
			byTrain := make(map[string]*types.Schedule, len(schedules))
			for _, sc := range schedules {
				byTrain[sc.TrainID] = sc
			}
			for _, t := range trains {
				t.Schedule = byTrain[t.ID]
			}
			return nil
		})
	}
	return loadRelations(dbc, loaders...)
}

// validate checks the root and the owned collections in rel.
func (s *trainStore) validate(t *types.Train, rel domainagg.RelationSet) error {
	if err := t.ValidateRoot(); err != nil {
		return err
	}
	if rel.Has(domainagg.RelationCars) {
		if err := t.ValidateCars(); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationSchedule) {
		return t.ValidateSchedule()
	}
	return nil
}

func (s *trainStore) snapshot(t *types.Train) restorer {
	var r restorer
	keepValue(&r, t)
	keepSlice(&r, t.Cars)
	if t.Schedule != nil {
		keepValue(&r, t.Schedule)
		keepSlice(&r, t.Schedule.StopTimes)
	}
	return r
}

// adoptCars numbers cars by position.
func (s *trainStore) adoptCars(t *types.Train) {
	for i, c := range t.Cars {
		ensureID(&c.ID)
		c.TrainID = t.ID
		c.SequenceOrder = i
	}
}

// stampNewSchedule makes sc a version 1 root owned by trainID.
func stampNewSchedule(sc *types.Schedule, trainID string, now time.Time) {
	sc.TrainID = trainID
	sc.CreatedAt, sc.UpdatedAt, sc.Version = now, now, 1
	adoptStopTimes(sc)
}

func (s *trainStore) insertChildren(dbc dbctx.Context, t *types.Train, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationCars) {
		if err := s.deps.Cars.Create(dbc, t.Cars); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationSchedule) && t.Schedule != nil {
		if _, err := s.deps.Schedules.Create(dbc, []*types.Schedule{t.Schedule}); err != nil {
			return err
		}
		if err := s.deps.StopTimes.Create(dbc, t.Schedule.StopTimes); err != nil {
			return err
		}
	}
	return nil
}

func (s *trainStore) deleteChildren(dbc dbctx.Context, trainIDs []string, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationCars) {
		if _, err := s.deps.Cars.DeleteByTrainIDs(dbc, trainIDs); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationSchedule) {
		schedules, err := s.deps.Schedules.GetByTrainIDs(dbc, trainIDs)
		if err != nil {
			return err
		}
		scheduleIDs := idsOf(schedules, func(sc *types.Schedule) string { return sc.ID })
		if _, err := s.deps.StopTimes.DeleteByScheduleIDs(dbc, scheduleIDs); err != nil {
			return err
		}
		if _, err := s.deps.Schedules.DeleteByIDs(dbc, scheduleIDs); err != nil {
			return err
		}
	}
	return nil
}

// attachStopTimes loads the stop times of every schedule in one query.
func attachStopTimes(dbc dbctx.Context, repo repos.StopTimeRepo, schedules []*types.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	rows, err := repo.ListByScheduleIDs(dbc, idsOf(schedules, func(sc *types.Schedule) string { return sc.ID }))
	if err != nil {
		return err
	}
	bySchedule := groupBy(rows, func(st *types.StopTime) string { return st.ScheduleID })
	for _, sc := range schedules {
		sc.StopTimes = orEmpty(bySchedule[sc.ID])
	}
	return nil
}

func adoptStopTimes(sc *types.Schedule) {
	sc.SortStopTimes()
	for _, st := range sc.StopTimes {
		ensureID(&st.ID)
		st.ScheduleID = sc.ID
	}
}
