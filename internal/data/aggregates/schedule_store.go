package aggregates

import (
	"context"
	"strings"

	repos "github.com/rushhourgame/railnet/internal/data/repos/railway"
	types "github.com/rushhourgame/railnet/internal/domain"
	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

const AggregateSchedule = "schedule"

type ScheduleStoreDeps struct {
	Base BaseDeps

	Trains    repos.TrainRepo
	Schedules repos.ScheduleRepo
	StopTimes repos.StopTimeRepo
}

type scheduleStore struct {
	deps ScheduleStoreDeps
}

func NewScheduleStore(deps ScheduleStoreDeps) domainagg.ScheduleStore {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "Schedule")
	return &scheduleStore{deps: deps}
}

func (s *scheduleStore) Contract() domainagg.Contract {
	return domainagg.ScheduleStoreContract
}

// Create requires the owning train to exist and to have no schedule yet.
func (s *scheduleStore) Create(ctx context.Context, sc *types.Schedule) (*types.Schedule, error) {
	const op = "Railway.Schedule.Create"
	if sc == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing schedule", nil)
	}
	undo := s.snapshot(sc)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := sc.Validate(); err != nil {
			return err
		}
		if err := s.requireOwner(dbc, sc.TrainID, ""); err != nil {
			return err
		}
		now := nowUTC()
		ensureID(&sc.ID)
		sc.CreatedAt, sc.UpdatedAt, sc.Version = now, now, 1
		adoptStopTimes(sc)

		if _, err := s.deps.Schedules.Create(dbc, []*types.Schedule{sc}); err != nil {
			return err
		}
		return s.deps.StopTimes.Create(dbc, sc.StopTimes)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: []string{sc.ID}, Root: sc})
	return sc, nil
}

func (s *scheduleStore) snapshot(sc *types.Schedule) restorer {
	var r restorer
	keepValue(&r, sc)
	keepSlice(&r, sc.StopTimes)
	return r
}

// requireOwner checks the train exists and owns no schedule other than selfID.
func (s *scheduleStore) requireOwner(dbc dbctx.Context, trainID, selfID string) error {
	ok, err := s.deps.Trains.ExistsByID(dbc, trainID)
	if err != nil {
		return err
	}
	if !ok {
		return ValidationError("owning train does not exist: " + trainID)
	}
	existing, err := s.deps.Schedules.GetByTrainIDs(dbc, []string{trainID})
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID != selfID {
			return IntegrityError("train " + trainID + " already has schedule " + other.ID)
		}
	}
	return nil
}

func (s *scheduleStore) GetByID(ctx context.Context, id string) (*types.Schedule, bool, error) {
	out, err := s.GetByIDs(ctx, []string{id})
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return out[0], true, nil
}

func (s *scheduleStore) GetByIDs(ctx context.Context, ids []string) ([]*types.Schedule, error) {
	var out []*types.Schedule
	err := executeRead(ctx, s.deps.Base, "Railway.Schedule.GetByIDs", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Schedules.GetByIDs(dbc, ids)
		return err
	})
	return out, err
}

func (s *scheduleStore) GetByTrainID(ctx context.Context, trainID string) (*types.Schedule, bool, error) {
	var out *types.Schedule
	err := executeRead(ctx, s.deps.Base, "Railway.Schedule.GetByTrainID", func(dbc dbctx.Context) error {
		rows, err := s.deps.Schedules.GetByTrainIDs(dbc, []string{trainID})
		if err != nil || len(rows) == 0 {
			return err
		}
		out = rows[0]
		return nil
	})
	if err != nil || out == nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *scheduleStore) Update(ctx context.Context, sc *types.Schedule) (*types.Schedule, error) {
	return s.update(ctx, "Railway.Schedule.Update", sc, nil)
}

func (s *scheduleStore) UpdateReplacing(ctx context.Context, sc *types.Schedule, replace domainagg.RelationSet) (*types.Schedule, error) {
	return s.update(ctx, "Railway.Schedule.UpdateReplacing", sc, replace)
}

func (s *scheduleStore) update(ctx context.Context, op string, sc *types.Schedule, replace domainagg.RelationSet) (*types.Schedule, error) {
	if sc == nil || strings.TrimSpace(sc.ID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing schedule id", nil)
	}
	if err := s.Contract().Check(op, replace); err != nil {
		return nil, err
	}
	now := nowUTC()
	undo := s.snapshot(sc)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := sc.ValidateRoot(); err != nil {
			return err
		}
		if replace.Has(domainagg.RelationStopTimes) {
			if err := sc.ValidateStopTimes(); err != nil {
				return err
			}
		}
		current, err := s.deps.Schedules.GetByIDs(dbc, []string{sc.ID})
		if err != nil {
			return err
		}
		if len(current) > 0 && current[0].TrainID != sc.TrainID {
			if err := s.requireOwner(dbc, sc.TrainID, sc.ID); err != nil {
				return err
			}
		}
		if err := s.deps.Base.CASGuard.UpdateRoot(dbc, types.Schedule{}.TableName(), sc.ID, sc.Version, map[string]any{
			"train_id":   sc.TrainID,
			"route_id":   sc.RouteID,
			"updated_at": now,
			"version":    sc.Version + 1,
		}); err != nil {
			return err
		}
		if !replace.Has(domainagg.RelationStopTimes) {
			return nil
		}
		if _, err := s.deps.StopTimes.DeleteByScheduleIDs(dbc, []string{sc.ID}); err != nil {
			return err
		}
		adoptStopTimes(sc)
		return s.deps.StopTimes.Create(dbc, sc.StopTimes)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	sc.Version++
	sc.UpdatedAt = now
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: []string{sc.ID}, Root: sc})
	return sc, nil
}

func (s *scheduleStore) DeleteByID(ctx context.Context, id string) error {
	const op = "Railway.Schedule.DeleteByID"
	if strings.TrimSpace(id) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing schedule id", nil)
	}
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		ids := []string{id}
		if _, err := s.deps.StopTimes.DeleteByScheduleIDs(dbc, ids); err != nil {
			return err
		}
		n, err := s.deps.Schedules.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(op, "schedule", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateSchedule, IDs: []string{id}, Deleted: true})
	return nil
}

func (s *scheduleStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := executeRead(ctx, s.deps.Base, "Railway.Schedule.ExistsByID", func(dbc dbctx.Context) error {
		var err error
		ok, err = s.deps.Schedules.ExistsByID(dbc, id)
		return err
	})
	return ok, err
}

func (s *scheduleStore) Find(ctx context.Context, f types.ScheduleFilter) ([]*types.Schedule, error) {
	return s.ListWithRelations(ctx, f, nil)
}

func (s *scheduleStore) FindStopTimes(ctx context.Context, f types.StopTimeFilter) ([]*types.StopTime, error) {
	var out []*types.StopTime
	err := executeRead(ctx, s.deps.Base, "Railway.Schedule.FindStopTimes", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.StopTimes.Find(dbc, f)
		return err
	})
	return out, err
}

func (s *scheduleStore) GetWithRelations(ctx context.Context, id string, rel domainagg.RelationSet) (*types.Schedule, bool, error) {
	const op = "Railway.Schedule.GetWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, false, err
	}
	var out *types.Schedule
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := s.deps.Schedules.GetByIDs(dbc, []string{id})
		if err != nil || len(rows) == 0 {
			return err
		}
		out = rows[0]
		if rel.Has(domainagg.RelationStopTimes) {
			return attachStopTimes(dbc, s.deps.StopTimes, rows)
		}
		return nil
	})
	if err != nil || out == nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *scheduleStore) ListAllWithRelations(ctx context.Context, rel domainagg.RelationSet) ([]*types.Schedule, error) {
	return s.ListWithRelations(ctx, types.ScheduleFilter{}, rel)
}

func (s *scheduleStore) ListWithRelations(ctx context.Context, f types.ScheduleFilter, rel domainagg.RelationSet) ([]*types.Schedule, error) {
	const op = "Railway.Schedule.ListWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, err
	}
	var out []*types.Schedule
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Schedules.Find(dbc, f); err != nil {
			return err
		}
		if rel.Has(domainagg.RelationStopTimes) {
			return attachStopTimes(dbc, s.deps.StopTimes, out)
		}
		return nil
	})
	return out, err
}
