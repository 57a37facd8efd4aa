package railway

import (
	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type ScheduleRepo interface {
	Create(dbc dbctx.Context, schedules []*types.Schedule) ([]*types.Schedule, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Schedule, error)
	GetByTrainIDs(dbc dbctx.Context, trainIDs []string) ([]*types.Schedule, error)
	ExistsByID(dbc dbctx.Context, id string) (bool, error)
	ExistsByTrainID(dbc dbctx.Context, trainID string) (bool, error)
	Find(dbc dbctx.Context, f types.ScheduleFilter) ([]*types.Schedule, error)
	DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error)
}

var scheduleOrderColumns = map[string]bool{"train_id": true, "route_id": true, "created_at": true, "updated_at": true}

type scheduleRepo struct {
	roots[types.Schedule]
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{
		roots: roots[types.Schedule]{db: db},
		log:   baseLog.With("repo", "ScheduleRepo"),
	}
}

func (r *scheduleRepo) Create(dbc dbctx.Context, schedules []*types.Schedule) ([]*types.Schedule, error) {
	if len(schedules) == 0 {
		return []*types.Schedule{}, nil
	}
	if err := r.create(dbc, schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Schedule, error) {
	return r.getByIDs(dbc, ids)
}

func (r *scheduleRepo) GetByTrainIDs(dbc dbctx.Context, trainIDs []string) ([]*types.Schedule, error) {
	var out []*types.Schedule
	trainIDs = Dedupe(trainIDs)
	for _, part := range Chunk(trainIDs, InChunkSize) {
		var rows []*types.Schedule
		if err := dbc.DB(r.db).Where("train_id IN ?", part).Order("train_id").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (r *scheduleRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	return r.existsByID(dbc, id)
}

func (r *scheduleRepo) ExistsByTrainID(dbc dbctx.Context, trainID string) (bool, error) {
	if trainID == "" {
		return false, nil
	}
	var count int64
	if err := dbc.DB(r.db).Model(&types.Schedule{}).Where("train_id = ?", trainID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scheduleRepo) Find(dbc dbctx.Context, f types.ScheduleFilter) ([]*types.Schedule, error) {
	return r.find(dbc, func(q *gorm.DB) (*gorm.DB, error) {
		if f.TrainID != nil {
			q = q.Where("train_id = ?", *f.TrainID)
		}
		if f.RouteID != nil {
			q = q.Where("route_id = ?", *f.RouteID)
		}
		q, err := applyOrder(q, f.OrderBy, scheduleOrderColumns)
		if err != nil {
			return nil, err
		}
		return applyPage(q, f.Page), nil
	})
}

func (r *scheduleRepo) DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error) {
	return r.deleteByIDs(dbc, ids)
}

type StopTimeRepo interface {
	Create(dbc dbctx.Context, rows []*types.StopTime) error
	ListByScheduleIDs(dbc dbctx.Context, scheduleIDs []string) ([]*types.StopTime, error)
	DeleteByScheduleIDs(dbc dbctx.Context, scheduleIDs []string) (int64, error)
	Find(dbc dbctx.Context, f types.StopTimeFilter) ([]*types.StopTime, error)
}

var stopTimeOrderColumns = map[string]bool{
	"schedule_id":    true,
	"station_id":     true,
	"sequence_order": true,
	"arrival_time":   true,
	"departure_time": true,
}

type stopTimeRepo struct {
	ownedRows[types.StopTime]
	log *logger.Logger
}

func NewStopTimeRepo(db *gorm.DB, baseLog *logger.Logger) StopTimeRepo {
	return &stopTimeRepo{
		ownedRows: ownedRows[types.StopTime]{db: db, ownerColumn: "schedule_id", orderColumn: "sequence_order"},
		log:       baseLog.With("repo", "StopTimeRepo"),
	}
}

func (r *stopTimeRepo) Create(dbc dbctx.Context, rows []*types.StopTime) error {
	return r.create(dbc, rows)
}

func (r *stopTimeRepo) ListByScheduleIDs(dbc dbctx.Context, scheduleIDs []string) ([]*types.StopTime, error) {
	return r.listByOwnerIDs(dbc, scheduleIDs)
}

func (r *stopTimeRepo) DeleteByScheduleIDs(dbc dbctx.Context, scheduleIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, scheduleIDs)
}

func (r *stopTimeRepo) Find(dbc dbctx.Context, f types.StopTimeFilter) ([]*types.StopTime, error) {
	q := dbc.DB(r.db).Model(&types.StopTime{})
	if f.ScheduleID != nil {
		q = q.Where("schedule_id = ?", *f.ScheduleID)
	}
	if f.StationID != nil {
		q = q.Where("station_id = ?", *f.StationID)
	}
	if f.ArrivalAfter != nil {
		q = q.Where("arrival_time > ?", int32(*f.ArrivalAfter))
	}
	if f.DepartureBefore != nil {
		q = q.Where("departure_time < ?", int32(*f.DepartureBefore))
	}
	q, err := applyOrder(q, f.OrderBy, stopTimeOrderColumns, "schedule_id", "sequence_order")
	if err != nil {
		return nil, err
	}
	var out []*types.StopTime
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
