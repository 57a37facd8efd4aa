package railway

import (
	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type TrainRepo interface {
	Create(dbc dbctx.Context, trains []*types.Train) ([]*types.Train, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Train, error)
	ExistsByID(dbc dbctx.Context, id string) (bool, error)
	Find(dbc dbctx.Context, f types.TrainFilter) ([]*types.Train, error)
	DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error)
}

var trainOrderColumns = map[string]bool{
	"owner_id":       true,
	"train_type":     true,
	"group_id":       true,
	"total_capacity": true,
	"door_count":     true,
	"created_at":     true,
	"updated_at":     true,
}

type trainRepo struct {
	roots[types.Train]
	log *logger.Logger
}

func NewTrainRepo(db *gorm.DB, baseLog *logger.Logger) TrainRepo {
	return &trainRepo{
		roots: roots[types.Train]{db: db},
		log:   baseLog.With("repo", "TrainRepo"),
	}
}

func (r *trainRepo) Create(dbc dbctx.Context, trains []*types.Train) ([]*types.Train, error) {
	if len(trains) == 0 {
		return []*types.Train{}, nil
	}
	if err := r.create(dbc, trains); err != nil {
		return nil, err
	}
	return trains, nil
}

func (r *trainRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Train, error) {
	return r.getByIDs(dbc, ids)
}

func (r *trainRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	return r.existsByID(dbc, id)
}

func (r *trainRepo) Find(dbc dbctx.Context, f types.TrainFilter) ([]*types.Train, error) {
	return r.find(dbc, func(q *gorm.DB) (*gorm.DB, error) {
		if f.OwnerID != nil {
			q = q.Where("owner_id = ?", *f.OwnerID)
		}
		if f.TrainType != nil {
			q = q.Where("train_type = ?", string(*f.TrainType))
		}
		if f.GroupID != nil {
			q = q.Where("group_id = ?", *f.GroupID)
		}
		if f.IsPlayerControlled != nil {
			q = q.Where("is_player_controlled = ?", *f.IsPlayerControlled)
		}
		if f.AssignedRouteID != nil {
			q = q.Where("assigned_route_id = ?", *f.AssignedRouteID)
		}
		if f.MinTotalCapacity != nil {
			q = q.Where("total_capacity >= ?", *f.MinTotalCapacity)
		}
		q, err := applyOrder(q, f.OrderBy, trainOrderColumns)
		if err != nil {
			return nil, err
		}
		return applyPage(q, f.Page), nil
	})
}

func (r *trainRepo) DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error) {
	return r.deleteByIDs(dbc, ids)
}

type CarRepo interface {
	Create(dbc dbctx.Context, rows []*types.Car) error
	ListByTrainIDs(dbc dbctx.Context, trainIDs []string) ([]*types.Car, error)
	DeleteByTrainIDs(dbc dbctx.Context, trainIDs []string) (int64, error)
	Find(dbc dbctx.Context, f types.CarFilter) ([]*types.Car, error)
}

var carOrderColumns = map[string]bool{"train_id": true, "sequence_order": true, "capacity": true, "door_count": true}

type carRepo struct {
	ownedRows[types.Car]
	log *logger.Logger
}

func NewCarRepo(db *gorm.DB, baseLog *logger.Logger) CarRepo {
	return &carRepo{
		ownedRows: ownedRows[types.Car]{db: db, ownerColumn: "train_id", orderColumn: "sequence_order"},
		log:       baseLog.With("repo", "CarRepo"),
	}
}

func (r *carRepo) Create(dbc dbctx.Context, rows []*types.Car) error {
	return r.create(dbc, rows)
}

func (r *carRepo) ListByTrainIDs(dbc dbctx.Context, trainIDs []string) ([]*types.Car, error) {
	return r.listByOwnerIDs(dbc, trainIDs)
}

func (r *carRepo) DeleteByTrainIDs(dbc dbctx.Context, trainIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, trainIDs)
}

func (r *carRepo) Find(dbc dbctx.Context, f types.CarFilter) ([]*types.Car, error) {
	q := dbc.DB(r.db).Model(&types.Car{})
	if f.TrainID != nil {
		q = q.Where("train_id = ?", *f.TrainID)
	}
	if f.MinCapacity != nil {
		q = q.Where("capacity >= ?", *f.MinCapacity)
	}
	if f.DoorCount != nil {
		q = q.Where("door_count = ?", *f.DoorCount)
	}
	q, err := applyOrder(q, f.OrderBy, carOrderColumns, "train_id", "sequence_order")
	if err != nil {
		return nil, err
	}
	var out []*types.Car
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
