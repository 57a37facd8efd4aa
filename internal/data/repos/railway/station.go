package railway

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type StationRepo interface {
	Create(dbc dbctx.Context, stations []*types.Station) ([]*types.Station, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Station, error)
	ExistsByID(dbc dbctx.Context, id string) (bool, error)
	FirstByName(dbc dbctx.Context, name string) (*types.Station, error)
	Find(dbc dbctx.Context, f types.StationFilter) ([]*types.Station, error)
	DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error)
}

var stationOrderColumns = map[string]bool{
	"name":           true,
	"owner_id":       true,
	"total_capacity": true,
	"created_at":     true,
	"updated_at":     true,
	"location_x":     true,
	"location_y":     true,
}

type stationRepo struct {
	roots[types.Station]
	log       *logger.Logger
	connected *weakRefRepo
}

func NewStationRepo(db *gorm.DB, baseLog *logger.Logger) StationRepo {
	return &stationRepo{
		roots:     roots[types.Station]{db: db},
		log:       baseLog.With("repo", "StationRepo"),
		connected: NewStationConnectedTrackRepo(db, baseLog).(*weakRefRepo),
	}
}

func (r *stationRepo) Create(dbc dbctx.Context, stations []*types.Station) ([]*types.Station, error) {
	if len(stations) == 0 {
		return []*types.Station{}, nil
	}
	if err := r.create(dbc, stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *stationRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Station, error) {
	return r.getByIDs(dbc, ids)
}

func (r *stationRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	return r.existsByID(dbc, id)
}

// FirstByName returns the earliest-created station with the name, or nil.
func (r *stationRepo) FirstByName(dbc dbctx.Context, name string) (*types.Station, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	var st types.Station
	err := dbc.DB(r.db).
		Where("name = ?", name).
		Order("created_at").
		Order("id").
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *stationRepo) Find(dbc dbctx.Context, f types.StationFilter) ([]*types.Station, error) {
	return r.find(dbc, func(q *gorm.DB) (*gorm.DB, error) {
		if f.Name != nil {
			q = q.Where("name = ?", *f.Name)
		}
		if f.OwnerID != nil {
			q = q.Where("owner_id = ?", *f.OwnerID)
		}
		if f.ConnectedTrackID != nil {
			q = q.Where("id IN (?)", r.connected.ownersReferencing(q, *f.ConnectedTrackID))
		}
		if f.Within != nil {
			q = q.Where("location_x BETWEEN ? AND ?", f.Within.MinX, f.Within.MaxX).
				Where("location_y BETWEEN ? AND ?", f.Within.MinY, f.Within.MaxY)
		}
		if f.MinTotalCapacity != nil {
			q = q.Where("total_capacity >= ?", *f.MinTotalCapacity)
		}
		q, err := applyOrder(q, f.OrderBy, stationOrderColumns)
		if err != nil {
			return nil, err
		}
		return applyPage(q, f.Page), nil
	})
}

func (r *stationRepo) DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error) {
	return r.deleteByIDs(dbc, ids)
}

type PlatformRepo interface {
	Create(dbc dbctx.Context, rows []*types.Platform) error
	ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Platform, error)
	DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error)
	Find(dbc dbctx.Context, f types.PlatformFilter) ([]*types.Platform, error)
}

var platformOrderColumns = map[string]bool{"station_id": true, "capacity": true, "connected_track_id": true}

type platformRepo struct {
	ownedRows[types.Platform]
	log *logger.Logger
}

func NewPlatformRepo(db *gorm.DB, baseLog *logger.Logger) PlatformRepo {
	return &platformRepo{
		ownedRows: ownedRows[types.Platform]{db: db, ownerColumn: "station_id"},
		log:       baseLog.With("repo", "PlatformRepo"),
	}
}

func (r *platformRepo) Create(dbc dbctx.Context, rows []*types.Platform) error {
	return r.create(dbc, rows)
}

func (r *platformRepo) ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Platform, error) {
	return r.listByOwnerIDs(dbc, stationIDs)
}

func (r *platformRepo) DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, stationIDs)
}

func (r *platformRepo) Find(dbc dbctx.Context, f types.PlatformFilter) ([]*types.Platform, error) {
	q := dbc.DB(r.db).Model(&types.Platform{})
	if f.StationID != nil {
		q = q.Where("station_id = ?", *f.StationID)
	}
	if f.ConnectedTrackID != nil {
		q = q.Where("connected_track_id = ?", *f.ConnectedTrackID)
	}
	if f.MinCapacity != nil {
		q = q.Where("capacity >= ?", *f.MinCapacity)
	}
	q, err := applyOrder(q, f.OrderBy, platformOrderColumns)
	if err != nil {
		return nil, err
	}
	var out []*types.Platform
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type GateRepo interface {
	Create(dbc dbctx.Context, rows []*types.Gate) error
	ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Gate, error)
	DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error)
	Find(dbc dbctx.Context, f types.GateFilter) ([]*types.Gate, error)
}

var gateOrderColumns = map[string]bool{"station_id": true, "capacity": true, "processing_time": true}

type gateRepo struct {
	ownedRows[types.Gate]
	log *logger.Logger
}

func NewGateRepo(db *gorm.DB, baseLog *logger.Logger) GateRepo {
	return &gateRepo{
		ownedRows: ownedRows[types.Gate]{db: db, ownerColumn: "station_id"},
		log:       baseLog.With("repo", "GateRepo"),
	}
}

func (r *gateRepo) Create(dbc dbctx.Context, rows []*types.Gate) error {
	return r.create(dbc, rows)
}

func (r *gateRepo) ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Gate, error) {
	return r.listByOwnerIDs(dbc, stationIDs)
}

func (r *gateRepo) DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, stationIDs)
}

func (r *gateRepo) Find(dbc dbctx.Context, f types.GateFilter) ([]*types.Gate, error) {
	q := dbc.DB(r.db).Model(&types.Gate{})
	if f.StationID != nil {
		q = q.Where("station_id = ?", *f.StationID)
	}
	if f.MinProcessingTime != nil {
		q = q.Where("processing_time >= ?", *f.MinProcessingTime)
	}
	if f.MinCapacity != nil {
		q = q.Where("capacity >= ?", *f.MinCapacity)
	}
	if f.MaxCapacity != nil {
		q = q.Where("capacity <= ?", *f.MaxCapacity)
	}
	q, err := applyOrder(q, f.OrderBy, gateOrderColumns)
	if err != nil {
		return nil, err
	}
	var out []*types.Gate
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type CorridorRepo interface {
	Create(dbc dbctx.Context, rows []*types.Corridor) error
	ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Corridor, error)
	DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error)
}

type corridorRepo struct {
	ownedRows[types.Corridor]
	log *logger.Logger
}

func NewCorridorRepo(db *gorm.DB, baseLog *logger.Logger) CorridorRepo {
	return &corridorRepo{
		ownedRows: ownedRows[types.Corridor]{db: db, ownerColumn: "station_id"},
		log:       baseLog.With("repo", "CorridorRepo"),
	}
}

func (r *corridorRepo) Create(dbc dbctx.Context, rows []*types.Corridor) error {
	return r.create(dbc, rows)
}

func (r *corridorRepo) ListByStationIDs(dbc dbctx.Context, stationIDs []string) ([]*types.Corridor, error) {
	return r.listByOwnerIDs(dbc, stationIDs)
}

func (r *corridorRepo) DeleteByStationIDs(dbc dbctx.Context, stationIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, stationIDs)
}
