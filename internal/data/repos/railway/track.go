package railway

import (
	"gorm.io/gorm"

	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

type TrackRepo interface {
	Create(dbc dbctx.Context, tracks []*types.Track) ([]*types.Track, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Track, error)
	ExistsByID(dbc dbctx.Context, id string) (bool, error)
	Find(dbc dbctx.Context, f types.TrackFilter) ([]*types.Track, error)
	DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error)
}

var trackOrderColumns = map[string]bool{
	"owner_id":   true,
	"length":     true,
	"max_speed":  true,
	"created_at": true,
	"updated_at": true,
}

type trackRepo struct {
	roots[types.Track]
	log *logger.Logger
}

func NewTrackRepo(db *gorm.DB, baseLog *logger.Logger) TrackRepo {
	return &trackRepo{
		roots: roots[types.Track]{db: db},
		log:   baseLog.With("repo", "TrackRepo"),
	}
}

func (r *trackRepo) Create(dbc dbctx.Context, tracks []*types.Track) ([]*types.Track, error) {
	if len(tracks) == 0 {
		return []*types.Track{}, nil
	}
	if err := r.create(dbc, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *trackRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Track, error) {
	return r.getByIDs(dbc, ids)
}

func (r *trackRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	return r.existsByID(dbc, id)
}

func (r *trackRepo) Find(dbc dbctx.Context, f types.TrackFilter) ([]*types.Track, error) {
	return r.find(dbc, func(q *gorm.DB) (*gorm.DB, error) {
		if f.OwnerID != nil {
			q = q.Where("owner_id = ?", *f.OwnerID)
		}
		if f.TouchesJunction != nil {
			q = q.Where("(start_junction_id = ? OR end_junction_id = ?)", *f.TouchesJunction, *f.TouchesJunction)
		}
		if f.MinMaxSpeed != nil {
			q = q.Where("max_speed >= ?", *f.MinMaxSpeed)
		}
		if f.MinLength != nil {
			q = q.Where("length >= ?", *f.MinLength)
		}
		if f.MaxLength != nil {
			q = q.Where("length <= ?", *f.MaxLength)
		}
		q, err := applyOrder(q, f.OrderBy, trackOrderColumns)
		if err != nil {
			return nil, err
		}
		return applyPage(q, f.Page), nil
	})
}

func (r *trackRepo) DeleteByIDs(dbc dbctx.Context, ids []string) (int64, error) {
	return r.deleteByIDs(dbc, ids)
}

type CurvePointRepo interface {
	Create(dbc dbctx.Context, rows []*types.CurvePoint) error
	ListByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]*types.CurvePoint, error)
	DeleteByTrackIDs(dbc dbctx.Context, trackIDs []string) (int64, error)
}

type curvePointRepo struct {
	ownedRows[types.CurvePoint]
	log *logger.Logger
}

func NewCurvePointRepo(db *gorm.DB, baseLog *logger.Logger) CurvePointRepo {
	return &curvePointRepo{
		ownedRows: ownedRows[types.CurvePoint]{db: db, ownerColumn: "track_id", orderColumn: "sequence_order"},
		log:       baseLog.With("repo", "CurvePointRepo"),
	}
}

func (r *curvePointRepo) Create(dbc dbctx.Context, rows []*types.CurvePoint) error {
	return r.create(dbc, rows)
}

func (r *curvePointRepo) ListByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]*types.CurvePoint, error) {
	return r.listByOwnerIDs(dbc, trackIDs)
}

func (r *curvePointRepo) DeleteByTrackIDs(dbc dbctx.Context, trackIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, trackIDs)
}

// SignalRepo stores signals without their protected track ids; those live in SignalProtectedTrackRepo.
type SignalRepo interface {
	Create(dbc dbctx.Context, rows []*types.Signal) error
	ListByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]*types.Signal, error)
	ListIDsByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]string, error)
	DeleteByTrackIDs(dbc dbctx.Context, trackIDs []string) (int64, error)
	Find(dbc dbctx.Context, f types.SignalFilter) ([]*types.Signal, error)
}

var signalOrderColumns = map[string]bool{"track_id": true, "signal_type": true}

type signalRepo struct {
	ownedRows[types.Signal]
	log       *logger.Logger
	protected *weakRefRepo
}

func NewSignalRepo(db *gorm.DB, baseLog *logger.Logger) SignalRepo {
	return &signalRepo{
		ownedRows: ownedRows[types.Signal]{db: db, ownerColumn: "track_id"},
		log:       baseLog.With("repo", "SignalRepo"),
		protected: NewSignalProtectedTrackRepo(db, baseLog).(*weakRefRepo),
	}
}

func (r *signalRepo) Create(dbc dbctx.Context, rows []*types.Signal) error {
	return r.create(dbc, rows)
}

func (r *signalRepo) ListByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]*types.Signal, error) {
	return r.listByOwnerIDs(dbc, trackIDs)
}

func (r *signalRepo) ListIDsByTrackIDs(dbc dbctx.Context, trackIDs []string) ([]string, error) {
	var out []string
	trackIDs = Dedupe(trackIDs)
	for _, part := range Chunk(trackIDs, InChunkSize) {
		var ids []string
		if err := dbc.DB(r.db).Model(&types.Signal{}).Where("track_id IN ?", part).Order("id").Pluck("id", &ids).Error; err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

func (r *signalRepo) DeleteByTrackIDs(dbc dbctx.Context, trackIDs []string) (int64, error) {
	return r.deleteByOwnerIDs(dbc, trackIDs)
}

func (r *signalRepo) Find(dbc dbctx.Context, f types.SignalFilter) ([]*types.Signal, error) {
	q := dbc.DB(r.db).Model(&types.Signal{})
	if f.TrackID != nil {
		q = q.Where("track_id = ?", *f.TrackID)
	}
	if f.SignalType != nil {
		q = q.Where("signal_type = ?", string(*f.SignalType))
	}
	if f.ProtectsTrackID != nil {
		q = q.Where("id IN (?)", r.protected.ownersReferencing(q, *f.ProtectsTrackID))
	}
	q, err := applyOrder(q, f.OrderBy, signalOrderColumns)
	if err != nil {
		return nil, err
	}
	var out []*types.Signal
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
