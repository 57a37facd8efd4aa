package railway

import (
	"gorm.io/gorm"

	"github.com/rushhourgame/railnet/internal/platform/dbctx"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

// WeakRefRepo persists an ordered id list owned by one row (owner_id, sequence_order, ref_id).
// The referenced ids carry no foreign key and may point at rows that no longer exist.
type WeakRefRepo interface {
	// Replace deletes the owner's list and writes ids in order.
	Replace(dbc dbctx.Context, ownerID string, ids []string) error
	// ReplaceMany rewrites the lists of several owners with one delete and one insert.
	ReplaceMany(dbc dbctx.Context, lists map[string][]string) error
	ListByOwnerIDs(dbc dbctx.Context, ownerIDs []string) (map[string][]string, error)
	DeleteByOwnerIDs(dbc dbctx.Context, ownerIDs []string) error
	// OwnersReferencing returns owners whose list contains refID.
	OwnersReferencing(dbc dbctx.Context, refID string) ([]string, error)
}

type weakRefRow struct {
	OwnerID       string
	SequenceOrder int
	RefID         string
}

type weakRefRepo struct {
	db          *gorm.DB
	log         *logger.Logger
	table       string
	ownerColumn string
	refColumn   string
}

func NewStationConnectedTrackRepo(db *gorm.DB, baseLog *logger.Logger) WeakRefRepo {
	return &weakRefRepo{
		db:          db,
		log:         baseLog.With("repo", "StationConnectedTrackRepo"),
		table:       "station_connected_track",
		ownerColumn: "station_id",
		refColumn:   "track_id",
	}
}

func NewSignalProtectedTrackRepo(db *gorm.DB, baseLog *logger.Logger) WeakRefRepo {
	return &weakRefRepo{
		db:          db,
		log:         baseLog.With("repo", "SignalProtectedTrackRepo"),
		table:       "signal_protected_track",
		ownerColumn: "signal_id",
		refColumn:   "track_id",
	}
}

func (r *weakRefRepo) Replace(dbc dbctx.Context, ownerID string, ids []string) error {
	return r.ReplaceMany(dbc, map[string][]string{ownerID: ids})
}

func (r *weakRefRepo) ReplaceMany(dbc dbctx.Context, lists map[string][]string) error {
	if len(lists) == 0 {
		return nil
	}
	owners := make([]string, 0, len(lists))
	for owner := range lists {
		owners = append(owners, owner)
	}
	if err := r.DeleteByOwnerIDs(dbc, owners); err != nil {
		return err
	}
	var rows []map[string]any
	for owner, ids := range lists {
		for i, id := range ids {
			rows = append(rows, map[string]any{
				r.ownerColumn:    owner,
				"sequence_order": i,
				r.refColumn:      id,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Table(r.table).Create(rows).Error
}

func (r *weakRefRepo) ListByOwnerIDs(dbc dbctx.Context, ownerIDs []string) (map[string][]string, error) {
	out := map[string][]string{}
	ownerIDs = Dedupe(ownerIDs)
	if len(ownerIDs) == 0 {
		return out, nil
	}
	for _, part := range Chunk(ownerIDs, InChunkSize) {
		var rows []weakRefRow
		err := dbc.DB(r.db).Table(r.table).
			Select(r.ownerColumn+" AS owner_id, sequence_order, "+r.refColumn+" AS ref_id").
			Where(r.ownerColumn+" IN ?", part).
			Order(r.ownerColumn).
			Order("sequence_order").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.OwnerID] = append(out[row.OwnerID], row.RefID)
		}
	}
	return out, nil
}

func (r *weakRefRepo) DeleteByOwnerIDs(dbc dbctx.Context, ownerIDs []string) error {
	ownerIDs = Dedupe(ownerIDs)
	for _, part := range Chunk(ownerIDs, InChunkSize) {
		if err := dbc.DB(r.db).Exec("DELETE FROM "+r.table+" WHERE "+r.ownerColumn+" IN ?", part).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *weakRefRepo) OwnersReferencing(dbc dbctx.Context, refID string) ([]string, error) {
	var out []string
	if refID == "" {
		return out, nil
	}
	err := dbc.DB(r.db).Table(r.table).
		Distinct(r.ownerColumn).
		Where(r.refColumn+" = ?", refID).
		Order(r.ownerColumn).
		Pluck(r.ownerColumn, &out).Error
	return out, err
}

// ownersReferencing is the IN (SELECT owner ...) condition used by "contains" filters.
func (r *weakRefRepo) ownersReferencing(q *gorm.DB, refID string) *gorm.DB {
	return subquery(q).Table(r.table).Select(r.ownerColumn).Where(r.refColumn+" = ?", refID)
}
