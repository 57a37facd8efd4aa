package aggregates

import (
	"context"
	"strings"

	repos "github.com/rushhourgame/railnet/internal/data/repos/railway"
	types "github.com/rushhourgame/railnet/internal/domain"
	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

const AggregateTrack = "track"

type TrackStoreDeps struct {
	Base BaseDeps

	Tracks    repos.TrackRepo
	Curve     repos.CurvePointRepo
	Signals   repos.SignalRepo
	Protected repos.WeakRefRepo
}

type trackStore struct {
	deps TrackStoreDeps
}

func NewTrackStore(deps TrackStoreDeps) domainagg.TrackStore {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "Track")
	return &trackStore{deps: deps}
}

func (s *trackStore) Contract() domainagg.Contract {
	return domainagg.TrackStoreContract
}

func (s *trackStore) Create(ctx context.Context, t *types.Track) (*types.Track, error) {
	const op = "Railway.Track.Create"
	if t == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing track", nil)
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
		s.adoptChildren(t, all)

		if _, err := s.deps.Tracks.Create(dbc, []*types.Track{t}); err != nil {
			return err
		}
		return s.insertChildren(dbc, t, all)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrack, IDs: []string{t.ID}, Root: t})
	return t, nil
}

func (s *trackStore) GetByID(ctx context.Context, id string) (*types.Track, bool, error) {
	out, err := s.GetByIDs(ctx, []string{id})
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return out[0], true, nil
}

func (s *trackStore) GetByIDs(ctx context.Context, ids []string) ([]*types.Track, error) {
	var out []*types.Track
	err := executeRead(ctx, s.deps.Base, "Railway.Track.GetByIDs", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Tracks.GetByIDs(dbc, ids)
		return err
	})
	return out, err
}

func (s *trackStore) Update(ctx context.Context, t *types.Track) (*types.Track, error) {
	return s.update(ctx, "Railway.Track.Update", t, nil)
}

func (s *trackStore) UpdateReplacing(ctx context.Context, t *types.Track, replace domainagg.RelationSet) (*types.Track, error) {
	return s.update(ctx, "Railway.Track.UpdateReplacing", t, replace)
}

func (s *trackStore) update(ctx context.Context, op string, t *types.Track, replace domainagg.RelationSet) (*types.Track, error) {
	if t == nil || strings.TrimSpace(t.ID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing track id", nil)
	}
	if err := s.Contract().Check(op, replace); err != nil {
		return nil, err
	}
	now := nowUTC()
	undo := s.snapshot(t)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := s.validate(t, replace); err != nil {
			return err
		}
		if err := s.deps.Base.CASGuard.UpdateRoot(dbc, types.Track{}.TableName(), t.ID, t.Version, map[string]any{
			"owner_id":          t.OwnerID,
			"length":            t.Length,
			"max_speed":         t.MaxSpeed,
			"start_junction_id": t.StartJunctionID,
			"end_junction_id":   t.EndJunctionID,
			"updated_at":        now,
			"version":           t.Version + 1,
		}); err != nil {
			return err
		}
		if replace.Empty() {
			return nil
		}
		if err := s.deleteChildren(dbc, []string{t.ID}, replace); err != nil {
			return err
		}
		s.adoptChildren(t, replace)
		return s.insertChildren(dbc, t, replace)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	t.Version++
	t.UpdatedAt = now
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrack, IDs: []string{t.ID}, Root: t})
	return t, nil
}

func (s *trackStore) DeleteByID(ctx context.Context, id string) error {
	const op = "Railway.Track.DeleteByID"
	if strings.TrimSpace(id) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing track id", nil)
	}
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		ids := []string{id}
		if err := s.deleteChildren(dbc, ids, s.Contract().AllRelations()); err != nil {
			return err
		}
		n, err := s.deps.Tracks.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(op, "track", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateTrack, IDs: []string{id}, Deleted: true})
	return nil
}

func (s *trackStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := executeRead(ctx, s.deps.Base, "Railway.Track.ExistsByID", func(dbc dbctx.Context) error {
		var err error
		ok, err = s.deps.Tracks.ExistsByID(dbc, id)
		return err
	})
	return ok, err
}

func (s *trackStore) Find(ctx context.Context, f types.TrackFilter) ([]*types.Track, error) {
	return s.ListWithRelations(ctx, f, nil)
}

func (s *trackStore) FindSignals(ctx context.Context, f types.SignalFilter) ([]*types.Signal, error) {
	var out []*types.Signal
	err := executeRead(ctx, s.deps.Base, "Railway.Track.FindSignals", func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Signals.Find(dbc, f); err != nil {
			return err
		}
		return s.attachProtected(dbc, out)
	})
	return out, err
}

func (s *trackStore) GetWithRelations(ctx context.Context, id string, rel domainagg.RelationSet) (*types.Track, bool, error) {
	const op = "Railway.Track.GetWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, false, err
	}
	var out *types.Track
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := s.deps.Tracks.GetByIDs(dbc, []string{id})
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

func (s *trackStore) ListAllWithRelations(ctx context.Context, rel domainagg.RelationSet) ([]*types.Track, error) {
	return s.ListWithRelations(ctx, types.TrackFilter{}, rel)
}

func (s *trackStore) ListWithRelations(ctx context.Context, f types.TrackFilter, rel domainagg.RelationSet) ([]*types.Track, error) {
	const op = "Railway.Track.ListWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, err
	}
	var out []*types.Track
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Tracks.Find(dbc, f); err != nil {
			return err
		}
		return s.hydrate(dbc, out, rel)
	})
	return out, err
}

func (s *trackStore) hydrate(dbc dbctx.Context, tracks []*types.Track, rel domainagg.RelationSet) error {
	if len(tracks) == 0 || rel.Empty() {
		return nil
	}
	ids := idsOf(tracks, func(t *types.Track) string { return t.ID })

	var loaders []relationLoader
	if rel.Has(domainagg.RelationCurve) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Curve.ListByTrackIDs(dbc, ids)
			if err != nil {
				return err
			}
			byTrack := groupBy(rows, func(cp *types.CurvePoint) string { return cp.TrackID })
			for _, t := range tracks {
				t.Curve = orEmpty(byTrack[t.ID])
			}
			return nil
		})
	}
	if rel.Has(domainagg.RelationSignals) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Signals.ListByTrackIDs(dbc, ids)
			if err != nil {
				return err
			}
			if err := s.attachProtected(dbc, rows); err != nil {
				return err
			}
			byTrack := groupBy(rows, func(sg *types.Signal) string { return sg.TrackID })
			for _, t := range tracks {
				t.Signals = orEmpty(byTrack[t.ID])
			}
			return nil
		})
	}
	return loadRelations(dbc, loaders...)
}

func (s *trackStore) attachProtected(dbc dbctx.Context, signals []*types.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	lists, err := s.deps.Protected.ListByOwnerIDs(dbc, idsOf(signals, func(sg *types.Signal) string { return sg.ID }))
	if err != nil {
		return err
	}
	for _, sg := range signals {
		sg.ProtectedTrackIDs = copyIDs(lists[sg.ID])
	}
	return nil
}

// validate checks the root and the owned collections in rel. The curve is normalized first.
func (s *trackStore) validate(t *types.Track, rel domainagg.RelationSet) error {
	if err := t.ValidateRoot(); err != nil {
		return err
	}
	if rel.Has(domainagg.RelationSignals) {
		if err := t.ValidateSignals(); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationCurve) {
		t.NormalizeCurve()
		return t.ValidateCurve()
	}
	return nil
}

func (s *trackStore) snapshot(t *types.Track) restorer {
	var r restorer
	keepValue(&r, t)
	keepSlice(&r, t.Curve)
	keepSlice(&r, t.Signals)
	return r
}

func (s *trackStore) adoptChildren(t *types.Track, rel domainagg.RelationSet) {
	if rel.Has(domainagg.RelationCurve) {
		for _, cp := range t.Curve {
			ensureID(&cp.ID)
			cp.TrackID = t.ID
		}
	}
	if rel.Has(domainagg.RelationSignals) {
		for _, sg := range t.Signals {
			ensureID(&sg.ID)
			sg.TrackID = t.ID
			sg.ProtectedTrackIDs = copyIDs(sg.ProtectedTrackIDs)
		}
	}
}

func (s *trackStore) insertChildren(dbc dbctx.Context, t *types.Track, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationCurve) {
		if err := s.deps.Curve.Create(dbc, t.Curve); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationSignals) && len(t.Signals) > 0 {
		if err := s.deps.Signals.Create(dbc, t.Signals); err != nil {
			return err
		}
		lists := make(map[string][]string)
		for _, sg := range t.Signals {
			if len(sg.ProtectedTrackIDs) > 0 {
				lists[sg.ID] = sg.ProtectedTrackIDs
			}
		}
		if err := s.deps.Protected.ReplaceMany(dbc, lists); err != nil {
			return err
		}
	}
	return nil
}

func (s *trackStore) deleteChildren(dbc dbctx.Context, trackIDs []string, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationCurve) {
		if _, err := s.deps.Curve.DeleteByTrackIDs(dbc, trackIDs); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationSignals) {
		signalIDs, err := s.deps.Signals.ListIDsByTrackIDs(dbc, trackIDs)
		if err != nil {
			return err
		}
		if err := s.deps.Protected.DeleteByOwnerIDs(dbc, signalIDs); err != nil {
			return err
		}
		if _, err := s.deps.Signals.DeleteByTrackIDs(dbc, trackIDs); err != nil {
			return err
		}
	}
	return nil
}
