package aggregates

import (
	"context"
	"strings"

	repos "github.com/rushhourgame/railnet/internal/data/repos/railway"
	types "github.com/rushhourgame/railnet/internal/domain"
	domainagg "github.com/rushhourgame/railnet/internal/domain/aggregates"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

const AggregateStation = "station"

type StationStoreDeps struct {
	Base BaseDeps

	Stations  repos.StationRepo
	Platforms repos.PlatformRepo
	Gates     repos.GateRepo
	Corridors repos.CorridorRepo
	Connected repos.WeakRefRepo
}

type stationStore struct {
	deps StationStoreDeps
}

func NewStationStore(deps StationStoreDeps) domainagg.StationStore {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Log = deps.Base.Log.With("aggregate", "Station")
	return &stationStore{deps: deps}
}

func (s *stationStore) Contract() domainagg.Contract {
	return domainagg.StationStoreContract
}

func (s *stationStore) Create(ctx context.Context, st *types.Station) (*types.Station, error) {
	const op = "Railway.Station.Create"
	if st == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing station", nil)
	}
	all := s.Contract().AllRelations()
	undo := s.snapshot(st)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := s.validate(st, all); err != nil {
			return err
		}
		now := nowUTC()
		ensureID(&st.ID)
		st.CreatedAt, st.UpdatedAt, st.Version = now, now, 1
		st.ConnectedTrackIDs = copyIDs(st.ConnectedTrackIDs)
		s.adoptChildren(st, all)

		if _, err := s.deps.Stations.Create(dbc, []*types.Station{st}); err != nil {
			return err
		}
		if err := s.insertChildren(dbc, st, all); err != nil {
			return err
		}
		if len(st.ConnectedTrackIDs) > 0 {
			return s.deps.Connected.Replace(dbc, st.ID, st.ConnectedTrackIDs)
		}
		return nil
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateStation, IDs: []string{st.ID}, Root: st})
	return st, nil
}

func (s *stationStore) GetByID(ctx context.Context, id string) (*types.Station, bool, error) {
	out, err := s.GetByIDs(ctx, []string{id})
	if err != nil || len(out) == 0 {
		return nil, false, err
	}
	return out[0], true, nil
}

func (s *stationStore) GetByIDs(ctx context.Context, ids []string) ([]*types.Station, error) {
	const op = "Railway.Station.GetByIDs"
	var out []*types.Station
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Stations.GetByIDs(dbc, ids); err != nil {
			return err
		}
		return s.hydrate(dbc, out, nil)
	})
	return out, err
}

func (s *stationStore) Update(ctx context.Context, st *types.Station) (*types.Station, error) {
	return s.update(ctx, "Railway.Station.Update", st, nil)
}

func (s *stationStore) UpdateReplacing(ctx context.Context, st *types.Station, replace domainagg.RelationSet) (*types.Station, error) {
	return s.update(ctx, "Railway.Station.UpdateReplacing", st, replace)
}

func (s *stationStore) update(ctx context.Context, op string, st *types.Station, replace domainagg.RelationSet) (*types.Station, error) {
	if st == nil || strings.TrimSpace(st.ID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing station id", nil)
	}
	if err := s.Contract().Check(op, replace); err != nil {
		return nil, err
	}
	now := nowUTC()
	undo := s.snapshot(st)
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		if err := s.validate(st, replace); err != nil {
			return err
		}
		if err := s.deps.Base.CASGuard.UpdateRoot(dbc, types.Station{}.TableName(), st.ID, st.Version, map[string]any{
			"name":           st.Name,
			"owner_id":       st.OwnerID,
			"total_capacity": st.TotalCapacity,
			"location_x":     st.Location.X,
			"location_y":     st.Location.Y,
			"location_z":     st.Location.Z,
			"updated_at":     now,
			"version":        st.Version + 1,
		}); err != nil {
			return err
		}
		if err := s.deps.Connected.Replace(dbc, st.ID, st.ConnectedTrackIDs); err != nil {
			return err
		}
		if replace.Empty() {
			return nil
		}
		if err := s.deleteChildren(dbc, []string{st.ID}, replace); err != nil {
			return err
		}
		s.adoptChildren(st, replace)
		return s.insertChildren(dbc, st, replace)
	})
	if err != nil {
		undo.restore()
		return nil, err
	}
	st.Version++
	st.UpdatedAt = now
	st.ConnectedTrackIDs = copyIDs(st.ConnectedTrackIDs)
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateStation, IDs: []string{st.ID}, Root: st})
	return st, nil
}

func (s *stationStore) DeleteByID(ctx context.Context, id string) error {
	const op = "Railway.Station.DeleteByID"
	if strings.TrimSpace(id) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing station id", nil)
	}
	err := executeWrite(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		ids := []string{id}
		if err := s.deps.Connected.DeleteByOwnerIDs(dbc, ids); err != nil {
			return err
		}
		if err := s.deleteChildren(dbc, ids, s.Contract().AllRelations()); err != nil {
			return err
		}
		n, err := s.deps.Stations.DeleteByIDs(dbc, ids)
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound(op, "station", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	notify(ctx, s.deps.Base, Change{Aggregate: AggregateStation, IDs: []string{id}, Deleted: true})
	return nil
}

func (s *stationStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := executeRead(ctx, s.deps.Base, "Railway.Station.ExistsByID", func(dbc dbctx.Context) error {
		var err error
		ok, err = s.deps.Stations.ExistsByID(dbc, id)
		return err
	})
	return ok, err
}

func (s *stationStore) Find(ctx context.Context, f types.StationFilter) ([]*types.Station, error) {
	return s.ListWithRelations(ctx, f, nil)
}

func (s *stationStore) FindByName(ctx context.Context, name string) (*types.Station, bool, error) {
	var out *types.Station
	err := executeRead(ctx, s.deps.Base, "Railway.Station.FindByName", func(dbc dbctx.Context) error {
		st, err := s.deps.Stations.FirstByName(dbc, name)
		if err != nil || st == nil {
			return err
		}
		out = st
		return s.hydrate(dbc, []*types.Station{st}, nil)
	})
	if err != nil || out == nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *stationStore) FindPlatforms(ctx context.Context, f types.PlatformFilter) ([]*types.Platform, error) {
	var out []*types.Platform
	err := executeRead(ctx, s.deps.Base, "Railway.Station.FindPlatforms", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Platforms.Find(dbc, f)
		return err
	})
	return out, err
}

func (s *stationStore) FindGates(ctx context.Context, f types.GateFilter) ([]*types.Gate, error) {
	var out []*types.Gate
	err := executeRead(ctx, s.deps.Base, "Railway.Station.FindGates", func(dbc dbctx.Context) error {
		var err error
		out, err = s.deps.Gates.Find(dbc, f)
		return err
	})
	return out, err
}

func (s *stationStore) GetWithRelations(ctx context.Context, id string, rel domainagg.RelationSet) (*types.Station, bool, error) {
	const op = "Railway.Station.GetWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, false, err
	}
	var out *types.Station
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		rows, err := s.deps.Stations.GetByIDs(dbc, []string{id})
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

func (s *stationStore) ListAllWithRelations(ctx context.Context, rel domainagg.RelationSet) ([]*types.Station, error) {
	return s.ListWithRelations(ctx, types.StationFilter{}, rel)
}

func (s *stationStore) ListWithRelations(ctx context.Context, f types.StationFilter, rel domainagg.RelationSet) ([]*types.Station, error) {
	const op = "Railway.Station.ListWithRelations"
	if err := s.Contract().Check(op, rel); err != nil {
		return nil, err
	}
	var out []*types.Station
	err := executeRead(ctx, s.deps.Base, op, func(dbc dbctx.Context) error {
		var err error
		if out, err = s.deps.Stations.Find(dbc, f); err != nil {
			return err
		}
		return s.hydrate(dbc, out, rel)
	})
	return out, err
}

// hydrate attaches connected track ids and the requested owned collections, one query each.
func (s *stationStore) hydrate(dbc dbctx.Context, stations []*types.Station, rel domainagg.RelationSet) error {
	if len(stations) == 0 {
		return nil
	}
	ids := idsOf(stations, func(st *types.Station) string { return st.ID })

	loaders := []relationLoader{func(dbc dbctx.Context) error {
		lists, err := s.deps.Connected.ListByOwnerIDs(dbc, ids)
		if err != nil {
			return err
		}
		for _, st := range stations {
			st.ConnectedTrackIDs = copyIDs(lists[st.ID])
		}
		return nil
	}}
	if rel.Has(domainagg.RelationPlatforms) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Platforms.ListByStationIDs(dbc, ids)
			if err != nil {
				return err
			}
			byStation := groupBy(rows, func(p *types.Platform) string { return p.StationID })
			for _, st := range stations {
				st.Platforms = orEmpty(byStation[st.ID])
			}
			return nil
		})
	}
	if rel.Has(domainagg.RelationGates) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Gates.ListByStationIDs(dbc, ids)
			if err != nil {
				return err
			}
			byStation := groupBy(rows, func(g *types.Gate) string { return g.StationID })
			for _, st := range stations {
				st.Gates = orEmpty(byStation[st.ID])
			}
			return nil
		})
	}
	if rel.Has(domainagg.RelationCorridors) {
		loaders = append(loaders, func(dbc dbctx.Context) error {
			rows, err := s.deps.Corridors.ListByStationIDs(dbc, ids)
			if err != nil {
				return err
			}
			byStation := groupBy(rows, func(c *types.Corridor) string { return c.StationID })
			for _, st := range stations {
				st.Corridors = orEmpty(byStation[st.ID])
			}
			return nil
		})
	}
	return loadRelations(dbc, loaders...)
}

// validate checks the root and the owned collections in rel, the ones the write persists.
func (s *stationStore) validate(st *types.Station, rel domainagg.RelationSet) error {
	if err := st.ValidateRoot(); err != nil {
		return err
	}
	if rel.Has(domainagg.RelationPlatforms) {
		if err := st.ValidatePlatforms(); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationGates) {
		if err := st.ValidateGates(); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationCorridors) {
		return st.ValidateCorridors()
	}
	return nil
}

func (s *stationStore) snapshot(st *types.Station) restorer {
	var r restorer
	keepValue(&r, st)
	keepSlice(&r, st.Platforms)
	keepSlice(&r, st.Gates)
	keepSlice(&r, st.Corridors)
	return r
}

// adoptChildren assigns ids and the owning station id to the children in rel.
func (s *stationStore) adoptChildren(st *types.Station, rel domainagg.RelationSet) {
	if rel.Has(domainagg.RelationPlatforms) {
		for _, p := range st.Platforms {
			ensureID(&p.ID)
			p.StationID = st.ID
		}
	}
	if rel.Has(domainagg.RelationGates) {
		for _, g := range st.Gates {
			ensureID(&g.ID)
			g.StationID = st.ID
		}
	}
	if rel.Has(domainagg.RelationCorridors) {
		for _, c := range st.Corridors {
			ensureID(&c.ID)
			c.StationID = st.ID
		}
	}
}

func (s *stationStore) insertChildren(dbc dbctx.Context, st *types.Station, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationPlatforms) {
		if err := s.deps.Platforms.Create(dbc, st.Platforms); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationGates) {
		if err := s.deps.Gates.Create(dbc, st.Gates); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationCorridors) {
		if err := s.deps.Corridors.Create(dbc, st.Corridors); err != nil {
			return err
		}
	}
	return nil
}

func (s *stationStore) deleteChildren(dbc dbctx.Context, stationIDs []string, rel domainagg.RelationSet) error {
	if rel.Has(domainagg.RelationPlatforms) {
		if _, err := s.deps.Platforms.DeleteByStationIDs(dbc, stationIDs); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationGates) {
		if _, err := s.deps.Gates.DeleteByStationIDs(dbc, stationIDs); err != nil {
			return err
		}
	}
	if rel.Has(domainagg.RelationCorridors) {
		if _, err := s.deps.Corridors.DeleteByStationIDs(dbc, stationIDs); err != nil {
			return err
		}
	}
	return nil
}
