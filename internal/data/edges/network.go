package edges

import (
	"context"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
	types "github.com/rushhourgame/railnet/internal/domain"
)

// Network resolves the weak references that connect stations, tracks and schedules.
type Network struct {
	Stations *Resolver[types.Station]
	Tracks   *Resolver[types.Track]
}

func NewNetwork(stores *aggregates.Stores, opts Options) *Network {
	return &Network{
		Stations: NewResolver[types.Station](aggregates.AggregateStation, stores.Stations,
			func(s *types.Station) string { return s.ID }, opts),
		Tracks: NewResolver[types.Track](aggregates.AggregateTrack, stores.Tracks,
			func(t *types.Track) string { return t.ID }, opts),
	}
}

func (n *Network) StationConnectedTracks(ctx context.Context, st *types.Station) ([]*types.Track, error) {
	if st == nil {
		return []*types.Track{}, nil
	}
	return n.Tracks.ResolveAll(ctx, st.ConnectedTrackIDs)
}

func (n *Network) SignalProtectedTracks(ctx context.Context, sg *types.Signal) ([]*types.Track, error) {
	if sg == nil {
		return []*types.Track{}, nil
	}
	return n.Tracks.ResolveAll(ctx, sg.ProtectedTrackIDs)
}

func (n *Network) PlatformTrack(ctx context.Context, p *types.Platform) (*types.Track, bool, error) {
	if p == nil {
		return nil, false, nil
	}
	return n.Tracks.Resolve(ctx, p.ConnectedTrackID)
}

// StationPlatformTracks resolves the tracks of every loaded platform in one lookup, keyed by track id.
func (n *Network) StationPlatformTracks(ctx context.Context, st *types.Station) (map[string]*types.Track, error) {
	if st == nil {
		return map[string]*types.Track{}, nil
	}
	ids := make([]string, 0, len(st.Platforms))
	for _, p := range st.Platforms {
		if p != nil {
			ids = append(ids, p.ConnectedTrackID)
		}
	}
	tracks, err := n.Tracks.ResolveAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.Track, len(tracks))
	for _, t := range tracks {
		out[t.ID] = t
	}
	return out, nil
}

// StopTimeStations resolves the stations a schedule calls at, keyed by station id.
// Stops whose station no longer exists have no entry.
func (n *Network) StopTimeStations(ctx context.Context, sc *types.Schedule) (map[string]*types.Station, error) {
	if sc == nil {
		return map[string]*types.Station{}, nil
	}
	ids := make([]string, 0, len(sc.StopTimes))
	for _, stop := range sc.StopTimes {
		if stop != nil {
			ids = append(ids, stop.StationID)
		}
	}
	stations, err := n.Stations.ResolveAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*types.Station, len(stations))
	for _, s := range stations {
		out[s.ID] = s
	}
	return out, nil
}
