package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rushhourgame/railnet/internal/app"
	types "github.com/rushhourgame/railnet/internal/domain"
)

type TrackView struct {
	ID            string  `yaml:"id"`
	Length        float64 `yaml:"length"`
	MaxSpeed      float64 `yaml:"max_speed"`
	StartJunction string  `yaml:"start_junction,omitempty"`
	EndJunction   string  `yaml:"end_junction,omitempty"`
}

type PlatformView struct {
	ID       string `yaml:"id"`
	Capacity int    `yaml:"capacity"`
	Track    string `yaml:"track"`
	// Dangling is set when the platform's track no longer exists.
	Dangling bool `yaml:"dangling,omitempty"`
}

type StationView struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name"`
	OwnerID          string         `yaml:"owner_id"`
	TotalCapacity    int            `yaml:"total_capacity"`
	Version          int64          `yaml:"version"`
	Location         types.Location `yaml:"location"`
	Platforms        []PlatformView `yaml:"platforms"`
	Gates            int            `yaml:"gates"`
	Corridors        int            `yaml:"corridors"`
	ConnectedTracks  []TrackView    `yaml:"connected_tracks"`
	DanglingTrackIDs []string       `yaml:"dangling_track_ids,omitempty"`
}

type SignalView struct {
	ID              string      `yaml:"id"`
	Type            string      `yaml:"type"`
	MainLine        bool        `yaml:"main_line"`
	ProtectedTracks []TrackView `yaml:"protected_tracks"`
}

type TrackDetailView struct {
	TrackView `yaml:",inline"`
	OwnerID   string       `yaml:"owner_id"`
	Version   int64        `yaml:"version"`
	Curve     int          `yaml:"curve_points"`
	Signals   []SignalView `yaml:"signals"`
}

func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print an aggregate with its relations and resolved references as YAML",
	}
	cmd.AddCommand(&cobra.Command{
		Use:          "station <id>",
		Short:        "Show a station, its children and connected tracks",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				view, err := ShowStation(ctx, a, args[0])
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), view)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:          "track <id>",
		Short:        "Show a track with its signals and the tracks they protect",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				view, err := ShowTrack(ctx, a, args[0])
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), view)
			})
		},
	})
	return cmd
}

func ShowStation(ctx context.Context, a *app.App, id string) (*StationView, error) {
	stations := a.Stores.Stations
	st, ok, err := stations.GetWithRelations(ctx, id, stations.Contract().AllRelations())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("station %s not found", id)
	}
	connected, err := a.Network.StationConnectedTracks(ctx, st)
	if err != nil {
		return nil, err
	}
	platformTracks, err := a.Network.StationPlatformTracks(ctx, st)
	if err != nil {
		return nil, err
	}

	view := &StationView{
		ID:            st.ID,
		Name:          st.Name,
		OwnerID:       st.OwnerID,
		TotalCapacity: st.TotalCapacity,
		Version:       st.Version,
		Location:      st.Location,
		Platforms:     make([]PlatformView, 0, len(st.Platforms)),
		Gates:         len(st.Gates),
		Corridors:     len(st.Corridors),
	}
	for _, p := range st.Platforms {
		_, found := platformTracks[p.ConnectedTrackID]
		view.Platforms = append(view.Platforms, PlatformView{ID: p.ID, Capacity: p.Capacity, Track: p.ConnectedTrackID, Dangling: !found})
	}
	present := make(map[string]struct{}, len(connected))
	for _, t := range connected {
		present[t.ID] = struct{}{}
		view.ConnectedTracks = append(view.ConnectedTracks, toTrackView(t))
	}
	for _, tid := range st.ConnectedTrackIDs {
		if _, ok := present[tid]; !ok {
			view.DanglingTrackIDs = append(view.DanglingTrackIDs, tid)
		}
	}
	return view, nil
}

func ShowTrack(ctx context.Context, a *app.App, id string) (*TrackDetailView, error) {
	tracks := a.Stores.Tracks
	t, ok, err := tracks.GetWithRelations(ctx, id, tracks.Contract().AllRelations())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("track %s not found", id)
	}
	view := &TrackDetailView{
		TrackView: toTrackView(t),
		OwnerID:   t.OwnerID,
		Version:   t.Version,
		Curve:     len(t.Curve),
		Signals:   make([]SignalView, 0, len(t.Signals)),
	}
	for _, sg := range t.Signals {
		protected, err := a.Network.SignalProtectedTracks(ctx, sg)
		if err != nil {
			return nil, err
		}
		sv := SignalView{ID: sg.ID, Type: string(sg.SignalType), MainLine: sg.SignalType.IsMainLine()}
		for _, pt := range protected {
			sv.ProtectedTracks = append(sv.ProtectedTracks, toTrackView(pt))
		}
		view.Signals = append(view.Signals, sv)
	}
	return view, nil
}

func toTrackView(t *types.Track) TrackView {
	v := TrackView{ID: t.ID, Length: t.Length, MaxSpeed: t.MaxSpeed}
	if t.StartJunctionID != nil {
		v.StartJunction = *t.StartJunctionID
	}
	if t.EndJunctionID != nil {
		v.EndJunction = *t.EndJunctionID
	}
	return v
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
