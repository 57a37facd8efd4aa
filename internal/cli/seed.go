package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushhourgame/railnet/internal/app"
	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/domain/railway"
)

// SeedResult lists the roots created by seed.
type SeedResult struct {
	Skipped    bool     `yaml:"skipped"`
	StationIDs []string `yaml:"station_ids"`
	TrackIDs   []string `yaml:"track_ids"`
	TrainID    string   `yaml:"train_id,omitempty"`
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var metricsFile string
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the Tokyo sample network",
		Long:         "Migrate, then create three stations, two tracks with a block signal and an express train with its schedule. Does nothing when Tokyo already exists.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				res, err := Seed(ctx, a)
				if err != nil {
					return err
				}
				if metricsFile != "" {
					if err := a.Metrics.WriteTextfile(metricsFile); err != nil {
						return fmt.Errorf("write metrics: %w", err)
					}
				}
				return writeYAML(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file after seeding")
	return cmd
}

// Seed creates the sample network through the aggregate stores.
func Seed(ctx context.Context, a *app.App) (*SeedResult, error) {
	s := a.Stores
	if _, ok, err := s.Stations.FindByName(ctx, "Tokyo"); err != nil {
		return nil, err
	} else if ok {
		return &SeedResult{Skipped: true}, nil
	}

	res := &SeedResult{}
	jTokyo, jShinagawa, jYokohama := "j-tokyo", "j-shinagawa", "j-yokohama"

	south, err := s.Tracks.Create(ctx, &types.Track{
		OwnerID:         "operator",
		Length:          22000,
		MaxSpeed:        130,
		StartJunctionID: &jShinagawa,
		EndJunctionID:   &jYokohama,
	})
	if err != nil {
		return nil, fmt.Errorf("seed track shinagawa-yokohama: %w", err)
	}
	north, err := s.Tracks.Create(ctx, &types.Track{
		OwnerID:         "operator",
		Length:          6800,
		MaxSpeed:        120,
		StartJunctionID: &jTokyo,
		EndJunctionID:   &jShinagawa,
		Curve: []*types.CurvePoint{
			{Point: types.Point3D{X: 35.681, Y: 139.767}},
			{Point: types.Point3D{X: 35.650, Y: 139.750}},
			{Point: types.Point3D{X: 35.628, Y: 139.739}},
		},
		Signals: []*types.Signal{{
			SignalType:        types.SignalTypeBlock,
			Position:          types.Location{X: 35.629, Y: 139.740},
			ProtectedTrackIDs: []string{south.ID},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("seed track tokyo-shinagawa: %w", err)
	}
	res.TrackIDs = []string{north.ID, south.ID}

	stations := []*types.Station{
		{
			Name:              "Tokyo",
			OwnerID:           "operator",
			TotalCapacity:     1000,
			Location:          types.Location{X: 35.681, Y: 139.767},
			ConnectedTrackIDs: []string{north.ID},
			Platforms:         []*types.Platform{{ConnectedTrackID: north.ID, Capacity: 200}, {ConnectedTrackID: north.ID, Capacity: 200}},
			Gates:             []*types.Gate{{Capacity: 120, ProcessingTime: 1.5, Position: types.Location{X: 35.6812, Y: 139.7671}}},
			Corridors:         []*types.Corridor{{Length: 120, Width: 8}},
		},
		{
			Name:              "Shinagawa",
			OwnerID:           "operator",
			TotalCapacity:     800,
			Location:          types.Location{X: 35.628, Y: 139.739},
			ConnectedTrackIDs: []string{north.ID, south.ID},
			Platforms:         []*types.Platform{{ConnectedTrackID: north.ID, Capacity: 180}, {ConnectedTrackID: south.ID, Capacity: 180}},
		},
		{
			Name:              "Yokohama",
			OwnerID:           "operator",
			TotalCapacity:     900,
			Location:          types.Location{X: 35.466, Y: 139.622},
			ConnectedTrackIDs: []string{south.ID},
			Platforms:         []*types.Platform{{ConnectedTrackID: south.ID, Capacity: 220}},
		},
	}
	for _, st := range stations {
		created, err := s.Stations.Create(ctx, st)
		if err != nil {
			return nil, fmt.Errorf("seed station %s: %w", st.Name, err)
		}
		res.StationIDs = append(res.StationIDs, created.ID)
	}

	route := "tokaido"
	train, err := s.Trains.Create(ctx, &types.Train{
		OwnerID:         "operator",
		TrainType:       types.TrainTypeExpress,
		TotalCapacity:   600,
		DoorCount:       12,
		AssignedRouteID: &route,
		Cars:            []*types.Car{{Capacity: 300, DoorCount: 6}, {Capacity: 300, DoorCount: 6}},
		Schedule: &types.Schedule{
			RouteID: route,
			StopTimes: []*types.StopTime{
				{StationID: res.StationIDs[0], SequenceOrder: 0, ArrivalTime: railway.NewTimeOfDay(8, 0, 0), DepartureTime: railway.NewTimeOfDay(8, 2, 0)},
				{StationID: res.StationIDs[1], SequenceOrder: 1, ArrivalTime: railway.NewTimeOfDay(8, 10, 0), DepartureTime: railway.NewTimeOfDay(8, 11, 0)},
				{StationID: res.StationIDs[2], SequenceOrder: 2, ArrivalTime: railway.NewTimeOfDay(8, 30, 0), DepartureTime: railway.NewTimeOfDay(8, 30, 0)},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed train: %w", err)
	}
	res.TrainID = train.ID
	return res, nil
}
