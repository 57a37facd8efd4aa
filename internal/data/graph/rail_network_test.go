package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

func fixedProjector() *NetworkProjector {
	p := NewNetworkProjector(nil, logger.Nop())
	p.now = func() time.Time { return time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC) }
	return p
}

func strPtr(s string) *string { return &s }

func TestProjectorWithoutClientIsNoop(t *testing.T) {
	p := NewNetworkProjector(nil, nil)
	if p.Enabled() {
		t.Fatalf("projector without a client must be disabled")
	}
	err := p.RootChanged(context.Background(), aggregates.Change{Aggregate: aggregates.AggregateTrack, IDs: []string{"t1"}, Deleted: true})
	if err != nil {
		t.Fatalf("disabled projector should ignore changes: %v", err)
	}
	p.EnsureSchema(context.Background())
}

func TestPlanTrackWithJunctionsAndSignals(t *testing.T) {
	p := fixedProjector()
	track := &types.Track{
		OwnerID:         "p1",
		Length:          120,
		MaxSpeed:        90,
		StartJunctionID: strPtr("j1"),
		EndJunctionID:   strPtr("j2"),
		Signals: []*types.Signal{
			{ID: "s1", SignalType: types.SignalTypeBlock, ProtectedTrackIDs: []string{"t2", "t3"}},
		},
	}
	track.ID = "t1"

	stmts := p.plan(aggregates.Change{Aggregate: aggregates.AggregateTrack, IDs: []string{"t1"}, Root: track})
	if len(stmts) != 6 {
		t.Fatalf("want 6 statements (node, ends, edge, clear signals, signals, protects), got %d", len(stmts))
	}
	if !strings.Contains(stmts[2].cypher, ":TRACK") || stmts[2].params["from_id"] != "j1" || stmts[2].params["to_id"] != "j2" {
		t.Fatalf("junction edge statement wrong: %+v", stmts[2])
	}
	protects, _ := stmts[5].params["protects"].([]map[string]any)
	if len(protects) != 2 || protects[1]["track_id"] != "t3" || protects[1]["sequence_order"] != int64(1) {
		t.Fatalf("protects params wrong: %+v", protects)
	}
	node, _ := stmts[0].params["track"].(map[string]any)
	if node["synced_at"] != "2024-04-01T08:00:00Z" {
		t.Fatalf("synced_at not stamped: %+v", node)
	}
}

func TestPlanTrackLeavesSignalsWhenNotLoaded(t *testing.T) {
	p := fixedProjector()
	track := &types.Track{OwnerID: "p1", Length: 1, MaxSpeed: 1, StartJunctionID: strPtr("j1")}
	track.ID = "t1"
	stmts := p.plan(aggregates.Change{Aggregate: aggregates.AggregateTrack, IDs: []string{"t1"}, Root: track})
	if len(stmts) != 2 {
		t.Fatalf("want node and single end statements, got %d", len(stmts))
	}
	for _, st := range stmts {
		if strings.Contains(st.cypher, "Signal") {
			t.Fatalf("signals must not be touched when not loaded: %s", st.cypher)
		}
	}
}

func TestPlanDeletesAndStations(t *testing.T) {
	p := fixedProjector()
	del := p.plan(aggregates.Change{Aggregate: aggregates.AggregateTrack, IDs: []string{"t1"}, Deleted: true})
	if len(del) != 1 || !strings.Contains(del[0].cypher, "DETACH DELETE") {
		t.Fatalf("track delete plan: %+v", del)
	}

	st := &types.Station{Name: "Tokyo", OwnerID: "p1", TotalCapacity: 1000, ConnectedTrackIDs: []string{"t1"}}
	st.ID = "s1"
	stmts := p.plan(aggregates.Change{Aggregate: aggregates.AggregateStation, IDs: []string{"s1"}, Root: st})
	if len(stmts) != 2 || !strings.Contains(stmts[1].cypher, ":CONNECTS") {
		t.Fatalf("station plan: %+v", stmts)
	}

	if got := p.plan(aggregates.Change{Aggregate: aggregates.AggregateTrain, IDs: []string{"x"}}); got != nil {
		t.Fatalf("trains are not projected: %+v", got)
	}
}
