package railway

import (
	"context"
	"errors"
	"testing"

	"github.com/rushhourgame/railnet/internal/data/repos/testutil"
	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

func TestStationRepoFind(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	stations := NewStationRepo(db, log)
	connected := NewStationConnectedTrackRepo(db, log)

	tokyo := testutil.SeedStation(t, ctx, tx, "Tokyo", "p1", types.Location{X: 35.68, Y: 139.76})
	osaka := testutil.SeedStation(t, ctx, tx, "Osaka", "p1", types.Location{X: 34.70, Y: 135.49})
	nagoya := testutil.SeedStation(t, ctx, tx, "Nagoya", "p2", types.Location{X: 35.17, Y: 136.88})
	if err := tx.Model(&types.Station{}).Where("id = ?", osaka.ID).Update("total_capacity", 500).Error; err != nil {
		t.Fatalf("bump capacity: %v", err)
	}

	if err := connected.Replace(dbc, tokyo.ID, []string{"t1", "t2"}); err != nil {
		t.Fatalf("Replace tokyo: %v", err)
	}
	if err := connected.Replace(dbc, nagoya.ID, []string{"t2"}); err != nil {
		t.Fatalf("Replace nagoya: %v", err)
	}

	byOwner, err := stations.Find(dbc, types.StationFilter{OwnerID: types.Ptr("p1")})
	if err != nil || len(byOwner) != 2 {
		t.Fatalf("Find owner: err=%v len=%d", err, len(byOwner))
	}

	inBox, err := stations.Find(dbc, types.StationFilter{Within: &types.BoundingBox{MinX: 35.6, MaxX: 35.7, MinY: 139.6, MaxY: 139.8}})
	if err != nil || len(inBox) != 1 || inBox[0].ID != tokyo.ID {
		t.Fatalf("Find bbox: err=%v got=%+v", err, inBox)
	}

	onT2, err := stations.Find(dbc, types.StationFilter{ConnectedTrackID: types.Ptr("t2")})
	if err != nil || len(onT2) != 2 {
		t.Fatalf("Find connected t2: err=%v len=%d", err, len(onT2))
	}
	onT1AndP1, err := stations.Find(dbc, types.StationFilter{ConnectedTrackID: types.Ptr("t1"), OwnerID: types.Ptr("p1")})
	if err != nil || len(onT1AndP1) != 1 || onT1AndP1[0].ID != tokyo.ID {
		t.Fatalf("Find connected t1 + owner: err=%v got=%+v", err, onT1AndP1)
	}

	ordered, err := stations.Find(dbc, types.StationFilter{OrderBy: []types.Order{{Column: "total_capacity", Desc: true}}})
	if err != nil || len(ordered) != 3 || ordered[0].ID != osaka.ID {
		t.Fatalf("Find ordered: err=%v got=%+v", err, ordered)
	}

	_, err = stations.Find(dbc, types.StationFilter{OrderBy: []types.Order{{Column: "password"}}})
	if !errors.Is(err, types.ErrInvalid) {
		t.Fatalf("unsupported order: expected ErrInvalid, got %v", err)
	}

	first, err := stations.FirstByName(dbc, "Nagoya")
	if err != nil || first == nil || first.ID != nagoya.ID {
		t.Fatalf("FirstByName: err=%v got=%+v", err, first)
	}
	missing, err := stations.FirstByName(dbc, "Kyoto")
	if err != nil || missing != nil {
		t.Fatalf("FirstByName missing: err=%v got=%+v", err, missing)
	}

	lists, err := connected.ListByOwnerIDs(dbc, []string{tokyo.ID, nagoya.ID, osaka.ID})
	if err != nil {
		t.Fatalf("ListByOwnerIDs: %v", err)
	}
	if got := lists[tokyo.ID]; len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
		t.Fatalf("tokyo list: %+v", got)
	}
	if _, ok := lists[osaka.ID]; ok {
		t.Fatalf("osaka should have no list")
	}

	owners, err := connected.OwnersReferencing(dbc, "t2")
	if err != nil || len(owners) != 2 {
		t.Fatalf("OwnersReferencing: err=%v got=%+v", err, owners)
	}
}

func TestPlatformAndGateRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	platforms := NewPlatformRepo(db, log)
	gates := NewGateRepo(db, log)

	st := testutil.SeedStation(t, ctx, tx, "Shinjuku", "p1", types.Location{})
	other := testutil.SeedStation(t, ctx, tx, "Shibuya", "p1", types.Location{})
	testutil.SeedPlatform(t, ctx, tx, st.ID, "t1", 200)
	testutil.SeedPlatform(t, ctx, tx, st.ID, "t2", 50)
	testutil.SeedPlatform(t, ctx, tx, other.ID, "t1", 300)

	if err := gates.Create(dbc, []*types.Gate{
		{ID: "g1", StationID: st.ID, Capacity: 10, ProcessingTime: 1.0},
		{ID: "g2", StationID: st.ID, Capacity: 40, ProcessingTime: 3.0},
	}); err != nil {
		t.Fatalf("gates Create: %v", err)
	}

	onT1, err := platforms.Find(dbc, types.PlatformFilter{ConnectedTrackID: types.Ptr("t1"), MinCapacity: types.Ptr(250)})
	if err != nil || len(onT1) != 1 || onT1[0].StationID != other.ID {
		t.Fatalf("platform Find: err=%v got=%+v", err, onT1)
	}

	byStation, err := platforms.ListByStationIDs(dbc, []string{st.ID, other.ID})
	if err != nil || len(byStation) != 3 {
		t.Fatalf("ListByStationIDs: err=%v len=%d", err, len(byStation))
	}

	slow, err := gates.Find(dbc, types.GateFilter{MinProcessingTime: types.Ptr(2.0)})
	if err != nil || len(slow) != 1 || slow[0].ID != "g2" {
		t.Fatalf("gate Find processing: err=%v got=%+v", err, slow)
	}
	mid, err := gates.Find(dbc, types.GateFilter{StationID: types.Ptr(st.ID), MinCapacity: types.Ptr(5), MaxCapacity: types.Ptr(20)})
	if err != nil || len(mid) != 1 || mid[0].ID != "g1" {
		t.Fatalf("gate Find capacity range: err=%v got=%+v", err, mid)
	}

	n, err := platforms.DeleteByStationIDs(dbc, []string{st.ID})
	if err != nil || n != 2 {
		t.Fatalf("DeleteByStationIDs: err=%v n=%d", err, n)
	}
}

func TestChunk(t *testing.T) {
	ids := make([]string, 1201)
	for i := range ids {
		ids[i] = "x"
	}
	parts := Chunk(ids, InChunkSize)
	if len(parts) != 3 || len(parts[0]) != 500 || len(parts[2]) != 201 {
		t.Fatalf("unexpected chunks: %d", len(parts))
	}
	if Chunk(nil, 10) != nil {
		t.Fatalf("nil input should give nil")
	}
	if got := Dedupe([]string{"a", " ", "b", "a"}); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Dedupe: %+v", got)
	}
}
