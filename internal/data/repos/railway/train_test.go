package railway

import (
	"context"
	"testing"

	"github.com/rushhourgame/railnet/internal/data/repos/testutil"
	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

func TestTrainRepoFind(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	trains := NewTrainRepo(db, log)
	cars := NewCarRepo(db, log)

	express := testutil.SeedTrain(t, ctx, tx, "p1", types.TrainTypeExpress, true)
	testutil.SeedTrain(t, ctx, tx, "p1", types.TrainTypeLocal, false)
	testutil.SeedTrain(t, ctx, tx, "p2", types.TrainTypeExpress, true)

	got, err := trains.Find(dbc, types.TrainFilter{OwnerID: types.Ptr("p1"), IsPlayerControlled: types.Ptr(true)})
	if err != nil || len(got) != 1 || got[0].ID != express.ID {
		t.Fatalf("owner+player: err=%v got=%+v", err, got)
	}
	got, err = trains.Find(dbc, types.TrainFilter{TrainType: types.Ptr(types.TrainTypeExpress)})
	if err != nil || len(got) != 2 {
		t.Fatalf("express: err=%v len=%d", err, len(got))
	}
	got, err = trains.Find(dbc, types.TrainFilter{MinTotalCapacity: types.Ptr(401)})
	if err != nil || len(got) != 0 {
		t.Fatalf("capacity: err=%v len=%d", err, len(got))
	}

	if err := cars.Create(dbc, []*types.Car{
		{ID: "c1", TrainID: express.ID, SequenceOrder: 1, Capacity: 100, DoorCount: 3},
		{ID: "c0", TrainID: express.ID, SequenceOrder: 0, Capacity: 150, DoorCount: 4},
	}); err != nil {
		t.Fatalf("cars Create: %v", err)
	}
	listed, err := cars.ListByTrainIDs(dbc, []string{express.ID})
	if err != nil || len(listed) != 2 || listed[0].ID != "c0" {
		t.Fatalf("ListByTrainIDs order: err=%v got=%+v", err, listed)
	}
	fourDoor, err := cars.Find(dbc, types.CarFilter{TrainID: types.Ptr(express.ID), DoorCount: types.Ptr(4)})
	if err != nil || len(fourDoor) != 1 || fourDoor[0].ID != "c0" {
		t.Fatalf("door count: err=%v got=%+v", err, fourDoor)
	}
	big, err := cars.Find(dbc, types.CarFilter{MinCapacity: types.Ptr(120)})
	if err != nil || len(big) != 1 {
		t.Fatalf("min capacity: err=%v got=%+v", err, big)
	}
}

func TestStopTimeRepoFind(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	schedules := NewScheduleRepo(db, log)
	stopTimes := NewStopTimeRepo(db, log)

	train := testutil.SeedTrain(t, ctx, tx, "p1", types.TrainTypeRapid, false)
	sched := testutil.SeedSchedule(t, ctx, tx, train.ID, "r1")
	testutil.SeedStopTime(t, ctx, tx, sched.ID, "s1", 0, types.NewTimeOfDay(8, 0, 0), types.NewTimeOfDay(8, 1, 0))
	testutil.SeedStopTime(t, ctx, tx, sched.ID, "s2", 1, types.NewTimeOfDay(8, 10, 0), types.NewTimeOfDay(8, 11, 0))
	testutil.SeedStopTime(t, ctx, tx, sched.ID, "s1", 2, types.NewTimeOfDay(9, 0, 0), types.NewTimeOfDay(9, 5, 0))

	atS1, err := stopTimes.Find(dbc, types.StopTimeFilter{ScheduleID: types.Ptr(sched.ID), StationID: types.Ptr("s1")})
	if err != nil || len(atS1) != 2 || atS1[0].SequenceOrder != 0 || atS1[1].SequenceOrder != 2 {
		t.Fatalf("schedule+station: err=%v got=%+v", err, atS1)
	}
	late, err := stopTimes.Find(dbc, types.StopTimeFilter{ArrivalAfter: types.Ptr(types.NewTimeOfDay(8, 0, 0))})
	if err != nil || len(late) != 2 {
		t.Fatalf("arrival after (strict): err=%v len=%d", err, len(late))
	}
	early, err := stopTimes.Find(dbc, types.StopTimeFilter{DepartureBefore: types.Ptr(types.NewTimeOfDay(8, 11, 0))})
	if err != nil || len(early) != 1 {
		t.Fatalf("departure before (strict): err=%v len=%d", err, len(early))
	}

	byTrain, err := schedules.GetByTrainIDs(dbc, []string{train.ID})
	if err != nil || len(byTrain) != 1 || byTrain[0].ID != sched.ID {
		t.Fatalf("GetByTrainIDs: err=%v got=%+v", err, byTrain)
	}
	exists, err := schedules.ExistsByTrainID(dbc, train.ID)
	if err != nil || !exists {
		t.Fatalf("ExistsByTrainID: err=%v exists=%v", err, exists)
	}
	byRoute, err := schedules.Find(dbc, types.ScheduleFilter{RouteID: types.Ptr("r1")})
	if err != nil || len(byRoute) != 1 {
		t.Fatalf("Find route: err=%v len=%d", err, len(byRoute))
	}
}
