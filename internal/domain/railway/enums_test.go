package railway

import "testing"

func TestTrainTypePriority(t *testing.T) {
	if !TrainTypeExpress.HasHigherPriorityThan(TrainTypeLocal) {
		t.Fatalf("EXPRESS should outrank LOCAL")
	}
	if TrainTypeLocal.HasHigherPriorityThan(TrainTypeExpress) {
		t.Fatalf("LOCAL should not outrank EXPRESS")
	}
	if TrainTypeRapid.HasHigherPriorityThan(TrainTypeRapid) {
		t.Fatalf("a type should not outrank itself")
	}
	want := map[TrainType]int{
		TrainTypeLocal:          1,
		TrainTypeRapid:          2,
		TrainTypeExpress:        3,
		TrainTypeLimitedExpress: 4,
	}
	for tt, p := range want {
		if got := tt.Priority(); got != p {
			t.Fatalf("%s priority: want=%d got=%d", tt, p, got)
		}
	}
	if TrainType("BULLET").Valid() || TrainType("BULLET").Priority() != 0 {
		t.Fatalf("unknown train type should be invalid with zero priority")
	}
}

func TestTrainOutranks(t *testing.T) {
	express := &Train{TrainType: TrainTypeExpress}
	local := &Train{TrainType: TrainTypeLocal}
	if !express.OutranksTrain(local) || local.OutranksTrain(express) {
		t.Fatalf("unexpected ranking express=%v local=%v", express.OutranksTrain(local), local.OutranksTrain(express))
	}
}

func TestSignalTypeCapabilities(t *testing.T) {
	cases := []struct {
		st        SignalType
		mainLine  bool
		emergency bool
	}{
		{SignalTypeBlock, true, false},
		{SignalTypePath, true, false},
		{SignalTypeAbsolute, true, true},
		{SignalTypeShunting, false, false},
	}
	for _, tc := range cases {
		if got := tc.st.IsMainLine(); got != tc.mainLine {
			t.Fatalf("%s IsMainLine: want=%v got=%v", tc.st, tc.mainLine, got)
		}
		if got := tc.st.HasEmergencyControl(); got != tc.emergency {
			t.Fatalf("%s HasEmergencyControl: want=%v got=%v", tc.st, tc.emergency, got)
		}
	}
	if SignalType("FLAG").Valid() {
		t.Fatalf("unknown signal type should be invalid")
	}
}

func TestJunctionTypeFlags(t *testing.T) {
	if !JunctionCross.CanSplit() || !JunctionCross.CanMerge() {
		t.Fatalf("CROSS should split and merge")
	}
	if !JunctionSplit.CanSplit() || JunctionSplit.CanMerge() {
		t.Fatalf("SPLIT should only split")
	}
	if JunctionMerge.CanSplit() || !JunctionMerge.CanMerge() {
		t.Fatalf("MERGE should only merge")
	}
	if JunctionTerminal.CanSplit() || JunctionTerminal.CanMerge() {
		t.Fatalf("TERMINAL should do neither")
	}
}

func TestTrainOperationState(t *testing.T) {
	if !TrainMoving.CanMove() || !TrainDeadhead.CanMove() || TrainStopped.CanMove() {
		t.Fatalf("unexpected CanMove")
	}
	if !TrainBoarding.CanBoard() || TrainMoving.CanBoard() {
		t.Fatalf("unexpected CanBoard")
	}
	if !TrainEmergency.IsEmergency() || TrainAwaiting.IsEmergency() {
		t.Fatalf("unexpected IsEmergency")
	}
}
