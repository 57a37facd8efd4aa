package railway

import (
	"errors"
	"testing"
)

func validStation() *Station {
	return &Station{
		Name:          "Tokyo",
		OwnerID:       "p1",
		TotalCapacity: 1000,
		Location:      Location{X: 35.68, Y: 139.76},
		Platforms:     []*Platform{{ConnectedTrackID: "t1", Capacity: 200}},
		Gates:         []*Gate{{Capacity: 50, ProcessingTime: 1.5}},
		Corridors:     []*Corridor{{Length: 30, Width: 4}},
	}
}

func TestStationValidate(t *testing.T) {
	if err := validStation().Validate(); err != nil {
		t.Fatalf("valid station: %v", err)
	}

	cases := map[string]func(s *Station){
		"empty name":          func(s *Station) { s.Name = "  " },
		"empty owner":         func(s *Station) { s.OwnerID = "" },
		"zero capacity":       func(s *Station) { s.TotalCapacity = 0 },
		"platform no track":   func(s *Station) { s.Platforms[0].ConnectedTrackID = "" },
		"gate processing":     func(s *Station) { s.Gates[0].ProcessingTime = 0 },
		"corridor width":      func(s *Station) { s.Corridors[0].Width = -1 },
		"empty connected id":  func(s *Station) { s.ConnectedTrackIDs = []string{""} },
		"nil platform":        func(s *Station) { s.Platforms = append(s.Platforms, nil) },
		"negative capacity":   func(s *Station) { s.TotalCapacity = -5 },
		"zero platform seats": func(s *Station) { s.Platforms[0].Capacity = 0 },
	}
	for name, mutate := range cases {
		s := validStation()
		mutate(s)
		err := s.Validate()
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestTrackCurveInvariants(t *testing.T) {
	base := func(orders ...int) *Track {
		tr := &Track{OwnerID: "p1", Length: 100, MaxSpeed: 80}
		for _, o := range orders {
			tr.Curve = append(tr.Curve, &CurvePoint{SequenceOrder: o})
		}
		return tr
	}

	if err := base(1, 0, 2).Validate(); err != nil {
		t.Fatalf("permuted contiguous curve: %v", err)
	}
	if err := base(0, 1, 1).Validate(); !errors.Is(err, ErrDuplicateSequence) {
		t.Fatalf("duplicate orders: expected ErrDuplicateSequence, got %v", err)
	}
	if err := base(0, 2).Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("gap: expected ErrInvalid, got %v", err)
	}

	tr := base(0, 0, 0)
	tr.Curve[2].Point = Point3D{X: 9}
	tr.NormalizeCurve()
	if err := tr.Validate(); err != nil {
		t.Fatalf("normalized curve: %v", err)
	}
	if tr.Curve[2].SequenceOrder != 2 || tr.Curve[2].Point.X != 9 {
		t.Fatalf("normalize should number by position, got %+v", tr.Curve[2])
	}

	tr = base(2, 0, 1)
	tr.NormalizeCurve()
	for i, cp := range tr.Curve {
		if cp.SequenceOrder != i {
			t.Fatalf("normalize should sort by order, got %d at %d", cp.SequenceOrder, i)
		}
	}
}

func TestTrackSignalValidation(t *testing.T) {
	tr := &Track{OwnerID: "p1", Length: 1, MaxSpeed: 1, Signals: []*Signal{{SignalType: "RED"}}}
	if err := tr.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown signal type: expected ErrInvalid, got %v", err)
	}
	tr.Signals[0].SignalType = SignalTypeBlock
	tr.Signals[0].ProtectedTrackIDs = []string{"t2"}
	if err := tr.Validate(); err != nil {
		t.Fatalf("valid signal: %v", err)
	}
}

func TestTrackTouchesJunction(t *testing.T) {
	j1, j2 := "j1", "j2"
	tr := &Track{StartJunctionID: &j1, EndJunctionID: &j2}
	if !tr.TouchesJunction("j1") || !tr.TouchesJunction("j2") || tr.TouchesJunction("j3") {
		t.Fatalf("unexpected TouchesJunction result")
	}
}

func TestScheduleValidate(t *testing.T) {
	s := &Schedule{
		TrainID: "train-1",
		RouteID: "r1",
		StopTimes: []*StopTime{
			{StationID: "s1", ArrivalTime: NewTimeOfDay(8, 0, 0), DepartureTime: NewTimeOfDay(8, 2, 0), SequenceOrder: 0},
			{StationID: "s2", ArrivalTime: NewTimeOfDay(8, 10, 0), DepartureTime: NewTimeOfDay(8, 10, 30), SequenceOrder: 1},
		},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("valid schedule: %v", err)
	}

	s.StopTimes[1].DepartureTime = NewTimeOfDay(8, 9, 0)
	if err := s.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("departure before arrival: expected ErrInvalid, got %v", err)
	}
	s.StopTimes[1].DepartureTime = NewTimeOfDay(8, 11, 0)

	s.StopTimes[1].SequenceOrder = 0
	if err := s.Validate(); !errors.Is(err, ErrDuplicateSequence) {
		t.Fatalf("duplicate order: expected ErrDuplicateSequence, got %v", err)
	}

	s.StopTimes[1].SequenceOrder = 1
	s.TrainID = ""
	if err := s.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing train: expected ErrInvalid, got %v", err)
	}

	train := &Train{OwnerID: "p1", TrainType: TrainTypeLocal, TotalCapacity: 100, DoorCount: 4, Schedule: s}
	if err := train.Validate(); err != nil {
		t.Fatalf("schedule nested in train may omit train_id: %v", err)
	}
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod != NewTimeOfDay(8, 5, 0) || tod.String() != "08:05:00" {
		t.Fatalf("unexpected value %d (%s)", tod, tod)
	}
	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Fatalf("expected range error")
	}
	var back TimeOfDay
	if err := back.UnmarshalText([]byte("23:59:59")); err != nil || back != NewTimeOfDay(23, 59, 59) {
		t.Fatalf("unmarshal: %v (%d)", err, back)
	}
}

func TestBoundingBoxInclusive(t *testing.T) {
	b := BoundingBox{MinX: 35.6, MaxX: 35.7, MinY: 139.6, MaxY: 139.8}
	if !b.Contains(Location{X: 35.68, Y: 139.76}) || !b.Contains(Location{X: 35.6, Y: 139.8}) {
		t.Fatalf("expected containment")
	}
	if b.Contains(Location{X: 35.71, Y: 139.7}) {
		t.Fatalf("unexpected containment")
	}
}

func TestValidateRootIgnoresChildCollections(t *testing.T) {
	tr := &Track{OwnerID: "p1", Length: 100, MaxSpeed: 80,
		Curve:   []*CurvePoint{{SequenceOrder: 3}},
		Signals: []*Signal{{SignalType: "BOGUS"}},
	}
	if err := tr.ValidateRoot(); err != nil {
		t.Fatalf("track root: %v", err)
	}
	if err := tr.ValidateCurve(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("curve gap: expected ErrInvalid, got %v", err)
	}
	if err := tr.ValidateSignals(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("signal type: expected ErrInvalid, got %v", err)
	}

	st := validStation()
	st.Gates[0].Capacity = 0
	if err := st.ValidateRoot(); err != nil {
		t.Fatalf("station root: %v", err)
	}
	if err := st.ValidateGates(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("gates: expected ErrInvalid, got %v", err)
	}

	train := &Train{OwnerID: "p1", TrainType: TrainTypeLocal, TotalCapacity: 100, DoorCount: 4,
		Cars:     []*Car{{Capacity: 0, DoorCount: 2}},
		Schedule: &Schedule{},
	}
	if err := train.ValidateRoot(); err != nil {
		t.Fatalf("train root: %v", err)
	}
	if err := train.ValidateCars(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("cars: expected ErrInvalid, got %v", err)
	}
	if err := train.ValidateSchedule(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("schedule without route: expected ErrInvalid, got %v", err)
	}
}
