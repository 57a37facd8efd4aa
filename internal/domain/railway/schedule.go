package railway

import (
	"fmt"
	"sort"
	"strings"
)

// Schedule belongs to exactly one train and owns its stop times.
type Schedule struct {
	AuditedEntity
	TrainID string `gorm:"column:train_id;size:64;not null;uniqueIndex" json:"train_id"`
	RouteID string `gorm:"column:route_id;size:64;not null;index" json:"route_id"`

	StopTimes []*StopTime `gorm:"-" json:"stop_times,omitempty"`

	Train *Train `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrainID;references:ID" json:"-"`
}

func (Schedule) TableName() string { return "schedule" }

type StopTime struct {
	ID            string    `gorm:"column:id;size:64;primaryKey" json:"id"`
	ScheduleID    string    `gorm:"column:schedule_id;size:64;not null;uniqueIndex:idx_stop_time_order,priority:1" json:"schedule_id"`
	StationID     string    `gorm:"column:station_id;size:64;not null;index" json:"station_id"`
	ArrivalTime   TimeOfDay `gorm:"column:arrival_time;not null;index" json:"arrival_time"`
	DepartureTime TimeOfDay `gorm:"column:departure_time;not null;index" json:"departure_time"`
	SequenceOrder int       `gorm:"column:sequence_order;not null;uniqueIndex:idx_stop_time_order,priority:2" json:"sequence_order"`

	Schedule *Schedule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ScheduleID;references:ID" json:"-"`
}

func (StopTime) TableName() string { return "stop_time" }

// DwellSeconds is the time spent at the station.
func (s *StopTime) DwellSeconds() int { return int(s.DepartureTime - s.ArrivalTime) }

func (s *Schedule) Validate() error {
	if err := s.ValidateRoot(); err != nil {
		return err
	}
	return s.ValidateStopTimes()
}

func (s *Schedule) ValidateRoot() error { return s.validateRoot(true) }

func (s *Schedule) validateRoot(requireTrain bool) error {
	p := newProblems("schedule")
	if requireTrain {
		p.require(strings.TrimSpace(s.TrainID) != "", "train_id is required")
	}
	p.require(strings.TrimSpace(s.RouteID) != "", "route_id is required")
	return p.err()
}

func (s *Schedule) ValidateStopTimes() error {
	p := newProblems("schedule")
	for i, st := range s.StopTimes {
		if st == nil {
			p.addf("stop_times[%d] is nil", i)
			continue
		}
		p.require(strings.TrimSpace(st.StationID) != "", "stop_times[%d].station_id is required", i)
		p.require(st.SequenceOrder >= 0, "stop_times[%d].sequence_order must be >= 0", i)
		p.require(st.ArrivalTime.Valid(), "stop_times[%d].arrival_time out of range", i)
		p.require(st.DepartureTime.Valid(), "stop_times[%d].departure_time out of range", i)
		p.require(st.DepartureTime >= st.ArrivalTime,
			"stop_times[%d].departure_time %s precedes arrival_time %s", i, st.DepartureTime, st.ArrivalTime)
	}
	if err := p.err(); err != nil {
		return err
	}
	seen := make(map[int]struct{}, len(s.StopTimes))
	for _, st := range s.StopTimes {
		if _, dup := seen[st.SequenceOrder]; dup {
			return fmt.Errorf("%w: schedule stop_time sequence_order %d", ErrDuplicateSequence, st.SequenceOrder)
		}
		seen[st.SequenceOrder] = struct{}{}
	}
	return nil
}

// SortStopTimes orders stop times by sequence order.
func (s *Schedule) SortStopTimes() {
	sort.SliceStable(s.StopTimes, func(i, j int) bool {
		return s.StopTimes[i].SequenceOrder < s.StopTimes[j].SequenceOrder
	})
}
