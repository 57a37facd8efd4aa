package railway

import "strings"

// Train owns its cars and, when present, its schedule.
type Train struct {
	AuditedEntity
	OwnerID            string    `gorm:"column:owner_id;size:64;not null;index" json:"owner_id"`
	TrainType          TrainType `gorm:"column:train_type;size:32;not null;index" json:"train_type"`
	GroupID            *string   `gorm:"column:group_id;size:64;index" json:"group_id,omitempty"`
	TotalCapacity      int       `gorm:"column:total_capacity;not null" json:"total_capacity"`
	DoorCount          int       `gorm:"column:door_count;not null" json:"door_count"`
	IsPlayerControlled bool      `gorm:"column:is_player_controlled;not null;default:false;index" json:"is_player_controlled"`
	AssignedRouteID    *string   `gorm:"column:assigned_route_id;size:64;index" json:"assigned_route_id,omitempty"`

	Cars     []*Car    `gorm:"-" json:"cars,omitempty"`
	Schedule *Schedule `gorm:"-" json:"schedule,omitempty"`
}

func (Train) TableName() string { return "train" }

type Car struct {
	ID            string `gorm:"column:id;size:64;primaryKey" json:"id"`
	TrainID       string `gorm:"column:train_id;size:64;not null;index" json:"train_id"`
	SequenceOrder int    `gorm:"column:sequence_order;not null" json:"sequence_order"`
	Capacity      int    `gorm:"column:capacity;not null" json:"capacity"`
	DoorCount     int    `gorm:"column:door_count;not null" json:"door_count"`

	Train *Train `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrainID;references:ID" json:"-"`
}

func (Car) TableName() string { return "car" }

// Validate checks the train, its cars and the attached schedule's own fields.
// The schedule's TrainID is assigned by the store and is not required here.
func (t *Train) Validate() error {
	for _, check := range []func() error{t.ValidateRoot, t.ValidateCars, t.ValidateSchedule} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Train) ValidateRoot() error {
	p := newProblems("train")
	p.require(strings.TrimSpace(t.OwnerID) != "", "owner_id is required")
	p.require(t.TrainType.Valid(), "train_type %q is unknown", t.TrainType)
	p.require(t.TotalCapacity > 0, "total_capacity must be positive")
	p.require(t.DoorCount > 0, "door_count must be positive")
	if t.GroupID != nil && strings.TrimSpace(*t.GroupID) == "" {
		p.addf("group_id must be omitted rather than empty")
	}
	if t.AssignedRouteID != nil && strings.TrimSpace(*t.AssignedRouteID) == "" {
		p.addf("assigned_route_id must be omitted rather than empty")
	}
	return p.err()
}

func (t *Train) ValidateCars() error {
	p := newProblems("train")
	for i, c := range t.Cars {
		if c == nil {
			p.addf("cars[%d] is nil", i)
			continue
		}
		p.require(c.Capacity > 0, "cars[%d].capacity must be positive", i)
		p.require(c.DoorCount > 0, "cars[%d].door_count must be positive", i)
	}
	return p.err()
}

// ValidateSchedule checks the nested schedule, if any, without requiring its TrainID.
func (t *Train) ValidateSchedule() error {
	if t.Schedule == nil {
		return nil
	}
	if err := t.Schedule.validateRoot(false); err != nil {
		return err
	}
	return t.Schedule.ValidateStopTimes()
}

// OutranksTrain compares by train type priority.
func (t *Train) OutranksTrain(other *Train) bool {
	if other == nil {
		return t.TrainType.Valid()
	}
	return t.TrainType.HasHigherPriorityThan(other.TrainType)
}
