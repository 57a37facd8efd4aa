package railway

import "strings"

// Station owns its platforms, gates and corridors. ConnectedTrackIDs are weak references
// persisted in station_connected_track and never checked for existence.
type Station struct {
	AuditedEntity
	Name          string   `gorm:"column:name;not null;index" json:"name"`
	OwnerID       string   `gorm:"column:owner_id;size:64;not null;index" json:"owner_id"`
	TotalCapacity int      `gorm:"column:total_capacity;not null" json:"total_capacity"`
	Location      Location `gorm:"embedded;embeddedPrefix:location_" json:"location"`

	ConnectedTrackIDs []string `gorm:"-" json:"connected_track_ids"`

	Platforms []*Platform `gorm:"-" json:"platforms,omitempty"`
	Gates     []*Gate     `gorm:"-" json:"gates,omitempty"`
	Corridors []*Corridor `gorm:"-" json:"corridors,omitempty"`
}

func (Station) TableName() string { return "station" }

type Platform struct {
	ID               string `gorm:"column:id;size:64;primaryKey" json:"id"`
	StationID        string `gorm:"column:station_id;size:64;not null;index" json:"station_id"`
	ConnectedTrackID string `gorm:"column:connected_track_id;size:64;not null;index" json:"connected_track_id"`
	Capacity         int    `gorm:"column:capacity;not null" json:"capacity"`

	Station *Station `gorm:"constraint:OnDelete:CASCADE;foreignKey:StationID;references:ID" json:"-"`
}

func (Platform) TableName() string { return "platform" }

type Gate struct {
	ID             string   `gorm:"column:id;size:64;primaryKey" json:"id"`
	StationID      string   `gorm:"column:station_id;size:64;not null;index" json:"station_id"`
	Capacity       int      `gorm:"column:capacity;not null" json:"capacity"`
	ProcessingTime float64  `gorm:"column:processing_time;not null" json:"processing_time"`
	Position       Location `gorm:"embedded;embeddedPrefix:position_" json:"position"`

	Station *Station `gorm:"constraint:OnDelete:CASCADE;foreignKey:StationID;references:ID" json:"-"`
}

func (Gate) TableName() string { return "gate" }

type Corridor struct {
	ID        string  `gorm:"column:id;size:64;primaryKey" json:"id"`
	StationID string  `gorm:"column:station_id;size:64;not null;index" json:"station_id"`
	Length    float64 `gorm:"column:length;not null" json:"length"`
	Width     float64 `gorm:"column:width;not null" json:"width"`

	Station *Station `gorm:"constraint:OnDelete:CASCADE;foreignKey:StationID;references:ID" json:"-"`
}

func (Corridor) TableName() string { return "corridor" }

// StationConnectedTrack is one entry of Station.ConnectedTrackIDs.
type StationConnectedTrack struct {
	StationID     string `gorm:"column:station_id;size:64;primaryKey" json:"station_id"`
	SequenceOrder int    `gorm:"column:sequence_order;primaryKey" json:"sequence_order"`
	TrackID       string `gorm:"column:track_id;size:64;not null;index" json:"track_id"`

	Station *Station `gorm:"constraint:OnDelete:CASCADE;foreignKey:StationID;references:ID" json:"-"`
}

func (StationConnectedTrack) TableName() string { return "station_connected_track" }

// Validate checks root scalars and, when loaded, every owned child.
func (s *Station) Validate() error {
	for _, check := range []func() error{s.ValidateRoot, s.ValidatePlatforms, s.ValidateGates, s.ValidateCorridors} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRoot checks the scalars and the connected track id list.
func (s *Station) ValidateRoot() error {
	p := newProblems("station")
	p.require(strings.TrimSpace(s.Name) != "", "name is required")
	p.require(strings.TrimSpace(s.OwnerID) != "", "owner_id is required")
	p.require(s.TotalCapacity > 0, "total_capacity must be positive, got %d", s.TotalCapacity)
	for i, id := range s.ConnectedTrackIDs {
		p.require(strings.TrimSpace(id) != "", "connected_track_ids[%d] is empty", i)
	}
	return p.err()
}

func (s *Station) ValidatePlatforms() error {
	p := newProblems("station")
	for i, pl := range s.Platforms {
		if pl == nil {
			p.addf("platforms[%d] is nil", i)
			continue
		}
		p.require(strings.TrimSpace(pl.ConnectedTrackID) != "", "platforms[%d].connected_track_id is required", i)
		p.require(pl.Capacity > 0, "platforms[%d].capacity must be positive", i)
	}
	return p.err()
}

func (s *Station) ValidateGates() error {
	p := newProblems("station")
	for i, g := range s.Gates {
		if g == nil {
			p.addf("gates[%d] is nil", i)
			continue
		}
		p.require(g.Capacity > 0, "gates[%d].capacity must be positive", i)
		p.require(g.ProcessingTime > 0, "gates[%d].processing_time must be positive", i)
	}
	return p.err()
}

func (s *Station) ValidateCorridors() error {
	p := newProblems("station")
	for i, c := range s.Corridors {
		if c == nil {
			p.addf("corridors[%d] is nil", i)
			continue
		}
		p.require(c.Length > 0, "corridors[%d].length must be positive", i)
		p.require(c.Width > 0, "corridors[%d].width must be positive", i)
	}
	return p.err()
}
