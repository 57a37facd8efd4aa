package railway

import (
	"fmt"
	"sort"
	"strings"
)

// Track is a polyline between two optional junctions. It owns its curve points and signals.
type Track struct {
	AuditedEntity
	OwnerID         string  `gorm:"column:owner_id;size:64;not null;index" json:"owner_id"`
	Length          float64 `gorm:"column:length;not null" json:"length"`
	MaxSpeed        float64 `gorm:"column:max_speed;not null" json:"max_speed"`
	StartJunctionID *string `gorm:"column:start_junction_id;size:64;index" json:"start_junction_id,omitempty"`
	EndJunctionID   *string `gorm:"column:end_junction_id;size:64;index" json:"end_junction_id,omitempty"`

	Curve   []*CurvePoint `gorm:"-" json:"curve,omitempty"`
	Signals []*Signal     `gorm:"-" json:"signals,omitempty"`
}

func (Track) TableName() string { return "track" }

type CurvePoint struct {
	ID            string  `gorm:"column:id;size:64;primaryKey" json:"id"`
	TrackID       string  `gorm:"column:track_id;size:64;not null;uniqueIndex:idx_track_curve_point_order,priority:1" json:"track_id"`
	SequenceOrder int     `gorm:"column:sequence_order;not null;uniqueIndex:idx_track_curve_point_order,priority:2" json:"sequence_order"`
	Point         Point3D `gorm:"embedded" json:"point"`

	Track *Track `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackID;references:ID" json:"-"`
}

func (CurvePoint) TableName() string { return "track_curve_point" }

// Signal is hosted by one track but may protect others through ProtectedTrackIDs.
type Signal struct {
	ID         string     `gorm:"column:id;size:64;primaryKey" json:"id"`
	TrackID    string     `gorm:"column:track_id;size:64;not null;index" json:"track_id"`
	SignalType SignalType `gorm:"column:signal_type;size:32;not null;index" json:"signal_type"`
	Position   Location   `gorm:"embedded;embeddedPrefix:position_" json:"position"`

	ProtectedTrackIDs []string `gorm:"-" json:"protected_track_ids"`

	Track *Track `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackID;references:ID" json:"-"`
}

func (Signal) TableName() string { return "signal" }

type SignalProtectedTrack struct {
	SignalID      string `gorm:"column:signal_id;size:64;primaryKey" json:"signal_id"`
	SequenceOrder int    `gorm:"column:sequence_order;primaryKey" json:"sequence_order"`
	TrackID       string `gorm:"column:track_id;size:64;not null;index" json:"track_id"`

	Signal *Signal `gorm:"constraint:OnDelete:CASCADE;foreignKey:SignalID;references:ID" json:"-"`
}

func (SignalProtectedTrack) TableName() string { return "signal_protected_track" }

// TouchesJunction reports whether either end of the track is the given junction.
func (t *Track) TouchesJunction(junctionID string) bool {
	if junctionID == "" {
		return false
	}
	return (t.StartJunctionID != nil && *t.StartJunctionID == junctionID) ||
		(t.EndJunctionID != nil && *t.EndJunctionID == junctionID)
}

// NormalizeCurve numbers the curve by slice position when every point was submitted with order 0,
// then sorts the curve by sequence order.
func (t *Track) NormalizeCurve() {
	if len(t.Curve) > 1 {
		allZero := true
		for _, cp := range t.Curve {
			if cp != nil && cp.SequenceOrder != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			for i, cp := range t.Curve {
				if cp != nil {
					cp.SequenceOrder = i
				}
			}
		}
	}
	sort.SliceStable(t.Curve, func(i, j int) bool {
		if t.Curve[i] == nil || t.Curve[j] == nil {
			return t.Curve[j] == nil && t.Curve[i] != nil
		}
		return t.Curve[i].SequenceOrder < t.Curve[j].SequenceOrder
	})
}

// Validate checks root scalars, signals and the curve.
func (t *Track) Validate() error {
	if err := t.ValidateRoot(); err != nil {
		return err
	}
	if err := t.ValidateSignals(); err != nil {
		return err
	}
	return t.ValidateCurve()
}

func (t *Track) ValidateRoot() error {
	p := newProblems("track")
	p.require(strings.TrimSpace(t.OwnerID) != "", "owner_id is required")
	p.require(t.Length > 0, "length must be positive")
	p.require(t.MaxSpeed > 0, "max_speed must be positive")
	if t.StartJunctionID != nil && strings.TrimSpace(*t.StartJunctionID) == "" {
		p.addf("start_junction_id must be omitted rather than empty")
	}
	if t.EndJunctionID != nil && strings.TrimSpace(*t.EndJunctionID) == "" {
		p.addf("end_junction_id must be omitted rather than empty")
	}
	return p.err()
}

func (t *Track) ValidateSignals() error {
	p := newProblems("track")
	for i, s := range t.Signals {
		if s == nil {
			p.addf("signals[%d] is nil", i)
			continue
		}
		p.require(s.SignalType.Valid(), "signals[%d].signal_type %q is unknown", i, s.SignalType)
		for j, id := range s.ProtectedTrackIDs {
			p.require(strings.TrimSpace(id) != "", "signals[%d].protected_track_ids[%d] is empty", i, j)
		}
	}
	return p.err()
}

// ValidateCurve requires distinct sequence orders forming 0..n-1. Call NormalizeCurve first
// for curves submitted without orders.
func (t *Track) ValidateCurve() error { return validateCurve(t.Curve) }

func validateCurve(curve []*CurvePoint) error {
	seen := make(map[int]struct{}, len(curve))
	for i, cp := range curve {
		if cp == nil {
			return fmt.Errorf("%w: track: curve[%d] is nil", ErrInvalid, i)
		}
		if cp.SequenceOrder < 0 {
			return fmt.Errorf("%w: track: curve[%d].sequence_order must be >= 0", ErrInvalid, i)
		}
		if _, dup := seen[cp.SequenceOrder]; dup {
			return fmt.Errorf("%w: track curve sequence_order %d", ErrDuplicateSequence, cp.SequenceOrder)
		}
		seen[cp.SequenceOrder] = struct{}{}
	}
	for i := 0; i < len(curve); i++ {
		if _, ok := seen[i]; !ok {
			return fmt.Errorf("%w: track: curve sequence orders must be contiguous from 0, missing %d", ErrInvalid, i)
		}
	}
	return nil
}
