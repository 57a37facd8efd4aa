package railway

import (
	"fmt"
	"strings"
	"time"
)

// AuditedEntity is embedded in every aggregate root. All four fields are owned by the store.
type AuditedEntity struct {
	ID        string    `gorm:"column:id;size:64;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
	Version   int64     `gorm:"column:version;not null" json:"version"`
}

// Location is a point in world space. Stations, gates and signals embed it with a column prefix.
type Location struct {
	X float64 `gorm:"column:x;not null" json:"x"`
	Y float64 `gorm:"column:y;not null" json:"y"`
	Z float64 `gorm:"column:z;not null" json:"z"`
}

// Point3D is a vertex of a track polyline.
type Point3D struct {
	X float64 `gorm:"column:x;not null" json:"x"`
	Y float64 `gorm:"column:y;not null" json:"y"`
	Z float64 `gorm:"column:z;not null" json:"z"`
}

// TimeOfDay is a wall-clock time stored as seconds since midnight.
type TimeOfDay int32

const secondsPerDay = 24 * 60 * 60

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var h, m, sec int
	var err error
	switch strings.Count(s, ":") {
	case 1:
		_, err = fmt.Sscanf(s, "%d:%d", &h, &m)
	case 2:
		_, err = fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
	default:
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}
	return NewTimeOfDay(h, m, sec), nil
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < secondsPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)%3600/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
