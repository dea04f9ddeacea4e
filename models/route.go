// File: /models/route.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Route is a reusable, owner-scoped library route independent of any single
// event. Rows are created by route publication on event completion or by the
// owner directly.
type Route struct {
	ID          string `json:"id" gorm:"primaryKey;size:191"`
	OwnerID     string `json:"owner_id" gorm:"not null;size:191;index"`
	Name        string `json:"name" gorm:"not null;size:255"`
	Description string `json:"description" gorm:"type:text"`

	Geometry string `json:"geometry" gorm:"type:text"`

	// Free-form labels ("trail", "flat", "night-safe") for filtering the
	// library. Only set on directly filed routes; publication leaves it empty.
	Tags StringSlice `json:"tags" gorm:"type:json"`

	// Computed from the geometry at publication time.
	DistanceMeters  float64 `json:"distance_meters"`
	CenterLatitude  float64 `json:"center_latitude"`
	CenterLongitude float64 `json:"center_longitude"`
	RadiusMeters    float64 `json:"radius_meters"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// Custom types for JSON handling

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

type JSONData map[string]interface{}

func (j JSONData) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = JSONData{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("type assertion to []byte failed")
	}
}
