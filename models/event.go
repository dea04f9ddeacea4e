// File: /models/event.go
package models

import (
	"fmt"
	"time"
)

type EventStatus string

const (
	EventStatusPlanned   EventStatus = "PLANNED"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

type Event struct {
	ID          string      `json:"id" gorm:"primaryKey;size:191"`
	OrganizerID string      `json:"organizer_id" gorm:"not null;size:191;index"`
	Title       string      `json:"title" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	StartTime   time.Time   `json:"start_time" gorm:"not null;index"`
	Status      EventStatus `json:"status" gorm:"not null;size:20;default:'PLANNED';index"`

	LocationName      string  `json:"location_name" gorm:"size:255"`
	LocationAddress   string  `json:"location_address" gorm:"size:500"`
	LocationLatitude  float64 `json:"location_latitude"`
	LocationLongitude float64 `json:"location_longitude"`

	// Code is the shareable join code, stored upper-cased so the unique
	// index doubles as the case-insensitive uniqueness guarantee.
	Code string `json:"code" gorm:"uniqueIndex;not null;size:8"`

	// Completion fields are written exactly once, on PLANNED -> COMPLETED.
	CompletedAt           *time.Time `json:"completed_at"`
	GoingCountAtCompletion int       `json:"going_count_at_completion" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organizer    User          `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID"`
	Participants []Participant `json:"participants,omitempty" gorm:"foreignKey:EventID"`
	Routes       []EventRoute  `json:"routes,omitempty" gorm:"foreignKey:EventID"`
	Groups       []EventGroup  `json:"groups,omitempty" gorm:"foreignKey:EventID"`
}

// LocationSignature flattens the location fields into one comparable string,
// used to decide whether an update moved the event.
func (e *Event) LocationSignature() string {
	return fmt.Sprintf("%s|%s|%f|%f",
		e.LocationName, e.LocationAddress, e.LocationLatitude, e.LocationLongitude)
}

// IsTerminal reports whether the event can no longer change state.
func (e *Event) IsTerminal() bool {
	return e.Status == EventStatusCompleted || e.Status == EventStatusCancelled
}
