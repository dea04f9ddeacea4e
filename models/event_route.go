// File: /models/event_route.go
package models

import (
	"strings"
	"time"
)

// EventRoute is a route tracing scoped to one event. On completion it can be
// promoted into the reusable library exactly once; LibraryRouteID records the
// link and is never cleared.
type EventRoute struct {
	ID      string `json:"id" gorm:"primaryKey;size:191"`
	EventID string `json:"event_id" gorm:"not null;size:191;index"`
	Name    string `json:"name" gorm:"not null;size:255"`

	// Geometry is an encoded polyline. Blank geometry is never published.
	Geometry string `json:"geometry" gorm:"type:text"`

	LibraryRouteID *string `json:"library_route_id" gorm:"size:191"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Event        Event  `json:"-" gorm:"foreignKey:EventID"`
	LibraryRoute *Route `json:"library_route,omitempty" gorm:"foreignKey:LibraryRouteID"`
}

// HasGeometry reports whether the tracing carries publishable geometry.
func (er *EventRoute) HasGeometry() bool {
	return strings.TrimSpace(er.Geometry) != ""
}

// EventGroup is a pace group inside one event, attached to one of the
// event's routes.
type EventGroup struct {
	ID           string `json:"id" gorm:"primaryKey;size:191"`
	EventID      string `json:"event_id" gorm:"not null;size:191;index"`
	EventRouteID string `json:"event_route_id" gorm:"not null;size:191"`
	Name         string `json:"name" gorm:"not null;size:255"`
	PaceLabel    string `json:"pace_label" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`

	Event      Event      `json:"-" gorm:"foreignKey:EventID"`
	EventRoute EventRoute `json:"-" gorm:"foreignKey:EventRouteID"`
}
