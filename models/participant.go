// File: /models/participant.go
package models

import (
	"time"
)

type ParticipantRole string

const (
	RoleOrganizer   ParticipantRole = "ORGANIZER"
	RoleEncadrant   ParticipantRole = "ENCADRANT"
	RoleParticipant ParticipantRole = "PARTICIPANT"
)

type ParticipantStatus string

const (
	StatusInvited  ParticipantStatus = "INVITED"
	StatusGoing    ParticipantStatus = "GOING"
	StatusMaybe    ParticipantStatus = "MAYBE"
	StatusDeclined ParticipantStatus = "DECLINED"
)

// Participant is the relationship between one user (or anonymous guest) and
// one event. A (event_id, user_id) pair has at most one row; every mutation
// path updates in place instead of inserting.
type Participant struct {
	ID      string  `json:"id" gorm:"primaryKey;size:191"`
	EventID string  `json:"event_id" gorm:"not null;size:191;index:idx_participants_event_user"`
	UserID  *string `json:"user_id" gorm:"size:191;index:idx_participants_event_user"`

	// GuestName is only set for rows without a user reference.
	GuestName string `json:"guest_name,omitempty" gorm:"size:255"`

	Role   ParticipantRole   `json:"role" gorm:"not null;size:20;default:'PARTICIPANT'"`
	Status ParticipantStatus `json:"status" gorm:"not null;size:20;default:'INVITED'"`

	// Selected route and pace group. A selected group must belong to the
	// selected route.
	EventRouteID *string `json:"event_route_id" gorm:"size:191"`
	GroupID      *string `json:"group_id" gorm:"size:191"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Event      Event       `json:"-" gorm:"foreignKey:EventID"`
	User       *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	EventRoute *EventRoute `json:"event_route,omitempty" gorm:"foreignKey:EventRouteID"`
	Group      *EventGroup `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// IsGuest reports whether the row has no user identity behind it. Guests are
// excluded from every targeted notification.
func (p *Participant) IsGuest() bool {
	return p.UserID == nil
}

// ParticipantSummary aggregates participation for one event: counts by RSVP
// status plus GOING counts broken down by route and by group.
type ParticipantSummary struct {
	EventID        string                    `json:"event_id"`
	Total          int64                     `json:"total"`
	CountsByStatus map[ParticipantStatus]int64 `json:"counts_by_status"`
	GoingByRoute   map[string]int64          `json:"going_by_route"`
	GoingByGroup   map[string]int64          `json:"going_by_group"`
}
