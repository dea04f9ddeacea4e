// File: /models/user.go
package models

import (
	"time"
)

type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	Plan      Plan      `json:"plan" gorm:"not null;size:20;default:'FREE'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	OrganizedEvents []Event `json:"organized_events,omitempty" gorm:"foreignKey:OrganizerID"`
	LibraryRoutes   []Route `json:"library_routes,omitempty" gorm:"foreignKey:OwnerID"`
}

// IsPremium reports whether the user is on the unlimited plan.
func (u *User) IsPremium() bool {
	return u.Plan == PlanPremium
}
