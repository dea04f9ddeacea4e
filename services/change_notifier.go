// File: /services/change_notifier.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"runmeet-api/models"
	"runmeet-api/repositories"
)

// ChangeFlags captures what an event update touched.
type ChangeFlags struct {
	TimeChanged     bool
	LocationChanged bool
	Cancelled       bool
}

func (f ChangeFlags) Any() bool {
	return f.TimeChanged || f.LocationChanged || f.Cancelled
}

// ChangeType is the single classification of a critical event edit.
type ChangeType int

const (
	ChangeNone ChangeType = iota
	ChangeCancelled
	ChangeTimeOnly
	ChangeLocationOnly
	ChangeUpdated
)

// ClassifyChange maps change flags to exactly one change type. Cancellation
// wins over everything; a pure time or pure location edit gets its specific
// template; anything else that changed falls back to the generic one.
func ClassifyChange(flags ChangeFlags) ChangeType {
	switch {
	case flags.Cancelled:
		return ChangeCancelled
	case flags.TimeChanged && !flags.LocationChanged:
		return ChangeTimeOnly
	case flags.LocationChanged && !flags.TimeChanged:
		return ChangeLocationOnly
	case flags.TimeChanged && flags.LocationChanged:
		return ChangeUpdated
	default:
		return ChangeNone
	}
}

// ChangeNotifier fans critical event edits out to the participants who care:
// GOING or INVITED, with a real user behind the row. Guests have nowhere to
// be notified. These writes carry no dedup key on purpose; editing twice
// legitimately notifies twice.
type ChangeNotifier struct {
	notifications *repositories.NotificationRepository
}

func NewChangeNotifier(notifications *repositories.NotificationRepository) *ChangeNotifier {
	return &ChangeNotifier{notifications: notifications}
}

// NotifyEventChange classifies the edit and writes one notification per
// recipient. Returns the number of records written.
func (cn *ChangeNotifier) NotifyEventChange(db *gorm.DB, event *models.Event, flags ChangeFlags) (int, error) {
	changeType := ClassifyChange(flags)
	if changeType == ChangeNone {
		return 0, nil
	}

	var recipients []models.Participant
	err := db.Where("event_id = ? AND status IN ? AND user_id IS NOT NULL",
		event.ID, []models.ParticipantStatus{models.StatusGoing, models.StatusInvited}).
		Find(&recipients).Error
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	notificationType, title, body := changeTemplate(changeType, event)

	notifications := make([]models.Notification, 0, len(recipients))
	for _, p := range recipients {
		notifications = append(notifications, models.Notification{
			RecipientID: *p.UserID,
			Type:        notificationType,
			Title:       title,
			Body:        body,
			EventID:     &event.ID,
			Payload: models.JSONData{
				"participant_id":     p.ID,
				"participant_status": string(p.Status),
			},
		})
	}

	return cn.notifications.WithTx(db).CreateMany(notifications)
}

func changeTemplate(changeType ChangeType, event *models.Event) (models.NotificationType, string, string) {
	switch changeType {
	case ChangeCancelled:
		return models.NotificationTypeEventCancelled,
			fmt.Sprintf("%s has been cancelled", event.Title),
			fmt.Sprintf("The event %q scheduled for %s was cancelled by the organizer.",
				event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"))
	case ChangeTimeOnly:
		return models.NotificationTypeEventTimeChanged,
			fmt.Sprintf("%s has a new start time", event.Title),
			fmt.Sprintf("The event %q now starts at %s.",
				event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"))
	case ChangeLocationOnly:
		return models.NotificationTypeEventLocationChanged,
			fmt.Sprintf("%s has a new location", event.Title),
			fmt.Sprintf("The event %q now takes place at %s (%s).",
				event.Title, event.LocationName, event.LocationAddress)
	default:
		return models.NotificationTypeEventUpdated,
			fmt.Sprintf("%s has been updated", event.Title),
			fmt.Sprintf("The event %q was updated: it now starts at %s, at %s.",
				event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"), event.LocationName)
	}
}
