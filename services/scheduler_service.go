// File: /services/scheduler_service.go
package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"runmeet-api/models"
	"runmeet-api/repositories"
)

const (
	// How long after its start time a still-planned event is considered
	// over and auto-completed.
	autoCompleteLateness = 24 * time.Hour

	// Reminder look-ahead windows.
	participantReminderWindow = 24 * time.Hour
	organizerReminderWindow   = 48 * time.Hour
)

// SchedulerService holds the periodic entry points. Each one takes the tick
// time explicitly so runs are deterministic and testable; the hosting job
// owns the timer. Re-running with the same clock is safe: auto-complete only
// matches PLANNED rows and reminders ride on dedup keys.
type SchedulerService struct {
	db            *gorm.DB
	notifications *repositories.NotificationRepository
	participants  *ParticipantService
}

func NewSchedulerService(db *gorm.DB, notifications *repositories.NotificationRepository) *SchedulerService {
	return &SchedulerService{
		db:            db,
		notifications: notifications,
		participants:  NewParticipantService(db, notifications),
	}
}

// RunAutoComplete bulk-transitions planned events that started more than the
// lateness threshold ago straight to COMPLETED. Route publication is NOT run
// here; only the interactive complete path publishes.
func (ss *SchedulerService) RunAutoComplete(now time.Time) (int64, error) {
	cutoff := now.Add(-autoCompleteLateness)

	result := ss.db.Model(&models.Event{}).
		Where("status = ? AND start_time < ?", models.EventStatusPlanned, cutoff).
		Updates(map[string]interface{}{
			"status":       models.EventStatusCompleted,
			"completed_at": now,
			"going_count_at_completion": gorm.Expr(
				"(SELECT COUNT(*) FROM participants WHERE participants.event_id = events.id AND participants.status = ?)",
				models.StatusGoing),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	logrus.WithFields(logrus.Fields{
		"cutoff":    cutoff,
		"completed": result.RowsAffected,
	}).Info("Auto-complete run finished")

	return result.RowsAffected, nil
}

// RunParticipantReminders notifies every GOING participant with a user
// reference about events starting inside the look-ahead window. The dedup
// key makes repeated runs write nothing new.
func (ss *SchedulerService) RunParticipantReminders(now time.Time) (int, error) {
	events, err := ss.upcomingEvents(now, participantReminderWindow)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range events {
		event := &events[i]

		var recipients []models.Participant
		err := ss.db.Where("event_id = ? AND status = ? AND user_id IS NOT NULL",
			event.ID, models.StatusGoing).
			Find(&recipients).Error
		if err != nil {
			return created, err
		}
		if len(recipients) == 0 {
			continue
		}

		dedupKey := fmt.Sprintf("event:%s:reminder:participant", event.ID)
		notifications := make([]models.Notification, 0, len(recipients))
		for _, p := range recipients {
			key := dedupKey
			notifications = append(notifications, models.Notification{
				RecipientID: *p.UserID,
				Type:        models.NotificationTypeParticipantReminder,
				Title:       fmt.Sprintf("Reminder: %s is coming up", event.Title),
				Body: fmt.Sprintf("%s starts on %s at %s.",
					event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"), event.LocationName),
				EventID:  &event.ID,
				DedupKey: &key,
				Payload: models.JSONData{
					"participant_id": p.ID,
					"start_time":     event.StartTime,
				},
			})
		}

		n, err := ss.notifications.CreateMany(notifications)
		if err != nil {
			return created, err
		}
		created += n
	}

	logrus.WithFields(logrus.Fields{
		"events_in_window": len(events),
		"created":          created,
	}).Info("Participant reminder run finished")

	return created, nil
}

// RunOrganiserReminders sends each organizer a single breakdown of their
// upcoming event, but only when at least one person is GOING.
func (ss *SchedulerService) RunOrganiserReminders(now time.Time) (int, error) {
	events, err := ss.upcomingEvents(now, organizerReminderWindow)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range events {
		event := &events[i]

		summary, err := ss.participants.Summary(event.ID)
		if err != nil {
			return created, err
		}
		if summary.CountsByStatus[models.StatusGoing] < 1 {
			continue
		}

		dedupKey := fmt.Sprintf("event:%s:reminder:organizer", event.ID)
		notification := models.Notification{
			RecipientID: event.OrganizerID,
			Type:        models.NotificationTypeOrganizerReminder,
			Title:       fmt.Sprintf("Your event %s is coming up", event.Title),
			Body: fmt.Sprintf("%s starts on %s. %d going, %d maybe, %d invited, %d declined.",
				event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"),
				summary.CountsByStatus[models.StatusGoing],
				summary.CountsByStatus[models.StatusMaybe],
				summary.CountsByStatus[models.StatusInvited],
				summary.CountsByStatus[models.StatusDeclined]),
			EventID:  &event.ID,
			DedupKey: &dedupKey,
			Payload: models.JSONData{
				"counts_by_status": summary.CountsByStatus,
				"going_by_route":   summary.GoingByRoute,
				"going_by_group":   summary.GoingByGroup,
			},
		}

		ok, err := ss.notifications.CreateOne(&notification)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	logrus.WithFields(logrus.Fields{
		"events_in_window": len(events),
		"created":          created,
	}).Info("Organizer reminder run finished")

	return created, nil
}

func (ss *SchedulerService) upcomingEvents(now time.Time, window time.Duration) ([]models.Event, error) {
	var events []models.Event
	err := ss.db.Where("status = ? AND start_time >= ? AND start_time < ?",
		models.EventStatusPlanned, now, now.Add(window)).
		Find(&events).Error
	return events, err
}
