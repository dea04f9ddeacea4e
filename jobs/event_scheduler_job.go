// File: /jobs/event_scheduler_job.go
package jobs

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"runmeet-api/repositories"
	"runmeet-api/services"
)

// EventSchedulerJob owns the timer for the scheduled triggers and feeds them
// the tick time. A single active instance is assumed; the triggers themselves
// are idempotent, so a missed or doubled tick is harmless.
type EventSchedulerJob struct {
	scheduler *services.SchedulerService
	ticker    *time.Ticker
	done      chan bool
}

func NewEventSchedulerJob(db *gorm.DB, interval time.Duration) *EventSchedulerJob {
	notifications := repositories.NewNotificationRepository(db)

	return &EventSchedulerJob{
		scheduler: services.NewSchedulerService(db, notifications),
		ticker:    time.NewTicker(interval),
		done:      make(chan bool),
	}
}

// Start begins the scheduler loop.
func (j *EventSchedulerJob) Start() {
	logrus.Info("Event scheduler job started")

	go func() {
		// Run immediately on start
		j.tick()

		for {
			select {
			case <-j.ticker.C:
				j.tick()
			case <-j.done:
				logrus.Info("Event scheduler job stopped")
				return
			}
		}
	}()
}

// Stop stops the scheduler loop.
func (j *EventSchedulerJob) Stop() {
	j.ticker.Stop()
	j.done <- true
}

func (j *EventSchedulerJob) tick() {
	now := time.Now()

	if _, err := j.scheduler.RunAutoComplete(now); err != nil {
		logrus.Errorf("Auto-complete run failed: %v", err)
	}
	if _, err := j.scheduler.RunParticipantReminders(now); err != nil {
		logrus.Errorf("Participant reminder run failed: %v", err)
	}
	if _, err := j.scheduler.RunOrganiserReminders(now); err != nil {
		logrus.Errorf("Organizer reminder run failed: %v", err)
	}
}
