// File: /services/event_service.go
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"runmeet-api/apperrors"
	"runmeet-api/models"
	"runmeet-api/repositories"
	"runmeet-api/utils"
)

const codeGenerationAttempts = 10

type EventService struct {
	db       *gorm.DB
	notifier *ChangeNotifier
}

func NewEventService(db *gorm.DB, notifications *repositories.NotificationRepository) *EventService {
	return &EventService{
		db:       db,
		notifier: NewChangeNotifier(notifications),
	}
}

type CreateEventInput struct {
	Title             string
	Description       string
	StartTime         time.Time
	LocationName      string
	LocationAddress   string
	LocationLatitude  float64
	LocationLongitude float64
}

type UpdateEventInput struct {
	Title             *string
	Description       *string
	StartTime         *time.Time
	LocationName      *string
	LocationAddress   *string
	LocationLatitude  *float64
	LocationLongitude *float64
	Status            *models.EventStatus
}

type DuplicateEventInput struct {
	Title             *string
	Description       *string
	StartTime         *time.Time
	LocationName      *string
	LocationAddress   *string
	LocationLatitude  *float64
	LocationLongitude *float64
	CopyAllGroups     bool
	GroupIDs          []string
}

// Create enforces the FREE weekly quota, allocates a unique join code and
// creates the event together with its organizer participant row.
//
// The quota check and the insert are not one atomic unit; two concurrent
// FREE creations can both pass the count. Accepted limitation.
func (es *EventService) Create(organizerID string, plan models.Plan, in CreateEventInput) (*models.Event, error) {
	if plan != models.PlanPremium {
		weekStart, weekEnd := isoWeekWindow(time.Now())
		if !in.StartTime.Before(weekStart) && in.StartTime.Before(weekEnd) {
			var count int64
			err := es.db.Model(&models.Event{}).
				Where("organizer_id = ? AND status = ? AND start_time >= ? AND start_time < ?",
					organizerID, models.EventStatusPlanned, weekStart, weekEnd).
				Count(&count).Error
			if err != nil {
				return nil, err
			}
			if count >= 1 {
				return nil, apperrors.Forbidden("free plan allows one planned event per week")
			}
		}
	}

	var event *models.Event
	err := es.db.Transaction(func(tx *gorm.DB) error {
		code, err := es.generateUniqueCode(tx)
		if err != nil {
			return err
		}

		event = &models.Event{
			ID:                uuid.New().String(),
			OrganizerID:       organizerID,
			Title:             in.Title,
			Description:       in.Description,
			StartTime:         in.StartTime,
			Status:            models.EventStatusPlanned,
			LocationName:      in.LocationName,
			LocationAddress:   in.LocationAddress,
			LocationLatitude:  in.LocationLatitude,
			LocationLongitude: in.LocationLongitude,
			Code:              code,
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		organizer := models.Participant{
			ID:      uuid.New().String(),
			EventID: event.ID,
			UserID:  &organizerID,
			Role:    models.RoleOrganizer,
			Status:  models.StatusGoing,
		}
		return tx.Create(&organizer).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"event_id":  event.ID,
		"organizer": organizerID,
		"code":      event.Code,
	}).Info("Event created")

	return event, nil
}

// Get loads one event with its routes, groups and organizer.
func (es *EventService) Get(eventID string) (*models.Event, error) {
	var event models.Event
	err := es.db.Preload("Organizer").Preload("Routes").Preload("Groups").
		First(&event, "id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	event.Organizer.Password = ""
	return &event, nil
}

// GetByCode resolves an event through its case-insensitive join code.
func (es *EventService) GetByCode(code string) (*models.Event, error) {
	var event models.Event
	err := es.db.First(&event, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	return &event, nil
}

// Update applies an organizer edit, then fans out notifications when the
// start time, the location signature, or a cancellation made it critical.
func (es *EventService) Update(eventID, callerID string, in UpdateEventInput) (*models.Event, error) {
	var event models.Event
	if err := es.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if event.OrganizerID != callerID {
		return nil, apperrors.Forbidden("only the organizer can update the event")
	}

	if in.Status != nil && *in.Status != models.EventStatusCancelled {
		return nil, apperrors.BadRequest("status can only be changed to CANCELLED here")
	}
	if event.IsTerminal() {
		return nil, apperrors.Conflict("event is already %s", event.Status)
	}

	beforeSignature := event.LocationSignature()
	beforeStart := event.StartTime

	updates := map[string]interface{}{}
	if in.Title != nil {
		event.Title = *in.Title
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		event.Description = *in.Description
		updates["description"] = *in.Description
	}
	if in.StartTime != nil {
		event.StartTime = *in.StartTime
		updates["start_time"] = *in.StartTime
	}
	if in.LocationName != nil {
		event.LocationName = *in.LocationName
		updates["location_name"] = *in.LocationName
	}
	if in.LocationAddress != nil {
		event.LocationAddress = *in.LocationAddress
		updates["location_address"] = *in.LocationAddress
	}
	if in.LocationLatitude != nil {
		event.LocationLatitude = *in.LocationLatitude
		updates["location_latitude"] = *in.LocationLatitude
	}
	if in.LocationLongitude != nil {
		event.LocationLongitude = *in.LocationLongitude
		updates["location_longitude"] = *in.LocationLongitude
	}
	if in.Status != nil {
		event.Status = *in.Status
		updates["status"] = *in.Status
	}

	if len(updates) == 0 {
		return nil, apperrors.BadRequest("no fields to update")
	}

	flags := ChangeFlags{
		TimeChanged:     !event.StartTime.Equal(beforeStart),
		LocationChanged: event.LocationSignature() != beforeSignature,
		Cancelled:       in.Status != nil,
	}

	if err := es.db.Model(&models.Event{}).Where("id = ?", eventID).Updates(updates).Error; err != nil {
		return nil, err
	}

	if flags.Any() {
		sent, err := es.notifier.NotifyEventChange(es.db, &event, flags)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"event_id":      event.ID,
			"time_changed":  flags.TimeChanged,
			"location":      flags.LocationChanged,
			"cancelled":     flags.Cancelled,
			"notifications": sent,
		}).Info("Critical event change notified")
	}

	return &event, nil
}

// Complete moves a planned event to COMPLETED: snapshot the GOING count,
// stamp the completion time and publish the event's routes to the library,
// all inside one transaction. Calling it again is a no-op.
func (es *EventService) Complete(eventID, callerID string) (*models.Event, error) {
	var event models.Event
	if err := es.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if event.OrganizerID != callerID {
		return nil, apperrors.Forbidden("only the organizer can complete the event")
	}
	if event.Status == models.EventStatusCancelled {
		return nil, apperrors.Conflict("cancelled events cannot be completed")
	}
	if event.Status == models.EventStatusCompleted {
		// Idempotent re-complete.
		return &event, nil
	}

	err := es.db.Transaction(func(tx *gorm.DB) error {
		var goingCount int64
		err := tx.Model(&models.Participant{}).
			Where("event_id = ? AND status = ?", event.ID, models.StatusGoing).
			Count(&goingCount).Error
		if err != nil {
			return err
		}

		now := time.Now()
		err = tx.Model(&models.Event{}).Where("id = ?", event.ID).Updates(map[string]interface{}{
			"status":                    models.EventStatusCompleted,
			"completed_at":              now,
			"going_count_at_completion": goingCount,
		}).Error
		if err != nil {
			return err
		}
		event.Status = models.EventStatusCompleted
		event.CompletedAt = &now
		event.GoingCountAtCompletion = int(goingCount)

		published, err := PublishEventRoutes(tx, &event)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"event_id":         event.ID,
			"going_count":      goingCount,
			"routes_published": published,
		}).Info("Event completed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// Duplicate clones a completed event owned by the caller into a new planned
// one: unset fields inherit from the source, routes are copied with fresh
// ids (library links preserved) and groups are optionally carried over.
func (es *EventService) Duplicate(eventID, callerID string, in DuplicateEventInput) (*models.Event, error) {
	var source models.Event
	if err := es.db.First(&source, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if source.OrganizerID != callerID {
		return nil, apperrors.Forbidden("only the organizer can duplicate the event")
	}
	if source.Status != models.EventStatusCompleted {
		return nil, apperrors.Conflict("only completed events can be duplicated")
	}

	var clone *models.Event
	err := es.db.Transaction(func(tx *gorm.DB) error {
		code, err := es.generateUniqueCode(tx)
		if err != nil {
			return err
		}

		clone = &models.Event{
			ID:                uuid.New().String(),
			OrganizerID:       callerID,
			Title:             valueOr(in.Title, source.Title),
			Description:       valueOr(in.Description, source.Description),
			StartTime:         timeOr(in.StartTime, source.StartTime),
			Status:            models.EventStatusPlanned,
			LocationName:      valueOr(in.LocationName, source.LocationName),
			LocationAddress:   valueOr(in.LocationAddress, source.LocationAddress),
			LocationLatitude:  floatOr(in.LocationLatitude, source.LocationLatitude),
			LocationLongitude: floatOr(in.LocationLongitude, source.LocationLongitude),
			Code:              code,
		}
		if err := tx.Create(clone).Error; err != nil {
			return err
		}

		organizer := models.Participant{
			ID:      uuid.New().String(),
			EventID: clone.ID,
			UserID:  &callerID,
			Role:    models.RoleOrganizer,
			Status:  models.StatusGoing,
		}
		if err := tx.Create(&organizer).Error; err != nil {
			return err
		}

		routeRemap, err := copyEventRoutes(tx, source.ID, clone.ID)
		if err != nil {
			return err
		}

		if in.CopyAllGroups || len(in.GroupIDs) > 0 {
			if err := copyEventGroups(tx, source.ID, clone.ID, routeRemap, in.CopyAllGroups, in.GroupIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"source_event": source.ID,
		"new_event":    clone.ID,
	}).Info("Event duplicated")

	return clone, nil
}

// copyEventRoutes clones every EventRoute of the source into the clone with
// fresh ids and returns the old id -> new id remap used for group copying.
func copyEventRoutes(tx *gorm.DB, sourceID, cloneID string) (map[string]string, error) {
	var routes []models.EventRoute
	if err := tx.Where("event_id = ?", sourceID).Find(&routes).Error; err != nil {
		return nil, err
	}

	remap := make(map[string]string, len(routes))
	for _, route := range routes {
		copied := models.EventRoute{
			ID:             uuid.New().String(),
			EventID:        cloneID,
			Name:           route.Name,
			Geometry:       route.Geometry,
			LibraryRouteID: route.LibraryRouteID,
		}
		if err := tx.Create(&copied).Error; err != nil {
			return nil, err
		}
		remap[route.ID] = copied.ID
	}
	return remap, nil
}

// copyEventGroups carries pace groups over to the clone. Explicit group id
// lists must all belong to the source event; groups whose route has no remap
// entry are dropped.
func copyEventGroups(tx *gorm.DB, sourceID, cloneID string, routeRemap map[string]string, copyAll bool, groupIDs []string) error {
	var groups []models.EventGroup
	query := tx.Where("event_id = ?", sourceID)
	if !copyAll {
		query = query.Where("id IN ?", groupIDs)
	}
	if err := query.Find(&groups).Error; err != nil {
		return err
	}

	if !copyAll && len(groups) != len(groupIDs) {
		return apperrors.BadRequest("one or more groups do not belong to the source event")
	}

	copies := make([]models.EventGroup, 0, len(groups))
	for _, group := range groups {
		newRouteID, mapped := routeRemap[group.EventRouteID]
		if !mapped {
			continue
		}
		copies = append(copies, models.EventGroup{
			ID:           uuid.New().String(),
			EventID:      cloneID,
			EventRouteID: newRouteID,
			Name:         group.Name,
			PaceLabel:    group.PaceLabel,
		})
	}

	if len(copies) == 0 {
		return nil
	}
	return tx.Create(&copies).Error
}

// generateUniqueCode draws join codes until one is unused, giving up after a
// fixed number of attempts.
func (es *EventService) generateUniqueCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		code, err := utils.RandomCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.Event{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", apperrors.Fatal(nil, "exhausted %d attempts to generate a unique event code", codeGenerationAttempts)
}

// isoWeekWindow returns [Monday 00:00, next Monday 00:00) of the week
// containing t, in t's location.
func isoWeekWindow(t time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day()-daysSinceMonday, 0, 0, 0, 0, t.Location())
	return monday, monday.AddDate(0, 0, 7)
}

func valueOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}

func timeOr(v *time.Time, fallback time.Time) time.Time {
	if v != nil {
		return *v
	}
	return fallback
}

func floatOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
