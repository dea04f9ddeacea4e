// File: /services/participant_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"runmeet-api/apperrors"
	"runmeet-api/models"
	"runmeet-api/repositories"
)

type ParticipantService struct {
	db            *gorm.DB
	notifications *repositories.NotificationRepository
}

func NewParticipantService(db *gorm.DB, notifications *repositories.NotificationRepository) *ParticipantService {
	return &ParticipantService{db: db, notifications: notifications}
}

// Invite upserts an invitation row for the target user. An existing row gets
// its role overwritten and its status reset to INVITED, which also clears a
// prior DECLINED. The target receives an invitation notification embedding
// the event summary; repeat invitations notify again (no dedup key).
func (ps *ParticipantService) Invite(eventID, callerID, targetUserID string, role models.ParticipantRole) (*models.Participant, error) {
	event, err := ps.loadEventForOrganizer(eventID, callerID)
	if err != nil {
		return nil, err
	}

	if role != models.RoleParticipant && role != models.RoleEncadrant {
		return nil, apperrors.BadRequest("role must be PARTICIPANT or ENCADRANT")
	}
	if targetUserID == callerID {
		return nil, apperrors.BadRequest("you cannot invite yourself")
	}

	var target models.User
	if err := ps.db.First(&target, "id = ?", targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}

	var participant models.Participant
	err = ps.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("event_id = ? AND user_id = ?", eventID, targetUserID).First(&participant).Error
		switch {
		case err == nil:
			participant.Role = role
			participant.Status = models.StatusInvited
			return tx.Model(&participant).Updates(map[string]interface{}{
				"role":   role,
				"status": models.StatusInvited,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			participant = models.Participant{
				ID:      uuid.New().String(),
				EventID: eventID,
				UserID:  &targetUserID,
				Role:    role,
				Status:  models.StatusInvited,
			}
			return tx.Create(&participant).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	notification := models.Notification{
		RecipientID: targetUserID,
		Type:        models.NotificationTypeInvitation,
		Title:       fmt.Sprintf("You're invited to %s", event.Title),
		Body: fmt.Sprintf("%s on %s at %s.",
			event.Title, event.StartTime.Format("Mon, 02 Jan 2006 15:04"), event.LocationName),
		EventID: &event.ID,
		Payload: models.JSONData{
			"participant_id": participant.ID,
			"start_time":     event.StartTime,
			"location_name":  event.LocationName,
			"role":           string(role),
		},
	}
	if _, err := ps.notifications.CreateOne(&notification); err != nil {
		return nil, err
	}

	return &participant, nil
}

// Respond answers an invitation. Only the invited user can answer, only with
// GOING or DECLINED, and only while the row still says INVITED.
func (ps *ParticipantService) Respond(eventID, participantID, callerID string, status models.ParticipantStatus) (*models.Participant, error) {
	if status != models.StatusGoing && status != models.StatusDeclined {
		return nil, apperrors.BadRequest("response must be GOING or DECLINED")
	}

	var participant models.Participant
	if err := ps.db.First(&participant, "id = ?", participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participant not found")
		}
		return nil, err
	}
	if participant.EventID != eventID {
		return nil, apperrors.NotFound("participant not found")
	}
	if participant.UserID == nil || *participant.UserID != callerID {
		return nil, apperrors.Forbidden("only the invited user can respond")
	}
	if participant.Status != models.StatusInvited {
		return nil, apperrors.Conflict("invitation already handled")
	}

	if err := ps.db.Model(&participant).Update("status", status).Error; err != nil {
		return nil, err
	}
	participant.Status = status
	return &participant, nil
}

// UpsertSelf sets the caller's own RSVP, creating the row on first contact.
// INVITED is not reachable through this path.
func (ps *ParticipantService) UpsertSelf(eventID, callerID string, status models.ParticipantStatus) (*models.Participant, error) {
	if status != models.StatusGoing && status != models.StatusMaybe && status != models.StatusDeclined {
		return nil, apperrors.BadRequest("status must be GOING, MAYBE or DECLINED")
	}

	var eventCount int64
	if err := ps.db.Model(&models.Event{}).Where("id = ?", eventID).Count(&eventCount).Error; err != nil {
		return nil, err
	}
	if eventCount == 0 {
		return nil, apperrors.NotFound("event not found")
	}

	var participant models.Participant
	err := ps.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("event_id = ? AND user_id = ?", eventID, callerID).First(&participant).Error
		switch {
		case err == nil:
			participant.Status = status
			return tx.Model(&participant).Update("status", status).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			participant = models.Participant{
				ID:      uuid.New().String(),
				EventID: eventID,
				UserID:  &callerID,
				Role:    models.RoleParticipant,
				Status:  status,
			}
			return tx.Create(&participant).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// JoinAsGuest creates an anonymous participant row through the event's join
// code. Guest rows carry no user reference and never receive notifications.
func (ps *ParticipantService) JoinAsGuest(eventID, guestName string, status models.ParticipantStatus) (*models.Participant, error) {
	if guestName == "" {
		return nil, apperrors.BadRequest("guest name is required")
	}
	if status == "" {
		status = models.StatusGoing
	}
	if status != models.StatusGoing && status != models.StatusMaybe && status != models.StatusDeclined {
		return nil, apperrors.BadRequest("status must be GOING, MAYBE or DECLINED")
	}

	participant := models.Participant{
		ID:        uuid.New().String(),
		EventID:   eventID,
		GuestName: guestName,
		Role:      models.RoleParticipant,
		Status:    status,
	}
	if err := ps.db.Create(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

// SelectionUpdate distinguishes "field not sent" from "field explicitly
// cleared": Set marks presence, a nil value clears.
type SelectionUpdate struct {
	EventRouteID    *string
	EventRouteIDSet bool
	GroupID         *string
	GroupIDSet      bool
}

// UpdateSelection changes the caller's selected route and pace group. The
// row must already exist; a selected group must belong to the selected
// route; clearing the route cascades to the group.
func (ps *ParticipantService) UpdateSelection(eventID, callerID string, in SelectionUpdate) (*models.Participant, error) {
	if !in.EventRouteIDSet && !in.GroupIDSet {
		return nil, apperrors.BadRequest("nothing to update")
	}

	var participant models.Participant
	err := ps.db.Where("event_id = ? AND user_id = ?", eventID, callerID).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Conflict("RSVP before selecting a route")
		}
		return nil, err
	}

	updates := map[string]interface{}{}

	if in.EventRouteIDSet {
		if in.EventRouteID == nil {
			// Clearing the route cascades to the group.
			participant.EventRouteID = nil
			participant.GroupID = nil
			updates["event_route_id"] = nil
			updates["group_id"] = nil
		} else {
			var route models.EventRoute
			err := ps.db.Where("id = ? AND event_id = ?", *in.EventRouteID, eventID).First(&route).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperrors.NotFound("route not found on this event")
				}
				return nil, err
			}
			participant.EventRouteID = in.EventRouteID
			updates["event_route_id"] = *in.EventRouteID
			if !in.GroupIDSet {
				// A group chosen for the previous route would dangle.
				participant.GroupID = nil
				updates["group_id"] = nil
			}
		}
	}

	if in.GroupIDSet {
		if in.GroupID == nil {
			participant.GroupID = nil
			updates["group_id"] = nil
		} else {
			group, err := ps.loadGroup(*in.GroupID)
			if err != nil {
				return nil, err
			}
			// Validated against the route on the row, which is the new one
			// when both fields arrived together.
			if participant.EventRouteID == nil || group.EventRouteID != *participant.EventRouteID {
				return nil, apperrors.Conflict("group does not belong to route")
			}
			participant.GroupID = in.GroupID
			updates["group_id"] = *in.GroupID
		}
	}

	if err := ps.db.Model(&participant).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (ps *ParticipantService) loadGroup(groupID string) (*models.EventGroup, error) {
	var group models.EventGroup
	if err := ps.db.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("group not found")
		}
		return nil, err
	}
	return &group, nil
}

// UpdateRole promotes a participant to ENCADRANT. That is the only role
// change supported; the organizer row is immutable.
func (ps *ParticipantService) UpdateRole(eventID, targetUserID, callerID string, newRole models.ParticipantRole) (*models.Participant, error) {
	if _, err := ps.loadEventForOrganizer(eventID, callerID); err != nil {
		return nil, err
	}
	if newRole != models.RoleEncadrant {
		return nil, apperrors.BadRequest("only promotion to ENCADRANT is supported")
	}

	var participant models.Participant
	err := ps.db.Where("event_id = ? AND user_id = ?", eventID, targetUserID).First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participant not found")
		}
		return nil, err
	}
	if participant.Role == models.RoleOrganizer {
		return nil, apperrors.BadRequest("the organizer role cannot be changed")
	}

	if err := ps.db.Model(&participant).Update("role", newRole).Error; err != nil {
		return nil, err
	}
	participant.Role = newRole

	logrus.WithFields(logrus.Fields{
		"event_id": eventID,
		"user_id":  targetUserID,
	}).Info("Participant promoted to ENCADRANT")

	return &participant, nil
}

// List returns one page of an event's participants.
func (ps *ParticipantService) List(eventID string, page, limit int) ([]models.Participant, int64, error) {
	var total int64
	if err := ps.db.Model(&models.Participant{}).Where("event_id = ?", eventID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var participants []models.Participant
	err := ps.db.Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&participants).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range participants {
		if participants[i].User != nil {
			participants[i].User.Password = ""
		}
	}
	return participants, total, nil
}

// Summary aggregates the event's participation: counts by RSVP status plus
// GOING counts by route and by group. Also feeds the organizer reminder.
func (ps *ParticipantService) Summary(eventID string) (*models.ParticipantSummary, error) {
	summary := &models.ParticipantSummary{
		EventID:        eventID,
		CountsByStatus: map[models.ParticipantStatus]int64{},
		GoingByRoute:   map[string]int64{},
		GoingByGroup:   map[string]int64{},
	}

	type statusRow struct {
		Status models.ParticipantStatus
		Count  int64
	}
	var statusRows []statusRow
	err := ps.db.Model(&models.Participant{}).
		Select("status, COUNT(*) as count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range statusRows {
		summary.CountsByStatus[row.Status] = row.Count
		summary.Total += row.Count
	}

	type refRow struct {
		Ref   string
		Count int64
	}
	var routeRows []refRow
	err = ps.db.Model(&models.Participant{}).
		Select("event_route_id as ref, COUNT(*) as count").
		Where("event_id = ? AND status = ? AND event_route_id IS NOT NULL", eventID, models.StatusGoing).
		Group("event_route_id").
		Scan(&routeRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range routeRows {
		summary.GoingByRoute[row.Ref] = row.Count
	}

	var groupRows []refRow
	err = ps.db.Model(&models.Participant{}).
		Select("group_id as ref, COUNT(*) as count").
		Where("event_id = ? AND status = ? AND group_id IS NOT NULL", eventID, models.StatusGoing).
		Group("group_id").
		Scan(&groupRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range groupRows {
		summary.GoingByGroup[row.Ref] = row.Count
	}

	return summary, nil
}

func (ps *ParticipantService) loadEventForOrganizer(eventID, callerID string) (*models.Event, error) {
	var event models.Event
	if err := ps.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event not found")
		}
		return nil, err
	}
	if event.OrganizerID != callerID {
		return nil, apperrors.Forbidden("only the organizer can do this")
	}
	return &event, nil
}
