// File: /controllers/event_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"runmeet-api/models"
	"runmeet-api/services"
	"runmeet-api/utils"
)

type EventController struct {
	db           *gorm.DB
	events       *services.EventService
	participants *services.ParticipantService
}

func NewEventController(db *gorm.DB, events *services.EventService, participants *services.ParticipantService) *EventController {
	return &EventController{db: db, events: events, participants: participants}
}

type CreateEventRequest struct {
	Title             string    `json:"title" binding:"required"`
	Description       string    `json:"description"`
	StartTime         time.Time `json:"start_time" binding:"required"`
	LocationName      string    `json:"location_name" binding:"required"`
	LocationAddress   string    `json:"location_address"`
	LocationLatitude  float64   `json:"location_latitude"`
	LocationLongitude float64   `json:"location_longitude"`
}

type UpdateEventRequest struct {
	Title             *string             `json:"title"`
	Description       *string             `json:"description"`
	StartTime         *time.Time          `json:"start_time"`
	LocationName      *string             `json:"location_name"`
	LocationAddress   *string             `json:"location_address"`
	LocationLatitude  *float64            `json:"location_latitude"`
	LocationLongitude *float64            `json:"location_longitude"`
	Status            *models.EventStatus `json:"status"`
}

type DuplicateEventRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	StartTime         *time.Time `json:"start_time"`
	LocationName      *string    `json:"location_name"`
	LocationAddress   *string    `json:"location_address"`
	LocationLatitude  *float64   `json:"location_latitude"`
	LocationLongitude *float64   `json:"location_longitude"`
	CopyAllGroups     bool       `json:"copy_all_groups"`
	GroupIDs          []string   `json:"group_ids"`
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	userID := c.GetString("user_id")
	plan := models.Plan(c.GetString("plan"))

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.IsValidLatitude(req.LocationLatitude) || !utils.IsValidLongitude(req.LocationLongitude) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
		return
	}

	event, err := ec.events.Create(userID, plan, services.CreateEventInput{
		Title:             req.Title,
		Description:       req.Description,
		StartTime:         req.StartTime,
		LocationName:      req.LocationName,
		LocationAddress:   req.LocationAddress,
		LocationLatitude:  req.LocationLatitude,
		LocationLongitude: req.LocationLongitude,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (ec *EventController) GetEvent(c *gin.Context) {
	event, err := ec.events.Get(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (ec *EventController) UpdateEvent(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := ec.events.Update(c.Param("id"), userID, services.UpdateEventInput{
		Title:             req.Title,
		Description:       req.Description,
		StartTime:         req.StartTime,
		LocationName:      req.LocationName,
		LocationAddress:   req.LocationAddress,
		LocationLatitude:  req.LocationLatitude,
		LocationLongitude: req.LocationLongitude,
		Status:            req.Status,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (ec *EventController) CompleteEvent(c *gin.Context) {
	event, err := ec.events.Complete(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (ec *EventController) DuplicateEvent(c *gin.Context) {
	var req DuplicateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := ec.events.Duplicate(c.Param("id"), c.GetString("user_id"), services.DuplicateEventInput{
		Title:             req.Title,
		Description:       req.Description,
		StartTime:         req.StartTime,
		LocationName:      req.LocationName,
		LocationAddress:   req.LocationAddress,
		LocationLatitude:  req.LocationLatitude,
		LocationLongitude: req.LocationLongitude,
		CopyAllGroups:     req.CopyAllGroups,
		GroupIDs:          req.GroupIDs,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (ec *EventController) GetMyEvents(c *gin.Context) {
	userID := c.GetString("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var total int64
	query := ec.db.Model(&models.Event{}).Where("organizer_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	var events []models.Event
	if err := query.Order("start_time ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	utils.SendPaginated(c, events, page, limit, total)
}

type JoinByCodeRequest struct {
	GuestName string                   `json:"guest_name"`
	Status    models.ParticipantStatus `json:"status"`
}

// JoinByCode resolves an event through its shareable code. Authenticated
// callers RSVP as themselves; anonymous callers join as guests.
func (ec *EventController) JoinByCode(c *gin.Context) {
	var req JoinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := ec.events.GetByCode(c.Param("code"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusGoing
	}

	var participant *models.Participant
	if userID := c.GetString("user_id"); userID != "" {
		participant, err = ec.participants.UpsertSelf(event.ID, userID, status)
	} else {
		participant, err = ec.participants.JoinAsGuest(event.ID, req.GuestName, status)
	}
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event, "participant": participant})
}

type AddEventRouteRequest struct {
	Name     string `json:"name" binding:"required"`
	Geometry string `json:"geometry"`
}

// AddRoute attaches a route tracing to a planned event.
func (ec *EventController) AddRoute(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	var req AddEventRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := ec.db.First(&event, "id = ? AND organizer_id = ?", eventID, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found or access denied"})
		return
	}
	if event.Status != models.EventStatusPlanned {
		c.JSON(http.StatusConflict, gin.H{"error": "Routes can only be added to planned events"})
		return
	}

	route := models.EventRoute{
		ID:       uuid.New().String(),
		EventID:  eventID,
		Name:     req.Name,
		Geometry: req.Geometry,
	}
	if err := ec.db.Create(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create route"})
		return
	}

	c.JSON(http.StatusCreated, route)
}

type AddEventGroupRequest struct {
	EventRouteID string `json:"event_route_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	PaceLabel    string `json:"pace_label"`
}

// AddGroup attaches a pace group to one of the event's routes.
func (ec *EventController) AddGroup(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	var req AddEventGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := ec.db.First(&event, "id = ? AND organizer_id = ?", eventID, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found or access denied"})
		return
	}

	var route models.EventRoute
	if err := ec.db.First(&route, "id = ? AND event_id = ?", req.EventRouteID, eventID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found on this event"})
		return
	}

	group := models.EventGroup{
		ID:           uuid.New().String(),
		EventID:      eventID,
		EventRouteID: req.EventRouteID,
		Name:         req.Name,
		PaceLabel:    req.PaceLabel,
	}
	if err := ec.db.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}
