// File: /controllers/participant_controller.go
package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"runmeet-api/models"
	"runmeet-api/services"
	"runmeet-api/utils"
)

type ParticipantController struct {
	participants *services.ParticipantService
}

func NewParticipantController(participants *services.ParticipantService) *ParticipantController {
	return &ParticipantController{participants: participants}
}

type InviteRequest struct {
	UserID string                 `json:"user_id" binding:"required"`
	Role   models.ParticipantRole `json:"role" binding:"required"`
}

func (pc *ParticipantController) Invite(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := pc.participants.Invite(c.Param("id"), c.GetString("user_id"), req.UserID, req.Role)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

type RespondRequest struct {
	Status models.ParticipantStatus `json:"status" binding:"required"`
}

func (pc *ParticipantController) Respond(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := pc.participants.Respond(
		c.Param("id"), c.Param("participantId"), c.GetString("user_id"), req.Status)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

type UpsertSelfRequest struct {
	Status models.ParticipantStatus `json:"status" binding:"required"`
}

func (pc *ParticipantController) UpsertSelf(c *gin.Context) {
	var req UpsertSelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := pc.participants.UpsertSelf(c.Param("id"), c.GetString("user_id"), req.Status)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

// UpdateSelection needs to tell "absent" apart from "explicit null", so the
// body is decoded into raw JSON first.
func (pc *ParticipantController) UpdateSelection(c *gin.Context) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := services.SelectionUpdate{}
	if value, present := raw["event_route_id"]; present {
		update.EventRouteIDSet = true
		if err := json.Unmarshal(value, &update.EventRouteID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_route_id must be a string or null"})
			return
		}
	}
	if value, present := raw["group_id"]; present {
		update.GroupIDSet = true
		if err := json.Unmarshal(value, &update.GroupID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "group_id must be a string or null"})
			return
		}
	}

	participant, err := pc.participants.UpdateSelection(c.Param("id"), c.GetString("user_id"), update)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

type UpdateRoleRequest struct {
	UserID string                 `json:"user_id" binding:"required"`
	Role   models.ParticipantRole `json:"role" binding:"required"`
}

func (pc *ParticipantController) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := pc.participants.UpdateRole(c.Param("id"), req.UserID, c.GetString("user_id"), req.Role)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, participant)
}

func (pc *ParticipantController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	participants, total, err := pc.participants.List(c.Param("id"), page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendPaginated(c, participants, page, limit, total)
}

func (pc *ParticipantController) Summary(c *gin.Context) {
	summary, err := pc.participants.Summary(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
