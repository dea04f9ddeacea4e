// File: /controllers/route_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"runmeet-api/models"
	"runmeet-api/utils"
)

// RouteController serves the reusable route library. Rows mostly arrive via
// publication on event completion, but owners can also file routes directly.
type RouteController struct {
	db *gorm.DB
}

func NewRouteController(db *gorm.DB) *RouteController {
	return &RouteController{db: db}
}

func (rc *RouteController) GetRoutes(c *gin.Context) {
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
	rc.db.Model(&models.Route{}).Where("owner_id = ?", userID).Count(&total)

	var routes []models.Route
	if err := rc.db.Where("owner_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch routes"})
		return
	}

	utils.SendPaginated(c, routes, page, limit, total)
}

func (rc *RouteController) GetRoute(c *gin.Context) {
	userID := c.GetString("user_id")

	var route models.Route
	if err := rc.db.First(&route, "id = ? AND owner_id = ?", c.Param("id"), userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	c.JSON(http.StatusOK, route)
}

type CreateRouteRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Geometry    string   `json:"geometry" binding:"required"`
	Tags        []string `json:"tags"`
}

// CreateRoute files a route directly into the caller's library, with length
// and center/radius computed from the geometry.
func (rc *RouteController) CreateRoute(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	points, err := utils.DecodePolyline(req.Geometry)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route geometry"})
		return
	}

	route := models.Route{
		ID:             uuid.New().String(),
		OwnerID:        userID,
		Name:           req.Name,
		Description:    req.Description,
		Geometry:       req.Geometry,
		Tags:           models.StringSlice(req.Tags),
		DistanceMeters: utils.PolylineLength(points),
	}
	if center, radius, ok := utils.BoundingCenterAndRadius(points); ok {
		route.CenterLatitude = center.Latitude
		route.CenterLongitude = center.Longitude
		route.RadiusMeters = radius
	}

	if err := rc.db.Create(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create route"})
		return
	}

	c.JSON(http.StatusCreated, route)
}
