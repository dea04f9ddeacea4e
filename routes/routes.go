// File: /routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"runmeet-api/config"
	"runmeet-api/controllers"
	"runmeet-api/middleware"
	"runmeet-api/repositories"
	"runmeet-api/services"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Shared wiring
	notificationRepo := repositories.NewNotificationRepository(db)
	eventService := services.NewEventService(db, notificationRepo)
	participantService := services.NewParticipantService(db, notificationRepo)

	// Controllers
	authController := controllers.NewAuthController(db, cfg.JWT.Secret, cfg.JWT.Expiration)
	eventController := controllers.NewEventController(db, eventService, participantService)
	participantController := controllers.NewParticipantController(participantService)
	notificationController := controllers.NewNotificationController(notificationRepo)
	routeController := controllers.NewRouteController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Join by code: public, but an authenticated caller joins as themselves.
	v1.POST("/events/code/:code/join", middleware.OptionalAuthMiddleware(cfg.JWT.Secret), eventController.JoinByCode)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		// Event routes
		events := protected.Group("/events")
		{
			events.POST("/", eventController.CreateEvent)
			events.GET("/mine", eventController.GetMyEvents)
			events.GET("/:id", eventController.GetEvent)
			events.PUT("/:id", eventController.UpdateEvent)
			events.POST("/:id/complete", eventController.CompleteEvent)
			events.POST("/:id/duplicate", eventController.DuplicateEvent)
			events.POST("/:id/routes", eventController.AddRoute)
			events.POST("/:id/groups", eventController.AddGroup)

			// Participant routes
			events.POST("/:id/participants/invite", participantController.Invite)
			events.POST("/:id/participants/:participantId/respond", participantController.Respond)
			events.PUT("/:id/participants/me", participantController.UpsertSelf)
			events.PUT("/:id/participants/me/selection", participantController.UpdateSelection)
			events.PUT("/:id/participants/role", participantController.UpdateRole)
			events.GET("/:id/participants", participantController.List)
			events.GET("/:id/participants/summary", participantController.Summary)
		}

		// Library route routes
		libraryRoutes := protected.Group("/routes")
		{
			libraryRoutes.GET("/", routeController.GetRoutes)
			libraryRoutes.POST("/", routeController.CreateRoute)
			libraryRoutes.GET("/:id", routeController.GetRoute)
		}

		// Notification routes
		notifications := protected.Group("/notifications")
		{
			notifications.GET("/", notificationController.GetNotifications)
			notifications.GET("/stats", notificationController.GetNotificationStats)
			notifications.PUT("/:id/read", notificationController.MarkAsRead)
		}
	}
}

// SetupCORS configures cross-origin access for browser clients.
func SetupCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
