// File: /main.go
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"runmeet-api/config"
	"runmeet-api/database"
	"runmeet-api/jobs"
	"runmeet-api/middleware"
	"runmeet-api/routes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database.URL)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logrus.Fatal("Failed to migrate database: ", err)
	}

	// Set Gin mode based on configuration
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create router
	router := gin.New()

	// Middleware
	router.Use(routes.SetupCORS())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(120, 20))

	// Setup routes
	routes.SetupRoutes(router, db, cfg)

	// Start the scheduled triggers (single active instance assumed)
	schedulerJob := jobs.NewEventSchedulerJob(db, cfg.Scheduler.Interval)
	schedulerJob.Start()
	defer schedulerJob.Stop()

	// Start server
	logrus.Infof("Starting RunMeet API server on port %s", cfg.Server.Port)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logrus.Fatal("Failed to start server: ", err)
	}
}
