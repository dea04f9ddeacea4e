// File: /services/route_publication.go
package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"runmeet-api/models"
	"runmeet-api/utils"
)

// DefaultRouteRadiusMeters is the search radius stamped on published routes;
// the center comes from the event's stored location.
const DefaultRouteRadiusMeters = 500.0

// PublishEventRoutes promotes the completed event's route tracings into the
// reusable library. Already-linked routes and blank tracings are skipped, so
// re-running creates nothing new. Runs inside the completing transaction.
func PublishEventRoutes(tx *gorm.DB, event *models.Event) (int, error) {
	var routes []models.EventRoute
	err := tx.Where("event_id = ? AND library_route_id IS NULL", event.ID).Find(&routes).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for i := range routes {
		eventRoute := &routes[i]
		if !eventRoute.HasGeometry() {
			continue
		}

		var distance float64
		if points, err := utils.DecodePolyline(eventRoute.Geometry); err == nil {
			distance = utils.PolylineLength(points)
		} else {
			logrus.WithFields(logrus.Fields{
				"event_route_id": eventRoute.ID,
				"error":          err,
			}).Warn("Undecodable route geometry, publishing without distance")
		}

		libraryRoute := models.Route{
			ID:              uuid.New().String(),
			OwnerID:         event.OrganizerID,
			Name:            eventRoute.Name,
			Geometry:        eventRoute.Geometry,
			DistanceMeters:  distance,
			CenterLatitude:  event.LocationLatitude,
			CenterLongitude: event.LocationLongitude,
			RadiusMeters:    DefaultRouteRadiusMeters,
		}
		if err := tx.Create(&libraryRoute).Error; err != nil {
			return published, err
		}

		err := tx.Model(&models.EventRoute{}).
			Where("id = ?", eventRoute.ID).
			Update("library_route_id", libraryRoute.ID).Error
		if err != nil {
			return published, err
		}
		published++
	}

	return published, nil
}
