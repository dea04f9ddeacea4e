// File: /services/testutil_test.go
package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"runmeet-api/models"
	"runmeet-api/repositories"
)

// testPolyline decodes to three points around (38.5,-120.2).
const testPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

// openTestDB creates a fresh in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Participant{},
		&models.EventRoute{},
		&models.EventGroup{},
		&models.Route{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *EventService, *ParticipantService, *SchedulerService) {
	t.Helper()
	db := openTestDB(t)
	notifications := repositories.NewNotificationRepository(db)
	return db,
		NewEventService(db, notifications),
		NewParticipantService(db, notifications),
		NewSchedulerService(db, notifications)
}

func createTestUser(t *testing.T, db *gorm.DB, name string, plan models.Plan) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    name + "@example.com",
		Password: "$2a$10$dummy",
		Plan:     plan,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestEvent(t *testing.T, es *EventService, organizer *models.User, start time.Time) *models.Event {
	t.Helper()
	event, err := es.Create(organizer.ID, organizer.Plan, CreateEventInput{
		Title:             "Sunday long run",
		Description:       "Easy pace, two loops",
		StartTime:         start,
		LocationName:      "Parc de la Tete d'Or",
		LocationAddress:   "Lyon",
		LocationLatitude:  45.7772,
		LocationLongitude: 4.8558,
	})
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	return event
}

func addTestParticipant(t *testing.T, db *gorm.DB, eventID string, userID *string, role models.ParticipantRole, status models.ParticipantStatus) *models.Participant {
	t.Helper()
	p := &models.Participant{
		ID:      uuid.New().String(),
		EventID: eventID,
		UserID:  userID,
		Role:    role,
		Status:  status,
	}
	if userID == nil {
		p.GuestName = "guest"
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}
	return p
}

func addTestEventRoute(t *testing.T, db *gorm.DB, eventID, geometry string) *models.EventRoute {
	t.Helper()
	route := &models.EventRoute{
		ID:       uuid.New().String(),
		EventID:  eventID,
		Name:     "Main loop",
		Geometry: geometry,
	}
	if err := db.Create(route).Error; err != nil {
		t.Fatalf("Failed to create test event route: %v", err)
	}
	return route
}

func addTestGroup(t *testing.T, db *gorm.DB, eventID, routeID, name string) *models.EventGroup {
	t.Helper()
	group := &models.EventGroup{
		ID:           uuid.New().String(),
		EventID:      eventID,
		EventRouteID: routeID,
		Name:         name,
		PaceLabel:    "5:30/km",
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("Failed to create test group: %v", err)
	}
	return group
}

func countParticipantRows(t *testing.T, db *gorm.DB, eventID, userID string) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.Participant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("Failed to count participant rows: %v", err)
	}
	return count
}

func countNotifications(t *testing.T, db *gorm.DB, recipientID string) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("Failed to count notifications: %v", err)
	}
	return count
}
