// File: /services/change_notifier_test.go
package services

import (
	"testing"
	"time"

	"runmeet-api/models"
	"runmeet-api/repositories"
)

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		name  string
		flags ChangeFlags
		want  ChangeType
	}{
		{"nothing changed", ChangeFlags{}, ChangeNone},
		{"time only", ChangeFlags{TimeChanged: true}, ChangeTimeOnly},
		{"location only", ChangeFlags{LocationChanged: true}, ChangeLocationOnly},
		{"time and location", ChangeFlags{TimeChanged: true, LocationChanged: true}, ChangeUpdated},
		{"cancelled", ChangeFlags{Cancelled: true}, ChangeCancelled},
		{"cancelled wins over time", ChangeFlags{Cancelled: true, TimeChanged: true}, ChangeCancelled},
		{"cancelled wins over location", ChangeFlags{Cancelled: true, LocationChanged: true}, ChangeCancelled},
		{"cancelled wins over everything", ChangeFlags{Cancelled: true, TimeChanged: true, LocationChanged: true}, ChangeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyChange(tt.flags); got != tt.want {
				t.Errorf("ClassifyChange(%+v) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}

func TestNotifyEventChangeTargetsAndPayload(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewNotificationRepository(db)
	notifier := NewChangeNotifier(repo)

	organizer := createTestUser(t, db, "alice", models.PlanPremium)
	going := createTestUser(t, db, "bob", models.PlanFree)
	declined := createTestUser(t, db, "carol", models.PlanFree)

	event := &models.Event{
		ID:           "evt-1",
		OrganizerID:  organizer.ID,
		Title:        "Trail night",
		StartTime:    time.Now().Add(24 * time.Hour),
		Status:       models.EventStatusPlanned,
		LocationName: "Forest gate",
		Code:         "TRAIL7",
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	goingRow := addTestParticipant(t, db, event.ID, &going.ID, models.RoleParticipant, models.StatusGoing)
	addTestParticipant(t, db, event.ID, &declined.ID, models.RoleParticipant, models.StatusDeclined)
	addTestParticipant(t, db, event.ID, nil, models.RoleParticipant, models.StatusGoing)

	sent, err := notifier.NotifyEventChange(db, event, ChangeFlags{LocationChanged: true})
	if err != nil {
		t.Fatalf("NotifyEventChange failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("Expected 1 notification, got %d", sent)
	}

	var notification models.Notification
	if err := db.Where("recipient_id = ?", going.ID).First(&notification).Error; err != nil {
		t.Fatalf("Failed to load notification: %v", err)
	}
	if notification.Type != models.NotificationTypeEventLocationChanged {
		t.Errorf("Expected location-changed type, got %s", notification.Type)
	}
	if notification.EventID == nil || *notification.EventID != event.ID {
		t.Errorf("Notification must reference the event")
	}
	if notification.Payload["participant_id"] != goingRow.ID {
		t.Errorf("Payload must carry the participant id")
	}

	if n := countNotifications(t, db, declined.ID); n != 0 {
		t.Errorf("DECLINED participants are not notified, got %d", n)
	}
}

func TestNotifyEventChangeNoFlagsWritesNothing(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewNotificationRepository(db)
	notifier := NewChangeNotifier(repo)

	organizer := createTestUser(t, db, "dave", models.PlanPremium)
	event := &models.Event{
		ID:          "evt-2",
		OrganizerID: organizer.ID,
		Title:       "Quiet edit",
		StartTime:   time.Now().Add(24 * time.Hour),
		Status:      models.EventStatusPlanned,
		Code:        "QUIET2",
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	addTestParticipant(t, db, event.ID, &organizer.ID, models.RoleOrganizer, models.StatusGoing)

	sent, err := notifier.NotifyEventChange(db, event, ChangeFlags{})
	if err != nil {
		t.Fatalf("NotifyEventChange failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("Expected no notifications, got %d", sent)
	}
}
