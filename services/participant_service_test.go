// File: /services/participant_service_test.go
package services

import (
	"testing"
	"time"

	"runmeet-api/apperrors"
	"runmeet-api/models"
)

func TestInviteCreatesInvitedRowAndNotifies(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "alice", models.PlanPremium)
	target := createTestUser(t, db, "bob", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	participant, err := ps.Invite(event.ID, organizer.ID, target.ID, models.RoleParticipant)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if participant.Status != models.StatusInvited {
		t.Errorf("Expected status INVITED, got %s", participant.Status)
	}
	if participant.Role != models.RoleParticipant {
		t.Errorf("Expected role PARTICIPANT, got %s", participant.Role)
	}

	if n := countNotifications(t, db, target.ID); n != 1 {
		t.Fatalf("Expected 1 invitation notification, got %d", n)
	}
	var notification models.Notification
	if err := db.Where("recipient_id = ?", target.ID).First(&notification).Error; err != nil {
		t.Fatalf("Failed to load notification: %v", err)
	}
	if notification.Type != models.NotificationTypeInvitation {
		t.Errorf("Expected invitation type, got %s", notification.Type)
	}
	if notification.DedupKey != nil {
		t.Errorf("Invitations must not carry a dedup key")
	}
}

func TestInviteUpsertsExistingRowInPlace(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "carol", models.PlanPremium)
	target := createTestUser(t, db, "dave", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	first, err := ps.Invite(event.ID, organizer.ID, target.ID, models.RoleParticipant)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := ps.Respond(event.ID, first.ID, target.ID, models.StatusDeclined); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	// Re-inviting with a new role overwrites the row and clears the decline.
	second, err := ps.Invite(event.ID, organizer.ID, target.ID, models.RoleEncadrant)
	if err != nil {
		t.Fatalf("Re-invite failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Re-invite must reuse the existing row")
	}
	if second.Role != models.RoleEncadrant {
		t.Errorf("Expected role ENCADRANT, got %s", second.Role)
	}
	if second.Status != models.StatusInvited {
		t.Errorf("Expected status reset to INVITED, got %s", second.Status)
	}

	if n := countParticipantRows(t, db, event.ID, target.ID); n != 1 {
		t.Errorf("Expected a single participant row, got %d", n)
	}
	// Each invitation notifies again.
	if n := countNotifications(t, db, target.ID); n != 2 {
		t.Errorf("Expected 2 invitation notifications, got %d", n)
	}
}

func TestInviteValidation(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "erin", models.PlanPremium)
	target := createTestUser(t, db, "frank", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	if _, err := ps.Invite(event.ID, target.ID, organizer.ID, models.RoleParticipant); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Errorf("Non-organizer invite should be forbidden, got %v", err)
	}
	if _, err := ps.Invite(event.ID, organizer.ID, organizer.ID, models.RoleParticipant); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Self-invite should be a bad request, got %v", err)
	}
	if _, err := ps.Invite(event.ID, organizer.ID, target.ID, models.RoleOrganizer); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Inviting as ORGANIZER should be a bad request, got %v", err)
	}
	if _, err := ps.Invite(event.ID, organizer.ID, "nobody", models.RoleParticipant); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Unknown target should be not found, got %v", err)
	}
}

func TestRespondOnlyWhileInvited(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "grace", models.PlanPremium)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	for _, status := range []models.ParticipantStatus{models.StatusGoing, models.StatusMaybe, models.StatusDeclined} {
		user := createTestUser(t, db, "user-"+string(status), models.PlanFree)
		row := addTestParticipant(t, db, event.ID, &user.ID, models.RoleParticipant, status)

		_, err := ps.Respond(event.ID, row.ID, user.ID, models.StatusGoing)
		if !apperrors.IsKind(err, apperrors.KindConflict) {
			t.Errorf("Responding from %s should conflict, got %v", status, err)
		}
	}
}

func TestRespondAuthorizationAndScoping(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "heidi", models.PlanPremium)
	invited := createTestUser(t, db, "ivan", models.PlanFree)
	other := createTestUser(t, db, "judy", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))
	otherEvent := createTestEvent(t, es, organizer, time.Now().Add(72*time.Hour))

	row, err := ps.Invite(event.ID, organizer.ID, invited.ID, models.RoleParticipant)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	if _, err := ps.Respond(event.ID, row.ID, invited.ID, models.StatusMaybe); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("MAYBE is not a valid invitation answer, got %v", err)
	}
	if _, err := ps.Respond(otherEvent.ID, row.ID, invited.ID, models.StatusGoing); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Cross-event participant id should be not found, got %v", err)
	}
	if _, err := ps.Respond(event.ID, row.ID, other.ID, models.StatusGoing); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Errorf("Only the invited user can respond, got %v", err)
	}

	answered, err := ps.Respond(event.ID, row.ID, invited.ID, models.StatusGoing)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if answered.Status != models.StatusGoing {
		t.Errorf("Expected GOING, got %s", answered.Status)
	}
}

func TestUpsertSelfCreatesThenUpdatesInPlace(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "karl", models.PlanPremium)
	runner := createTestUser(t, db, "liam", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	first, err := ps.UpsertSelf(event.ID, runner.ID, models.StatusGoing)
	if err != nil {
		t.Fatalf("UpsertSelf failed: %v", err)
	}
	if first.Status != models.StatusGoing || first.Role != models.RoleParticipant {
		t.Errorf("Unexpected row: %s %s", first.Role, first.Status)
	}

	second, err := ps.UpsertSelf(event.ID, runner.ID, models.StatusMaybe)
	if err != nil {
		t.Fatalf("Second UpsertSelf failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Upsert must reuse the existing row")
	}
	if second.Status != models.StatusMaybe {
		t.Errorf("Expected MAYBE, got %s", second.Status)
	}
	if n := countParticipantRows(t, db, event.ID, runner.ID); n != 1 {
		t.Errorf("Expected a single row, got %d", n)
	}

	if _, err := ps.UpsertSelf(event.ID, runner.ID, models.StatusInvited); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("INVITED is not reachable through self-RSVP, got %v", err)
	}
	if _, err := ps.UpsertSelf("nope", runner.ID, models.StatusGoing); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Unknown event should be not found, got %v", err)
	}
}

func TestJoinAsGuest(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "mallory", models.PlanPremium)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	guest, err := ps.JoinAsGuest(event.ID, "Drop-in Dana", "")
	if err != nil {
		t.Fatalf("JoinAsGuest failed: %v", err)
	}
	if !guest.IsGuest() {
		t.Errorf("Guest row must carry no user reference")
	}
	if guest.Status != models.StatusGoing {
		t.Errorf("Blank status defaults to GOING, got %s", guest.Status)
	}

	if _, err := ps.JoinAsGuest(event.ID, "", models.StatusGoing); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Guest name is required, got %v", err)
	}
	if _, err := ps.JoinAsGuest(event.ID, "Dana", models.StatusInvited); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Guests cannot be INVITED, got %v", err)
	}
}

func TestUpdateSelectionValidatesRouteAndGroup(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "nina", models.PlanPremium)
	runner := createTestUser(t, db, "oscar", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))
	otherEvent := createTestEvent(t, es, organizer, time.Now().Add(72*time.Hour))

	routeA := addTestEventRoute(t, db, event.ID, testPolyline)
	routeB := addTestEventRoute(t, db, event.ID, "")
	foreignRoute := addTestEventRoute(t, db, otherEvent.ID, "")
	groupA := addTestGroup(t, db, event.ID, routeA.ID, "Fast")
	groupB := addTestGroup(t, db, event.ID, routeB.ID, "Chill")

	// No RSVP row yet.
	_, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		EventRouteID: &routeA.ID, EventRouteIDSet: true,
	})
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("Selection without an RSVP should conflict, got %v", err)
	}

	if _, err := ps.UpsertSelf(event.ID, runner.ID, models.StatusGoing); err != nil {
		t.Fatalf("UpsertSelf failed: %v", err)
	}

	if _, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{}); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Empty selection update should be a bad request, got %v", err)
	}
	if _, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		EventRouteID: &foreignRoute.ID, EventRouteIDSet: true,
	}); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Foreign route should be not found, got %v", err)
	}

	// Route and matching group in one shot.
	selected, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		EventRouteID: &routeA.ID, EventRouteIDSet: true,
		GroupID: &groupA.ID, GroupIDSet: true,
	})
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if selected.EventRouteID == nil || *selected.EventRouteID != routeA.ID {
		t.Errorf("Route not selected")
	}
	if selected.GroupID == nil || *selected.GroupID != groupA.ID {
		t.Errorf("Group not selected")
	}

	// A group from another route is rejected.
	if _, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		GroupID: &groupB.ID, GroupIDSet: true,
	}); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Errorf("Group of a different route should conflict, got %v", err)
	}

	// Switching routes without naming a group clears the stale group.
	switched, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		EventRouteID: &routeB.ID, EventRouteIDSet: true,
	})
	if err != nil {
		t.Fatalf("Route switch failed: %v", err)
	}
	if switched.GroupID != nil {
		t.Errorf("Route switch must clear the previous group")
	}

	// Clearing the route cascades to the group.
	if _, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		GroupID: &groupB.ID, GroupIDSet: true,
	}); err != nil {
		t.Fatalf("Group selection failed: %v", err)
	}
	cleared, err := ps.UpdateSelection(event.ID, runner.ID, SelectionUpdate{
		EventRouteIDSet: true,
	})
	if err != nil {
		t.Fatalf("Clearing failed: %v", err)
	}
	if cleared.EventRouteID != nil || cleared.GroupID != nil {
		t.Errorf("Clearing the route must also clear the group")
	}
}

func TestUpdateRolePromotesToEncadrantOnly(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "peggy", models.PlanPremium)
	runner := createTestUser(t, db, "quinn", models.PlanFree)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))
	addTestParticipant(t, db, event.ID, &runner.ID, models.RoleParticipant, models.StatusGoing)

	promoted, err := ps.UpdateRole(event.ID, runner.ID, organizer.ID, models.RoleEncadrant)
	if err != nil {
		t.Fatalf("Promotion failed: %v", err)
	}
	if promoted.Role != models.RoleEncadrant {
		t.Errorf("Expected ENCADRANT, got %s", promoted.Role)
	}

	if _, err := ps.UpdateRole(event.ID, runner.ID, organizer.ID, models.RoleParticipant); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("Demotion is unsupported, got %v", err)
	}
	if _, err := ps.UpdateRole(event.ID, organizer.ID, organizer.ID, models.RoleEncadrant); !apperrors.IsKind(err, apperrors.KindBadRequest) {
		t.Errorf("The organizer role is immutable, got %v", err)
	}
	if _, err := ps.UpdateRole(event.ID, runner.ID, runner.ID, models.RoleEncadrant); !apperrors.IsKind(err, apperrors.KindForbidden) {
		t.Errorf("Only the organizer promotes, got %v", err)
	}
}

func TestSummaryCounts(t *testing.T) {
	db, es, ps, _ := newTestServices(t)
	organizer := createTestUser(t, db, "rob", models.PlanPremium)
	event := createTestEvent(t, es, organizer, time.Now().Add(48*time.Hour))

	route := addTestEventRoute(t, db, event.ID, testPolyline)
	group := addTestGroup(t, db, event.ID, route.ID, "Fast")

	goingA := createTestUser(t, db, "sybil", models.PlanFree)
	goingB := createTestUser(t, db, "trent", models.PlanFree)
	maybe := createTestUser(t, db, "ursula", models.PlanFree)

	pA := addTestParticipant(t, db, event.ID, &goingA.ID, models.RoleParticipant, models.StatusGoing)
	pA.EventRouteID = &route.ID
	pA.GroupID = &group.ID
	if err := db.Save(pA).Error; err != nil {
		t.Fatalf("Failed to attach selection: %v", err)
	}
	pB := addTestParticipant(t, db, event.ID, &goingB.ID, models.RoleParticipant, models.StatusGoing)
	pB.EventRouteID = &route.ID
	if err := db.Save(pB).Error; err != nil {
		t.Fatalf("Failed to attach selection: %v", err)
	}
	addTestParticipant(t, db, event.ID, &maybe.ID, models.RoleParticipant, models.StatusMaybe)
	addTestParticipant(t, db, event.ID, nil, models.RoleParticipant, models.StatusGoing)

	summary, err := ps.Summary(event.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	// Organizer + 2 users + 1 guest are GOING.
	if summary.CountsByStatus[models.StatusGoing] != 4 {
		t.Errorf("Expected 4 GOING, got %d", summary.CountsByStatus[models.StatusGoing])
	}
	if summary.CountsByStatus[models.StatusMaybe] != 1 {
		t.Errorf("Expected 1 MAYBE, got %d", summary.CountsByStatus[models.StatusMaybe])
	}
	if summary.Total != 5 {
		t.Errorf("Expected 5 total, got %d", summary.Total)
	}
	if summary.GoingByRoute[route.ID] != 2 {
		t.Errorf("Expected 2 GOING on the route, got %d", summary.GoingByRoute[route.ID])
	}
	if summary.GoingByGroup[group.ID] != 1 {
		t.Errorf("Expected 1 GOING in the group, got %d", summary.GoingByGroup[group.ID])
	}
}
