package services

import (
	"testing"

	"github.com/planhive/planhive/backend/internal/models"
)

func TestUserList_OrderedByID(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")

	svc := NewUserService(db, NewHub(4))
	users, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, expected 2", len(users))
	}
	if users[0].Name != "alice" || users[1].Name != "bob" {
		t.Errorf("unexpected order: %q, %q", users[0].Name, users[1].Name)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	svc := NewUserService(db, NewHub(4))
	_, err := svc.GetByID(999)
	if !IsKind(err, KindNotFound) {
		t.Errorf("GetByID error = %v, expected KindNotFound", err)
	}
}

func TestOnlineCollaborators(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(4)

	me := createTestUser(t, db, "alice")
	online := createTestUser(t, db, "bob")
	offline := createTestUser(t, db, "carol")
	pending := createTestUser(t, db, "dave")
	stranger := createTestUser(t, db, "erin")

	start, end := testWindow()
	project := createTestProject(t, db, me.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	for _, id := range []uint{online.ID, offline.ID, pending.ID} {
		if _, err := collab.Add(models.KindProject, project.ID, id); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	db.Model(&models.Collaborator{}).
		Where("entity_kind = ? AND entity_id = ? AND user_id IN ?", models.KindProject, project.ID, []uint{online.ID, offline.ID}).
		Update("accepted", true)

	// bob and erin are connected; erin shares no collaboration with alice
	hub.Register(online.ID, online.Name, false)
	hub.Register(stranger.ID, stranger.Name, false)
	// dave is connected but his membership is still pending
	hub.Register(pending.ID, pending.Name, false)

	svc := NewUserService(db, hub)
	result, err := svc.OnlineCollaborators(me.ID)
	if err != nil {
		t.Fatalf("OnlineCollaborators failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("online collaborators = %d, expected 1", len(result))
	}
	if result[0].ID != online.ID {
		t.Errorf("online collaborator = %q, expected %q", result[0].Name, online.Name)
	}
}

func TestOnlineCollaborators_ServiceConnectionNotOnline(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(4)

	me := createTestUser(t, db, "alice")
	other := createTestUser(t, db, "bob")

	start, end := testWindow()
	project := createTestProject(t, db, me.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	if _, err := collab.Add(models.KindProject, project.ID, other.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	db.Model(&models.Collaborator{}).
		Where("entity_kind = ? AND entity_id = ? AND user_id = ?", models.KindProject, project.ID, other.ID).
		Update("accepted", true)

	hub.Register(other.ID, other.Name, true)

	svc := NewUserService(db, hub)
	result, err := svc.OnlineCollaborators(me.ID)
	if err != nil {
		t.Fatalf("OnlineCollaborators failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("online collaborators = %d, expected none for a service-only connection", len(result))
	}
}
