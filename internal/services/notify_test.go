package services

import (
	"encoding/json"
	"testing"

	"github.com/planhive/planhive/backend/internal/models"
)

// drainEnvelopes decodes everything queued on the client without blocking.
func drainEnvelopes(t *testing.T, client *Client) []Envelope {
	t.Helper()

	var envelopes []Envelope
	for {
		select {
		case data := <-client.Outbox():
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("failed to decode envelope: %v", err)
			}
			envelopes = append(envelopes, env)
		default:
			return envelopes
		}
	}
}

func TestNotifier_DeliversOrderedPairToAudience(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(8)
	creator := createTestUser(t, db, "alice")
	invitee := createTestUser(t, db, "bob")
	start, end := testWindow()
	project := createTestProject(t, db, creator.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	if _, err := collab.Add(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	creatorConn := hub.Register(creator.ID, creator.Name, false)

	svc := NewInvitationService(db, NewNotifier(db, hub))
	if err := svc.Accept(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	envelopes := drainEnvelopes(t, creatorConn)
	if len(envelopes) != 2 {
		t.Fatalf("envelopes = %d, expected the UPDATE_DATA / NOTIFICATION pair", len(envelopes))
	}
	if envelopes[0].Type != MsgUpdateData {
		t.Errorf("first envelope type = %q, expected %q", envelopes[0].Type, MsgUpdateData)
	}
	if envelopes[1].Type != MsgNotification {
		t.Errorf("second envelope type = %q, expected %q", envelopes[1].Type, MsgNotification)
	}

	expected := "bob has accepted the invitation to collaborate on Launch"
	if envelopes[1].Message != expected {
		t.Errorf("message = %q, expected %q", envelopes[1].Message, expected)
	}
}

func TestNotifier_DeclineMessage(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(8)
	creator := createTestUser(t, db, "alice")
	invitee := createTestUser(t, db, "bob")
	start, end := testWindow()
	project := createTestProject(t, db, creator.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	if _, err := collab.Add(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	creatorConn := hub.Register(creator.ID, creator.Name, false)

	svc := NewInvitationService(db, NewNotifier(db, hub))
	if err := svc.Decline(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	envelopes := drainEnvelopes(t, creatorConn)
	if len(envelopes) != 2 {
		t.Fatalf("envelopes = %d, expected 2", len(envelopes))
	}
	expected := "bob has declined the invitation to collaborate on Launch"
	if envelopes[1].Message != expected {
		t.Errorf("message = %q, expected %q", envelopes[1].Message, expected)
	}
}

func TestNotifier_ExcludesActor(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(8)
	creator := createTestUser(t, db, "alice")
	invitee := createTestUser(t, db, "bob")
	start, end := testWindow()
	project := createTestProject(t, db, creator.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	if _, err := collab.Add(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	actorConn := hub.Register(invitee.ID, invitee.Name, false)

	svc := NewInvitationService(db, NewNotifier(db, hub))
	if err := svc.Accept(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if envelopes := drainEnvelopes(t, actorConn); len(envelopes) != 0 {
		t.Errorf("actor received %d envelopes, expected none", len(envelopes))
	}
}

func TestNotifier_ExcludesServiceConnectionsAndPendingMembers(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(8)
	creator := createTestUser(t, db, "alice")
	invitee := createTestUser(t, db, "bob")
	pendingMember := createTestUser(t, db, "carol")
	start, end := testWindow()
	project := createTestProject(t, db, creator.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	for _, id := range []uint{invitee.ID, pendingMember.ID} {
		if _, err := collab.Add(models.KindProject, project.ID, id); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	serviceConn := hub.Register(creator.ID, creator.Name, true)
	pendingConn := hub.Register(pendingMember.ID, pendingMember.Name, false)
	strangerConn := hub.Register(999, "stranger", false)

	svc := NewInvitationService(db, NewNotifier(db, hub))
	if err := svc.Accept(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	if envelopes := drainEnvelopes(t, serviceConn); len(envelopes) != 0 {
		t.Errorf("service connection received %d envelopes, expected none", len(envelopes))
	}
	if envelopes := drainEnvelopes(t, pendingConn); len(envelopes) != 0 {
		t.Errorf("pending member received %d envelopes, expected none", len(envelopes))
	}
	if envelopes := drainEnvelopes(t, strangerConn); len(envelopes) != 0 {
		t.Errorf("non-member received %d envelopes, expected none", len(envelopes))
	}
}

func TestNotifier_AllActorConnectionsExcluded(t *testing.T) {
	db := setupTestDB(t)
	hub := NewHub(8)
	creator := createTestUser(t, db, "alice")
	invitee := createTestUser(t, db, "bob")
	start, end := testWindow()
	project := createTestProject(t, db, creator.ID, "Launch", start, end)

	collab := NewCollaboratorService(db)
	if _, err := collab.Add(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// the actor has two live connections, the audience member has two as well
	actorConn1 := hub.Register(invitee.ID, invitee.Name, false)
	actorConn2 := hub.Register(invitee.ID, invitee.Name, false)
	audienceConn1 := hub.Register(creator.ID, creator.Name, false)
	audienceConn2 := hub.Register(creator.ID, creator.Name, false)

	svc := NewInvitationService(db, NewNotifier(db, hub))
	if err := svc.Accept(models.KindProject, project.ID, invitee.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	for _, conn := range []*Client{actorConn1, actorConn2} {
		if envelopes := drainEnvelopes(t, conn); len(envelopes) != 0 {
			t.Errorf("actor connection received %d envelopes, expected none", len(envelopes))
		}
	}
	for _, conn := range []*Client{audienceConn1, audienceConn2} {
		if envelopes := drainEnvelopes(t, conn); len(envelopes) != 2 {
			t.Errorf("audience connection received %d envelopes, expected 2", len(envelopes))
		}
	}
}
