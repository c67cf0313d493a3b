package services

import (
	"encoding/json"
	"testing"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(4)

	client := hub.Register(1, "alice", false)
	if client.ID == "" {
		t.Error("client should get a connection id")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, expected 1", hub.ClientCount())
	}

	hub.Unregister(client.ID)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount after unregister = %d, expected 0", hub.ClientCount())
	}
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub(4)

	c1 := hub.Register(1, "alice", false)
	c2 := hub.Register(1, "alice", false)

	if c1.ID == c2.ID {
		t.Error("each connection should get a distinct id")
	}
	if hub.ClientCount() != 2 {
		t.Errorf("ClientCount = %d, expected 2", hub.ClientCount())
	}
}

func TestHub_LiveUserIDs_ExcludesServiceClients(t *testing.T) {
	hub := NewHub(4)

	hub.Register(1, "alice", false)
	hub.Register(2, "bot", true)

	live := hub.LiveUserIDs()
	if !live[1] {
		t.Error("user 1 should be live")
	}
	if live[2] {
		t.Error("service connections should not count as live users")
	}
}

func TestClient_SendPreservesOrder(t *testing.T) {
	hub := NewHub(4)
	client := hub.Register(1, "alice", false)

	if !client.Send(Envelope{Type: MsgUpdateData}) {
		t.Fatal("first send should succeed")
	}
	if !client.Send(Envelope{Type: MsgNotification, Message: "hello"}) {
		t.Fatal("second send should succeed")
	}

	var first, second Envelope
	if err := json.Unmarshal(<-client.Outbox(), &first); err != nil {
		t.Fatalf("failed to decode first message: %v", err)
	}
	if err := json.Unmarshal(<-client.Outbox(), &second); err != nil {
		t.Fatalf("failed to decode second message: %v", err)
	}

	if first.Type != MsgUpdateData {
		t.Errorf("first message type = %q, expected %q", first.Type, MsgUpdateData)
	}
	if second.Type != MsgNotification {
		t.Errorf("second message type = %q, expected %q", second.Type, MsgNotification)
	}
	if second.Message != "hello" {
		t.Errorf("second message = %q, expected %q", second.Message, "hello")
	}
}

func TestClient_SendDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(1)
	client := hub.Register(1, "alice", false)

	if !client.Send(Envelope{Type: MsgUpdateData}) {
		t.Fatal("send into empty buffer should succeed")
	}
	if client.Send(Envelope{Type: MsgNotification, Message: "dropped"}) {
		t.Error("send into full buffer should report a drop")
	}
}

func TestClient_SendAfterUnregister(t *testing.T) {
	hub := NewHub(4)
	client := hub.Register(1, "alice", false)
	hub.Unregister(client.ID)

	if client.Send(Envelope{Type: MsgUpdateData}) {
		t.Error("send on a closed connection should report failure")
	}
}

func TestHub_UnregisterUnknownID(t *testing.T) {
	hub := NewHub(4)
	hub.Register(1, "alice", false)

	hub.Unregister("no-such-connection")
	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, expected 1", hub.ClientCount())
	}
}
