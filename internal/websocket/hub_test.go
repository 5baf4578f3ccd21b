package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testClient(hub *Hub, familyID int64) *Client {
	return &Client{hub: hub, familyID: familyID, send: make(chan []byte, sendBufferSize)}
}

func TestBroadcastScopedToFamily(t *testing.T) {
	hub := testHub()
	ivanov := testClient(hub, 1)
	petrov := testClient(hub, 2)
	hub.Register(ivanov)
	hub.Register(petrov)

	hub.Broadcast(model.Event{ID: "e1", FamilyID: 1, Entity: model.EntityTask, Action: model.ActionCreated, EntityID: 42})

	select {
	case data := <-ivanov.send:
		var evt model.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.ID != "e1" || evt.EntityID != 42 {
			t.Errorf("got event %+v", evt)
		}
	default:
		t.Fatal("family 1 client received nothing")
	}

	select {
	case <-petrov.send:
		t.Fatal("family 2 client received another family's event")
	default:
	}
}

func TestBroadcastDropsWhenClientSlow(t *testing.T) {
	hub := testHub()
	client := testClient(hub, 1)
	hub.Register(client)

	// Fill the buffer past capacity; extra events must not block.
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(model.Event{ID: "e", FamilyID: 1, Entity: model.EntityTask, Action: model.ActionCreated})
	}

	if got := len(client.send); got != sendBufferSize {
		t.Fatalf("buffered = %d, want %d", got, sendBufferSize)
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := testHub()
	client := testClient(hub, 1)
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("client count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Fatalf("client count = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Fatal("send channel still open after unregister")
	}

	// Double unregister is a no-op, not a double close.
	hub.Unregister(client)
}
