package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/moodflow/backend/internal/model/session"
	eventService "github.com/zhouzirui/moodflow/backend/internal/service/events"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestWebSocketDeliversSessionEvents(t *testing.T) {
	srv, broker := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ready inbound
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read ready: %v", err)
	}
	if ready.Type != "ready" {
		t.Fatalf("expected ready message, got %q", ready.Type)
	}

	step := session.Step(2)
	broker.Publish(eventService.TypeSessionUpdated, session.Session{ID: 3, Mood: session.MoodOkay, Step: &step})

	var msg inbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Type != string(eventService.TypeSessionUpdated) {
		t.Fatalf("unexpected message type %q", msg.Type)
	}

	var evt eventService.Event
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Session.ID != 3 || evt.Session.StepValue() != 2 || evt.ID == "" {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestWebSocketReleasesSubscriberOnClose(t *testing.T) {
	srv, broker := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	var ready inbound
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read ready: %v", err)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for broker.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not released after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
