package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/freemocap/skellysubs/logger"
	"github.com/freemocap/skellysubs/pipeline"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewDefault())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func recvTimeout(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Receive():
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestHubBroadcastBySessionPattern(t *testing.T) {
	hub := testHub(t)

	a1 := NewClient("sess-a:1")
	a2 := NewClient("sess-a:2")
	b1 := NewClient("sess-b:1")
	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)

	hub.Broadcast("sess-a:*", []byte("hello"))

	if got := string(recvTimeout(t, a1)); got != "hello" {
		t.Errorf("a1 got %q, want %q", got, "hello")
	}
	if got := string(recvTimeout(t, a2)); got != "hello" {
		t.Errorf("a2 got %q, want %q", got, "hello")
	}
	select {
	case data := <-b1.Receive():
		t.Errorf("b1 should not receive, got %q", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubBroadcastAll(t *testing.T) {
	hub := testHub(t)

	a := NewClient("sess-a:1")
	b := NewClient("sess-b:1")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("*", []byte("everyone"))

	if got := string(recvTimeout(t, a)); got != "everyone" {
		t.Errorf("a got %q", got)
	}
	if got := string(recvTimeout(t, b)); got != "everyone" {
		t.Errorf("b got %q", got)
	}
}

func TestClientSendDropsWhenFull(t *testing.T) {
	c := NewClient("sess:1")
	for i := 0; i < clientBuffer; i++ {
		if !c.Send([]byte("x")) {
			t.Fatalf("send %d should succeed", i)
		}
	}
	if c.Send([]byte("overflow")) {
		t.Error("send into full queue should report false")
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := testHub(t)

	c := NewClient("sess:1")
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, open := <-c.Receive():
		if open {
			t.Error("expected closed channel after unregister")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unregister")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(logger.NewDefault())
	go hub.Run()

	c := NewClient("sess:1")
	hub.Register(c)
	hub.Stop()

	select {
	case _, open := <-c.Receive():
		if open {
			t.Error("expected closed channel after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}

func TestPublisherForwardsStageEvents(t *testing.T) {
	hub := testHub(t)

	c := NewClient("sess-a:tab1")
	hub.Register(c)

	pub := NewPublisher("sess-a", hub, logger.NewDefault())
	listener := pub.Listener()
	listener(pipeline.StageEvent{
		Stage:     "transcription",
		Status:    pipeline.StatusCompleted,
		Timestamp: time.Now(),
	})

	var env Envelope
	if err := json.Unmarshal(recvTimeout(t, c), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != EventTypeStage {
		t.Errorf("type = %q, want %q", env.Type, EventTypeStage)
	}
	if env.Session != "sess-a" {
		t.Errorf("session = %q, want sess-a", env.Session)
	}
	if env.Event == nil || env.Event.Stage != "transcription" {
		t.Errorf("event = %+v, want stage transcription", env.Event)
	}
	if env.Event.Status != pipeline.StatusCompleted {
		t.Errorf("status = %q, want %q", env.Event.Status, pipeline.StatusCompleted)
	}
}
