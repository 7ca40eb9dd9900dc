package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, hub *events.Hub) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(hub, func() (StatusSnapshot, error) {
		return StatusSnapshot{WorkspaceRoot: "/tmp/ws", ArtifactCount: 3}, nil
	})
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestHealthzReportsOK(t *testing.T) {
	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()
	_, ts := newTestServer(t, hub)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusReportsSnapshotAndSubscriberCount(t *testing.T) {
	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()
	_, ts := newTestServer(t, hub)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	for i := 0; i < 100 && hub.SubscriberCount() != 1; i++ {
		time.Sleep(time.Millisecond)
	}

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	var snapshot StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if snapshot.ArtifactCount != 3 {
		t.Fatalf("ArtifactCount = %d, want 3", snapshot.ArtifactCount)
	}
	if snapshot.WorkspaceRoot != "/tmp/ws" {
		t.Fatalf("WorkspaceRoot = %q, want /tmp/ws", snapshot.WorkspaceRoot)
	}
	if snapshot.SubscriberCount != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", snapshot.SubscriberCount)
	}
}

func TestWebSocketRelaysPublishedEvents(t *testing.T) {
	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()
	_, ts := newTestServer(t, hub)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// give the server goroutine time to register the subscription before
	// publishing, since Subscribe() round-trips through the hub's loop.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for websocket subscription to register")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish("artifact.committed", map[string]string{"slug": "onboarding"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var evt events.Event
	if err := json.Unmarshal(message, &evt); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if evt.Type != "artifact.committed" {
		t.Fatalf("Type = %q, want artifact.committed", evt.Type)
	}
}

func TestShutdownAfterStartReturnsNoError(t *testing.T) {
	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()
	srv, _ := newTestServer(t, hub)

	// Start/Shutdown exercise the real http.Server lifecycle rather than
	// the httptest.Server used by the other tests above.
	go srv.Start("127.0.0.1:0")
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
