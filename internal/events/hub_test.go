package events

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	sub := h.Subscribe()
	h.Publish(TypeArtifactCreated, map[string]string{"slug": "decision-log"})

	select {
	case evt := <-sub:
		if evt.Type != TypeArtifactCreated {
			t.Errorf("Type = %q, want %q", evt.Type, TypeArtifactCreated)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	sub := h.Subscribe()
	h.Unsubscribe(sub)

	// Give the hub loop a chance to process the unregister before checking.
	for i := 0; i < 100 && h.SubscriberCount() != 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if h.SubscriberCount() != 0 {
		t.Fatal("expected subscriber count to reach 0")
	}
	if _, ok := <-sub; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	a := h.Subscribe()
	b := h.Subscribe()
	h.Publish(TypeSyncCompleted, nil)

	for _, sub := range []chan Event{a, b} {
		select {
		case <-sub:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}
