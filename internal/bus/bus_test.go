package bus

import (
	"testing"
	"time"

	"enbw-hass/internal/api"
)

func TestSubscribeReceivesPublishedSnapshot(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	snap := &api.StationResponse{StationID: "42"}
	b.Publish(snap)

	select {
	case got := <-sub:
		if got.StationID != "42" {
			t.Errorf("Expected station 42, got %s", got.StationID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for published snapshot")
	}
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := New()
	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		b.Publish(&api.StationResponse{StationID: "1"})
		b.Publish(&api.StationResponse{StationID: "2"})
		b.Publish(&api.StationResponse{StationID: "3"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	b := New()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Publish(&api.StationResponse{StationID: "42"})

	for i, sub := range []<-chan *api.StationResponse{sub1, sub2} {
		select {
		case got := <-sub:
			if got.StationID != "42" {
				t.Errorf("Subscriber %d: expected station 42, got %s", i, got.StationID)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d timed out", i)
		}
	}
}
