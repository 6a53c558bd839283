package app

import (
	"context"
	"testing"
	"time"
)

func TestNotificationFeed(t *testing.T) {
	feed := NewNotificationFeed(testLogger())

	a := make(chan Notification, 4)
	b := make(chan Notification, 4)
	subA := feed.Subscribe(a)
	subB := feed.Subscribe(b)
	defer subB.Unsubscribe()

	feed.Notify(context.Background(), Notification{ID: "ws-connected", Level: LevelSuccess, Message: "Connected"})

	for name, ch := range map[string]chan Notification{"a": a, "b": b} {
		select {
		case n := <-ch:
			if n.ID != "ws-connected" || n.Level != LevelSuccess {
				t.Errorf("%s got %+v", name, n)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}

	subA.Unsubscribe()
	feed.Notify(context.Background(), Notification{ID: "ws-error", Level: LevelError})

	if n := <-b; n.ID != "ws-error" {
		t.Errorf("b got %+v", n)
	}
	select {
	case n := <-a:
		t.Errorf("unsubscribed channel got %+v", n)
	default:
	}
}

func TestNotificationFeed_WithoutSubscribers(t *testing.T) {
	feed := NewNotificationFeed(nil)
	feed.Notify(context.Background(), Notification{ID: "block-abcdef01"})
}

func TestNotificationFeed_AsClientNotifier(t *testing.T) {
	feed := NewNotificationFeed(nil)
	ch := make(chan Notification, 8)
	sub := feed.Subscribe(ch)
	defer sub.Unsubscribe()

	c, d, _ := newTestClient(t, DefaultConfig("ws://node.test/ws"), WithNotifier(feed))
	connectOpen(t, c, d)

	select {
	case n := <-ch:
		if n.ID != "ws-connected" {
			t.Errorf("first notification = %q, want ws-connected", n.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification after connecting")
	}
}
