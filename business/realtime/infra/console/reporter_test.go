package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type staticStatus domain.DetailedStatus

func (s staticStatus) DetailedStatus() domain.DetailedStatus { return domain.DetailedStatus(s) }

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
}

func TestReporter_ReportStatus(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{out: &buf, now: fixedClock}

	r.ReportStatus(domain.DetailedStatus{
		State:        domain.StateReconnecting,
		Reconnecting: true,
		ConnectionStatus: domain.ConnectionStatus{
			ReconnectAttempts: 2,
		},
		QueuedSends: 1,
		LastError:   "dial refused",
	})

	got := buf.String()
	for _, want := range []string{"[15:04:05]", "attempt=2", "queued=1", "error=dial refused"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestReporter_Run(t *testing.T) {
	buf := &syncBuffer{}
	r := &Reporter{out: buf, interval: 10 * time.Millisecond, now: fixedClock}
	feed := app.NewNotificationFeed(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, feed, staticStatus{State: domain.StateOpen})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "status  open") {
		if time.Now().After(deadline) {
			t.Fatalf("no status line in %q", buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	feed.Notify(ctx, app.Notification{ID: "ws-connected", Level: app.LevelSuccess, Message: "Connected to node"})

	for !strings.Contains(buf.String(), "Connected to node (ws-connected)") {
		if time.Now().After(deadline) {
			t.Fatalf("notification not reported in %q", buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
