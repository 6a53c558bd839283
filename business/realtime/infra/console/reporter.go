// Package console prints realtime notifications and status for CLI mode.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

// NotificationSource is the notification feed.
type NotificationSource interface {
	Subscribe(ch chan<- app.Notification) event.Subscription
}

// StatusSource reports connection status.
type StatusSource interface {
	DetailedStatus() domain.DetailedStatus
}

// Reporter writes notifications as they arrive and a status line at a
// fixed interval.
type Reporter struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time
}

// NewReporter creates a reporter writing to stdout. A zero interval
// disables status lines.
func NewReporter(interval time.Duration) *Reporter {
	return &Reporter{
		out:      os.Stdout,
		interval: interval,
		now:      time.Now,
	}
}

// Run reports until ctx is done.
func (r *Reporter) Run(ctx context.Context, notifications NotificationSource, status StatusSource) error {
	ch := make(chan app.Notification, 32)
	sub := notifications.Subscribe(ch)
	defer sub.Unsubscribe()

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	fmt.Fprintln(r.out, "Nexus Dashboard Started")
	fmt.Fprintln(r.out, "=======================")

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "")
			fmt.Fprintln(r.out, "Nexus Dashboard Stopped")
			return nil
		case err := <-sub.Err():
			return err
		case n := <-ch:
			r.ReportNotification(n)
		case <-tick:
			r.ReportStatus(status.DetailedStatus())
		}
	}
}

// ReportNotification writes one notification.
func (r *Reporter) ReportNotification(n app.Notification) {
	fmt.Fprintf(r.out, "[%s] %-7s %s (%s)\n", r.now().Format("15:04:05"), n.Level, n.Message, n.ID)
}

// ReportStatus writes one status line.
func (r *Reporter) ReportStatus(st domain.DetailedStatus) {
	line := fmt.Sprintf("[%s] status  %s", r.now().Format("15:04:05"), st.State)
	if st.Reconnecting {
		line += fmt.Sprintf(" attempt=%d", st.ReconnectAttempts)
	}
	if st.Exhausted {
		line += " (gave up, restart or reconnect manually)"
	}
	line += fmt.Sprintf(" queued=%d subscriptions=%d", st.QueuedSends, st.Subscriptions)
	if !st.LastPing.IsZero() {
		line += " last_ping=" + st.LastPing.Format("15:04:05")
	}
	if st.LastError != "" {
		line += " error=" + st.LastError
	}
	fmt.Fprintln(r.out, line)
}
