package app

import (
	"context"

	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/nexus-dashboard/internal/logger"
)

// NotificationFeed fans notifications out to any number of channel
// subscribers. Send blocks until every subscriber has taken the value, so
// subscribers should use a buffered channel and drain it.
type NotificationFeed struct {
	feed   event.FeedOf[Notification]
	logger logger.LoggerInterface
}

// NewNotificationFeed creates an empty feed. log may be nil.
func NewNotificationFeed(log logger.LoggerInterface) *NotificationFeed {
	return &NotificationFeed{logger: log}
}

// Notify implements Notifier.
func (f *NotificationFeed) Notify(ctx context.Context, n Notification) {
	if f.logger != nil {
		f.logger.Debug(ctx, "notification", "id", n.ID, "level", n.Level.String(), "message", n.Message)
	}
	f.feed.Send(n)
}

// Subscribe delivers future notifications to ch until the subscription is
// unsubscribed.
func (f *NotificationFeed) Subscribe(ch chan<- Notification) event.Subscription {
	return f.feed.Subscribe(ch)
}
