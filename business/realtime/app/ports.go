// Package app contains the realtime client and the ports it depends on.
package app

import (
	"context"

	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

// Conn is one open transport connection.
type Conn interface {
	// Read blocks for the next frame. Any error ends the connection.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one frame.
	Write(ctx context.Context, data []byte) error
	// Close closes with a close code and reason. It may block for a
	// handshake.
	Close(code int, reason string) error
	// Abort drops the connection immediately.
	Abort()
}

// Dialer opens transport connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DomainEventSink receives events that mutate node state held elsewhere.
type DomainEventSink interface {
	Apply(ctx context.Context, event domain.DomainEvent)
}

// DomainEventSinkFunc adapts a function to DomainEventSink.
type DomainEventSinkFunc func(ctx context.Context, event domain.DomainEvent)

func (f DomainEventSinkFunc) Apply(ctx context.Context, event domain.DomainEvent) {
	f(ctx, event)
}

// NotificationLevel grades a user-facing notification.
type NotificationLevel int

const (
	LevelInfo NotificationLevel = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l NotificationLevel) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, toast-style message. Notifications sharing
// an ID replace each other.
type Notification struct {
	ID      string
	Level   NotificationLevel
	Message string
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}
