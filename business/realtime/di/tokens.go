// Package di contains dependency injection tokens for the realtime context.
package di

import (
	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	"github.com/fd1az/nexus-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Client        = di.NewToken[*app.Client]("realtime.Client")
	Notifications = di.NewToken[*app.NotificationFeed]("realtime.Notifications")
)

// Private dependency tokens - internal to realtime module
var (
	Dialer = di.NewToken[app.Dialer]("realtime:dialer")
)

// Helper functions for type-safe access
func GetClient(c di.ServiceRegistry) *app.Client {
	return di.GetToken(c, Client)
}

func GetNotifications(c di.ServiceRegistry) *app.NotificationFeed {
	return di.GetToken(c, Notifications)
}

func GetDialer(c di.ServiceRegistry) app.Dialer {
	return di.GetToken(c, Dialer)
}
