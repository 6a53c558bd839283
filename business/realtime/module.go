// Package realtime implements the realtime bounded context: the reconnecting
// WebSocket client for the node's event stream.
package realtime

import (
	"context"
	"fmt"

	blockchainDI "github.com/fd1az/nexus-dashboard/business/blockchain/di"
	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	realtimeDI "github.com/fd1az/nexus-dashboard/business/realtime/di"
	"github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/business/realtime/infra/wstransport"
	"github.com/fd1az/nexus-dashboard/internal/config"
	"github.com/fd1az/nexus-dashboard/internal/di"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/monolith"
)

// Module implements the realtime bounded context.
type Module struct{}

// RegisterServices registers all realtime services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Dialer (private - internal dependency)
	di.RegisterToken(c, realtimeDI.Dialer, func(sr di.ServiceRegistry) app.Dialer {
		cfg := sr.Get("config").(*config.Config)
		return wstransport.NewDialer(wstransport.ConfigFrom(cfg))
	})

	// Register Notifications (public - consumed by the UI)
	di.RegisterToken(c, realtimeDI.Notifications, func(sr di.ServiceRegistry) *app.NotificationFeed {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewNotificationFeed(log)
	})

	// Register Client (public - exposed to other modules)
	di.RegisterToken(c, realtimeDI.Client, func(sr di.ServiceRegistry) *app.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := app.New(
			app.FromConfig(cfg),
			realtimeDI.GetDialer(sr),
			log,
			app.WithSink(blockchainDI.GetStore(sr)),
			app.WithNotifier(realtimeDI.GetNotifications(sr)),
		)
		if err != nil {
			panic("failed to create realtime client: " + err.Error())
		}
		return client
	})

	return nil
}

// Startup connects the client and subscribes to node updates once the
// connection opens.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	client := realtimeDI.GetClient(mono.Services())

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("realtime", func(context.Context) (bool, string) {
			st := client.DetailedStatus()
			return st.IsConnected, fmt.Sprintf("%s (attempts %d)", st.State, st.ReconnectAttempts)
		})
	}

	// Don't fail startup - the client retries on its own
	if err := client.Connect(); err != nil {
		log.Error(ctx, "failed to connect realtime client", "url", client.URL(), "error", err)
	}

	cancelWait := client.WaitForConnection(func() {
		if err := client.SendMessage(domain.SubscribeUpdates()); err != nil {
			log.Error(ctx, "failed to subscribe to updates", "error", err)
		}
	})

	go func() {
		<-ctx.Done()
		cancelWait()
		client.Close()
	}()

	log.Info(ctx, "realtime module started", "url", client.URL())
	return nil
}
