// Package blockchain implements the blockchain bounded context: the chain
// store fed by realtime events and the REST snapshot fallback.
package blockchain

import (
	"context"

	"github.com/fd1az/nexus-dashboard/business/blockchain/app"
	blockchainDI "github.com/fd1az/nexus-dashboard/business/blockchain/di"
	"github.com/fd1az/nexus-dashboard/business/blockchain/infra/nodeapi"
	realtimeDI "github.com/fd1az/nexus-dashboard/business/realtime/di"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/internal/config"
	"github.com/fd1az/nexus-dashboard/internal/di"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/monolith"
)

const recentBlocks = 50

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Store (public - the realtime client's event sink)
	di.RegisterToken(c, blockchainDI.Store, func(sr di.ServiceRegistry) *app.Store {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewStore(recentBlocks, log)
	})

	// Register SnapshotSource (private - internal dependency)
	di.RegisterToken(c, blockchainDI.SnapshotSource, func(sr di.ServiceRegistry) app.SnapshotSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		apiCfg := nodeapi.DefaultConfig(cfg.Node.APIURL)
		apiCfg.RequestsPerMinute = cfg.Fallback.RequestsPerMinute
		if cfg.Fallback.RequestTimeout > 0 {
			apiCfg.Timeout = cfg.Fallback.RequestTimeout
		}
		client, err := nodeapi.New(apiCfg, log)
		if err != nil {
			panic("failed to create node API client: " + err.Error())
		}
		return client
	})

	// Register BlockchainService (public - exposed to other modules)
	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var source app.SnapshotSource
		if cfg.Fallback.Enabled {
			source = blockchainDI.GetSnapshotSource(sr)
		}
		fallback := app.FallbackConfig{
			Enabled:      cfg.Fallback.Enabled,
			PollInterval: cfg.Fallback.PollInterval,
		}
		return app.NewBlockchainService(
			blockchainDI.GetStore(sr),
			source,
			realtimeDI.GetClient(sr),
			fallback,
			log,
		)
	})

	return nil
}

// Startup feeds BLOCKCHAIN_STATE pushes into the store and starts the
// snapshot fallback.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := blockchainDI.GetBlockchainService(mono.Services())
	client := realtimeDI.GetClient(mono.Services())

	unsubscribe := client.Subscribe(rtdomain.TopicBlockchainState, svc.HandleSnapshot)
	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	go svc.RunFallback(ctx)

	log.Info(ctx, "blockchain module started",
		"fallback", mono.Config().Fallback.Enabled,
		"api_url", mono.Config().Node.APIURL)
	return nil
}
