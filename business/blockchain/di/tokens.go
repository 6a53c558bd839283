// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/nexus-dashboard/business/blockchain/app"
	"github.com/fd1az/nexus-dashboard/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
	Store             = di.NewToken[*app.Store]("blockchain.Store")
)

// Private dependency tokens - internal to blockchain module
var (
	SnapshotSource = di.NewToken[app.SnapshotSource]("blockchain:snapshotSource")
)

// Helper functions for type-safe access
func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetStore(c di.ServiceRegistry) *app.Store {
	return di.GetToken(c, Store)
}

func GetSnapshotSource(c di.ServiceRegistry) app.SnapshotSource {
	return di.GetToken(c, SnapshotSource)
}
