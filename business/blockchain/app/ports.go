// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"encoding/json"

	"github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

// SnapshotSource reads chain state without the WebSocket.
type SnapshotSource interface {
	// FetchSnapshot returns the node's current BLOCKCHAIN_STATE equivalent.
	FetchSnapshot(ctx context.Context) (domain.ChainSnapshot, error)

	// FetchNetworkStats returns peer, block and mempool counts.
	FetchNetworkStats(ctx context.Context) (domain.NetworkStats, error)
}

// SnapshotPublisher is the realtime side the fallback feeds.
type SnapshotPublisher interface {
	IsConnected() bool
	PublishSnapshot(topic rtdomain.Topic, payload json.RawMessage)
}
