package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/internal/apperror"
	"github.com/fd1az/nexus-dashboard/internal/logger"
)

// FallbackConfig controls REST polling while the WebSocket is down.
type FallbackConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

// BlockchainService keeps the store fed. While the realtime connection is
// open the store follows its events; otherwise the service polls the REST
// API and republishes the result as BLOCKCHAIN_STATE.
type BlockchainService struct {
	store     *Store
	source    SnapshotSource
	publisher SnapshotPublisher
	config    FallbackConfig
	logger    logger.LoggerInterface
}

// NewBlockchainService creates a new BlockchainService. source may be nil
// when the fallback is disabled.
func NewBlockchainService(store *Store, source SnapshotSource, publisher SnapshotPublisher, cfg FallbackConfig, log logger.LoggerInterface) *BlockchainService {
	return &BlockchainService{
		store:     store,
		source:    source,
		publisher: publisher,
		config:    cfg,
		logger:    log,
	}
}

// Store returns the backing store.
func (s *BlockchainService) Store() *Store {
	return s.store
}

// State returns a copy of the current node state.
func (s *BlockchainService) State() State {
	return s.store.State()
}

// RunFallback polls until ctx is done. It returns immediately when the
// fallback is disabled.
func (s *BlockchainService) RunFallback(ctx context.Context) {
	if !s.config.Enabled || s.source == nil || s.config.PollInterval <= 0 {
		return
	}

	s.logger.Info(ctx, "snapshot fallback started", "interval", s.config.PollInterval)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PollOnce(ctx)
		}
	}
}

// PollOnce fetches state over REST if the realtime connection is not open.
// It reports whether a snapshot was published.
func (s *BlockchainService) PollOnce(ctx context.Context) bool {
	if s.source == nil || s.publisher.IsConnected() {
		return false
	}

	snap, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		if apperror.Transient(err) {
			s.logger.Warn(ctx, "snapshot fallback failed", "code", apperror.GetCode(err), "error", err)
		} else {
			s.logger.Error(ctx, "snapshot fallback rejected by node", "code", apperror.GetCode(err), "error", err)
		}
		return false
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error(ctx, "failed to encode snapshot", "error", err)
		return false
	}
	s.publisher.PublishSnapshot(rtdomain.TopicBlockchainState, payload)

	stats, err := s.source.FetchNetworkStats(ctx)
	if err != nil {
		s.logger.Debug(ctx, "network stats fallback failed", "error", err)
	} else {
		s.store.Apply(ctx, rtdomain.NetworkStats{Stats: stats})
	}

	s.logger.Debug(ctx, "published fallback snapshot",
		"chain_length", snap.ChainLength, "mempool", snap.Mempool)
	return true
}

// HandleSnapshot decodes a BLOCKCHAIN_STATE payload into the store.
func (s *BlockchainService) HandleSnapshot(payload json.RawMessage) {
	snap, err := domain.DecodeSnapshot(payload)
	if err != nil {
		s.logger.Warn(context.Background(), "invalid snapshot payload", "error", err)
		return
	}
	s.store.ApplySnapshot(snap)
}
