package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/internal/logger"
)

// DefaultRecentBlocks is how many blocks the store keeps.
const DefaultRecentBlocks = 50

// ChangeKind says what part of the store changed.
type ChangeKind int

const (
	ChangeSnapshot ChangeKind = iota
	ChangeBlocks
	ChangeMempool
	ChangePeers
	ChangeMining
	ChangeStats
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSnapshot:
		return "snapshot"
	case ChangeBlocks:
		return "blocks"
	case ChangeMempool:
		return "mempool"
	case ChangePeers:
		return "peers"
	case ChangeMining:
		return "mining"
	case ChangeStats:
		return "stats"
	default:
		return "unknown"
	}
}

// Change is sent on the store's feed after every mutation.
type Change struct {
	Kind ChangeKind
	At   time.Time
}

// State is a copy of everything the store holds.
type State struct {
	Snapshot     domain.ChainSnapshot
	RecentBlocks []domain.Block // newest last
	Mempool      []domain.Transaction
	Peers        []domain.Peer
	Mining       domain.MiningStatus
	Stats        domain.NetworkStats
	UpdatedAt    time.Time
}

// Store holds node state built from realtime domain events and snapshots.
// It implements the realtime client's DomainEventSink.
type Store struct {
	logger   logger.LoggerInterface
	capacity int

	mu        sync.RWMutex
	snapshot  domain.ChainSnapshot
	blocks    []domain.Block
	mempool   []domain.Transaction
	peers     map[string]domain.Peer
	mining    domain.MiningStatus
	stats     domain.NetworkStats
	updatedAt time.Time

	feed event.FeedOf[Change]
}

// NewStore creates a store keeping the last capacity blocks.
func NewStore(capacity int, log logger.LoggerInterface) *Store {
	if capacity <= 0 {
		capacity = DefaultRecentBlocks
	}
	return &Store{
		logger:   log,
		capacity: capacity,
		peers:    make(map[string]domain.Peer),
	}
}

// SubscribeChanges delivers a Change on ch after every mutation. Send blocks
// until every subscriber has received, so ch should be buffered and drained.
func (s *Store) SubscribeChanges(ch chan<- Change) event.Subscription {
	return s.feed.Subscribe(ch)
}

// Apply implements the realtime client's DomainEventSink.
func (s *Store) Apply(ctx context.Context, ev rtdomain.DomainEvent) {
	var kind ChangeKind

	s.mu.Lock()
	switch e := ev.(type) {
	case rtdomain.NewBlock:
		s.addBlockLocked(e.Block)
		kind = ChangeBlocks
	case rtdomain.ChainUpdate:
		s.replaceBlocksLocked(e.Blocks)
		kind = ChangeBlocks
	case rtdomain.NewTransaction:
		if !slices.ContainsFunc(s.mempool, func(t domain.Transaction) bool { return t.Hash == e.Transaction.Hash }) {
			s.mempool = append(s.mempool, e.Transaction)
		}
		s.snapshot.Mempool = len(s.mempool)
		kind = ChangeMempool
	case rtdomain.MempoolUpdate:
		s.mempool = slices.Clone(e.Transactions)
		s.snapshot.Mempool = len(s.mempool)
		kind = ChangeMempool
	case rtdomain.PeerConnected:
		s.peers[e.Peer.ID] = e.Peer
		s.stats.Peers = len(s.peers)
		kind = ChangePeers
	case rtdomain.PeerDisconnected:
		delete(s.peers, e.Peer.ID)
		s.stats.Peers = len(s.peers)
		kind = ChangePeers
	case rtdomain.MiningStatus:
		s.mining = e.Status
		s.snapshot.IsMining = e.Status.IsMining
		kind = ChangeMining
	case rtdomain.NetworkStats:
		s.stats = e.Stats
		kind = ChangeStats
	default:
		s.mu.Unlock()
		s.logger.Warn(ctx, "store ignoring event", "type", ev.Type())
		return
	}
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug(ctx, "store updated", "event", ev.Type(), "change", kind.String())
	s.feed.Send(Change{Kind: kind, At: time.Now()})
}

// ApplySnapshot replaces the snapshot with a BLOCKCHAIN_STATE payload. A
// snapshot without a last block keeps the one already known.
func (s *Store) ApplySnapshot(snap domain.ChainSnapshot) {
	s.mu.Lock()
	if snap.LastBlock == nil {
		snap.LastBlock = s.snapshot.LastBlock
	} else {
		s.addBlockLocked(*snap.LastBlock)
	}
	s.snapshot = snap
	s.mining.IsMining = snap.IsMining
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.feed.Send(Change{Kind: ChangeSnapshot, At: time.Now()})
}

// State returns a copy of the store contents.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]domain.Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	slices.SortFunc(peers, func(a, b domain.Peer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	return State{
		Snapshot:     s.snapshot,
		RecentBlocks: slices.Clone(s.blocks),
		Mempool:      slices.Clone(s.mempool),
		Peers:        peers,
		Mining:       s.mining,
		Stats:        s.stats,
		UpdatedAt:    s.updatedAt,
	}
}

// addBlockLocked appends b unless it is already known, drops its
// transactions from the mempool and advances the snapshot.
func (s *Store) addBlockLocked(b domain.Block) {
	for _, known := range s.blocks {
		if known.Hash == b.Hash {
			return
		}
	}
	s.blocks = append(s.blocks, b)
	if over := len(s.blocks) - s.capacity; over > 0 {
		s.blocks = slices.Delete(s.blocks, 0, over)
	}

	if len(b.Transactions) > 0 {
		mined := make(map[string]struct{}, len(b.Transactions))
		for _, tx := range b.Transactions {
			mined[tx.Hash] = struct{}{}
		}
		s.mempool = slices.DeleteFunc(s.mempool, func(t domain.Transaction) bool {
			_, ok := mined[t.Hash]
			return ok
		})
		s.snapshot.Mempool = len(s.mempool)
	}

	if b.Index+1 > s.snapshot.ChainLength {
		s.snapshot.ChainLength = b.Index + 1
	}
	if s.snapshot.LastBlock == nil || b.Index >= s.snapshot.LastBlock.Index {
		last := b
		s.snapshot.LastBlock = &last
	}
}

func (s *Store) replaceBlocksLocked(blocks []domain.Block) {
	if len(blocks) > s.capacity {
		blocks = blocks[len(blocks)-s.capacity:]
	}
	s.blocks = slices.Clone(blocks)
	if len(blocks) == 0 {
		return
	}
	last := blocks[len(blocks)-1]
	s.snapshot.ChainLength = last.Index + 1
	s.snapshot.LastBlock = &last
}
