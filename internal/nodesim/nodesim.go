// Package nodesim is a small in-process stand-in for a blockchain node. It
// speaks the node's WebSocket protocol and serves the REST endpoints the
// dashboard polls, for local runs and integration tests.
package nodesim

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	chain "github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	"github.com/fd1az/nexus-dashboard/internal/logger"
)

// WelcomeText is the plain-text greeting some node builds send on accept.
const WelcomeText = "Connected to Nexuschain WebSocket"

// Config controls the simulated node.
type Config struct {
	Welcome       bool          // send WelcomeText before the first state frame
	BlockInterval time.Duration // Run mines one block per interval
	Difficulty    uint64
	IgnorePings   bool // never answer PING, to exercise heartbeat timeouts
	WriteTimeout  time.Duration
}

// DefaultConfig returns a node that greets clients and mines every 10s.
func DefaultConfig() Config {
	return Config{
		Welcome:       true,
		BlockInterval: 10 * time.Second,
		Difficulty:    4,
		WriteTimeout:  5 * time.Second,
	}
}

type frame struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Data      any    `json:"data,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Node is a simulated node.
type Node struct {
	cfg    Config
	logger logger.LoggerInterface

	mu       sync.Mutex
	blocks   []chain.Block
	mempool  []chain.Transaction
	peers    []chain.Peer
	mining   bool
	conns    map[*websocket.Conn]struct{}
	accepted int
	received []string
}

// New creates a node holding a genesis block.
func New(cfg Config, log logger.LoggerInterface) *Node {
	n := &Node{
		cfg:    cfg,
		logger: log,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	genesis := chain.Block{
		Index:        0,
		Timestamp:    time.Now().Unix(),
		Transactions: []chain.Transaction{},
		PreviousHash: "0",
		Validator:    "genesis",
	}
	genesis.Hash = blockHash(genesis)
	n.blocks = append(n.blocks, genesis)
	return n
}

// Handler serves /ws, /network-stats and /node/status.
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.serveWS)
	mux.HandleFunc("/network-stats", n.serveNetworkStats)
	mux.HandleFunc("/node/status", n.serveNodeStatus)
	return mux
}

// Run mines a block every BlockInterval until ctx is done.
func (n *Node) Run(ctx context.Context) {
	if n.cfg.BlockInterval <= 0 {
		return
	}
	n.setMining(ctx, true)
	defer n.setMining(context.Background(), false)

	ticker := time.NewTicker(n.cfg.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.MineBlock(ctx)
		}
	}
}

// Snapshot returns the BLOCKCHAIN_STATE payload.
func (n *Node) Snapshot() chain.ChainSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked()
}

func (n *Node) snapshotLocked() chain.ChainSnapshot {
	last := n.blocks[len(n.blocks)-1]
	return chain.ChainSnapshot{
		ChainLength: uint64(len(n.blocks)),
		LastBlock:   &last,
		Difficulty:  n.cfg.Difficulty,
		Mempool:     len(n.mempool),
		IsMining:    n.mining,
	}
}

// MineBlock seals the mempool into a new block and broadcasts NEW_BLOCK.
func (n *Node) MineBlock(ctx context.Context) chain.Block {
	n.mu.Lock()
	prev := n.blocks[len(n.blocks)-1]
	b := chain.Block{
		Index:        prev.Index + 1,
		Timestamp:    time.Now().Unix(),
		Transactions: n.mempool,
		PreviousHash: prev.Hash,
		Nonce:        uint64(len(n.blocks)) * 7919,
		Validator:    "nodesim",
	}
	if b.Transactions == nil {
		b.Transactions = []chain.Transaction{}
	}
	b.Hash = blockHash(b)
	n.blocks = append(n.blocks, b)
	n.mempool = nil
	n.mu.Unlock()

	n.logger.Debug(ctx, "block mined", "index", b.Index, "hash", b.ShortHash(8))
	n.broadcast(ctx, frame{Type: "NEW_BLOCK", Payload: b})
	n.broadcast(ctx, frame{Type: "MEMPOOL_UPDATE", Payload: []chain.Transaction{}})
	return b
}

// SubmitTransaction adds a transaction to the mempool and broadcasts it.
func (n *Node) SubmitTransaction(ctx context.Context, sender, recipient string, amount decimal.Decimal) chain.Transaction {
	tx := chain.Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
	}
	tx.Hash = crypto.Keccak256Hash([]byte(sender), []byte(recipient), []byte(amount.String()),
		[]byte(strconv.FormatInt(tx.Timestamp, 10))).Hex()[2:]

	n.mu.Lock()
	n.mempool = append(n.mempool, tx)
	n.mu.Unlock()

	n.broadcast(ctx, frame{Type: "NEW_TRANSACTION", Payload: tx})
	return tx
}

// ConnectPeer registers a peer and broadcasts PEER_CONNECTED.
func (n *Node) ConnectPeer(ctx context.Context, id, address string) {
	p := chain.Peer{ID: id, Address: address}
	n.mu.Lock()
	n.peers = append(n.peers, p)
	n.mu.Unlock()

	n.broadcast(ctx, frame{Type: "PEER_CONNECTED", Payload: p})
}

// DropConnections closes every client connection as if the node went away.
func (n *Node) DropConnections() {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.conns))
	for c := range n.conns {
		conns = append(conns, c)
	}
	n.mu.Unlock()

	for _, c := range conns {
		go c.Close(websocket.StatusGoingAway, "node restarting")
	}
}

// Accepted returns how many WebSocket clients have connected.
func (n *Node) Accepted() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.accepted
}

// Received returns the type tags of every client message, in arrival order.
func (n *Node) Received() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.received)
}

func (n *Node) setMining(ctx context.Context, on bool) {
	n.mu.Lock()
	n.mining = on
	n.mu.Unlock()
	n.broadcast(ctx, frame{Type: "MINING_STATUS", Payload: chain.MiningStatus{IsMining: on, HashRate: decimal.Zero}})
}

func (n *Node) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		n.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := r.Context()

	n.mu.Lock()
	n.conns[c] = struct{}{}
	n.accepted++
	state := n.snapshotLocked()
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		delete(n.conns, c)
		n.mu.Unlock()
	}()

	if n.cfg.Welcome {
		if err := c.Write(ctx, websocket.MessageText, []byte(WelcomeText)); err != nil {
			return
		}
	}
	if err := wsjson.Write(ctx, c, frame{Type: "BLOCKCHAIN_STATE", Data: state}); err != nil {
		n.logger.Warn(ctx, "failed to send initial state", "error", err)
		return
	}

	for {
		var msg inbound
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				n.logger.Debug(ctx, "client disconnected")
			}
			return
		}

		n.mu.Lock()
		n.received = append(n.received, msg.Type)
		n.mu.Unlock()

		if err := n.handle(ctx, c, msg); err != nil {
			n.logger.Warn(ctx, "failed to answer client", "type", msg.Type, "error", err)
			return
		}
	}
}

func (n *Node) handle(ctx context.Context, c *websocket.Conn, msg inbound) error {
	switch msg.Type {
	case "PING":
		if n.cfg.IgnorePings {
			return nil
		}
		return wsjson.Write(ctx, c, frame{
			Type:      "PONG",
			Timestamp: time.Now().Unix(),
			Data:      n.Snapshot(),
		})
	case "GET_BLOCKCHAIN_DATA":
		n.mu.Lock()
		blocks := slices.Clone(n.blocks)
		n.mu.Unlock()
		return wsjson.Write(ctx, c, frame{Type: "BLOCKCHAIN_UPDATE", Data: blocks})
	case "SUBSCRIBE_UPDATES":
		n.logger.Debug(ctx, "client subscribed to updates")
	default:
		n.logger.Debug(ctx, "received message", "type", msg.Type)
	}
	return nil
}

func (n *Node) broadcast(ctx context.Context, f frame) {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.conns))
	for c := range n.conns {
		conns = append(conns, c)
	}
	n.mu.Unlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, n.writeTimeout())
		if err := wsjson.Write(wctx, c, f); err != nil {
			n.logger.Debug(ctx, "broadcast failed", "type", f.Type, "error", err)
		}
		cancel()
	}
}

func (n *Node) writeTimeout() time.Duration {
	if n.cfg.WriteTimeout > 0 {
		return n.cfg.WriteTimeout
	}
	return 5 * time.Second
}

func (n *Node) serveNetworkStats(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	body := map[string]any{
		"blocks":               len(n.blocks),
		"pending_transactions": len(n.mempool),
		"is_mining":            n.mining,
		"difficulty":           n.cfg.Difficulty,
	}
	n.mu.Unlock()
	writeJSON(w, body)
}

func (n *Node) serveNodeStatus(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	body := map[string]any{
		"peers":   len(n.peers),
		"blocks":  len(n.blocks),
		"mempool": len(n.mempool),
	}
	n.mu.Unlock()
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func blockHash(b chain.Block) string {
	h := crypto.Keccak256Hash(
		[]byte(strconv.FormatUint(b.Index, 10)),
		[]byte(strconv.FormatInt(b.Timestamp, 10)),
		[]byte(b.PreviousHash),
		[]byte(fmt.Sprint(b.Nonce)),
		[]byte(b.Validator),
	)
	return hex.EncodeToString(h[:])
}
