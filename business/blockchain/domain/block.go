// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Block is a block as the node serializes it.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previous_hash"`
	Hash         string        `json:"hash"`
	Nonce        uint64        `json:"nonce"`
	Validator    string        `json:"validator"`
}

// Time returns the block timestamp (unix seconds) as a time.Time.
func (b Block) Time() time.Time {
	return time.Unix(b.Timestamp, 0)
}

// ShortHash returns the first n characters of the hash.
func (b Block) ShortHash(n int) string {
	return shorten(b.Hash, n)
}

// Transaction is a transfer between two addresses. Amount is decoded from the
// node's float into a decimal so totals do not drift.
type Transaction struct {
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp int64           `json:"timestamp"`
	Signature *string         `json:"signature,omitempty"`
	Hash      string          `json:"hash"`
}

// Signed reports whether the transaction carries a signature.
func (t Transaction) Signed() bool {
	return t.Signature != nil && *t.Signature != ""
}

// Peer is a node the local node is connected to.
type Peer struct {
	ID      string `json:"id"`
	Address string `json:"address,omitempty"`
}

// ShortID returns the first n characters of the peer id.
func (p Peer) ShortID(n int) string {
	return shorten(p.ID, n)
}

// MiningStatus reports whether the node is mining.
type MiningStatus struct {
	IsMining bool            `json:"isMining"`
	HashRate decimal.Decimal `json:"hashRate"`
}

// NetworkStats are aggregate counters pushed by the node.
type NetworkStats struct {
	Peers        int `json:"peers"`
	Blocks       int `json:"blocks"`
	Transactions int `json:"transactions"`
	Mempool      int `json:"mempool"`
}

// ChainSnapshot is the full-state payload of BLOCKCHAIN_STATE.
type ChainSnapshot struct {
	ChainLength uint64 `json:"chainLength"`
	LastBlock   *Block `json:"lastBlock,omitempty"`
	Difficulty  uint64 `json:"difficulty"`
	Mempool     int    `json:"mempool"`
	IsMining    bool   `json:"isMining"`
}

// DecodeSnapshot decodes a BLOCKCHAIN_STATE payload.
func DecodeSnapshot(raw json.RawMessage) (ChainSnapshot, error) {
	var s ChainSnapshot
	err := json.Unmarshal(raw, &s)
	return s, err
}

func shorten(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
