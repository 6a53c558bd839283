// Package domain contains the wire protocol and state types of the realtime
// connection to a node.
package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	chain "github.com/fd1az/nexus-dashboard/business/blockchain/domain"
	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

// EventType is the "type" tag of an inbound frame.
type EventType string

const (
	TypeBlockchainState    EventType = "BLOCKCHAIN_STATE"
	TypeBlockchainUpdate   EventType = "BLOCKCHAIN_UPDATE"
	TypeTransactionUpdate  EventType = "TRANSACTION_UPDATE"
	TypeTransactionHistory EventType = "TRANSACTION_HISTORY"
	TypePong               EventType = "PONG"

	TypeNewBlock         EventType = "NEW_BLOCK"
	TypeNewTransaction   EventType = "NEW_TRANSACTION"
	TypeChainUpdate      EventType = "CHAIN_UPDATE"
	TypePeerConnected    EventType = "PEER_CONNECTED"
	TypePeerDisconnected EventType = "PEER_DISCONNECTED"
	TypeMiningStatus     EventType = "MINING_STATUS"
	TypeNetworkStats     EventType = "NETWORK_STATS"
	TypeMempoolUpdate    EventType = "MEMPOOL_UPDATE"
)

// Topic keys the subscription registry.
type Topic string

const (
	TopicBlockchainState    = Topic(TypeBlockchainState)
	TopicBlockchainUpdate   = Topic(TypeBlockchainUpdate)
	TopicTransactionUpdate  = Topic(TypeTransactionUpdate)
	TopicTransactionHistory = Topic(TypeTransactionHistory)
)

// registryTopics are the tags whose payloads are cached and fanned out.
var registryTopics = map[EventType]Topic{
	TypeBlockchainState:    TopicBlockchainState,
	TypeBlockchainUpdate:   TopicBlockchainUpdate,
	TypeTransactionUpdate:  TopicTransactionUpdate,
	TypeTransactionHistory: TopicTransactionHistory,
}

// Event is an inbound frame. The set of implementations is closed; handle it
// with a type switch.
type Event interface {
	Type() EventType
	isEvent()
}

// DomainEvent is an Event that mutates node state held outside the client.
type DomainEvent interface {
	Event
	isDomainEvent()
}

// Welcome is the plain-text greeting the node sends after the upgrade.
type Welcome struct {
	Text string
}

// TopicPush carries a payload for a registry topic.
type TopicPush struct {
	Topic   Topic
	Payload json.RawMessage
}

// Pong answers a PING. The node attaches a state payload; it is kept for
// inspection but never treated as a topic push.
type Pong struct {
	Timestamp int64
	Payload   json.RawMessage
}

// Unknown is a well-formed frame with a tag this client does not handle.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

type NewBlock struct{ Block chain.Block }
type NewTransaction struct{ Transaction chain.Transaction }
type ChainUpdate struct{ Blocks []chain.Block }
type PeerConnected struct{ Peer chain.Peer }
type PeerDisconnected struct{ Peer chain.Peer }
type MiningStatus struct{ Status chain.MiningStatus }
type NetworkStats struct{ Stats chain.NetworkStats }
type MempoolUpdate struct{ Transactions []chain.Transaction }

func (Welcome) Type() EventType          { return "" }
func (e TopicPush) Type() EventType      { return EventType(e.Topic) }
func (Pong) Type() EventType             { return TypePong }
func (e Unknown) Type() EventType        { return EventType(e.Tag) }
func (NewBlock) Type() EventType         { return TypeNewBlock }
func (NewTransaction) Type() EventType   { return TypeNewTransaction }
func (ChainUpdate) Type() EventType      { return TypeChainUpdate }
func (PeerConnected) Type() EventType    { return TypePeerConnected }
func (PeerDisconnected) Type() EventType { return TypePeerDisconnected }
func (MiningStatus) Type() EventType     { return TypeMiningStatus }
func (NetworkStats) Type() EventType     { return TypeNetworkStats }
func (MempoolUpdate) Type() EventType    { return TypeMempoolUpdate }

func (Welcome) isEvent()          {}
func (TopicPush) isEvent()        {}
func (Pong) isEvent()             {}
func (Unknown) isEvent()          {}
func (NewBlock) isEvent()         {}
func (NewTransaction) isEvent()   {}
func (ChainUpdate) isEvent()      {}
func (PeerConnected) isEvent()    {}
func (PeerDisconnected) isEvent() {}
func (MiningStatus) isEvent()     {}
func (NetworkStats) isEvent()     {}
func (MempoolUpdate) isEvent()    {}

func (NewBlock) isDomainEvent()         {}
func (NewTransaction) isDomainEvent()   {}
func (ChainUpdate) isDomainEvent()      {}
func (PeerConnected) isDomainEvent()    {}
func (PeerDisconnected) isDomainEvent() {}
func (MiningStatus) isDomainEvent()     {}
func (NetworkStats) isDomainEvent()     {}
func (MempoolUpdate) isDomainEvent()    {}

// envelope is the inbound frame shape. Registry topics put the body under
// "data", domain events under "payload".
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func (e envelope) body() json.RawMessage {
	if len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null")) {
		return e.Data
	}
	return e.Payload
}

const welcomeMarker = "Connected"

// Decode parses one inbound frame. Errors carry CodeInvalidFrame when the
// frame is not an event envelope and CodeInvalidPayload when a known tag has
// a body of the wrong shape.
func Decode(frame []byte) (Event, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if strings.Contains(string(trimmed), welcomeMarker) {
			return Welcome{Text: string(trimmed)}, nil
		}
		return nil, apperror.New(apperror.CodeInvalidFrame, apperror.WithContext(preview(trimmed)))
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, apperror.New(apperror.CodeInvalidFrame, apperror.WithCause(err), apperror.WithContext(preview(trimmed)))
	}
	if env.Type == "" {
		return nil, apperror.New(apperror.CodeInvalidFrame, apperror.WithMessage("frame has no type tag"), apperror.WithContext(preview(trimmed)))
	}

	tag := EventType(env.Type)
	body := env.body()

	if topic, ok := registryTopics[tag]; ok {
		return TopicPush{Topic: topic, Payload: body}, nil
	}

	switch tag {
	case TypePong:
		return Pong{Timestamp: env.Timestamp, Payload: body}, nil
	case TypeNewBlock:
		b, err := decodeAs[chain.Block](tag, body)
		return wrap(NewBlock{Block: b}, err)
	case TypeNewTransaction:
		tx, err := decodeAs[chain.Transaction](tag, body)
		return wrap(NewTransaction{Transaction: tx}, err)
	case TypeChainUpdate:
		blocks, err := decodeAs[[]chain.Block](tag, body)
		return wrap(ChainUpdate{Blocks: blocks}, err)
	case TypePeerConnected:
		p, err := decodeAs[chain.Peer](tag, body)
		return wrap(PeerConnected{Peer: p}, err)
	case TypePeerDisconnected:
		p, err := decodeAs[chain.Peer](tag, body)
		return wrap(PeerDisconnected{Peer: p}, err)
	case TypeMiningStatus:
		st, err := decodeAs[chain.MiningStatus](tag, body)
		return wrap(MiningStatus{Status: st}, err)
	case TypeNetworkStats:
		st, err := decodeAs[chain.NetworkStats](tag, body)
		return wrap(NetworkStats{Stats: st}, err)
	case TypeMempoolUpdate:
		txs, err := decodeAs[[]chain.Transaction](tag, body)
		return wrap(MempoolUpdate{Transactions: txs}, err)
	}

	return Unknown{Tag: env.Type, Raw: json.RawMessage(trimmed)}, nil
}

func decodeAs[T any](tag EventType, body json.RawMessage) (T, error) {
	var v T
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return v, apperror.New(apperror.CodeInvalidPayload, apperror.WithMessage("missing payload"), apperror.WithContext(string(tag)))
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, apperror.New(apperror.CodeInvalidPayload, apperror.WithCause(err), apperror.WithContext(string(tag)))
	}
	return v, nil
}

func wrap(e Event, err error) (Event, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

func preview(b []byte) string {
	const max = 64
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
