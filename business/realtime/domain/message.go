package domain

import (
	"encoding/json"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

// MessageType is the "type" tag of an outbound frame.
type MessageType string

const (
	MsgPing                  MessageType = "PING"
	MsgSubscribeUpdates      MessageType = "SUBSCRIBE_UPDATES"
	MsgSubscribeTransactions MessageType = "SUBSCRIBE_TRANSACTIONS"
	MsgGetBlockchainData     MessageType = "GET_BLOCKCHAIN_DATA"
	MsgGetTransactionHistory MessageType = "GET_TRANSACTION_HISTORY"
)

// OutboundMessage is a frame sent to the node.
type OutboundMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
}

// Encode serializes m. The encoded bytes are also the de-duplication key,
// so two messages are "the same" exactly when they encode identically.
func (m OutboundMessage) Encode() ([]byte, error) {
	if m.Type == "" {
		return nil, apperror.New(apperror.CodeMessageEncodeFail, apperror.WithMessage("message type is required"))
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, apperror.New(apperror.CodeMessageEncodeFail, apperror.WithCause(err), apperror.WithContext(string(m.Type)))
	}
	return b, nil
}

// Ping is the heartbeat request.
func Ping() OutboundMessage {
	return OutboundMessage{Type: MsgPing}
}

// SubscribeUpdates asks the node to stream chain events.
func SubscribeUpdates() OutboundMessage {
	return OutboundMessage{Type: MsgSubscribeUpdates}
}

// SubscribeTransactions asks for TRANSACTION_UPDATE pushes, optionally for a
// single address.
func SubscribeTransactions(address string) OutboundMessage {
	if address == "" {
		return OutboundMessage{Type: MsgSubscribeTransactions}
	}
	return OutboundMessage{Type: MsgSubscribeTransactions, Data: map[string]string{"address": address}}
}

// GetBlockchainData requests a BLOCKCHAIN_UPDATE push.
func GetBlockchainData() OutboundMessage {
	return OutboundMessage{Type: MsgGetBlockchainData}
}

// GetTransactionHistory requests one page of TRANSACTION_HISTORY.
func GetTransactionHistory(page, limit int) OutboundMessage {
	return OutboundMessage{Type: MsgGetTransactionHistory, Data: map[string]int{"page": page, "limit": limit}}
}
