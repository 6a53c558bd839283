package domain

import (
	"encoding/json"
	"testing"

	"github.com/fd1az/nexus-dashboard/internal/apperror"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, e Event)
	}{
		{
			name:  "welcome text",
			frame: "Connected to Nexuschain WebSocket",
			check: func(t *testing.T, e Event) {
				if _, ok := e.(Welcome); !ok {
					t.Fatalf("got %T, want Welcome", e)
				}
			},
		},
		{
			name:  "snapshot uses data",
			frame: `{"type":"BLOCKCHAIN_STATE","data":{"chainLength":42}}`,
			check: func(t *testing.T, e Event) {
				p, ok := e.(TopicPush)
				if !ok {
					t.Fatalf("got %T, want TopicPush", e)
				}
				if p.Topic != TopicBlockchainState || string(p.Payload) != `{"chainLength":42}` {
					t.Errorf("push = %+v", p)
				}
			},
		},
		{
			name:  "topic push falls back to payload",
			frame: `{"type":"TRANSACTION_UPDATE","payload":{"hash":"h1"}}`,
			check: func(t *testing.T, e Event) {
				p := e.(TopicPush)
				if string(p.Payload) != `{"hash":"h1"}` {
					t.Errorf("payload = %s", p.Payload)
				}
			},
		},
		{
			name:  "pong keeps its payload separate",
			frame: `{"type":"PONG","timestamp":1700000000,"data":{"chainLength":1}}`,
			check: func(t *testing.T, e Event) {
				p, ok := e.(Pong)
				if !ok {
					t.Fatalf("got %T, want Pong", e)
				}
				if p.Timestamp != 1700000000 {
					t.Errorf("timestamp = %d", p.Timestamp)
				}
			},
		},
		{
			name:  "new block",
			frame: `{"type":"NEW_BLOCK","payload":{"index":7,"hash":"0000abcdef","transactions":[]}}`,
			check: func(t *testing.T, e Event) {
				b, ok := e.(NewBlock)
				if !ok {
					t.Fatalf("got %T, want NewBlock", e)
				}
				if b.Block.Index != 7 || b.Block.Hash != "0000abcdef" {
					t.Errorf("block = %+v", b.Block)
				}
				if _, ok := e.(DomainEvent); !ok {
					t.Error("NewBlock should be a DomainEvent")
				}
			},
		},
		{
			name:  "mempool update",
			frame: `{"type":"MEMPOOL_UPDATE","payload":[{"hash":"a","amount":1},{"hash":"b","amount":2.5}]}`,
			check: func(t *testing.T, e Event) {
				m := e.(MempoolUpdate)
				if len(m.Transactions) != 2 {
					t.Errorf("len = %d", len(m.Transactions))
				}
			},
		},
		{
			name:  "peer connected",
			frame: `{"type":"PEER_CONNECTED","payload":{"id":"peer-123456789"}}`,
			check: func(t *testing.T, e Event) {
				if e.(PeerConnected).Peer.ID != "peer-123456789" {
					t.Errorf("peer = %+v", e)
				}
			},
		},
		{
			name:  "unknown tag is not an error",
			frame: `{"type":"STAKING_REWARD","payload":{}}`,
			check: func(t *testing.T, e Event) {
				u, ok := e.(Unknown)
				if !ok || u.Tag != "STAKING_REWARD" {
					t.Fatalf("got %#v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			tt.check(t, e)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		code  apperror.Code
	}{
		{"not json", "garbage", apperror.CodeInvalidFrame},
		{"truncated json", `{"type":"NEW_BLOCK"`, apperror.CodeInvalidFrame},
		{"missing type", `{"data":{}}`, apperror.CodeInvalidFrame},
		{"empty", "", apperror.CodeInvalidFrame},
		{"domain event without payload", `{"type":"NEW_BLOCK"}`, apperror.CodeInvalidPayload},
		{"domain event wrong shape", `{"type":"NEW_BLOCK","payload":[1,2]}`, apperror.CodeInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Decode([]byte(tt.frame))
			if err == nil {
				t.Fatalf("expected error, got %#v", e)
			}
			if e != nil {
				t.Errorf("event should be nil on error, got %#v", e)
			}
			if apperror.GetCode(err) != tt.code {
				t.Errorf("code = %s, want %s", apperror.GetCode(err), tt.code)
			}
		})
	}
}

func TestOutboundMessage_Encode(t *testing.T) {
	b, err := Ping().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(b) != `{"type":"PING"}` {
		t.Errorf("ping = %s", b)
	}

	b, _ = SubscribeTransactions("addr1").Encode()
	var m map[string]any
	json.Unmarshal(b, &m)
	if m["type"] != "SUBSCRIBE_TRANSACTIONS" {
		t.Errorf("type = %v", m["type"])
	}

	if _, err := (OutboundMessage{}).Encode(); apperror.GetCode(err) != apperror.CodeMessageEncodeFail {
		t.Errorf("empty type should fail, got %v", err)
	}
	if _, err := (OutboundMessage{Type: "X", Data: make(chan int)}).Encode(); err == nil {
		t.Error("unencodable data should fail")
	}
}

func TestConnectionState(t *testing.T) {
	if StateReconnecting.String() != "reconnecting" {
		t.Errorf("String = %q", StateReconnecting.String())
	}
	if !CanTransition(StateClosed, StateReconnecting) {
		t.Error("closed -> reconnecting must be legal")
	}
	if CanTransition(StateIdle, StateOpen) {
		t.Error("idle -> open must be illegal")
	}
}
