package domain

import "time"

// ConnectionState is the lifecycle state of the client's connection.
type ConnectionState int

const (
	StateIdle ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// transitions lists the legal moves of the state machine.
var transitions = map[ConnectionState][]ConnectionState{
	StateIdle:         {StateConnecting},
	StateConnecting:   {StateOpen, StateClosed, StateIdle},
	StateOpen:         {StateClosing, StateClosed, StateIdle},
	StateClosing:      {StateClosed, StateIdle},
	StateClosed:       {StateReconnecting, StateIdle, StateConnecting},
	StateReconnecting: {StateConnecting, StateIdle},
}

// CanTransition reports whether from -> to is a legal move. Moving to Idle is
// always allowed from a non-idle state because Disconnect may interrupt any
// phase.
func CanTransition(from, to ConnectionState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ConnectionStatus is the read-only snapshot polled by the UI.
type ConnectionStatus struct {
	IsConnected        bool
	HasConnectedBefore bool
	ReconnectAttempts  int
	LastPing           time.Time
}

// DetailedStatus extends ConnectionStatus with diagnostics.
type DetailedStatus struct {
	ConnectionStatus
	State         ConnectionState
	URL           string
	Reconnecting  bool
	Exhausted     bool
	LastError     string
	QueuedSends   int
	Subscriptions int
}
