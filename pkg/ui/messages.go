package ui

import (
	chain "github.com/fd1az/nexus-dashboard/business/blockchain/app"
	rtapp "github.com/fd1az/nexus-dashboard/business/realtime/app"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
)

// Message types for TUI updates

// StatusMsg carries the polled connection status.
type StatusMsg struct {
	Status rtdomain.DetailedStatus
}

// ChainMsg carries the store state read after a change.
type ChainMsg struct {
	State  chain.State
	Change chain.ChangeKind
}

// NotificationMsg is sent for every realtime client notification.
type NotificationMsg struct {
	Notification rtapp.Notification
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI animations.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// ModulesStartedMsg is sent once every module has started.
type ModulesStartedMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}
