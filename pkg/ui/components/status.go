// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is what the connection panel shows.
type ConnectionStatus struct {
	State             string
	URL               string
	Connected         bool
	Reconnecting      bool
	Exhausted         bool
	ReconnectAttempts int
	MaxAttempts       int
	LastPing          time.Time
	LastError         string
	QueuedSends       int
	Subscriptions     int
}

// StatusComponent renders the realtime connection panel.
type StatusComponent struct {
	status ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{status: ConnectionStatus{State: "idle"}}
}

// Update replaces the displayed status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.status = status
}

// Status returns the displayed status.
func (s *StatusComponent) Status() ConnectionStatus {
	return s.status
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	st := s.status

	var badge string
	switch {
	case st.Connected:
		badge = okStyle.Render("● Connected")
	case st.Exhausted:
		badge = badStyle.Render("✗ Gave up (r: retry)")
	case st.Reconnecting:
		badge = warnStyle.Render(fmt.Sprintf("◐ Reconnecting (%d/%d)", st.ReconnectAttempts, st.MaxAttempts))
	default:
		badge = badStyle.Render("○ " + st.State)
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("CONNECTION"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("├─ Status:   %s\n", badge))
	sb.WriteString(fmt.Sprintf("├─ Endpoint: %s\n", mutedStyle.Render(st.URL)))
	sb.WriteString(fmt.Sprintf("├─ State:    %s\n", st.State))

	ping := "never"
	if !st.LastPing.IsZero() {
		ping = fmt.Sprintf("%s ago", time.Since(st.LastPing).Round(time.Second))
	}
	sb.WriteString(fmt.Sprintf("├─ Last ping: %s\n", ping))
	sb.WriteString(fmt.Sprintf("├─ Queued:   %d  │  Subscriptions: %d\n", st.QueuedSends, st.Subscriptions))

	if st.LastError != "" {
		sb.WriteString("└─ " + badStyle.Render("Error: ") + mutedStyle.Render(st.LastError))
	} else {
		sb.WriteString("└─ " + mutedStyle.Render("No errors"))
	}

	return sb.String()
}
