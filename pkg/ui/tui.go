// Package ui provides the Bubble Tea TUI for the node dashboard.
package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/event"

	chain "github.com/fd1az/nexus-dashboard/business/blockchain/app"
	rtdomain "github.com/fd1az/nexus-dashboard/business/realtime/domain"
	"github.com/fd1az/nexus-dashboard/pkg/ui/components"
)

// Controller is the part of the realtime client the dashboard drives.
type Controller interface {
	Connect() error
	Disconnect()
	Reconnect()
	DetailedStatus() rtdomain.DetailedStatus
}

// ChainReader exposes the chain store and its change feed.
type ChainReader interface {
	State() chain.State
	SubscribeChanges(ch chan<- chain.Change) event.Subscription
}

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// StatusPollInterval is how often the connection status is polled. Chain
// data is redrawn from the store's change feed instead.
const StatusPollInterval = time.Second

const (
	toastTTL     = 5 * time.Second
	maxToasts    = 4
	visibleBlock = 10
	changeBuffer = 64
)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctrl        Controller
	chain       ChainReader
	maxAttempts int

	changes   chan chain.Change
	changeSub event.Subscription
	chainView chain.State

	// Components
	status *components.StatusComponent
	stats  *components.StatsComponent
	blocks *components.BlocksComponent
	toasts *components.ToastsComponent
	keys   KeyMap
	help   help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready      bool
	quitting   bool
	width      int
	height     int
	connected  bool
	lastUpdate time.Time
	errors     []ErrorEntry // Persistent error panel (last 3)
	logs       []string     // Recent log messages

	// Startup state
	startupSteps map[string]*StartupStep
	startupTime  time.Time
}

// New creates a new TUI model subscribed to the store's changes. Call Close
// once the program exits. maxAttempts is only displayed.
func New(ctrl Controller, chainReader ChainReader, maxAttempts int) Model {
	now := time.Now()
	m := Model{
		ctrl:         ctrl,
		chain:        chainReader,
		maxAttempts:  maxAttempts,
		status:       components.NewStatusComponent(),
		stats:        components.NewStatsComponent(),
		blocks:       components.NewBlocksComponent(visibleBlock),
		toasts:       components.NewToastsComponent(maxToasts, toastTTL),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		logs:         make([]string, 0, 10),
		errors:       make([]ErrorEntry, 0, 3),
		startupSteps: map[string]*StartupStep{
			"config":  {Name: "Loading configuration", Status: "done"},
			"modules": {Name: "Starting modules", Status: "pending"},
			"node":    {Name: "Connecting to node", Status: "pending"},
		},
		startupTime: now,
	}
	if chainReader != nil {
		m.changes = make(chan chain.Change, changeBuffer)
		m.changeSub = chainReader.SubscribeChanges(m.changes)
	}
	return m
}

// Close stops the store subscription.
func (m Model) Close() {
	if m.changeSub != nil {
		m.changeSub.Unsubscribe()
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.pollCmd(0), m.chainCmd(), m.waitChangeCmd())
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// pollCmd reads the client status after delay.
func (m Model) pollCmd(delay time.Duration) tea.Cmd {
	poll := func() tea.Msg {
		msg := StatusMsg{}
		if m.ctrl != nil {
			msg.Status = m.ctrl.DetailedStatus()
		}
		return msg
	}
	if delay <= 0 {
		return poll
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return poll() })
}

// chainCmd reads the store once.
func (m Model) chainCmd() tea.Cmd {
	reader := m.chain
	return func() tea.Msg {
		if reader == nil {
			return nil
		}
		return ChainMsg{State: reader.State()}
	}
}

// waitChangeCmd blocks until the store changes, then reads it. Changes that
// queued up meanwhile are folded into the same read.
func (m Model) waitChangeCmd() tea.Cmd {
	if m.changeSub == nil {
		return nil
	}
	reader, changes, sub := m.chain, m.changes, m.changeSub
	return func() tea.Msg {
		var last chain.Change
		select {
		case last = <-changes:
		case <-sub.Err():
			return nil
		}
		for drained := false; !drained; {
			select {
			case last = <-changes:
			default:
				drained = true
			}
		}
		return ChainMsg{State: reader.State(), Change: last.Kind}
	}
}

// reconnectCmd and toggleCmd run off the update loop; the client emits
// notifications synchronously and those are sent back into the program.
func (m Model) reconnectCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if ctrl != nil {
			ctrl.Reconnect()
		}
		return LogMsg{Level: "info", Message: "manual reconnect"}
	}
}

func (m Model) toggleCmd() tea.Cmd {
	ctrl, connected := m.ctrl, m.connected
	return func() tea.Msg {
		if ctrl == nil {
			return nil
		}
		if connected {
			ctrl.Disconnect()
			return LogMsg{Level: "info", Message: "disconnected"}
		}
		if err := ctrl.Connect(); err != nil {
			return ErrorMsg{Error: err}
		}
		return LogMsg{Level: "info", Message: "connecting"}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			m.Close()
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Reconnect):
			return m, m.reconnectCmd()
		case key.Matches(msg, m.keys.Toggle):
			return m, m.toggleCmd()
		case key.Matches(msg, m.keys.Clear):
			m.toasts.Clear()
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Up):
			m.blocks.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.blocks.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		m.toasts.Prune(time.Now())
		return m, tickCmd()

	case StatusMsg:
		m.applyStatus(msg.Status)
		return m, m.pollCmd(StatusPollInterval)

	case ChainMsg:
		m.chainView = msg.State
		m.applyChain()
		return m, m.waitChangeCmd()

	case NotificationMsg:
		n := msg.Notification
		m.toasts.Add(components.Toast{
			ID:      n.ID,
			Level:   n.Level.String(),
			Message: n.Message,
			At:      time.Now(),
		})
		m.logs = addLog(m.logs, n.Level.String(), n.Message)

	case ModulesStartedMsg:
		m.startupSteps["modules"].Status = "done"
		if m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}

	case ErrorMsg:
		if msg.Error == nil {
			return m, nil
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
		if m.phase == PhaseStartup && m.startupSteps["modules"].Status != "done" {
			m.startupSteps["modules"].Status = "failed"
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	m.startupSteps["modules"].Status = "connecting"
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func (m *Model) applyStatus(st rtdomain.DetailedStatus) {
	wasConnected := m.connected
	m.connected = st.IsConnected
	m.status.Update(components.ConnectionStatus{
		State:             st.State.String(),
		URL:               st.URL,
		Connected:         st.IsConnected,
		Reconnecting:      st.Reconnecting,
		Exhausted:         st.Exhausted,
		ReconnectAttempts: st.ReconnectAttempts,
		MaxAttempts:       m.maxAttempts,
		LastPing:          st.LastPing,
		LastError:         st.LastError,
		QueuedSends:       st.QueuedSends,
		Subscriptions:     st.Subscriptions,
	})

	node := m.startupSteps["node"]
	switch {
	case st.IsConnected:
		node.Status = "connected"
	case st.Exhausted:
		node.Status = "failed"
	case st.State != rtdomain.StateIdle:
		node.Status = "connecting"
	}

	if wasConnected != m.connected {
		m.applyChain()
	}
}

// applyChain renders the last store state read.
func (m *Model) applyChain() {
	cs := m.chainView
	if !cs.UpdatedAt.IsZero() && cs.UpdatedAt.After(m.lastUpdate) {
		m.lastUpdate = cs.UpdatedAt
	}

	peers := len(cs.Peers)
	if cs.Stats.Peers > peers {
		peers = cs.Stats.Peers
	}
	m.stats.Update(components.Stats{
		ChainLength:  cs.Snapshot.ChainLength,
		Difficulty:   cs.Snapshot.Difficulty,
		Mempool:      cs.Snapshot.Mempool,
		Peers:        peers,
		Transactions: cs.Stats.Transactions,
		Mining:       cs.Mining.IsMining || cs.Snapshot.IsMining,
		HashRate:     cs.Mining.HashRate,
		Fallback:     !m.connected && cs.Snapshot.ChainLength > 0,
	})

	rows := make([]components.BlockRow, 0, len(cs.RecentBlocks))
	for _, b := range slices.Backward(cs.RecentBlocks) {
		rows = append(rows, components.BlockRow{
			Index:        b.Index,
			Hash:         b.ShortHash(10),
			Transactions: len(b.Transactions),
			Validator:    b.Validator,
			Time:         b.Time().Format("15:04:05"),
		})
	}
	m.blocks.Set(rows)
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" ⛓ Nexus Node Dashboard "))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.status.View() + "\n\n" + m.stats.View()
	rightCol := m.blocks.View()

	width := m.width
	if width == 0 {
		width = 80
	}
	if width > 100 {
		left := BoxStyle.Width(width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width - 4).Render(rightCol))
	}
	b.WriteString("\n\n")

	if toasts := m.toasts.View(); toasts != "" {
		b.WriteString(toasts)
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (c: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ███╗   ██╗███████╗██╗  ██╗██╗   ██╗███████╗
   ████╗  ██║██╔════╝╚██╗██╔╝██║   ██║██╔════╝
   ██╔██╗ ██║█████╗   ╚███╔╝ ██║   ██║███████╗
   ██║╚██╗██║██╔══╝   ██╔██╗ ██║   ██║╚════██║
   ██║ ╚████║███████╗██╔╝ ██╗╚██████╔╝███████║
   ╚═╝  ╚═══╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("            N O D E   D A S H B O A R D"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("                Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("          Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ⛓ Nexus Node Dashboard"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range []string{"config", "modules", "node"} {
		step := m.startupSteps[k]

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Connecting...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Failed", failedStyle
		default:
			icon, statusText, style = "○", "Pending", mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")

	for _, err := range m.errors {
		sb.WriteString(failedStyle.Render("  " + err.Message))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	st := m.status.Status()
	switch {
	case st.Connected:
		parts = append(parts, StatusConnected.Render("● Live"))
	case st.Reconnecting:
		parts = append(parts, StatusReconnecting.Render("◐ Reconnecting"))
	default:
		parts = append(parts, StatusDisconnected.Render("○ Offline"))
	}

	parts = append(parts, fmt.Sprintf("Blocks: %d", m.blocks.Len()))

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪"
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	if n := len(m.logs); n > 0 {
		parts = append(parts, MutedValue.Render(m.logs[n-1]))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
