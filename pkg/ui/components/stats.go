// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds node statistics for display.
type Stats struct {
	ChainLength  uint64
	Difficulty   uint64
	Mempool      int
	Peers        int
	Transactions int
	Mining       bool
	HashRate     decimal.Decimal
	Fallback     bool // data came from the REST fallback
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the statistics last set.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	miningStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	mining := mutedStyle.Render("idle")
	if s.stats.Mining {
		mining = miningStyle.Render("mining")
		if !s.stats.HashRate.IsZero() {
			mining += mutedStyle.Render(fmt.Sprintf(" (%s H/s)", s.stats.HashRate.StringFixed(1)))
		}
	}

	header := style.Render("NODE")
	if s.stats.Fallback {
		header += mutedStyle.Render("  (via REST)")
	}

	return header + "\n\n" +
		fmt.Sprintf("Chain length: %s  │  Difficulty: %s  │  Miner: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ChainLength)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Difficulty)),
			mining,
		) +
		fmt.Sprintf("Mempool: %s       │  Peers: %s       │  Transactions: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Mempool)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Peers)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Transactions)),
		)
}
