// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BlockRow is one line of the recent blocks table.
type BlockRow struct {
	Index        uint64
	Hash         string
	Transactions int
	Validator    string
	Time         string
}

// BlocksComponent renders recent blocks, newest first.
type BlocksComponent struct {
	rows    []BlockRow
	visible int
	offset  int
}

// NewBlocksComponent creates a table showing visible rows at a time.
func NewBlocksComponent(visible int) *BlocksComponent {
	return &BlocksComponent{visible: visible}
}

// Set replaces the rows. rows must be newest first.
func (b *BlocksComponent) Set(rows []BlockRow) {
	b.rows = rows
	if b.offset > b.maxOffset() {
		b.offset = b.maxOffset()
	}
}

// Len returns the number of rows held.
func (b *BlocksComponent) Len() int {
	return len(b.rows)
}

// ScrollUp moves the view toward newer blocks.
func (b *BlocksComponent) ScrollUp() {
	if b.offset > 0 {
		b.offset--
	}
}

// ScrollDown moves the view toward older blocks.
func (b *BlocksComponent) ScrollDown() {
	if b.offset < b.maxOffset() {
		b.offset++
	}
}

func (b *BlocksComponent) maxOffset() int {
	return max(len(b.rows)-b.visible, 0)
}

// View renders the blocks table.
func (b *BlocksComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	hashStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("RECENT BLOCKS (%d)", len(b.rows))))
	sb.WriteString("\n\n")

	if len(b.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for blocks..."))
		return sb.String()
	}

	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  %-8s %-12s %5s  %-12s %s", "#", "HASH", "TXS", "VALIDATOR", "TIME")))
	sb.WriteString("\n")

	end := min(b.offset+b.visible, len(b.rows))
	for _, r := range b.rows[b.offset:end] {
		sb.WriteString(fmt.Sprintf("  %-8d %s %5d  %-12s %s\n",
			r.Index,
			hashStyle.Render(fmt.Sprintf("%-12s", r.Hash)),
			r.Transactions,
			truncate(r.Validator, 12),
			mutedStyle.Render(r.Time),
		))
	}

	if b.offset > 0 || end < len(b.rows) {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  showing %d-%d of %d (↑↓)", b.offset+1, end, len(b.rows))))
	}

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
