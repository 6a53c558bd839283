// Package components provides reusable TUI components.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Toast is a transient notification.
type Toast struct {
	ID      string
	Level   string // "info", "success", "warning", "error"
	Message string
	At      time.Time
}

// ToastsComponent keeps the latest toasts. A toast with the ID of a visible
// one replaces it instead of stacking.
type ToastsComponent struct {
	toasts []Toast
	ttl    time.Duration
	max    int
}

// NewToastsComponent creates a component showing at most max toasts for ttl each.
func NewToastsComponent(max int, ttl time.Duration) *ToastsComponent {
	return &ToastsComponent{max: max, ttl: ttl}
}

// Add shows t, replacing any toast with the same ID.
func (c *ToastsComponent) Add(t Toast) {
	for i, existing := range c.toasts {
		if t.ID != "" && existing.ID == t.ID {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			break
		}
	}
	c.toasts = append(c.toasts, t)
	if len(c.toasts) > c.max {
		c.toasts = c.toasts[len(c.toasts)-c.max:]
	}
}

// Prune drops toasts older than the ttl.
func (c *ToastsComponent) Prune(now time.Time) {
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if now.Sub(t.At) < c.ttl {
			kept = append(kept, t)
		}
	}
	c.toasts = kept
}

// Clear removes all toasts.
func (c *ToastsComponent) Clear() {
	c.toasts = nil
}

// Toasts returns the visible toasts, oldest first.
func (c *ToastsComponent) Toasts() []Toast {
	return append([]Toast(nil), c.toasts...)
}

// View renders the toasts, newest at the bottom.
func (c *ToastsComponent) View() string {
	if len(c.toasts) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, t := range c.toasts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(toastStyle(t.Level).Render(toastIcon(t.Level) + " " + t.Message))
	}
	return sb.String()
}

func toastStyle(level string) lipgloss.Style {
	color := lipgloss.Color("#60A5FA")
	switch level {
	case "success":
		color = lipgloss.Color("#10B981")
	case "warning":
		color = lipgloss.Color("#F59E0B")
	case "error":
		color = lipgloss.Color("#EF4444")
	}
	return lipgloss.NewStyle().Foreground(color).Border(lipgloss.RoundedBorder()).BorderForeground(color).Padding(0, 1)
}

func toastIcon(level string) string {
	switch level {
	case "success":
		return "✓"
	case "warning":
		return "!"
	case "error":
		return "✗"
	default:
		return "•"
	}
}
