package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tasker/internal/model"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel frames lines with the current theme's border.
func Panel(lines ...string) string {
	t := Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Priority renders a priority tag in its colour.
func Priority(p model.Priority) string {
	t := Current()
	switch p {
	case model.PriorityHigh:
		return t.High.Render(string(p))
	case model.PriorityMedium:
		return t.Medium.Render(string(p))
	default:
		return t.Low.Render(string(model.PriorityLow))
	}
}

// DueDate shortens an ISO-8601 timestamp to its date part.
func DueDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

// TaskLine renders one task on a single line: box, title, priority, due.
func TaskLine(tk model.Task) string {
	t := Current()
	box, title := t.Muted.Render(t.BoxUnchecked), tk.Title
	if tk.Completed {
		box, title = t.Success.Render(t.BoxChecked), t.Done.Render(tk.Title)
	}
	line := fmt.Sprintf("%s %s  %s", box, title, Priority(tk.Priority))
	if tk.DueDate != "" {
		line += "  " + t.Muted.Render("due "+DueDate(tk.DueDate))
	}
	return line
}

// Header is the title bar with live counts.
func Header(title string, done, pending int) string {
	t := Current()
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render(title),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), done+pending,
	)
}
