package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done, Help                          lipgloss.Style
	Low, Medium, High                             lipgloss.Style

	Border      lipgloss.Border
	BorderColor lipgloss.TerminalColor

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
}

// Theme names.
const (
	Dark  = "dark"
	Light = "light"
	Mono  = "mono"
)

// Names lists the selectable themes.
var Names = []string{Dark, Light, Mono}

var current = build(Dark)

func build(name string) Theme {
	s := lipgloss.NewStyle
	switch strings.ToLower(name) {
	case Light:
		return Theme{
			Name:  Light,
			Title: s().Bold(true).Foreground(lipgloss.Color("18")),
			Muted: s().Foreground(lipgloss.Color("244")), Accent: s().Foreground(lipgloss.Color("25")),
			Success: s().Foreground(lipgloss.Color("28")), Error: s().Foreground(lipgloss.Color("160")).Bold(true),
			Pending:  s().Foreground(lipgloss.Color("130")),
			Selected: s().Bold(true).Reverse(true),
			Done:     s().Foreground(lipgloss.Color("244")).Strikethrough(true),
			Help:     s().Foreground(lipgloss.Color("244")),
			Low:      s().Foreground(lipgloss.Color("28")),
			Medium:   s().Foreground(lipgloss.Color("130")),
			High:     s().Foreground(lipgloss.Color("160")).Bold(true),
			Border:   lipgloss.RoundedBorder(), BorderColor: lipgloss.Color("250"),
			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•",
		}
	case Mono:
		return Theme{
			Name:  Mono,
			Title: s().Bold(true),
			Muted: s(), Accent: s(), Success: s(), Error: s().Bold(true), Pending: s(),
			Selected: s().Reverse(true),
			Done:     s().Strikethrough(true),
			Help:     s(),
			Low:      s(), Medium: s(), High: s().Bold(true),
			Border: lipgloss.NormalBorder(), BorderColor: lipgloss.NoColor{},
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
		}
	default: // dark
		return Theme{
			Name:  Dark,
			Title: s().Bold(true),
			Muted: s().Faint(true), Accent: s().Foreground(lipgloss.Color("12")),
			Success: s().Foreground(lipgloss.Color("42")), Error: s().Foreground(lipgloss.Color("9")).Bold(true),
			Pending:  s().Foreground(lipgloss.Color("214")),
			Selected: s().Bold(true).Reverse(true),
			Done:     s().Faint(true).Strikethrough(true),
			Help:     s().Faint(true),
			Low:      s().Foreground(lipgloss.Color("42")),
			Medium:   s().Foreground(lipgloss.Color("214")),
			High:     s().Foreground(lipgloss.Color("9")).Bold(true),
			Border:   lipgloss.RoundedBorder(), BorderColor: lipgloss.Color("8"),
			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•",
		}
	}
}

// SetTheme switches the active theme. Unknown names fall back to dark.
func SetTheme(name string) Theme {
	current = build(name)
	return current
}

// Toggle flips between dark and light; mono goes back to dark.
func Toggle() Theme {
	if current.Name == Dark {
		return SetTheme(Light)
	}
	return SetTheme(Dark)
}

// Current returns the active theme.
func Current() Theme { return current }

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, n := range Names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
