package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tasker/internal/ui"
)

var tabs = []struct {
	s    screen
	name string
}{
	{screenTasks, "Tasks"},
	{screenCompleted, "Completed"},
	{screenProfile, "Profile"},
}

func (m Model) View() string {
	switch m.screen {
	case screenLogin:
		return m.authView("Sign in", m.login.view(), "enter sign in • tab next field • ctrl+r register • esc quit")
	case screenRegister:
		return m.authView("Create account", m.register.view(), "enter register • tab next field • esc back")
	}
	return m.mainView()
}

func (m Model) authView(title, body, help string) string {
	t := ui.Current()
	lines := []string{t.Title.Render("Tasker · " + title), "", body, ""}
	lines = append(lines, m.statusLine())
	lines = append(lines, t.Help.Render(help))
	return ui.Panel(lines...)
}

// statusLine is the spinner while working, else the error or notice.
func (m Model) statusLine() string {
	t := ui.Current()
	switch {
	case m.busy || m.loading:
		return m.spinner.View() + " " + t.Muted.Render("working…")
	case m.err != "":
		return t.Error.Render(m.err)
	case m.notice != "":
		return t.Success.Render(m.notice)
	}
	return ""
}

func (m Model) tabBar() string {
	t := ui.Current()
	parts := make([]string, 0, len(tabs))
	for _, tb := range tabs {
		if tb.s == m.screen {
			parts = append(parts, t.Selected.Render(" "+tb.name+" "))
		} else {
			parts = append(parts, t.Muted.Render(" "+tb.name+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) mainView() string {
	t := ui.Current()
	done, pending := m.deps.Tasks.Stats()
	head := ui.Header("Hi, "+m.deps.Session.DisplayName(), done, pending)

	var content, help string
	switch m.screen {
	case screenTasks:
		content = m.tasks.View()
		help = "a add • e edit • space complete • / filter • r reload • tab next • t theme • L logout • q quit"
	case screenCompleted:
		content = m.done.View()
		help = "/ filter • r reload • tab next • t theme • L logout • q quit"
	case screenProfile:
		content = m.profileView()
		help = "r reload • tab next • t theme • L logout • q quit"
	}

	if m.form != nil {
		title := "Add task"
		if m.form.editID != 0 {
			title = fmt.Sprintf("Edit task #%d", m.form.editID)
		}
		box := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		content += "\n" + box.Render(m.form.view(title, m.formErr))
		help = "enter save • tab next field • ctrl+p priority • esc cancel"
	}

	lines := []string{head, m.tabBar(), "", content}
	if s := m.statusLine(); s != "" {
		lines = append(lines, s)
	}
	lines = append(lines, t.Help.Render(help))
	return ui.Panel(lines...)
}

func (m Model) profileView() string {
	t := ui.Current()
	p, ok := m.deps.Session.Profile()
	if !ok {
		return t.Muted.Render("No profile loaded.")
	}
	done, pending := m.deps.Tasks.Stats()
	width := m.width - 20
	if width > 40 {
		width = 40
	}
	return strings.Join([]string{
		t.Accent.Render("Name   ") + p.Name,
		t.Accent.Render("Email  ") + p.Email,
		"",
		t.Accent.Render("Progress ") + ui.ProgressBar(done, done+pending, width),
		t.Muted.Render(fmt.Sprintf("Theme: %s", t.Name)),
	}, "\n")
}
