package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tasker/internal/model"
	"github.com/Makepad-fr/tasker/internal/ui"
)

// taskItem adapts model.Task to bubbles/list.Item.
type taskItem struct {
	task       model.Task
	completing bool
}

func (i taskItem) Title() string       { return i.task.Title }
func (i taskItem) Description() string { return i.task.Description }
func (i taskItem) FilterValue() string { return i.task.Title }

// itemDelegate draws each task as one TaskLine with a selection marker.
type itemDelegate struct{}

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	t := ui.Current()
	line := ui.TaskLine(it.task)
	if it.completing {
		line += "  " + t.Muted.Render("completing…")
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprintln(w, prefix+line)
}

func toItems(ts []model.Task, completing map[int64]bool) []list.Item {
	out := make([]list.Item, 0, len(ts))
	for _, t := range ts {
		out = append(out, taskItem{task: t, completing: completing[t.ID]})
	}
	return out
}

func pending(ts []model.Task) []model.Task {
	out := ts[:0:0]
	for _, t := range ts {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func newList(title string) list.Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	t := ui.Current()
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = t.Title
	l.Styles.PaginationStyle = t.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")
	l.DisableQuitKeybindings()
	return l
}

func selected(l list.Model) (model.Task, bool) {
	it, ok := l.SelectedItem().(taskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.task, true
}
