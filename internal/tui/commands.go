package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tasker/internal/model"
)

// Results of background work. Each carries the operation's error, if any.
type (
	loginDoneMsg     struct{ err error }
	resumeDoneMsg    struct{ err error }
	registerDoneMsg  struct{ err error }
	tasksLoadedMsg   struct{ err error }
	completedMsg     struct{ err error }
	profileLoadedMsg struct{ err error }
	taskSavedMsg     struct{ err error }
	taskDoneMsg      struct {
		id  int64
		err error
	}
)

func (m Model) loginCmd(creds model.Credentials) tea.Cmd {
	ctx, ctl := m.ctx, m.deps.Session
	return func() tea.Msg {
		return loginDoneMsg{err: ctl.Login(ctx, creds)}
	}
}

func (m Model) resumeCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.deps.Session
	return func() tea.Msg {
		return resumeDoneMsg{err: ctl.Resume(ctx)}
	}
}

func (m Model) registerCmd(reg model.Registration) tea.Cmd {
	ctx, ctl := m.ctx, m.deps.Session
	return func() tea.Msg {
		return registerDoneMsg{err: ctl.Register(ctx, reg)}
	}
}

func (m Model) loadTasksCmd() tea.Cmd {
	ctx, store := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		return tasksLoadedMsg{err: store.LoadAll(ctx)}
	}
}

func (m Model) loadCompletedCmd() tea.Cmd {
	ctx, store := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		return completedMsg{err: store.LoadCompleted(ctx)}
	}
}

func (m Model) loadProfileCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.deps.Session
	return func() tea.Msg {
		_, err := ctl.RefreshProfile(ctx)
		return profileLoadedMsg{err: err}
	}
}

func (m Model) saveTaskCmd(id int64, d model.Draft) tea.Cmd {
	ctx, store := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		var err error
		if id == 0 {
			_, err = store.Create(ctx, d)
		} else {
			_, err = store.Update(ctx, id, d)
		}
		return taskSavedMsg{err: err}
	}
}

func (m Model) completeCmd(id int64) tea.Cmd {
	ctx, store := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		return taskDoneMsg{id: id, err: store.Complete(ctx, id)}
	}
}

// background guards against a nil context in zero-value models.
func background(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
