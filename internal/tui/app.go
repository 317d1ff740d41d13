// Package tui is the interactive terminal front end.
//
// Screens: login, register, tasks, completed and profile. Network work
// runs in tea.Cmds; while a login or save is in flight the form ignores
// further submits.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/session"
	"github.com/Makepad-fr/tasker/internal/tasks"
	"github.com/Makepad-fr/tasker/internal/ui"
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenTasks
	screenCompleted
	screenProfile
)

// Deps are the collaborators the views drive.
type Deps struct {
	Session *session.Controller
	Tasks   *tasks.Store
	Log     *log.Logger

	// OnTheme persists a theme change. Optional.
	OnTheme func(name string) error
}

// Model is the bubbletea model for the whole app.
type Model struct {
	deps Deps
	ctx  context.Context

	screen        screen
	width, height int

	tasks   list.Model
	done    list.Model
	spinner spinner.Model

	loading bool // a list or profile fetch is running
	busy    bool // a submit is running; further submits are ignored

	err     string
	notice  string
	formErr string

	login    form
	register form
	form     *taskForm

	completing map[int64]bool
}

// New builds the model. With a stored token it starts by resuming the
// session, otherwise on the login screen.
func New(ctx context.Context, deps Deps) Model {
	if deps.Log == nil {
		deps.Log = log.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.Current().Accent

	m := Model{
		deps:       deps,
		ctx:        background(ctx),
		screen:     screenLogin,
		width:      80,
		height:     24,
		tasks:      newList("Tasks"),
		done:       newList("Completed"),
		spinner:    sp,
		login:      newLoginForm(),
		register:   newRegisterForm(),
		completing: map[int64]bool{},
	}
	m.loading = deps.Session.HasToken()
	m.resize()
	return m
}

// Run starts the program in the alternate screen.
func Run(ctx context.Context, deps Deps) error {
	_, err := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(background(ctx))).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	if m.loading {
		return tea.Batch(m.resumeCmd(), m.spinner.Tick)
	}
	return nil
}

func (m *Model) resize() {
	w, h := m.width-4, m.height-8
	if m.form != nil {
		h -= 9
	}
	if h < 3 {
		h = 3
	}
	m.tasks.SetSize(w, h)
	m.done.SetSize(w, h)
}

// refresh copies the store's lists into the views. The tasks view only
// shows what is still open.
func (m *Model) refresh() tea.Cmd {
	a := m.tasks.SetItems(toItems(pending(m.deps.Tasks.Tasks()), m.completing))
	b := m.done.SetItems(toItems(m.deps.Tasks.Completed(), nil))
	return tea.Batch(a, b)
}

// fail shows err, or returns to login when nobody is logged in.
func (m *Model) fail(err error) {
	if errors.Is(err, credstore.ErrNoToken) {
		m.toLogin()
		return
	}
	m.err = err.Error()
}

func (m *Model) toLogin() {
	m.screen = screenLogin
	m.form = nil
	m.loading, m.busy = false, false
	m.login.setFocus(loginEmail)
	m.resize()
}

func (m *Model) goTo(s screen) tea.Cmd {
	m.screen = s
	m.err, m.notice = "", ""
	var work tea.Cmd
	switch s {
	case screenTasks:
		work = m.loadTasksCmd()
	case screenCompleted:
		work = m.loadCompletedCmd()
	case screenProfile:
		work = m.loadProfileCmd()
	default:
		return nil
	}
	m.loading = true
	return tea.Batch(work, m.spinner.Tick)
}

func (m *Model) toggleTheme() {
	t := ui.Toggle()
	m.tasks.Styles.Title = t.Title
	m.done.Styles.Title = t.Title
	m.spinner.Style = t.Accent
	if m.deps.OnTheme != nil {
		if err := m.deps.OnTheme(t.Name); err != nil {
			m.deps.Log.Warn("could not save theme", "err", err)
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err, m.notice = "", ""
		m.login.reset()
		m.screen = screenTasks
		return m, m.refresh()

	case resumeDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.toLogin()
			if !errors.Is(msg.err, credstore.ErrNoToken) {
				m.err = msg.err.Error()
			}
			return m, nil
		}
		m.screen = screenTasks
		return m, m.refresh()

	case registerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		email := m.register.value(regEmail)
		m.register.reset()
		m.err, m.notice = "", "Account created. Please log in."
		m.toLogin()
		m.login.set(loginEmail, email)
		m.login.setFocus(loginPassword)
		return m, nil

	case tasksLoadedMsg, completedMsg:
		m.loading = false
		var err error
		switch x := msg.(type) {
		case tasksLoadedMsg:
			err = x.err
		case completedMsg:
			err = x.err
		}
		if err != nil {
			m.fail(err)
		}
		return m, m.refresh()

	case profileLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.fail(msg.err)
		}
		return m, nil

	case taskSavedMsg:
		m.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, credstore.ErrNoToken) {
				m.fail(msg.err)
				return m, nil
			}
			// keep the form open with what the user typed
			m.formErr = msg.err.Error()
			return m, nil
		}
		m.form, m.formErr = nil, ""
		m.resize()
		return m, m.refresh()

	case taskDoneMsg:
		delete(m.completing, msg.id)
		if msg.err != nil {
			m.fail(msg.err)
		}
		return m, m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m.updateActive(msg)
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.form != nil:
		cmd = m.form.update(msg)
	case m.screen == screenLogin:
		cmd = m.login.update(msg)
	case m.screen == screenRegister:
		cmd = m.register.update(msg)
	case m.screen == screenTasks:
		m.tasks, cmd = m.tasks.Update(msg)
	case m.screen == screenCompleted:
		m.done, cmd = m.done.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.form != nil:
		return m.formKey(msg)
	case m.screen == screenLogin:
		return m.loginKey(msg)
	case m.screen == screenRegister:
		return m.registerKey(msg)
	}
	return m.listKey(msg)
}

func (m Model) loginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		m.login.next()
		return m, nil
	case "shift+tab", "up":
		m.login.prev()
		return m, nil
	case "ctrl+r":
		if m.busy {
			return m, nil
		}
		m.screen = screenRegister
		m.err, m.notice = "", ""
		m.register.setFocus(regName)
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		creds := m.login.credentials()
		if err := session.ValidateCredentials(creds); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.busy = true
		m.err, m.notice = "", ""
		return m, tea.Batch(m.loginCmd(creds), m.spinner.Tick)
	}
	return m, m.login.update(msg)
}

func (m Model) registerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.busy {
			m.err = ""
			m.toLogin()
		}
		return m, nil
	case "tab", "down":
		m.register.next()
		return m, nil
	case "shift+tab", "up":
		m.register.prev()
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.err = ""
		return m, tea.Batch(m.registerCmd(m.register.registration()), m.spinner.Tick)
	}
	return m, m.register.update(msg)
}

func (m Model) formKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.busy {
			m.form, m.formErr = nil, ""
			m.resize()
		}
		return m, nil
	case "tab", "down":
		m.form.next()
		return m, nil
	case "shift+tab", "up":
		m.form.prev()
		return m, nil
	case "ctrl+p":
		m.form.priority = m.form.priority.Next()
		return m, nil
	case "enter":
		if m.busy || !m.form.canSubmit() {
			return m, nil
		}
		d, err := m.form.draft()
		if err != nil {
			m.formErr = err.Error()
			return m, nil
		}
		m.busy = true
		m.formErr = ""
		return m, tea.Batch(m.saveTaskCmd(m.form.editID, d), m.spinner.Tick)
	}
	return m, m.form.update(msg)
}

func (m Model) listKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.screen == screenTasks && m.tasks.FilterState() == list.Filtering ||
		m.screen == screenCompleted && m.done.FilterState() == list.Filtering {
		return m.updateActive(msg)
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab":
		next := map[screen]screen{screenTasks: screenCompleted, screenCompleted: screenProfile, screenProfile: screenTasks}
		return m, m.goTo(next[m.screen])
	case "r":
		return m, m.goTo(m.screen)
	case "t":
		m.toggleTheme()
		return m, nil
	case "L":
		if err := m.deps.Session.Logout(); err != nil {
			m.deps.Log.Warn("logout", "err", err)
		}
		m.err, m.notice = "", "Logged out."
		m.toLogin()
		return m, m.refresh()
	}

	if m.screen != screenTasks {
		return m.updateActive(msg)
	}

	switch msg.String() {
	case "a":
		m.form, m.formErr = newTaskForm(), ""
		m.resize()
		return m, nil
	case "e":
		if t, ok := selected(m.tasks); ok {
			m.form, m.formErr = editTaskForm(t), ""
			m.resize()
		}
		return m, nil
	case " ", "c":
		t, ok := selected(m.tasks)
		if !ok || t.Completed || m.completing[t.ID] {
			return m, nil
		}
		m.completing[t.ID] = true
		return m, tea.Batch(m.refresh(), m.completeCmd(t.ID))
	}
	return m.updateActive(msg)
}
