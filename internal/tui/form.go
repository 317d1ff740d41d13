package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tasker/internal/model"
	"github.com/Makepad-fr/tasker/internal/ui"
)

// form is a column of labelled text inputs with one focused at a time.
type form struct {
	labels []string
	inputs []textinput.Model
	focus  int
}

type field struct {
	label, placeholder string
	password           bool
	limit              int
}

func newForm(fields ...field) form {
	f := form{}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = fd.placeholder
		ti.CharLimit = 200
		if fd.limit > 0 {
			ti.CharLimit = fd.limit
		}
		if fd.password {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.Cursor.SetMode(cursor.CursorStatic)
		f.labels = append(f.labels, fd.label)
		f.inputs = append(f.inputs, ti)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) value(i int) string { return f.inputs[i].Value() }

func (f *form) set(i int, v string) {
	f.inputs[i].SetValue(v)
	f.inputs[i].CursorEnd()
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.setFocus(0)
}

// update feeds msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f form) view() string {
	t := ui.Current()
	var b strings.Builder
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			label = t.Accent.Render(label)
		} else {
			label = t.Muted.Render(label)
		}
		b.WriteString(label + "\n" + in.View() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Field indexes.
const (
	loginEmail = iota
	loginPassword
)

const (
	regName = iota
	regEmail
	regPassword
	regConfirm
)

const (
	taskTitle = iota
	taskDescription
	taskDue
)

func newLoginForm() form {
	return newForm(
		field{label: "Email", placeholder: "you@example.com"},
		field{label: "Password", placeholder: "password", password: true},
	)
}

func (f form) credentials() model.Credentials {
	return model.Credentials{Email: strings.TrimSpace(f.value(loginEmail)), Password: f.value(loginPassword)}
}

func newRegisterForm() form {
	return newForm(
		field{label: "Name", placeholder: "Your name"},
		field{label: "Email", placeholder: "you@example.com"},
		field{label: "Password", placeholder: "at least 6 characters", password: true},
		field{label: "Confirm password", placeholder: "repeat password", password: true},
	)
}

func (f form) registration() model.Registration {
	return model.Registration{
		Name:            f.value(regName),
		Email:           f.value(regEmail),
		Password:        f.value(regPassword),
		ConfirmPassword: f.value(regConfirm),
	}
}

// taskForm is the add/edit overlay. editID is zero when adding. due is
// the task's stored due date; the field only shows its date part.
type taskForm struct {
	form
	editID   int64
	priority model.Priority
	due      string
}

func newTaskForm() *taskForm {
	return &taskForm{
		form: newForm(
			field{label: "Title", placeholder: "What needs doing?"},
			field{label: "Description", placeholder: "optional", limit: 1000},
			field{label: "Due date", placeholder: "YYYY-MM-DD (optional)", limit: 25},
		),
		priority: model.PriorityLow,
	}
}

func editTaskForm(t model.Task) *taskForm {
	f := newTaskForm()
	f.editID = t.ID
	f.due = t.DueDate
	f.set(taskTitle, t.Title)
	f.set(taskDescription, t.Description)
	f.set(taskDue, ui.DueDate(t.DueDate))
	if t.Priority != "" {
		f.priority = t.Priority
	}
	f.setFocus(taskTitle)
	return f
}

// canSubmit mirrors the disabled save button: no title, no submit.
func (f *taskForm) canSubmit() bool {
	return strings.TrimSpace(f.value(taskTitle)) != ""
}

func (f *taskForm) draft() (model.Draft, error) {
	due := f.due
	if in := f.value(taskDue); in != ui.DueDate(f.due) {
		var err error
		if due, err = model.ParseDueDate(in); err != nil {
			return model.Draft{}, err
		}
	}
	return model.Draft{
		Title:       strings.TrimSpace(f.value(taskTitle)),
		Description: f.value(taskDescription),
		DueDate:     due,
		Priority:    f.priority,
	}, nil
}

func (f *taskForm) view(title, errMsg string) string {
	t := ui.Current()
	head := t.Title.Render(title)
	if errMsg != "" {
		head += " " + t.Error.Render(errMsg)
	}
	prio := "Priority  " + ui.Priority(f.priority) + t.Muted.Render("  (ctrl+p to change)")
	return head + "\n" + f.form.view() + "\n" + prio
}
