package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tasker/internal/config"
	"github.com/Makepad-fr/tasker/internal/model"
	"github.com/Makepad-fr/tasker/internal/tui"
	"github.com/Makepad-fr/tasker/internal/ui"
)

func (a *App) runTUI(ctx context.Context) error {
	deps := tui.Deps{Session: a.session, Tasks: a.tasks, Log: a.log}
	if a.ThemePath != "" {
		path := a.ThemePath
		deps.OnTheme = func(name string) error { return config.SetTheme(path, name) }
	}
	return tui.Run(ctx, deps)
}

func (a *App) lsCmd() *cobra.Command {
	var plain, group bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tasks (interactive unless --plain)",
		Args:  exactArgs(0, "ls [--plain] [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !plain && !group {
				return a.runTUI(cmd.Context())
			}
			if err := a.tasks.LoadAll(cmd.Context()); err != nil {
				return err
			}
			items := a.tasks.Tasks()
			d, p := a.tasks.Stats()

			lines := []string{
				ui.Header("Tasks", d, p),
				ui.Current().Muted.Render(ui.ProgressBar(d, d+p, 28)),
				"",
			}
			if group {
				lines = append(lines, groupLines(items)...)
			} else {
				lines = append(lines, flatLines(items)...)
			}
			lines = append(lines, "", ui.Current().Muted.Render("Tip: add with `tasker add \"Buy milk\"`"))
			fmt.Fprintln(a.Out, ui.Panel(lines...))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the list instead of opening the TUI")
	cmd.Flags().BoolVar(&group, "group", false, "Print grouped by pending/done (implies --plain)")
	return cmd
}

func (a *App) completedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "Print completed tasks",
		Args:  exactArgs(0, "completed"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.LoadCompleted(cmd.Context()); err != nil {
				return err
			}
			items := a.tasks.Completed()
			lines := []string{ui.Current().Title.Render(fmt.Sprintf("Completed (%d)", len(items))), ""}
			lines = append(lines, flatLines(items)...)
			fmt.Fprintln(a.Out, ui.Panel(lines...))
			return nil
		},
	}
}

// taskFlags are the draft fields shared by add and edit.
type taskFlags struct {
	title, description, due, priority string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Longer description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date, YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "LOW, MEDIUM or HIGH")
}

// apply copies the flags that were set onto d.
func (f *taskFlags) apply(cmd *cobra.Command, d *model.Draft) error {
	set := cmd.Flags().Changed
	if set("title") {
		d.Title = f.title
	}
	if set("description") {
		d.Description = f.description
	}
	if set("due") {
		due, err := model.ParseDueDate(f.due)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		d.DueDate = due
	}
	if set("priority") {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			return &usageError{msg: err.Error()}
		}
		d.Priority = p
	}
	return nil
}

func (a *App) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task (title can be multiple words)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := model.Draft{Title: strings.TrimSpace(strings.Join(args, " "))}
			if d.Title == "" {
				return usagef("usage: tasker add <title...>")
			}
			if err := f.apply(cmd, &d); err != nil {
				return err
			}
			t, err := a.tasks.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			ui.OK(a.Out, fmt.Sprintf("added #%d %s", t.ID, t.Title))
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *App) editCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task; unset flags keep their value",
		Args:  exactArgs(1, "edit <id> [--title T] [--description D] [--due DATE] [--priority P]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("edit", args[0])
			if err != nil {
				return err
			}
			cur, err := a.lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			d := model.DraftFromTask(cur)
			if err := f.apply(cmd, &d); err != nil {
				return err
			}
			t, err := a.tasks.Update(cmd.Context(), id, d)
			if err != nil {
				return err
			}
			ui.OK(a.Out, fmt.Sprintf("updated #%d %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "New title")
	f.register(cmd)
	return cmd
}

func (a *App) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  exactArgs(1, "done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("done", args[0])
			if err != nil {
				return err
			}
			cur, err := a.lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if cur.Completed {
				ui.OK(a.Out, fmt.Sprintf("#%d is already done", id))
				return nil
			}
			if err := a.tasks.Complete(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(a.Out, fmt.Sprintf("completed #%d %s", id, cur.Title))
			return nil
		},
	}
}

// lookup loads the task list and returns id from it.
func (a *App) lookup(ctx context.Context, id int64) (model.Task, error) {
	if err := a.tasks.LoadAll(ctx); err != nil {
		return model.Task{}, err
	}
	t, ok := a.tasks.Find(id)
	if !ok {
		ui.Hint(a.Err, "Hint: run `tasker ls --plain` to see task ids")
		return model.Task{}, usagef("no task with id %d", id)
	}
	return t, nil
}

func parseID(cmd, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("%s: not a task id: %s", cmd, s)
	}
	return id, nil
}

// -------------- rendering helpers --------------

func flatLines(items []model.Task) []string {
	if len(items) == 0 {
		return []string{ui.Current().Muted.Render("no tasks")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		idx := ui.Current().Muted.Render(fmt.Sprintf("%3d.", it.ID))
		out = append(out, idx+" "+ui.TaskLine(truncated(it)))
	}
	return out
}

// groupLines prints open tasks first, then completed ones, each under
// its own heading.
func groupLines(items []model.Task) []string {
	t := ui.Current()
	var lines []string
	for _, sec := range []struct {
		name string
		done bool
	}{{"Pending", false}, {"Done", true}} {
		var part []model.Task
		for _, it := range items {
			if it.Completed == sec.done {
				part = append(part, it)
			}
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, t.Accent.Render(sec.name))
		if len(part) == 0 {
			lines = append(lines, t.Muted.Render("(none)"))
			continue
		}
		lines = append(lines, flatLines(part)...)
	}
	return lines
}

func truncated(t model.Task) model.Task {
	if r := []rune(t.Title); len(r) > 80 {
		t.Title = string(r[:77]) + "..."
	}
	return t
}
