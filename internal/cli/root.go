// Package cli is the tasker command line. With no subcommand it opens the
// interactive task list.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tasker/internal/api"
	"github.com/Makepad-fr/tasker/internal/config"
	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/session"
	"github.com/Makepad-fr/tasker/internal/tasks"
	"github.com/Makepad-fr/tasker/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2 // bad arguments, or nobody logged in
)

// usageError marks errors that exit with ExitUsage.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

// App holds the collaborators every command shares. Zero fields are
// filled from the loaded configuration before a command runs.
type App struct {
	Config *config.Config
	In     io.Reader
	Out    io.Writer
	Err    io.Writer

	// ThemePath is where a theme toggle is saved. Empty disables saving.
	ThemePath string

	log     *log.Logger
	creds   *credstore.FileStore
	api     *api.Client
	tasks   *tasks.Store
	session *session.Controller
	reader  *bufio.Reader
}

func (a *App) setup(verbose bool) error {
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if a.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.Config = cfg
		a.ThemePath = config.GlobalConfigPath()
	}

	level, err := log.ParseLevel(a.Config.Log.Level)
	if err != nil {
		level = log.WarnLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	a.log = log.NewWithOptions(a.Err, log.Options{Level: level, Prefix: "tasker"})

	if !ui.Valid(a.Config.UI.Theme) {
		a.log.Warn("unknown theme, using dark", "theme", a.Config.UI.Theme, "want", strings.Join(ui.Names, "|"))
	}
	ui.SetTheme(a.Config.UI.Theme)

	a.creds = credstore.NewFileStore(a.Config.Credentials.Dir)
	a.api = api.New(a.Config.API.BaseURL, api.WithLogger(a.log))
	a.tasks = tasks.New(a.api, a.creds, a.log)
	a.session = session.New(a.api, a.creds, a.tasks, a.log)
	return nil
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "tasker",
		Short: "tasker - tasks in your terminal",
		Long: `tasker is a terminal client for the smart-tasker task service.

Run it without a subcommand to open the interactive task list.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	root.AddCommand(app.loginCmd())
	root.AddCommand(app.logoutCmd())
	root.AddCommand(app.registerCmd())
	root.AddCommand(app.statusCmd())
	root.AddCommand(app.whoamiCmd())
	root.AddCommand(app.profileCmd())
	root.AddCommand(app.lsCmd())
	root.AddCommand(app.completedCmd())
	root.AddCommand(app.addCmd())
	root.AddCommand(app.editCmd())
	root.AddCommand(app.doneCmd())
	root.AddCommand(app.configCmd())
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, version string, args []string) int {
	app := &App{}
	root := NewRootCmd(app)
	root.Version = version
	root.SetArgs(args)
	return app.report(root.ExecuteContext(ctx))
}

// report prints err and maps it to an exit code.
func (a *App) report(err error) int {
	if err == nil {
		return ExitOK
	}
	w := a.Err
	if w == nil {
		w = os.Stderr
	}
	ui.Fail(w, err.Error())

	var ue *usageError
	switch {
	case errors.As(err, &ue), strings.HasPrefix(err.Error(), "unknown command"):
		return ExitUsage
	case errors.Is(err, credstore.ErrNoToken):
		ui.Hint(w, "Hint: run `tasker login` first")
		return ExitUsage
	}
	return ExitError
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: tasker %s", usage)
		}
		return nil
	}
}

// prompt asks for a line on In. It reuses one reader so piped input is
// not lost between prompts.
func (a *App) prompt(label string) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	fmt.Fprint(a.Out, label+": ")
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
