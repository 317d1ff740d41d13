package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/model"
	"github.com/Makepad-fr/tasker/internal/session"
	"github.com/Makepad-fr/tasker/internal/ui"
)

func (a *App) loginCmd() *cobra.Command {
	var email, password, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token",
		Long: `Sign in with email and password. Missing values are prompted for.

With --token, an existing bearer token is stored as-is instead.`,
		Args: exactArgs(0, "login [--email E] [--password P]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if token != "" {
				if err := a.creds.SetToken(token); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				if err := a.session.Resume(ctx); err != nil {
					return err
				}
				ui.OK(a.Out, "token saved")
				return nil
			}

			var err error
			if email == "" {
				if email, err = a.prompt("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt("Password"); err != nil {
					return err
				}
			}
			err = a.session.Login(ctx, model.Credentials{Email: email, Password: password})
			var ve *session.ValidationError
			if errors.As(err, &ve) {
				return &usageError{msg: ve.Error()}
			}
			if err != nil {
				return err
			}
			done, pending := a.tasks.Stats()
			ui.OK(a.Out, fmt.Sprintf("logged in as %s (%d pending, %d done)", a.session.DisplayName(), pending, done))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&token, "token", "", "Store this bearer token instead of signing in")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  exactArgs(0, "logout"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			ui.OK(a.Out, "logged out")
			if strings.TrimSpace(os.Getenv(credstore.EnvToken)) != "" {
				ui.Hint(a.Out, credstore.EnvToken+" is still set and will log you back in on the next run")
			}
			return nil
		},
	}
}

func (a *App) registerCmd() *cobra.Command {
	var reg model.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  exactArgs(0, "register [--name N] [--email E] [--password P]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			asks := []struct {
				label string
				dst   *string
			}{
				{"Name", &reg.Name},
				{"Email", &reg.Email},
				{"Password", &reg.Password},
				{"Confirm password", &reg.ConfirmPassword},
			}
			for _, q := range asks {
				if *q.dst != "" {
					continue
				}
				v, err := a.prompt(q.label)
				if err != nil {
					return err
				}
				*q.dst = v
			}

			err := a.session.Register(cmd.Context(), reg)
			var ve *session.ValidationError
			if errors.As(err, &ve) {
				return &usageError{msg: ve.Error()}
			}
			if err != nil {
				return err
			}
			ui.OK(a.Out, "account created")
			ui.Hint(a.Out, "Next: tasker login --email "+strings.TrimSpace(reg.Email))
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password (6+ characters)")
	cmd.Flags().StringVar(&reg.ConfirmPassword, "confirm", "", "Password again (defaults to --password)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if reg.ConfirmPassword == "" && cmd.Flags().Changed("password") {
			reg.ConfirmPassword = reg.Password
		}
	}
	return cmd
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  exactArgs(0, "status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := a.creds.Info()
			if err != nil {
				return err
			}
			if ti == nil {
				ui.Hint(a.Out, "not logged in")
				fmt.Fprintln(a.Out, "Run: tasker login")
				return credstore.ErrNoToken
			}
			fmt.Fprintf(a.Out, "source:  %s\n", ti.Source)
			if ti.Source == credstore.SourceFile {
				fmt.Fprintf(a.Out, "file:    %s\n", a.creds.Path())
				fmt.Fprintf(a.Out, "saved:   %s\n", ti.CreatedAt.UTC().Format(time.RFC3339))
			}
			switch {
			case ti.ExpiresAt == nil:
				fmt.Fprintln(a.Out, "expires: (unknown)")
			case ti.Expired(time.Now()):
				fmt.Fprintf(a.Out, "expires: %s %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), ui.Current().Error.Render("(expired)"))
			default:
				fmt.Fprintf(a.Out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(a.Out, "server:  %s\n", a.api.BaseURL())
			fmt.Fprintln(a.Out, "env override: "+credstore.EnvToken)
			return nil
		},
	}
}

// whoami decodes the token locally without verifying it.
func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the claims inside the stored token",
		Args:  exactArgs(0, "whoami"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := a.creds.Info()
			if err != nil {
				return err
			}
			if ti == nil {
				return credstore.ErrNoToken
			}
			claims, err := credstore.Claims(ti.Token)
			if err != nil {
				fmt.Fprintln(a.Out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(a.Out, "source:", ti.Source)
				return nil
			}
			b, err := yaml.Marshal(map[string]any(claims))
			if err != nil {
				return fmt.Errorf("marshal claims: %w", err)
			}
			fmt.Fprintln(a.Out, "JWT payload:")
			fmt.Fprint(a.Out, string(b))
			return nil
		},
	}
}

func (a *App) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Fetch the signed-in user's profile",
		Args:  exactArgs(0, "profile"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.session.RefreshProfile(cmd.Context())
			if err != nil {
				return err
			}
			t := ui.Current()
			fmt.Fprintln(a.Out, ui.Panel(
				t.Title.Render("Profile"),
				t.Accent.Render("Name   ")+p.Name,
				t.Accent.Render("Email  ")+p.Email,
			))
			return nil
		},
	}
}
