package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tasker/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect tasker configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Args:  exactArgs(0, "config show"),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := yaml.Marshal(a.Config)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprint(a.Out, string(b))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config and credentials file locations",
		Args:  exactArgs(0, "config path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.Out, "global:      %s\n", config.GlobalConfigPath())
			fmt.Fprintf(a.Out, "project:     %s\n", config.ProjectConfigPath())
			fmt.Fprintf(a.Out, "credentials: %s\n", a.creds.Path())
			return nil
		},
	})

	return cmd
}
