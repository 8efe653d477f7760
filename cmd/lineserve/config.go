// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineserve/lineserve/internal/config"
	"github.com/lineserve/lineserve/pkg/types"
)

// newConfigCommand creates the `lineserve config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lineserve configuration",
		Long: `Manage lineserve configuration.

Configuration is read from, in order:
  - the file passed with --config
  - $XDG_CONFIG_HOME/lineserve/config.cue (~/.config/lineserve/config.cue)
  - ./config.cue

LINESERVE_* environment variables override file values, for example
LINESERVE_SERVER_PORT=4000.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err, types.ExitFailure)
			}

			rendered, err := config.ToTOML(cfg)
			if err != nil {
				return app.fail(err, types.ExitFailure)
			}

			source := SubtitleStyle.Render("(using defaults)")
			if path != "" {
				source = path
			}
			fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
			fmt.Fprintf(app.stdout, "%s: %s\n\n", CmdStyle.Render("Config file"), source)
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return app.fail(err, types.ExitFailure)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s config file already exists: %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s created %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return app.fail(err, types.ExitFailure)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}
