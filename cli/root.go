// Package cli implements the snipt command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"snipt/config"
	"snipt/platform"
)

// Desktop builds the OS-backed capabilities. main supplies it so this
// package builds without cgo.
type Desktop func(*slog.Logger) (platform.InputHook, platform.KeyInjector, platform.ForegroundApp)

// app carries the state resolved before any subcommand runs.
type app struct {
	configDir string
	logLevel  string
	desktop   Desktop

	paths    config.Paths
	settings config.Settings
	level    slog.Level
	log      *slog.Logger
}

// NewRootCmd assembles the command tree. desktop may be nil, in which case
// `start` refuses to run.
func NewRootCmd(desktop Desktop) *cobra.Command {
	a := &app{desktop: desktop}
	root := &cobra.Command{
		Use:           "snipt",
		Short:         "Text expansion for every application",
		Long:          "snipt watches what you type and replaces :shortcut or !command with the stored snippet.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "Config directory (default: $SNIPT_HOME or ~/.snipt)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config.yaml)")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newStartCmd(a),
		newServeCmd(a),
		newStopCmd(a),
		newStatusCmd(a),
		newExpandCmd(a),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(desktop Desktop) {
	if err := NewRootCmd(desktop).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(stderr io.Writer) error {
	paths, err := config.NewPaths(a.configDir)
	if err != nil {
		return err
	}
	settings, err := config.LoadSettings(paths.Settings)
	if err != nil {
		return err
	}
	name := settings.Log.Level
	if a.logLevel != "" {
		name = a.logLevel
	}
	level, err := config.ParseLevel(name)
	if err != nil {
		return err
	}
	a.paths = paths
	a.settings = settings
	a.level = level

	// Interactive commands only surface warnings; the daemon logs to its
	// own file at the configured level.
	cliLevel := level
	if a.logLevel == "" && cliLevel < slog.LevelWarn {
		cliLevel = slog.LevelWarn
	}
	a.log = config.NewLogger(stderr, cliLevel)
	return nil
}
