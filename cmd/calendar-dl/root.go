package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/handiism/calendar-downloader/internal/config"
	"github.com/handiism/calendar-downloader/internal/download"
)

const programName = "calendar-dl"

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	verbose    bool
}

// load reads the config file and builds the logger.
func (g *globalOptions) load() (*config.Settings, zerolog.Logger, error) {
	logger, err := newLogger(g.logLevel)
	if err != nil {
		return nil, logger, fmt.Errorf("invalid log level %q: %w", g.logLevel, err)
	}

	settings, err := config.Load(g.configPath)
	if err != nil {
		return nil, logger, err
	}
	return settings, logger, nil
}

// printer writes progress events to stdout.
func (g *globalOptions) printer(cmd *cobra.Command) func(download.ProgressEvent) {
	out := cmd.OutOrStdout()
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !g.verbose {
			return
		}

		prefix := "  "
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}
		fmt.Fprintln(out, prefix+event.Message)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	run := &runOptions{}

	command := &cobra.Command{
		Use:          programName,
		Short:        "Download one image per calendar date",
		SilenceUsage: true,
		// with no subcommand, behave like "run"
		RunE: func(cmd *cobra.Command, args []string) error {
			return run.execute(cmd, g)
		},
	}

	command.PersistentFlags().StringVarP(&g.configPath, "config", "c", "config.toml", "Path to config file")
	command.PersistentFlags().StringVarP(&g.logLevel, "log-level", "l", "info", "Log level (trace, debug, info, warn, error)")
	command.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Show verbose progress output")
	bindRunFlags(command, run)

	command.AddCommand(runCmd(g))
	command.AddCommand(processCmd(g))
	command.AddCommand(configCmd(g))

	return command
}
