// Package cli provides the command-line interface for skillhub.
package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/config"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	return NewApp().Run(ctx, args)
}

// NewApp builds the root command.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "skillhub",
		Usage:   "Publish, sync and install agent skills from a skill registry",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file (default: ~/.skillhub/config.yaml)",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "Registry API URL (skips discovery)",
			},
			&cli.StringFlag{
				Name:  "site",
				Usage: "Site URL used to discover the registry",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "API token (overrides the saved login)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			s, err := loadSession(cmd)
			if err != nil {
				return ctx, err
			}
			if err := configureColors(cmd, s.cfg); err != nil {
				return ctx, err
			}
			if err := configureLogging(cmd, s.cfg); err != nil {
				return ctx, err
			}
			return withSession(ctx, s), nil
		},
		Commands: []*cli.Command{
			syncCommand(),
			publishCommand(),
			deleteCommand(),
			undeleteCommand(),
			whoamiCommand(),
			loginCommand(),
			searchCommand(),
			inspectCommand(),
			installCommand(),
			backupCommand(),
			hashCommand(),
			exportCommand(),
			serveCommand(),
			configCommand(),
			versionCommand(),
		},
	}
}

// configureColors applies --no-color or the configured output.color mode.
func configureColors(cmd *cli.Command, cfg *config.Config) error {
	if cmd.Bool("no-color") {
		ui.SetColorMode(ui.ColorNever)
		return nil
	}
	mode, err := ui.ParseColorMode(cfg.Output.Color)
	if err != nil {
		return err
	}
	ui.SetColorMode(mode)
	return nil
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command, cfg *config.Config) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") || cfg.Output.Verbose {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
