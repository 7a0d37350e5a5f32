package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Display version and build information",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "short",
				Usage: "Print only the version number",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("short") {
				fmt.Println(Version)
				return nil
			}
			fmt.Printf("skillhub version %s\n", Version)
			fmt.Printf("  commit: %s\n", Commit)
			fmt.Printf("  built: %s\n", BuildDate)
			fmt.Printf("  go: %s/%s %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
			if s, err := sessionFrom(ctx, cmd); err == nil {
				fmt.Printf("  registry: %s\n", firstNonEmpty(cmd.String("registry"), s.cfg.Registry.RegistryURL()))
			}
			return nil
		},
	}
}
