package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/export"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/util"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the local skill inventory",
		UsageText: "skillhub export [--root DIR]... [--format json|yaml|markdown] [--files] [--output FILE]",
		Description: `Scan the skill roots the way sync does and print every skill folder with
   its content hash. No registry access is needed.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to scan for skill folders (repeatable)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, yaml, markdown",
				Value:   "json",
			},
			&cli.BoolFlag{
				Name:  "files",
				Usage: "Include the per-file manifest",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}

			cwd, _ := os.Getwd()
			roots := util.ExpandPaths(cmd.StringSlice("root"), cwd)
			if len(roots) == 0 {
				roots = s.cfg.Sync.GetRoots(cwd)
			}
			if len(roots) == 0 {
				return sync.ErrNoRoots
			}

			bundles, err := scan.FindAll(roots)
			if err != nil {
				return err
			}
			entries, err := export.Collect(bundles)
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := cmd.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			opts := export.DefaultOptions()
			opts.Format = format
			opts.IncludeFiles = cmd.Bool("files")
			return export.New(opts).Export(entries, out)
		},
	}
}
