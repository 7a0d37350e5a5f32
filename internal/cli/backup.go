package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/backup"
	"github.com/klauern/skillhub/internal/ui"
)

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Manage folder backups taken by install --force",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List backups, newest first",
				UsageText: "skillhub backup list [slug]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					backups, err := backup.New("").List(cmd.Args().First())
					if err != nil {
						return err
					}
					if len(backups) == 0 {
						fmt.Println("No backups.")
						return nil
					}
					for _, b := range backups {
						fmt.Printf("%s  %s  %s  %s\n",
							ui.Bold(b.ID), b.Slug, humanize.Bytes(uint64(b.Size)), ui.Dim(humanize.Time(b.CreatedAt)))
						fmt.Printf("  %s\n", b.SourcePath)
					}
					return nil
				},
			},
			{
				Name:      "restore",
				Usage:     "Restore a backup over its original folder",
				UsageText: "skillhub backup restore <id> [--to DIR]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "to",
						Usage: "Restore into this folder instead of the original location",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return errors.New("backup id is required")
					}
					meta, err := backup.New("").Restore(id, cmd.String("to"))
					if err != nil {
						return err
					}
					target := cmd.String("to")
					if target == "" {
						target = meta.SourcePath
					}
					fmt.Println(ui.StatusSuccess(fmt.Sprintf("Restored %s from %s", meta.Slug, meta.ID)))
					fmt.Printf("  path: %s\n", target)
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: "Delete old backups",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Backups to keep per skill (0 = unlimited)",
						Value: 10,
					},
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Delete backups older than this (0 = never)",
						Value: 30 * 24 * time.Hour,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show what would be deleted",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					removed, err := backup.New("").Cleanup(backup.CleanupOptions{
						MaxBackups:     cmd.Int("keep"),
						MaxAge:         cmd.Duration("max-age"),
						KeepAtLeastOne: true,
						Slug:           cmd.Args().First(),
						DryRun:         cmd.Bool("dry-run"),
					})
					if err != nil {
						return err
					}
					verb := "Deleted"
					if cmd.Bool("dry-run") {
						verb = "Would delete"
					}
					fmt.Printf("%s %d backup(s)\n", verb, len(removed))
					for _, id := range removed {
						fmt.Printf("  - %s\n", id)
					}
					return nil
				},
			},
		},
	}
}
