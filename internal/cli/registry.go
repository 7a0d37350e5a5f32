package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/archive"
	"github.com/klauern/skillhub/internal/backup"
	"github.com/klauern/skillhub/internal/hashing"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/ui"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the registry",
		UsageText: "skillhub search <query...> [--limit N] [--approved]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "approved",
				Usage: "Only show approved skills",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if query == "" {
				return errors.New("search query is required")
			}
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			client, err := s.client(ctx, cmd)
			if err != nil {
				return err
			}
			results, err := client.Search(ctx, query, registry.SearchOptions{
				Limit:        cmd.Int("limit"),
				ApprovedOnly: cmd.Bool("approved"),
			})
			if err != nil {
				return err
			}
			printSearchResults(results)
			return nil
		},
	}
}

func printSearchResults(results []registry.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results.")
		return
	}
	for _, r := range results {
		version := r.Version
		if version == "" {
			version = "-"
		}
		fmt.Printf("%s  v%s  %s  %s\n", ui.Bold(r.Slug), version, r.DisplayName, ui.Dim(fmt.Sprintf("(%.3f)", r.Score)))
		if r.Summary != "" {
			fmt.Printf("  %s\n", r.Summary)
		}
		if !r.UpdatedAt.IsZero() {
			fmt.Printf("  %s\n", ui.Dim("updated "+humanize.Time(r.UpdatedAt)))
		}
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show a skill and check local content against its history",
		UsageText: "skillhub inspect <slug> [--hash <sha256> | --folder <dir>]",
		Description: `Show a skill's metadata, owner and latest version. With --hash or --folder,
   also report which published version holds that exact content, if any.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Content hash to resolve",
			},
			&cli.StringFlag{
				Name:  "folder",
				Usage: "Skill folder whose content hash is resolved",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 {
				return errors.New("skill slug is required")
			}
			if cmd.IsSet("hash") && cmd.IsSet("folder") {
				return errors.New("use either --hash or --folder, not both")
			}
			slug := args.Get(0)

			hash := cmd.String("hash")
			if folder := cmd.String("folder"); folder != "" {
				_, h, err := scan.HashFolder(folder)
				if err != nil {
					return err
				}
				hash = h.String()
			}
			if hash != "" && !hashing.IsContentHash(hash) {
				return fmt.Errorf("invalid hash %q: expected 64 lowercase hex characters", hash)
			}

			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			client, err := s.client(ctx, cmd)
			if err != nil {
				return err
			}

			lookup, err := client.GetSkill(ctx, slug)
			if err != nil {
				return err
			}
			if !lookup.Exists() {
				return apierr.NotFound(fmt.Sprintf("Skill %q not found", slug))
			}
			printSkill(lookup)

			if hash == "" {
				return nil
			}
			res, err := client.Resolve(ctx, slug, hash)
			if err != nil {
				return err
			}
			short := model.ContentHash(hash).Short()
			switch {
			case res.MatchesLatest():
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Content %s matches the latest version %s", short, res.Match.Version)))
			case res.Found():
				fmt.Println(ui.StatusWarning(fmt.Sprintf("Content %s matches older version %s", short, res.Match.Version)))
			default:
				fmt.Println(ui.StatusError(fmt.Sprintf("No published version has content %s", short)))
			}
			return nil
		},
	}
}

func printSkill(l *registry.SkillLookup) {
	sk := l.Skill
	fmt.Printf("%s  %s\n", ui.Header(sk.Slug), sk.DisplayName)
	if sk.Summary != "" {
		fmt.Printf("  %s\n", sk.Summary)
	}
	if l.Owner != nil {
		fmt.Printf("  owner: @%s\n", l.Owner.Handle)
	}
	if v := l.LatestVersion; v != nil {
		fmt.Printf("  latest: %s (%s)\n", v.Version, humanize.Time(v.CreatedAt))
		if v.Changelog != "" {
			fmt.Printf("  changelog: %s\n", v.Changelog)
		}
	}
	if len(sk.Tags) > 0 {
		tags := make([]string, 0, len(sk.Tags))
		for tag, version := range sk.Tags {
			tags = append(tags, tag+"="+version)
		}
		sort.Strings(tags)
		fmt.Printf("  tags: %s\n", strings.Join(tags, ", "))
	}
	fmt.Printf("  versions: %d  downloads: %s\n", sk.Stats.Versions, humanize.Comma(int64(sk.Stats.Downloads)))
	if sk.Approved {
		fmt.Println("  " + ui.Success("approved"))
	}
}

// replaceFolder backs up an existing install target, prunes old backups of
// the slug and removes the folder.
func replaceFolder(target, slug string) (*backup.Metadata, error) {
	mgr := backup.New("")
	saved, err := mgr.Folder(target, backup.Options{Slug: slug, Description: "replaced by install"})
	if err != nil {
		return nil, fmt.Errorf("failed to back up %s: %w", target, err)
	}
	retention := backup.DefaultCleanupOptions()
	retention.Slug = slug
	if _, err := mgr.Cleanup(retention); err != nil {
		logging.Warn("backup cleanup failed", logging.Slug(slug), logging.Err(err))
	}
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", target, err)
	}
	return saved, nil
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Download a skill version into a local folder",
		UsageText: "skillhub install <slug> [--version V] [--dir DIR] [--force]",
		Description: `Download a skill bundle, verify every file against its manifest and
   content hash, and write it to <dir>/<slug>. Nothing is written when
   verification fails.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "version",
				Usage: "Version to install (default: latest)",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory that receives the skill folder",
				Value: "skills",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite an existing skill folder",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 {
				return errors.New("skill slug is required")
			}
			slug := args.Get(0)
			if !model.IsValidSlug(slug) {
				return fmt.Errorf("invalid slug %q", slug)
			}

			target := filepath.Join(cmd.String("dir"), slug)
			exists := false
			if _, err := os.Stat(target); err == nil {
				if !cmd.Bool("force") {
					return fmt.Errorf("%s already exists (use --force to overwrite)", target)
				}
				exists = true
			}

			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			client, err := s.client(ctx, cmd)
			if err != nil {
				return err
			}
			data, err := client.Download(ctx, slug, cmd.String("version"))
			if err != nil {
				return err
			}
			if _, _, err := archive.Extract(bytes.NewReader(data), archive.ExtractOptions{DryRun: true}); err != nil {
				return fmt.Errorf("failed to install %s: %w", slug, err)
			}

			var saved *backup.Metadata
			if exists {
				if saved, err = replaceFolder(target, slug); err != nil {
					return err
				}
			}
			files, manifest, err := archive.Extract(bytes.NewReader(data), archive.ExtractOptions{TargetDir: target})
			if err != nil {
				return fmt.Errorf("failed to install %s: %w", slug, err)
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Installed %s@%s", manifest.Slug, manifest.Version)))
			fmt.Printf("  path: %s\n", target)
			if saved != nil {
				fmt.Printf("  backup: %s\n", saved.ID)
			}
			fmt.Printf("  files: %d (%s)\n", len(files), humanize.Bytes(uint64(manifest.Files.TotalSize())))
			return nil
		},
	}
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the content hash of a skill folder",
		UsageText: "skillhub hash <folder> [--files]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "files",
				Usage: "List every file with its size and digest",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 {
				return errors.New("skill folder is required")
			}
			manifest, hash, err := scan.HashFolder(args.Get(0))
			if err != nil {
				return err
			}
			fmt.Println(hash)
			if !cmd.Bool("files") {
				return nil
			}
			for _, f := range manifest {
				fmt.Printf("  %s  %8s  %s\n", f.SHA256[:12], humanize.Bytes(uint64(f.Size)), f.Path)
			}
			fmt.Printf("  %d file(s), %s\n", len(manifest), humanize.Bytes(uint64(manifest.TotalSize())))
			return nil
		},
	}
}
