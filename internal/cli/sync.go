package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/progress"
	"github.com/klauern/skillhub/internal/publish"
	"github.com/klauern/skillhub/internal/security"
	"github.com/klauern/skillhub/internal/sync"
	"github.com/klauern/skillhub/internal/ui"
	"github.com/klauern/skillhub/internal/util"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Publish local skills the registry does not have yet",
		UsageText: "skillhub sync [options]",
		Description: `Scan skill folders, compare their content hashes with the registry and
   publish new skills and changed versions.

   A skill folder is a directory containing SKILL.md. Each --root is either a
   skill folder itself or a directory whose immediate children are skill folders.
   Without --root the roots from the config file are scanned.

   Changed skills get their latest registry version bumped (patch by default).
   In a terminal you pick the skills to publish and enter changelogs. --all skips
   the picker but still asks for changelogs. Without a terminal everything is
   published with empty changelogs.

   Examples:
     skillhub sync --dry-run
     skillhub sync --root ./skills --bump minor
     skillhub sync --all --concurrency 8`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory to scan (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Publish every new or changed skill without the picker",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Show what would be published without uploading",
			},
			&cli.StringFlag{
				Name:  "bump",
				Usage: "Version bump for changed skills (patch, minor, major)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: fmt.Sprintf("Parallel registry lookups (1-%d)", sync.MaxConcurrency),
			},
			&cli.BoolFlag{
				Name:  "allow-secrets",
				Usage: "Publish skills even when the credential scan finds something",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			opts, err := buildSyncOptions(cmd, s)
			if err != nil {
				return err
			}
			return runSync(ctx, cmd, s, opts)
		},
	}
}

// buildSyncOptions merges flags over the config file's sync section.
func buildSyncOptions(cmd *cli.Command, s *session) (sync.Options, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return sync.Options{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	opts := sync.DefaultOptions()
	opts.All = cmd.Bool("all")
	opts.DryRun = cmd.Bool("dry-run")
	opts.Bump = s.cfg.GetBump()
	opts.Concurrency = s.cfg.Sync.Concurrency
	if s.cfg.Sync.InitialVersion != "" {
		opts.InitialVersion = s.cfg.Sync.InitialVersion
	}

	if roots := cmd.StringSlice("root"); len(roots) > 0 {
		opts.Roots = util.ExpandPaths(roots, cwd)
	} else {
		opts.Roots = s.cfg.Sync.GetRoots(cwd)
	}

	if cmd.IsSet("bump") {
		bump := sync.BumpStrategy(strings.ToLower(cmd.String("bump")))
		if !bump.IsValid() {
			return sync.Options{}, fmt.Errorf("invalid bump %q (valid: patch, minor, major)", cmd.String("bump"))
		}
		opts.Bump = bump
	}
	if cmd.IsSet("concurrency") {
		n := cmd.Int("concurrency")
		if n < 1 || n > sync.MaxConcurrency {
			return sync.Options{}, fmt.Errorf("concurrency must be between 1 and %d", sync.MaxConcurrency)
		}
		opts.Concurrency = n
	}
	return opts, nil
}

func runSync(ctx context.Context, cmd *cli.Command, s *session, opts sync.Options) error {
	client, err := s.client(ctx, cmd)
	if err != nil {
		return err
	}

	if !opts.DryRun && isInteractive() {
		opts.Prompter = newTerminalPrompter()
	}
	tracker := progress.NewSyncTracker(os.Stderr)
	opts.Progress = tracker.Handle

	fmt.Println(ui.Intro("skillhub sync"))
	var publisher sync.Publisher = publish.New(client)
	if !cmd.Bool("allow-secrets") {
		publisher = secretGuard{next: publisher}
	}
	result, err := sync.New(client, publisher).Run(ctx, opts)
	_ = tracker.Finish()

	if errors.Is(err, errCancelled) {
		fmt.Println(ui.Outro("Sync cancelled"))
		return nil
	}
	if result != nil && (err == nil || len(result.Outcomes) > 0) {
		printSyncReport(os.Stdout, result)
	}
	if err != nil {
		return err
	}
	return result.Err()
}

// secretGuard fails a folder's publish when the credential scan reports
// error-severity findings.
type secretGuard struct {
	next sync.Publisher
}

func (g secretGuard) Publish(ctx context.Context, folder string, opts publish.Options) (publish.Result, error) {
	findings, err := security.ScanFolder(folder)
	if err != nil {
		return publish.Result{}, err
	}
	for _, f := range findings {
		if f.Severity == security.SeverityError {
			return publish.Result{}, fmt.Errorf("possible credentials: %s (use --allow-secrets to publish anyway)", f.String())
		}
	}
	return g.next.Publish(ctx, folder, opts)
}

// printSyncReport writes the per-skill sections and the headline.
func printSyncReport(w io.Writer, r *sync.Result) {
	section := func(title string, outcomes []sync.Outcome, mark func(string) string) {
		if len(outcomes) == 0 {
			return
		}
		lines := make([]string, 0, len(outcomes))
		for _, o := range outcomes {
			lines = append(lines, mark(o.Line()))
		}
		fmt.Fprintln(w, ui.Note(title, strings.Join(lines, "\n")))
	}
	if r.DryRun {
		section("To upload", r.Planned(), ui.StatusPending)
	} else {
		section("Uploaded", r.Published(), ui.StatusSuccess)
		section("Not selected", r.Skipped(), ui.StatusSkipped)
	}
	section("Already synced", r.Synced(), ui.StatusSkipped)

	if failed := r.Failed(); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		for _, o := range failed {
			lines = append(lines, ui.StatusError(fmt.Sprintf("%s: %v", o.Slug(), o.Error)))
		}
		fmt.Fprintln(w, ui.Note("Errors", strings.Join(lines, "\n")))
		fmt.Fprintln(w, ui.Outro(ui.Warning(r.Headline())))
		return
	}
	fmt.Fprintln(w, ui.Outro(r.Headline()))
}
