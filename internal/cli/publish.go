package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/progress"
	"github.com/klauern/skillhub/internal/publish"
	"github.com/klauern/skillhub/internal/scan"
	"github.com/klauern/skillhub/internal/security"
	"github.com/klauern/skillhub/internal/ui"
)

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish one skill folder as a new version",
		UsageText: "skillhub publish <folder> --version 1.0.0 [options]",
		Description: `Upload the text files of a skill folder and register them as a version.

   The slug defaults to the folder name and the display name to the SKILL.md
   frontmatter name. Publishing identical content under a new version is allowed.

   Examples:
     skillhub publish ./skills/pdf --version 1.0.0 --changelog "Initial release"
     skillhub publish . --slug pdf-tools --name "PDF Tools" --version 2.0.0 --tags latest,stable`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "slug",
				Usage: "Registry slug (default: derived from the folder name)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name (default: SKILL.md name or title-cased slug)",
			},
			&cli.StringFlag{
				Name:     "version",
				Usage:    "Semver version to publish. Required.",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "changelog",
				Usage: "Changelog text",
			},
			&cli.StringSliceFlag{
				Name:  "tags",
				Usage: "Tags pointing at this version (default: latest)",
			},
			&cli.BoolFlag{
				Name:  "allow-secrets",
				Usage: "Publish even when the credential scan reports errors",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 {
				return errors.New("skill folder is required")
			}
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			return runPublish(ctx, cmd, s, args.Get(0))
		},
	}
}

func runPublish(ctx context.Context, cmd *cli.Command, s *session, folder string) error {
	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("cannot read skill folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", folder)
	}

	bundle, err := scan.ReadBundle(folder)
	if err != nil {
		return err
	}
	if err := checkSecrets(folder, cmd.Bool("allow-secrets")); err != nil {
		return err
	}
	opts := publish.Options{
		Slug:        firstNonEmpty(cmd.String("slug"), bundle.Slug),
		DisplayName: firstNonEmpty(cmd.String("name"), bundle.DisplayName),
		Version:     cmd.String("version"),
		Changelog:   cmd.String("changelog"),
		Tags:        cmd.StringSlice("tags"),
	}

	client, err := s.client(ctx, cmd)
	if err != nil {
		return err
	}

	var bar *progress.Bar
	opts.OnUpload = func(done, total int) {
		if bar == nil {
			bar = progress.New(progress.Options{Max: int64(total), Description: "Uploading", Writer: os.Stderr})
		}
		_ = bar.Set(done)
	}

	res, err := publish.New(client).Publish(ctx, bundle.Folder, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Published %s@%s (%s)", opts.Slug, opts.Version, res.VersionID)))
	fmt.Printf("  files: %d\n", res.Files)
	fmt.Printf("  hash: %s\n", res.Hash)
	return nil
}

// checkSecrets prints credential scan findings for folder and refuses to
// continue on error findings unless allow is set.
func checkSecrets(folder string, allow bool) error {
	findings, err := security.ScanFolder(folder)
	if err != nil {
		return err
	}
	for _, f := range findings {
		if f.Severity == security.SeverityError {
			fmt.Println(ui.StatusError(f.String()))
		} else {
			fmt.Println(ui.StatusWarning(f.String()))
		}
	}
	if security.HasErrors(findings) && !allow {
		return fmt.Errorf("possible credentials found in %s (use --allow-secrets to publish anyway)", folder)
	}
	return nil
}
