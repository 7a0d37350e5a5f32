package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/ui"
)

func deleteCommand() *cli.Command {
	return setDeletedCommand("delete", "Soft delete a skill you own", true)
}

func undeleteCommand() *cli.Command {
	return setDeletedCommand("undelete", "Restore a soft-deleted skill", false)
}

func setDeletedCommand(name, usage string, deleted bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: fmt.Sprintf("skillhub %s <slug> [--yes]", name),
		Description: `Deleted skills are hidden from lookups, search and downloads but keep
   their history and can be restored with undelete. Only the owner can change
   a skill's deleted state.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip confirmation prompt",
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

			if !cmd.Bool("yes") {
				if !isInteractive() {
					return errors.New("pass --yes to confirm when not running in a terminal")
				}
				ok, err := newTerminalPrompter().confirm(fmt.Sprintf("%s skill %q?", name, slug))
				if err != nil {
					return fmt.Errorf("confirmation error: %w", err)
				}
				if !ok {
					fmt.Println(ui.StatusSkipped("Cancelled"))
					return nil
				}
			}

			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			client, err := s.client(ctx, cmd)
			if err != nil {
				return err
			}
			if err := client.SetDeleted(ctx, slug, deleted); err != nil {
				return err
			}

			verb := "Deleted"
			if !deleted {
				verb = "Restored"
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s %s", verb, slug)))
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the user the current token belongs to",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			if s.token(cmd) == "" {
				return errors.New("not logged in (run skillhub login --token <token>)")
			}
			client, err := s.client(ctx, cmd)
			if err != nil {
				return err
			}
			user, err := client.Whoami(ctx)
			if err != nil {
				return err
			}
			fmt.Println(formatUser(user))
			return nil
		},
	}
}

func formatUser(u model.User) string {
	if u.DisplayName != "" && u.DisplayName != u.Handle {
		return fmt.Sprintf("@%s (%s)", u.Handle, u.DisplayName)
	}
	return "@" + u.Handle
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Save an API token to the config file",
		UsageText: "skillhub login --token <token> [--no-verify]",
		Description: `Store a registry API token. The token is checked with whoami first
   unless --no-verify is given. The global --site and --registry values are
   saved alongside it when set.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-verify",
				Usage: "Save the token without calling the registry",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			token := cmd.String("token")
			if token == "" {
				return errors.New("--token is required")
			}

			var user model.User
			if !cmd.Bool("no-verify") {
				client, err := s.clientWithToken(ctx, cmd, token)
				if err != nil {
					return err
				}
				if user, err = client.Whoami(ctx); err != nil {
					return fmt.Errorf("token rejected: %w", err)
				}
			}

			s.cfg.Registry.Token = token
			if site := cmd.String("site"); site != "" {
				s.cfg.Registry.Site = site
			}
			if reg := cmd.String("registry"); reg != "" {
				s.cfg.Registry.URL = reg
			}
			if err := s.cfg.SaveToPath(s.path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if user.Handle != "" {
				fmt.Println(ui.StatusSuccess("Logged in as " + formatUser(user)))
			} else {
				fmt.Println(ui.StatusSuccess("Token saved"))
			}
			fmt.Printf("  config: %s\n", s.path)
			return nil
		},
	}
}
