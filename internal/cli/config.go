package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display current configuration",
		Description: `Print the effective configuration: the config file merged over the
   defaults, with SKILLHUB_* environment overrides applied. Tokens are masked.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "path",
				Usage: "Only print the config file path",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			if cmd.Bool("path") {
				fmt.Println(s.path)
				return nil
			}

			shown := *s.cfg
			shown.Registry.Token = maskToken(shown.Registry.Token)
			shown.Server.Users = append(shown.Server.Users[:0:0], shown.Server.Users...)
			for i := range shown.Server.Users {
				shown.Server.Users[i].Token = maskToken(shown.Server.Users[i].Token)
			}

			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			fmt.Printf("# %s\n", s.path)
			fmt.Print(string(data))
			return nil
		},
	}
}

// maskToken keeps the last four characters of a token.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
