package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/klauern/skillhub/internal/config"
	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/server"
	"github.com/klauern/skillhub/internal/store"
	"github.com/klauern/skillhub/internal/util"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Run a skill registry server",
		UsageText: "skillhub serve [--addr :8787] [--data DIR] [--public-url URL]",
		Description: `Serve the registry HTTP API backed by a local data directory.

   Accounts are the static users listed under server.users in the config file.
   Without any account the registry is read-only.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "Data directory for the index and uploaded files",
			},
			&cli.StringFlag{
				Name:  "public-url",
				Usage: "Externally visible base URL",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := sessionFrom(ctx, cmd)
			if err != nil {
				return err
			}
			srv, err := newRegistryServer(cmd, s.cfg.Server)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Printf("Registry listening on %s\n", srv.PublicURL())
			return srv.ListenAndServe(ctx)
		},
	}
}

// newRegistryServer wires a store to the HTTP server from flags and config.
func newRegistryServer(cmd *cli.Command, sc config.ServerConfig) (*server.Server, error) {
	dataDir := firstNonEmpty(cmd.String("data"), sc.DataDir)
	if cwd, err := os.Getwd(); err == nil {
		dataDir = util.ExpandPath(dataDir, cwd)
	}

	accounts := make([]store.Account, 0, len(sc.Users))
	for _, u := range sc.Users {
		accounts = append(accounts, store.Account{
			Token: u.Token,
			User:  model.User{Handle: u.Handle, DisplayName: u.DisplayName},
		})
	}
	logger := logging.New(logging.ServerOptions())
	if len(accounts) == 0 {
		logger.Warn("no server users configured, publishing is disabled")
	}

	st, err := store.Open(store.Options{
		DataDir:     dataDir,
		AutoApprove: sc.AutoApprove,
		Accounts:    accounts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry data %s: %w", dataDir, err)
	}

	return server.New(server.Deps{
		Queries:       st,
		Mutations:     st,
		Actions:       st,
		Authenticator: st,
	}, server.Options{
		Addr:      firstNonEmpty(cmd.String("addr"), sc.Addr),
		PublicURL: firstNonEmpty(cmd.String("public-url"), sc.PublicURL),
		Logger:    logger,
	}), nil
}
