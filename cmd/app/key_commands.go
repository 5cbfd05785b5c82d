package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secretcache/cmd/app/commands"
	"github.com/allisson/secretcache/internal/app"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "status",
			Usage: "Show the persisted master key version and rotation schedule",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				repo, err := container.StateRepository()
				if err != nil {
					return err
				}

				return commands.RunStatus(
					ctx,
					repo,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.KeyRotationPeriod,
					time.Now(),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-salt",
			Usage: "Check that the installation salt exists and is well formed",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				repo, err := container.StateRepository()
				if err != nil {
					return err
				}

				return commands.RunVerifySalt(ctx, repo, container.Logger(), commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "rotate",
			Usage: "Force a master key rotation regardless of key age",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cache, err := container.SecretsCache()
				if err != nil {
					return err
				}

				return commands.RunRotate(
					ctx,
					cache,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
