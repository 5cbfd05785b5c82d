package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/secretcache/cmd/app/commands"
	"github.com/allisson/secretcache/internal/app"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Initialize the secrets cache and serve health, readiness and metrics endpoints",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return commands.RunServer(ctx, app.NewContainer(cfg), version)
			},
		},
		{
			Name:  "bench-kdf",
			Usage: "Measure key derivation time with the configured iteration count",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "rounds",
					Aliases: []string{"r"},
					Value:   3,
					Usage:   "Number of derivations to average",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				deriver, err := container.KeyDeriver()
				if err != nil {
					return err
				}

				return commands.RunBenchKDF(
					deriver,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("rounds")),
					cmd.String("format"),
				)
			},
		},
	}
}
