// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/awnumar/memguard"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	// SIGINT wipes guarded memory and exits; SIGTERM drains the server first
	memguard.CatchInterrupt()
	defer memguard.Purge()

	code := 0
	if err := run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		code = 1
	}

	// Destroys the session key sealing every enclave, then exits
	memguard.SafeExit(code)
}

func run(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:     "secretcache",
		Usage:    "Encrypted in-memory secrets cache with master key rotation",
		Version:  version,
		Commands: getCommands(version),
	}
	return cmd.Run(ctx, args)
}
