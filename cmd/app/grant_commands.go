package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/dbgrant/cmd/app/commands"
	"github.com/allisson/dbgrant/internal/app"
	"github.com/allisson/dbgrant/internal/config"
)

func getGrantCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "revoke",
			Usage: "Drop database users and delete grant records matching a filter",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "email",
					Aliases: []string{"e"},
					Value:   "*",
					Usage:   "Requester email, or '*' for any",
				},
				&cli.StringFlag{
					Name:  "host",
					Value: "*",
					Usage: "Database host, or '*' for any",
				},
				&cli.StringFlag{
					Name:  "db",
					Value: "*",
					Usage: "Database name, or '*' for any",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "*",
					Usage:   "Access role, or '*' for any",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				grantUseCase, err := container.GrantUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevoke(
					ctx,
					grantUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("host"),
					cmd.String("db"),
					cmd.String("role"),
				)
			},
		},
	}
}
